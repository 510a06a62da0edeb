package services

// Machine-readable error codes surfaced to API clients.
const (
	CodeCartNotFound       = "CART_NOT_FOUND"
	CodeEmptyCart          = "EMPTY_CART"
	CodeItemNotFound       = "ITEM_NOT_FOUND"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeInvalidTransition  = "INVALID_TRANSITION"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeValidation         = "VALIDATION_ERROR"
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
)

// ServiceError is a user-facing, recoverable error carrying the HTTP status
// the controller should answer with.
type ServiceError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *ServiceError) Error() string {
	return e.Message
}

func newServiceError(status int, code, message string) *ServiceError {
	return &ServiceError{StatusCode: status, Code: code, Message: message}
}
