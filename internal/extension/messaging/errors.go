package messaging

// EIP-1193 and JSON-RPC error codes.
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnsupportedMethod = 4200
	CodeDisconnected      = 4900
	CodeInvalidParams     = -32602
	CodeInternal          = -32603
)

// ProviderError is the error object of a provider response.
type ProviderError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *ProviderError) Error() string { return e.Message }

// Unauthorized is sent when a gated method is called without the needed connection.
func Unauthorized() *ProviderError {
	return &ProviderError{
		Code:    CodeUnauthorized,
		Message: "The requested method and/or account has not been authorized by the user.",
	}
}

// InvalidParams is sent for requests rejected by content validation.
func InvalidParams(msg string) *ProviderError {
	return &ProviderError{Code: CodeInvalidParams, Message: msg}
}

// Disconnected is sent when the background cannot be reached.
func Disconnected() *ProviderError {
	return &ProviderError{Code: CodeDisconnected, Message: "The provider is disconnected from all chains."}
}

// UnsupportedMethod is sent for methods the relay does not implement.
func UnsupportedMethod(method string) *ProviderError {
	return &ProviderError{Code: CodeUnsupportedMethod, Message: "The provider does not support the requested method: " + method}
}
