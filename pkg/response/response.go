package response

// Envelope is the JSON error body returned by the centralized error handler
// and the auth middleware.
type Envelope struct {
	Success bool        `json:"success"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func Error(code, message string, data interface{}) Envelope {
	return Envelope{
		Success: false,
		Code:    code,
		Message: message,
		Data:    data,
	}
}

func OK(message string, data interface{}) Envelope {
	return Envelope{
		Success: true,
		Code:    "OK",
		Message: message,
		Data:    data,
	}
}
