package utils

// Response 统一响应结构，所有接口都返回 { success, message, data }
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// NewSuccessResponse creates a new success Response instance.
func NewSuccessResponse(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewErrorResponse creates a new error Response instance.
func NewErrorResponse(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}
