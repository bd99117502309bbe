package response

import (
	"printflow/internal/lib/clock"
	apierrors "printflow/internal/lib/errors"
)

type Response struct {
	Data          interface{}  `json:"data,omitempty"`
	Success       bool         `json:"success" validate:"required"`
	StatusMessage string       `json:"status_message"`
	Timestamp     string       `json:"timestamp"`
	Error         *ErrorDetail `json:"error,omitempty"`
	RequestID     string       `json:"request_id,omitempty"`
}

// ErrorDetail provides structured error information in responses
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

func Ok(data interface{}) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: "Success",
		Timestamp:     clock.Now(),
	}
}

func OkWithMessage(data interface{}, message string) Response {
	return Response{
		Data:          data,
		Success:       true,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// Error creates an error response with a simple message
func Error(message string) Response {
	return Response{
		Success:       false,
		StatusMessage: message,
		Timestamp:     clock.Now(),
	}
}

// ErrorFromAPIError creates a response from an APIError
func ErrorFromAPIError(err *apierrors.APIError) Response {
	return Response{
		Success:       false,
		StatusMessage: err.Message,
		Timestamp:     clock.Now(),
		Error: &ErrorDetail{
			Code:    string(err.Code),
			Message: err.Message,
			Details: err.Details,
		},
	}
}

// WithRequestID adds a request ID to the response
func (r Response) WithRequestID(requestID string) Response {
	r.RequestID = requestID
	return r
}
