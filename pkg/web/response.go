// Package web defines common components for a web application.
package web

// Response holds the common response type for all APIs.
type Response struct {
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Error wraps a given err into a json friendly response.
func Error(err error) Response {
	return Response{Error: err.Error()}
}

// Message wraps an informational message into a response.
func Message(msg string) Response {
	return Response{Message: msg}
}
