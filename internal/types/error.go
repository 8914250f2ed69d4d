package types

import "fmt"

// CustomError is an HTTP error raised by middleware and rendered by the
// application error handler
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (e *CustomError) Error() string {
	return fmt.Sprintf("%d: %s [type: %s]", e.Code, e.Message, e.Type)
}

// StatusCode returns the HTTP status of the error
func (e *CustomError) StatusCode() int {
	return e.Code
}
