// Package routes holds the HTTP handlers.
package routes

// errorResponse is the body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}
