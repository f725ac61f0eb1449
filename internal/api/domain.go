package api

// Response represents a generic API response for success or error messages.
// Data endpoints marshal their payload shapes directly; this envelope is
// what every error path writes.
type Response struct {
	Success   bool   `json:"success" example:"false"`                                  // Indicates if the operation was successful.
	Message   string `json:"message,omitempty" example:"Operation successful"`         // Optional success message.
	Error     string `json:"error,omitempty" example:"requested item not found"`       // Optional error message.
	RequestID string `json:"request_id,omitempty" example:"hostname/9yHGa2bx-000042"` // Correlates the response with server-side logs.
}
