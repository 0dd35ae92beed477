package middleware

// ErrorResponse is the JSON body middleware writes when it rejects a request
// before any handler runs.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}
