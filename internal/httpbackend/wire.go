package httpbackend

import "github.com/roach88/provtrack/internal/schema"

// SyncRequest is the body of POST /v1/sync.
type SyncRequest struct {
	Records []schema.Record `json:"records"`
}

// SyncResponse answers a successful sync, one receipt per record in order.
type SyncResponse struct {
	Receipts []schema.Receipt `json:"receipts"`
}

// ErrorCode classifies failed requests.
type ErrorCode string

const (
	CodeBadRequest   ErrorCode = "BAD_REQUEST"
	CodeUnauthorized ErrorCode = "UNAUTHORIZED"
	CodeKeyConflict  ErrorCode = "KEY_CONFLICT"
	CodeNotFound     ErrorCode = "NOT_FOUND"
	CodeBackendError ErrorCode = "BACKEND_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}
