package apiclient

import "encoding/json"

// Operation names used in errors, logs and metric labels.
const (
	OpList       = "list"
	OpSignup     = "signup"
	OpUnregister = "unregister"
)

// messageResponse is the success body of the mutating endpoints.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the failure body of every endpoint. Detail is usually a
// string but validation failures carry a list, so it is decoded lazily.
type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}
