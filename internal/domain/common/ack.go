package common

// Ack is the acknowledgement body returned by mutating endpoints that do not
// echo a resource (logout, disconnect, delete).
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
