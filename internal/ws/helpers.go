package ws

import "github.com/google/uuid"

// newConnID tags a connection for the lifetime of its lifecycle events.
func newConnID() string {
	return uuid.NewString()
}
