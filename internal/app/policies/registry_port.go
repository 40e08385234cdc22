package policies

import "context"

// ConnectionRegistry tracks live notification connections by user id. An
// explicit collaborator rather than a process-global map; handlers push
// booking updates to hosts through it and never touch the sockets.
type ConnectionRegistry interface {
	Notify(ctx context.Context, userID string, event string, payload any) error
	Connected(userID string) bool
}
