package domain

import "context"

// Pinger reports whether a backing service is reachable. The health endpoint
// uses it to surface backend connectivity in full mode.
type Pinger interface {
	Ping(ctx context.Context) error
}
