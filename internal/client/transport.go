// Package client fetches SimpleNet pages for the terminal browser.
package client

import (
	"context"

	"github.com/simplenet-proto/simplenet/internal/protocol"
)

// Transport fetches one page body for a request path. Implementations
// degrade transport faults to displayable responses; an error return
// is reserved for context cancellation and unusable input.
type Transport interface {
	Fetch(ctx context.Context, path string) (*protocol.Response, error)
}
