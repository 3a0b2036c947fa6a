package production

import (
	"context"

	"github.com/comalice/statechartx/internal/core"
)

// ChannelPublisher is a stdlib-only implementation that forwards completed
// transitions to a Go channel. Non-blocking publish with drop on
// backpressure.
type ChannelPublisher struct {
	ch chan<- core.TransitionMetadata
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- core.TransitionMetadata) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, metadata core.TransitionMetadata) error {
	select {
	case p.ch <- metadata:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil // Non-blocking drop
	}
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
