package production

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/comalice/mstate"
)

// PublishedChange is a state change as seen by subscribers outside the host
// loop.
type PublishedChange struct {
	ID        uuid.UUID
	Machine   mstate.MachineID
	From      string
	To        string
	Trigger   string
	Args      []int
	Timestamp time.Time
}

// ChannelPublisher forwards state changes to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan<- PublishedChange
	dropped uint64
}

// NewChannelPublisher creates a ChannelPublisher with the given output channel.
func NewChannelPublisher(ch chan<- PublishedChange) *ChannelPublisher {
	return &ChannelPublisher{ch: ch}
}

func (p *ChannelPublisher) Publish(ctx context.Context, change PublishedChange) error {
	select {
	case p.ch <- change:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.dropped++
		return nil
	}
}

// Dropped returns how many changes were discarded because the channel was
// full. Only meaningful on the publishing goroutine.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped }

// Attach publishes every state change of e. Names are resolved at publish
// time.
func (p *ChannelPublisher) Attach(e *mstate.Engine) {
	e.OnStateChange(func(c mstate.StateChange) {
		_ = p.Publish(context.Background(), PublishedChange{
			ID:        uuid.New(),
			Machine:   c.Machine,
			From:      e.NameOf(c.From),
			To:        e.NameOf(c.To),
			Trigger:   e.NameOf(c.Trigger),
			Args:      append([]int(nil), c.Args...),
			Timestamp: time.Now(),
		})
	})
}

func (p *ChannelPublisher) Close() error {
	close(p.ch)
	return nil
}
