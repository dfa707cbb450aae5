package extensibility

import (
	"time"

	"github.com/comalice/mstate/internal/core"
)

// Trigger is an external stimulus addressed to one machine.
type Trigger struct {
	Machine core.MachineID
	Name    string
	Args    []int
}

// EventSource feeds triggers from outside the host loop.
type EventSource interface {
	Events() <-chan Trigger
}

// ChannelEventSource is an EventSource backed by a Go channel.
type ChannelEventSource struct {
	ch chan Trigger
}

// NewChannelEventSource wraps ch. Buffer it if producers must not block.
func NewChannelEventSource(ch chan Trigger) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// Events returns the receive side of the channel.
func (s *ChannelEventSource) Events() <-chan Trigger {
	return s.ch
}

// TimerEventSource emits the same trigger periodically. Useful for
// heartbeats and watchdog machines.
type TimerEventSource struct {
	ch      chan Trigger
	trigger Trigger
	ticker  *time.Ticker
	stop    chan struct{}
}

// NewTimerEventSource emits trigger every d.
func NewTimerEventSource(trigger Trigger, d time.Duration) *TimerEventSource {
	t := &TimerEventSource{
		ch:      make(chan Trigger, 10),
		trigger: trigger,
		ticker:  time.NewTicker(d),
		stop:    make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	for {
		select {
		case <-t.ticker.C:
			ev := t.trigger
			ev.Args = append([]int(nil), t.trigger.Args...)
			select {
			case t.ch <- ev:
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Events returns the trigger channel. It is closed by Stop.
func (t *TimerEventSource) Events() <-chan Trigger {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TimerEventSource) Stop() {
	close(t.stop)
}
