package extensibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChannelEventSource(t *testing.T) {
	ch := make(chan Trigger, 1)
	s := NewChannelEventSource(ch)
	ch <- Trigger{Machine: 2, Name: "go", Args: []int{1}}

	select {
	case ev := <-s.Events():
		assert.Equal(t, Trigger{Machine: 2, Name: "go", Args: []int{1}}, ev)
	default:
		t.Fatal("no trigger")
	}
}

func TestTimerEventSource(t *testing.T) {
	s := NewTimerEventSource(Trigger{Machine: 1, Name: "tick", Args: []int{9}}, 20*time.Millisecond)
	defer s.Stop()

	for i := 0; i < 2; i++ {
		select {
		case ev := <-s.Events():
			assert.Equal(t, "tick", ev.Name)
			assert.Equal(t, []int{9}, ev.Args)
		case <-time.After(time.Second):
			t.Fatalf("no trigger %d", i)
		}
	}
}

func TestTimerEventSource_Stop(t *testing.T) {
	s := NewTimerEventSource(Trigger{Name: "tick"}, 5*time.Millisecond)
	s.Stop()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Stop")
		}
	}
}
