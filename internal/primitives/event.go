// TriggerEvent is the queued stimulus of a state machine.
//
// Events are values. Args is shared with the evaluation callbacks that see the
// event; callers must not modify it after Send.
package primitives

// Reserved trigger ids. They are negative so no interned name can reach them.
const (
	// StartTrigger leaves the pseudostate; Args[0] is the id of the state to enter.
	StartTrigger NameID = -1
	// StopTrigger returns any state to the pseudostate.
	StopTrigger NameID = -2
	// TimeoutTrigger records a state change taken by a state's timeout. It is
	// never queued.
	TimeoutTrigger NameID = -3
)

type TriggerEvent struct {
	Trigger NameID
	Args    []int
}

// NewTriggerEvent creates a trigger event. A nil args list is normalized to empty.
func NewTriggerEvent(trigger NameID, args []int) TriggerEvent {
	if args == nil {
		args = []int{}
	}
	return TriggerEvent{
		Trigger: trigger,
		Args:    args,
	}
}

// IsReserved reports whether the event carries an engine-internal trigger.
func (e TriggerEvent) IsReserved() bool {
	return e.Trigger < NoneID
}
