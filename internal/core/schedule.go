package core

// scheduleEntry tracks one timed do-activity of a machine's current state.
type scheduleEntry struct {
	machine  MachineID
	index    int
	interval int64
	next     int64
	counter  int
}

// Schedule is the do-activity table shared by every machine of a registry.
// Entries are rebuilt whenever their machine changes state.
type Schedule struct {
	entries []scheduleEntry
}

// NewSchedule returns an empty table.
func NewSchedule() *Schedule {
	return &Schedule{}
}

// Reset drops the machine's entries and arms one entry per positive interval,
// due one interval after now. intervals is indexed like the state's
// do-activity list.
func (s *Schedule) Reset(machine MachineID, intervals []int64, now int64) {
	kept := s.entries[:0]
	for _, e := range s.entries {
		if e.machine != machine {
			kept = append(kept, e)
		}
	}
	s.entries = kept

	for i, interval := range intervals {
		if interval <= 0 {
			continue
		}
		s.entries = append(s.entries, scheduleEntry{
			machine:  machine,
			index:    i,
			interval: interval,
			next:     now + interval,
		})
	}
}

// Tick advances every due entry. Missed intervals are coalesced: the entry
// counter grows by the number of whole intervals elapsed and deliver is
// called once per due entry with the total since the state was entered.
func (s *Schedule) Tick(now int64, deliver func(machine MachineID, index, counter int)) {
	for i := range s.entries {
		e := &s.entries[i]
		if now < e.next {
			continue
		}
		elapsed := (now-e.next)/e.interval + 1
		e.next += elapsed * e.interval
		e.counter += int(elapsed)
		deliver(e.machine, e.index, e.counter)
	}
}

// Len returns the number of armed entries.
func (s *Schedule) Len() int {
	return len(s.entries)
}

// Count returns the number of armed entries owned by machine.
func (s *Schedule) Count(machine MachineID) int {
	n := 0
	for _, e := range s.entries {
		if e.machine == machine {
			n++
		}
	}
	return n
}
