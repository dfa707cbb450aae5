package realtime

import (
	"errors"

	"github.com/comalice/mstate"
)

// ErrInboxFull is returned when the command inbox is at Config.InboxLimit.
var ErrInboxFull = errors.New("runtime inbox full")

type commandKind int

const (
	cmdStart commandKind = iota
	cmdSend
	cmdStop
	cmdCall
)

// command is one request from outside the host loop.
type command struct {
	kind        commandKind
	machine     mstate.MachineID
	name        string
	args        []int
	fn          func(e *mstate.Engine)
	sequenceNum uint64
}

// enqueue appends cmd to the inbox and wakes the loop.
func (rt *Runtime) enqueue(cmd command) error {
	rt.inboxMu.Lock()
	if len(rt.inbox) >= rt.cfg.InboxLimit {
		rt.inboxMu.Unlock()
		return ErrInboxFull
	}
	cmd.sequenceNum = rt.sequenceNum
	rt.sequenceNum++
	rt.inbox = append(rt.inbox, cmd)
	rt.inboxMu.Unlock()

	select {
	case rt.wake <- struct{}{}:
	default:
	}
	return nil
}

// collectCommands atomically takes the inbox, in sequence order.
func (rt *Runtime) collectCommands() []command {
	rt.inboxMu.Lock()
	defer rt.inboxMu.Unlock()
	cmds := rt.inbox
	rt.inbox = make([]command, 0, len(cmds))
	return cmds
}

func (rt *Runtime) apply(cmd command) {
	var err error
	switch cmd.kind {
	case cmdStart:
		err = rt.engine.Start(cmd.machine, cmd.name)
	case cmdSend:
		err = rt.engine.Send(cmd.machine, cmd.name, cmd.args...)
	case cmdStop:
		err = rt.engine.Stop(cmd.machine)
	case cmdCall:
		cmd.fn(rt.engine)
	}
	if err != nil {
		rt.logger.Warn("command rejected",
			"machine", int(cmd.machine),
			"trigger", cmd.name,
			"seq", cmd.sequenceNum,
			"error", err,
		)
	}
}
