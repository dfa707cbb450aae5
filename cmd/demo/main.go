package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/builder"
	"github.com/comalice/mstate/internal/config"
	"github.com/comalice/mstate/internal/extensibility"
	"github.com/comalice/mstate/internal/logger"
	"github.com/comalice/mstate/internal/production"
	"github.com/comalice/mstate/realtime"
)

const blinker mstate.MachineID = 0

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "demo:", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadEnv(".env"); err != nil {
		return err
	}
	var cfg config.Runtime
	if err := config.Load(&cfg); err != nil {
		return err
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	log := logger.New(
		logger.WithLevel(level),
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithAttr(slog.String("service", "mstate-demo")),
	)

	e := mstate.New(mstate.WithLogger(log), mstate.WithQueueLimit(cfg.QueueLimit))

	changes := make(chan production.PublishedChange, 64)
	production.NewChannelPublisher(changes).Attach(e)

	machine, initial, err := declare(e, cfg.Document, log)
	if err != nil {
		return err
	}

	// Simulated button: press A periodically.
	button := extensibility.NewTimerEventSource(extensibility.Trigger{Machine: machine, Name: "A"}, 1500*time.Millisecond)
	defer button.Stop()

	rt, err := realtime.NewRuntime(e, realtime.Config{
		TickRate:         cfg.TickRate,
		MaxPassesPerWake: cfg.MaxPasses,
	}, realtime.WithEventSource(button))
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	if err := rt.Start(ctx); err != nil {
		return err
	}
	defer rt.Stop()

	if err := rt.StartMachine(machine, initial); err != nil {
		return err
	}

	deadline := time.After(cfg.RunFor)
	for {
		select {
		case c := <-changes:
			fmt.Printf("machine %d: %s -> %s (%s) %s\n", c.Machine, c.From, c.To, c.Trigger, c.ID)
		case <-deadline:
			fmt.Printf("demo complete after %d ticks\n", rt.GetTickNumber())
			return nil
		case <-ctx.Done():
			fmt.Println("shutting down")
			return nil
		}
	}
}

// declare loads the document at path, or the built-in blinker when path is
// empty, and returns the machine to start.
func declare(e *mstate.Engine, path string, log *slog.Logger) (mstate.MachineID, string, error) {
	if path != "" {
		actions := extensibility.NewLoggingActions(extensibility.Builtins(log), log)
		l, err := production.NewLoader(actions, log)
		if err != nil {
			return 0, "", err
		}
		doc, err := l.LoadFile(e, path)
		if err != nil {
			return 0, "", err
		}
		return mstate.MachineID(doc.Machine), doc.Initial, nil
	}

	lit := false
	blink := func(int) {
		lit = !lit
		log.Debug("led", "lit", lit)
	}
	builder.Declare(e, blinker, "Off",
		builder.OnEntry(func() { lit = false }),
		builder.On("A", "On"),
	)
	builder.Declare(e, blinker, "On",
		builder.OnEntry(func() { lit = true }),
		builder.On("A", "Slow"),
		builder.On("B", "Off"),
	)
	var count int
	builder.Declare(e, blinker, "Slow",
		builder.Every(500, func(c int) { count = c; blink(c) }),
		builder.Completion("Fast", builder.WithGuard(func(*mstate.Eval) bool { return count >= 6 })),
		builder.On("A", "Fast"),
		builder.On("B", "Off"),
	)
	builder.Declare(e, blinker, "Fast",
		builder.Every(200, blink),
		builder.On("A", "Off"),
		builder.On("B", "Off"),
	)
	return blinker, "Off", nil
}
