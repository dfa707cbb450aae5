package production

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/mstate"
	"github.com/comalice/mstate/internal/extensibility"
	"github.com/comalice/mstate/internal/primitives"
)

const pumpYAML = `
machine: 3
initial: Slow
states:
  - name: Slow
    entry: [mark-slow]
    do:
      - every: 500
        action: noop
    transitions:
      - targets: [Fast]
        guard: counter >= 6
  - name: Fast
    entry: [mark-fast]
    transitions:
      - trigger: route
        targets: [Left, Right]
        select: "args[0] > 10 ? 1 : 0"
        actions: [mark-route]
      - trigger: halt
        targets: [Slow]
        guard: "'armed' in vars && vars.armed == true"
`

type loaderFixture struct {
	engine *mstate.Engine
	now    int64
	trace  []string
	loader *Loader
}

func newLoaderFixture(t *testing.T) *loaderFixture {
	t.Helper()
	f := &loaderFixture{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.engine = mstate.New(
		mstate.WithLogger(logger),
		mstate.WithClock(mstate.ClockFunc(func() int64 { return f.now })),
	)

	actions := extensibility.Builtins(logger)
	for _, name := range []string{"mark-slow", "mark-fast", "mark-route"} {
		actions.MustRegister(name, func(c extensibility.Call) {
			f.trace = append(f.trace, name)
		})
	}
	var err error
	f.loader, err = NewLoader(extensibility.NewLoggingActions(actions, logger), logger)
	require.NoError(t, err)
	return f
}

func (f *loaderFixture) advance(ms int64) {
	f.now += ms
	f.engine.IdleTick()
	drain(f.engine)
}

func TestLoader_DeclareYAML(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := DecodeYAML([]byte(pumpYAML))
	require.NoError(t, err)
	require.NoError(t, f.loader.Declare(f.engine, cfg))

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, cfg.Initial))
	drain(f.engine)
	assert.Equal(t, "Slow", f.engine.Current(m))

	for i := 0; i < 5; i++ {
		f.advance(500)
	}
	assert.Equal(t, "Slow", f.engine.Current(m))
	f.advance(500)
	assert.Equal(t, "Fast", f.engine.Current(m))
	assert.Equal(t, []string{"mark-slow", "mark-fast"}, f.trace)

	// Guard on a missing variable fails closed.
	require.NoError(t, f.engine.Send(m, "halt"))
	drain(f.engine)
	assert.Equal(t, "Fast", f.engine.Current(m))

	require.NoError(t, f.engine.Send(m, "route", 42))
	drain(f.engine)
	assert.Equal(t, "Right", f.engine.Current(m))
	assert.Equal(t, []string{"mark-slow", "mark-fast", "mark-route"}, f.trace)
}

func TestLoader_SelectAndGuard(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := DecodeYAML([]byte(pumpYAML))
	require.NoError(t, err)
	cfg.Initial = "Fast"
	require.NoError(t, f.loader.Declare(f.engine, cfg))

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, "Fast"))
	require.NoError(t, f.engine.Send(m, "route", 1))
	drain(f.engine)
	assert.Equal(t, "Left", f.engine.Current(m))

	f2 := newLoaderFixture(t)
	require.NoError(t, f2.loader.Declare(f2.engine, cfg))
	f2.engine.Vars(m).Set("armed", true)
	require.NoError(t, f2.engine.Start(m, "Fast"))
	require.NoError(t, f2.engine.Send(m, "halt"))
	drain(f2.engine)
	assert.Equal(t, "Slow", f2.engine.Current(m))
}

func TestLoader_CounterVariable(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := DecodeYAML([]byte(pumpYAML))
	require.NoError(t, err)
	require.NoError(t, f.loader.Declare(f.engine, cfg))

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, "Slow"))
	drain(f.engine)
	f.advance(1500)

	n, ok := f.engine.Vars(m).Int(CounterVar)
	require.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *primitives.MachineConfig)
		is     error
	}{
		{
			name:   "unknown entry action",
			mutate: func(cfg *primitives.MachineConfig) { cfg.States[0].Entry = []string{"explode"} },
			is:     extensibility.ErrUnknownAction,
		},
		{
			name:   "unknown transition action",
			mutate: func(cfg *primitives.MachineConfig) { cfg.States[1].Transitions[0].Actions = []string{"explode"} },
			is:     extensibility.ErrUnknownAction,
		},
		{
			name:   "bad guard",
			mutate: func(cfg *primitives.MachineConfig) { cfg.States[0].Transitions[0].Guard = "counter +" },
		},
		{
			name:   "select not int",
			mutate: func(cfg *primitives.MachineConfig) { cfg.States[1].Transitions[0].Select = "'x'" },
		},
		{
			name:   "invalid document",
			mutate: func(cfg *primitives.MachineConfig) { cfg.Initial = "Nowhere" },
			is:     primitives.ErrInvalidDocument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLoaderFixture(t)
			cfg, err := DecodeYAML([]byte(pumpYAML))
			require.NoError(t, err)
			tt.mutate(cfg)

			err = f.loader.Declare(f.engine, cfg)
			require.Error(t, err)
			if tt.is != nil {
				assert.True(t, errors.Is(err, tt.is), "got %v", err)
			}
			assert.Empty(t, f.engine.Machines(), "nothing declared on error")
		})
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "pump.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(pumpYAML), 0o644))

	cfg, err := ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Machine)
	assert.Len(t, cfg.States, 2)

	jsonPath := filepath.Join(dir, "lamp.json")
	doc := `{"machine": 1, "initial": "Off", "states": [
		{"name": "Off", "transitions": [{"trigger": "toggle", "targets": ["On"]}]},
		{"name": "On", "transitions": [{"trigger": "toggle", "targets": ["Off"]}]}
	]}`
	require.NoError(t, os.WriteFile(jsonPath, []byte(doc), 0o644))
	cfg, err = ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"toggle"}, cfg.TriggerNames())

	_, err = ReadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "lamp.txt")
	require.NoError(t, os.WriteFile(txt, []byte(doc), 0o644))
	_, err = ReadFile(txt)
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("machine: 1\nstates: []\n"), 0o644))
	_, err = ReadFile(bad)
	assert.True(t, errors.Is(err, primitives.ErrInvalidDocument))
}

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pump.yml")
	require.NoError(t, os.WriteFile(path, []byte(pumpYAML), 0o644))

	f := newLoaderFixture(t)
	cfg, err := f.loader.LoadFile(f.engine, path)
	require.NoError(t, err)
	assert.Equal(t, []mstate.MachineID{3}, f.engine.Machines())
	assert.Equal(t, "Slow", cfg.Initial)
}

func TestLoader_BlinkerExample(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := f.loader.LoadFile(f.engine, filepath.Join("..", "..", "examples", "blinker", "blinker.yaml"))
	require.NoError(t, err)

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, cfg.Initial))
	drain(f.engine)
	assert.Equal(t, "Off", f.engine.Current(m))

	require.NoError(t, f.engine.Send(m, "A"))
	require.NoError(t, f.engine.Send(m, "A"))
	drain(f.engine)
	assert.Equal(t, "Slow", f.engine.Current(m))

	for i := 0; i < 6; i++ {
		f.advance(500)
	}
	assert.Equal(t, "Fast", f.engine.Current(m))

	require.NoError(t, f.engine.Send(m, "A", 1))
	drain(f.engine)
	assert.Equal(t, "Slow", f.engine.Current(m))
}

const relayYAML = `
machine: 5
initial: Slow
states:
  - name: Slow
    do:
      - every: 500
        action: noop
    transitions:
      - trigger: go
        targets: [Wait]
  - name: Wait
    timeout:
      after: 2000
      target: Idle
    transitions:
      - targets: [Done]
        guard: counter >= 3
`

func TestLoader_CounterResetOnEntry(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := DecodeYAML([]byte(relayYAML))
	require.NoError(t, err)
	require.NoError(t, f.loader.Declare(f.engine, cfg))

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, "Slow"))
	drain(f.engine)
	for i := 0; i < 4; i++ {
		f.advance(500)
	}
	n, _ := f.engine.Vars(m).Int(CounterVar)
	require.Equal(t, int64(4), n)

	require.NoError(t, f.engine.Send(m, "go"))
	drain(f.engine)

	assert.Equal(t, "Wait", f.engine.Current(m), "Slow's count does not leak into Wait")
	n, ok := f.engine.Vars(m).Int(CounterVar)
	require.True(t, ok)
	assert.Equal(t, int64(0), n)
}

func TestLoader_TimeoutTransition(t *testing.T) {
	f := newLoaderFixture(t)
	cfg, err := DecodeYAML([]byte(relayYAML))
	require.NoError(t, err)
	require.NoError(t, f.loader.Declare(f.engine, cfg))

	m := mstate.MachineID(cfg.Machine)
	require.NoError(t, f.engine.Start(m, "Wait"))
	drain(f.engine)

	f.advance(1999)
	assert.Equal(t, "Wait", f.engine.Current(m))
	f.advance(1)
	assert.Equal(t, "Idle", f.engine.Current(m))
}
