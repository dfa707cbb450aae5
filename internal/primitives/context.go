package primitives

import "sync"

// Vars is the per-machine variable store shared by declaratively loaded
// actions and guard expressions. Backed by sync.Map: actions run on the host
// loop while diagnostics may read from other goroutines.
type Vars struct {
	data sync.Map
}

// NewVars creates an empty store.
func NewVars() *Vars {
	return &Vars{}
}

// Get retrieves a value by key.
func (v *Vars) Get(key string) (any, bool) {
	return v.data.Load(key)
}

// Set stores a value by key.
func (v *Vars) Set(key string, val any) {
	v.data.Store(key, val)
}

// Delete removes a key.
func (v *Vars) Delete(key string) {
	v.data.Delete(key)
}

// Int returns the value stored under key as int64. Missing or non-integer
// values report 0 and false.
func (v *Vars) Int(key string) (int64, bool) {
	raw, ok := v.data.Load(key)
	if !ok {
		return 0, false
	}
	switch n := raw.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case int32:
		return int64(n), true
	default:
		return 0, false
	}
}

// Snapshot returns a copy of the stored values, e.g. to bind them into an
// expression evaluation.
func (v *Vars) Snapshot() map[string]any {
	snap := map[string]any{}
	v.data.Range(func(k, val any) bool {
		snap[k.(string)] = val
		return true
	})
	return snap
}
