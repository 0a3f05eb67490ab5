package storage

import (
	"runtime"
	"sync"
	"weak"

	"github.com/google/uuid"

	"github.com/goliatone/go-assoc"
)

// Table is an associated-storage side table for objects of type O. The zero
// value is not usable; construct with NewTable. Tables are safe for
// concurrent use.
type Table[O any] struct {
	mu      sync.RWMutex
	objects map[weak.Pointer[O]]*slots
}

type slots struct {
	values map[uuid.UUID]slot
}

type slot struct {
	key    assoc.Key
	value  any
	policy assoc.Policy
}

var _ assoc.Storage[struct{}] = (*Table[struct{}])(nil)

// NewTable returns an empty table.
func NewTable[O any]() *Table[O] {
	return &Table[O]{objects: make(map[weak.Pointer[O]]*slots)}
}

// Get returns the value stored for obj under key.
func (t *Table[O]) Get(obj *O, key assoc.Key) (any, bool) {
	if obj == nil {
		return nil, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.objects[weak.Make(obj)]
	if !ok {
		return nil, false
	}
	s, ok := entry.values[key.ID]
	if !ok {
		return nil, false
	}
	return s.value, true
}

// Set stores value for obj under key using policy. A nil value removes the
// slot. Set on a nil object is a no-op.
func (t *Table[O]) Set(obj *O, key assoc.Key, value any, policy assoc.Policy) {
	if obj == nil {
		return
	}
	if isNil(value) {
		t.remove(obj, key)
		return
	}
	if policy.Copies() && !policy.Atomic() {
		value = copyValue(value)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if policy.Copies() && policy.Atomic() {
		value = copyValue(value)
	}
	entry := t.entry(obj)
	entry.values[key.ID] = slot{key: key, value: value, policy: policy}
}

// Policy returns the policy the slot was last written with.
func (t *Table[O]) Policy(obj *O, key assoc.Key) (assoc.Policy, bool) {
	if obj == nil {
		return assoc.PolicyInvalid, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.objects[weak.Make(obj)]
	if !ok {
		return assoc.PolicyInvalid, false
	}
	s, ok := entry.values[key.ID]
	return s.policy, ok
}

// Keys returns the keys currently holding a value for obj.
func (t *Table[O]) Keys(obj *O) []assoc.Key {
	if obj == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.objects[weak.Make(obj)]
	if !ok {
		return nil
	}
	keys := make([]assoc.Key, 0, len(entry.values))
	for _, s := range entry.values {
		keys = append(keys, s.key)
	}
	return keys
}

// Len returns the number of slots held for obj.
func (t *Table[O]) Len(obj *O) int {
	if obj == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.objects[weak.Make(obj)]
	if !ok {
		return 0
	}
	return len(entry.values)
}

// Objects returns the number of objects with at least one slot.
func (t *Table[O]) Objects() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.objects)
}

// Clear removes every slot held for obj.
func (t *Table[O]) Clear(obj *O) {
	if obj == nil {
		return
	}
	t.drop(weak.Make(obj))
}

// entry returns the slot set for obj, creating it and registering the
// collection cleanup on first use. Callers hold t.mu.
func (t *Table[O]) entry(obj *O) *slots {
	ptr := weak.Make(obj)
	if entry, ok := t.objects[ptr]; ok {
		return entry
	}
	entry := &slots{values: make(map[uuid.UUID]slot)}
	t.objects[ptr] = entry
	runtime.AddCleanup(obj, t.drop, ptr)
	return entry
}

func (t *Table[O]) remove(obj *O, key assoc.Key) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ptr := weak.Make(obj)
	entry, ok := t.objects[ptr]
	if !ok {
		return
	}
	delete(entry.values, key.ID)
	if len(entry.values) == 0 {
		delete(t.objects, ptr)
	}
}

func (t *Table[O]) drop(ptr weak.Pointer[O]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objects, ptr)
}
