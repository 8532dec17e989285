package flow

import (
	"fmt"
	"sort"
)

// Slots is a read-only view of a run's named values: flow inputs plus the
// outputs of every completed stage.
type Slots struct {
	values map[string]any
}

func newSlots(values map[string]any) Slots {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Slots{values: copied}
}

// Get returns the value of a slot
func (s Slots) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// String returns the value of a slot as a string
func (s Slots) String(name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("slot %q is not bound", name)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("slot %q is %T, not string", name, v)
	}
	return str, nil
}

// Names returns the bound slot names in sorted order
func (s Slots) Names() []string {
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound slots
func (s Slots) Len() int {
	return len(s.values)
}
