package flow

import (
	"fmt"
	"strings"
)

// Collector turns the final slot mapping into the flow's return value
type Collector interface {
	Collect(slots Slots) (any, error)
}

// CollectorFunc adapts a function to the Collector interface
type CollectorFunc func(slots Slots) (any, error)

// Collect calls f(slots)
func (f CollectorFunc) Collect(slots Slots) (any, error) {
	return f(slots)
}

// slotReader is implemented by collectors that know which slots they read,
// letting Build reject references to slots nothing produces
type slotReader interface {
	reads() []string
}

// slotCollector is a built-in collector over a fixed list of slots
type slotCollector struct {
	slots   []string
	collect CollectorFunc
}

func (c slotCollector) Collect(slots Slots) (any, error) {
	return c.collect(slots)
}

func (c slotCollector) reads() []string {
	return c.slots
}

// Slot returns the value of a single slot unchanged
func Slot(name string) Collector {
	return slotCollector{slots: []string{name}, collect: func(slots Slots) (any, error) {
		v, ok := slots.Get(name)
		if !ok {
			return nil, fmt.Errorf("slot %q is not bound", name)
		}
		return v, nil
	}}
}

// Concat concatenates string slots in the given order
func Concat(names ...string) Collector {
	return Join("", names...)
}

// Join concatenates string slots in the given order, separated by sep
func Join(sep string, names ...string) Collector {
	return slotCollector{slots: names, collect: func(slots Slots) (any, error) {
		parts := make([]string, 0, len(names))
		for _, name := range names {
			s, err := slots.String(name)
			if err != nil {
				return nil, err
			}
			parts = append(parts, s)
		}
		return strings.Join(parts, sep), nil
	}}
}

// Merge returns the named slots as a map
func Merge(names ...string) Collector {
	return slotCollector{slots: names, collect: func(slots Slots) (any, error) {
		merged := make(map[string]any, len(names))
		for _, name := range names {
			v, ok := slots.Get(name)
			if !ok {
				return nil, fmt.Errorf("slot %q is not bound", name)
			}
			merged[name] = v
		}
		return merged, nil
	}}
}

// resultCollector returns the declared collector, or the default: the single
// output of the final stage, or a Merge of the final stage's outputs.
func (d *Definition) resultCollector() Collector {
	if d.collector != nil {
		return d.collector
	}
	final := d.stages[len(d.stages)-1]
	if len(final) == 1 {
		return Slot(d.tasks[final[0]].output)
	}
	names := make([]string, len(final))
	for k, i := range final {
		names[k] = d.tasks[i].output
	}
	return Merge(names...)
}
