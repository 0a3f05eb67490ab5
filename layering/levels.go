package layering

import (
	"fmt"
	"slices"
)

// Level identifies where a directive layer came from. Higher levels override
// lower levels when layering.
type Level int

const (
	// LevelUnknown guards against misconfiguration; layers with this level
	// are dropped.
	LevelUnknown Level = iota
	// LevelFile holds file-wide directives.
	LevelFile
	// LevelGroup holds directives attached to a declaration group.
	LevelGroup
	// LevelProperty holds directives attached to a single property.
	LevelProperty
)

func (l Level) String() string {
	switch l {
	case LevelFile:
		return "file"
	case LevelGroup:
		return "group"
	case LevelProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Layer is one source of settings within a chain.
type Layer[T any] struct {
	Level  Level
	Source string
	Value  T
}

func (l Layer[T]) identifier() string {
	return fmt.Sprintf("%s/%s", l.Level, l.Source)
}

// Chain is an ordered layering sequence from strongest to weakest.
type Chain[T any] struct {
	ordered []Layer[T]
}

// NewChain orders layers strongest first, dropping unknown levels and
// duplicate identifiers. Peers keep their relative order.
func NewChain[T any](layers ...Layer[T]) Chain[T] {
	filtered := make([]Layer[T], 0, len(layers))
	seen := map[string]struct{}{}

	for _, layer := range layers {
		if layer.Level == LevelUnknown {
			continue
		}
		id := layer.identifier()
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		filtered = append(filtered, layer)
	}

	slices.SortStableFunc(filtered, func(a, b Layer[T]) int {
		switch {
		case a.Level == b.Level:
			return 0
		case a.Level > b.Level:
			return -1
		default:
			return 1
		}
	})

	return Chain[T]{ordered: filtered}
}

// Ordered returns the layers from strongest (index 0) to weakest.
func (c Chain[T]) Ordered() []Layer[T] {
	out := make([]Layer[T], len(c.ordered))
	copy(out, c.ordered)
	return out
}

// Resolve merges every layer of the chain into one value.
func (c Chain[T]) Resolve() T {
	values := make([]T, len(c.ordered))
	for i, layer := range c.ordered {
		values[i] = layer.Value
	}
	return MergeLayers(values...)
}
