package main

import (
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// SortStrategy orders an image list
type SortStrategy interface {
	// Sort returns a new sorted slice without modifying the original
	Sort(images []ImagePath) []ImagePath
	// Name returns the human-readable name of the strategy
	Name() string
	// ID returns the numeric identifier for config storage
	ID() int
}

// pathSort sorts by comparing paths; a nil compare keeps entry order
type pathSort struct {
	id      int
	name    string
	compare func(a, b string) int
}

func (s pathSort) Sort(images []ImagePath) []ImagePath {
	result := slices.Clone(images)
	if result == nil {
		result = []ImagePath{}
	}
	if s.compare != nil {
		slices.SortStableFunc(result, func(a, b ImagePath) int {
			return s.compare(a.Path, b.Path)
		})
	}
	return result
}

func (s pathSort) Name() string { return s.name }
func (s pathSort) ID() int      { return s.id }

func naturalCompare(a, b string) int {
	switch {
	case natural.Less(a, b):
		return -1
	case natural.Less(b, a):
		return 1
	default:
		return 0
	}
}

var sortStrategies = []SortStrategy{
	pathSort{id: SortNatural, name: "Natural", compare: naturalCompare},
	pathSort{id: SortSimple, name: "Simple", compare: strings.Compare},
	pathSort{id: SortEntryOrder, name: "Entry Order"},
}

// GetSortStrategy returns the strategy for the sort method ID, or natural sort
func GetSortStrategy(sortMethod int) SortStrategy {
	for _, s := range sortStrategies {
		if s.ID() == sortMethod {
			return s
		}
	}
	return sortStrategies[0]
}

// GetAllSortStrategies returns all available sort strategies
func GetAllSortStrategies() []SortStrategy {
	return slices.Clone(sortStrategies)
}

// nextSortMethod returns the sort method after sortMethod, wrapping around
func nextSortMethod(sortMethod int) int {
	return (sortMethod + 1) % len(sortStrategies)
}
