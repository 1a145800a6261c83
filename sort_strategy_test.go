package main

import (
	"reflect"
	"testing"

	"zoomimage/imagesource"
)

func pathsOf(paths ...string) []ImagePath {
	out := make([]ImagePath, len(paths))
	for i, p := range paths {
		out[i] = imagesource.FilePath(p)
	}
	return out
}

func pathsToStrings(paths []ImagePath) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = p.Path
	}
	return out
}

func TestSortStrategies(t *testing.T) {
	input := []string{"test/01.png", "test/04.zip", "test/08.png", "test/09.png", "test/2.png", "test/３.png"}

	tests := []struct {
		method   int
		name     string
		expected []string
	}{
		{SortNatural, "Natural", []string{"test/01.png", "test/2.png", "test/04.zip", "test/08.png", "test/09.png", "test/３.png"}},
		{SortSimple, "Simple", []string{"test/01.png", "test/04.zip", "test/08.png", "test/09.png", "test/2.png", "test/３.png"}},
		{SortEntryOrder, "Entry Order", input},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			strategy := GetSortStrategy(tt.method)
			if strategy.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", strategy.Name(), tt.name)
			}
			if strategy.ID() != tt.method {
				t.Errorf("ID() = %d, want %d", strategy.ID(), tt.method)
			}

			images := pathsOf(input...)
			original := pathsOf(input...)
			result := strategy.Sort(images)
			if got := pathsToStrings(result); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Sort() = %v, want %v", got, tt.expected)
			}
			if !reflect.DeepEqual(images, original) {
				t.Error("Input slice was modified - should be immutable")
			}

			if empty := strategy.Sort(nil); empty == nil || len(empty) != 0 {
				t.Errorf("Sort(nil) = %v, want empty non-nil slice", empty)
			}
		})
	}
}

func TestSortKeepsArchiveEntries(t *testing.T) {
	images := []ImagePath{
		imagesource.EntryOf("book.zip", "p10.png"),
		imagesource.EntryOf("book.zip", "p2.png"),
	}
	result := GetSortStrategy(SortNatural).Sort(images)
	if result[0].EntryPath != "p2.png" || result[1].ArchivePath != "book.zip" {
		t.Errorf("unexpected order: %v", pathsToStrings(result))
	}
}

func TestGetSortStrategyFallback(t *testing.T) {
	if got := GetSortStrategy(99).ID(); got != SortNatural {
		t.Errorf("GetSortStrategy(99).ID() = %d, want %d", got, SortNatural)
	}
	if got := len(GetAllSortStrategies()); got != 3 {
		t.Errorf("GetAllSortStrategies() has %d entries, want 3", got)
	}
	for method, want := range map[int]int{SortNatural: SortSimple, SortSimple: SortEntryOrder, SortEntryOrder: SortNatural} {
		if got := nextSortMethod(method); got != want {
			t.Errorf("nextSortMethod(%d) = %d, want %d", method, got, want)
		}
	}
	if getSortMethodName(SortEntryOrder) != "Entry Order" {
		t.Errorf("getSortMethodName(SortEntryOrder) = %q", getSortMethodName(SortEntryOrder))
	}
}
