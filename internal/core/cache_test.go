package core

import (
	"errors"
	"fmt"
	"testing"
)

func loaderFor(views map[string]*View, calls *int) ViewLoader {
	return func(id string) (*View, error) {
		*calls++
		v, ok := views[id]
		if !ok {
			return nil, errors.New("no such document")
		}
		return v, nil
	}
}

func TestViewCache_ReadThrough(t *testing.T) {
	c := NewViewCache(10)
	views := map[string]*View{"a": {Headers: []string{"x"}}}
	calls := 0
	load := loaderFor(views, &calls)

	v1, err := c.GetOrLoad("a", load)
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}
	v2, err := c.GetOrLoad("a", load)
	if err != nil {
		t.Fatalf("GetOrLoad() error = %v", err)
	}

	if calls != 1 {
		t.Errorf("loader calls = %d, want 1", calls)
	}
	if v1 != v2 {
		t.Error("repeated reads should return the same View")
	}

	sum := c.Summary()
	if sum.Hits != 1 || sum.Misses != 1 {
		t.Errorf("Summary() = hits %d misses %d, want 1/1", sum.Hits, sum.Misses)
	}
}

func TestViewCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewViewCache(2)
	views := map[string]*View{}
	for _, id := range []string{"a", "b", "c"} {
		views[id] = &View{Headers: []string{id}}
	}
	calls := 0
	load := loaderFor(views, &calls)

	c.GetOrLoad("a", load)
	c.GetOrLoad("b", load)
	// Touch a so b becomes the eviction candidate
	c.GetOrLoad("a", load)
	c.GetOrLoad("c", load)

	keys := c.Keys()
	if len(keys) != 2 || keys[0] != "c" || keys[1] != "a" {
		t.Fatalf("Keys() = %v, want [c a]", keys)
	}

	// b was evicted, so reading it loads again
	before := calls
	c.GetOrLoad("b", load)
	if calls != before+1 {
		t.Error("evicted entry should reload on next read")
	}
}

func TestViewCache_LoadErrorNotCached(t *testing.T) {
	c := NewViewCache(2)
	calls := 0
	load := loaderFor(map[string]*View{}, &calls)

	if _, err := c.GetOrLoad("missing", load); err == nil {
		t.Fatal("GetOrLoad() expected load error")
	}
	if _, err := c.GetOrLoad("missing", load); err == nil {
		t.Fatal("GetOrLoad() expected load error on retry")
	}
	if calls != 2 {
		t.Errorf("loader calls = %d, want 2 (errors are not cached)", calls)
	}
	if sum := c.Summary(); sum.CurrSize != 0 {
		t.Errorf("CurrSize = %d, want 0", sum.CurrSize)
	}
}

func TestViewCache_RemoveIdempotent(t *testing.T) {
	c := NewViewCache(2)
	calls := 0
	c.GetOrLoad("a", loaderFor(map[string]*View{"a": {}}, &calls))

	if !c.Remove("a") {
		t.Error("Remove() = false for cached id, want true")
	}
	if c.Remove("a") {
		t.Error("Remove() = true for already removed id, want false")
	}
	if c.Remove("never-cached") {
		t.Error("Remove() = true for unknown id, want false")
	}
}

func TestViewCache_ClearResetsCounters(t *testing.T) {
	c := NewViewCache(4)
	calls := 0
	load := loaderFor(map[string]*View{"a": {}, "b": {}}, &calls)
	c.GetOrLoad("a", load)
	c.GetOrLoad("a", load)
	c.GetOrLoad("b", load)

	c.Clear()

	sum := c.Summary()
	if sum.Hits != 0 || sum.Misses != 0 || sum.CurrSize != 0 {
		t.Errorf("Summary() after Clear = %+v, want zeroed counters", sum)
	}
	if len(c.Keys()) != 0 {
		t.Error("Keys() after Clear should be empty")
	}
}

func TestViewCache_MinimumCapacity(t *testing.T) {
	c := NewViewCache(0)
	if got := c.Summary().MaxSize; got != 1 {
		t.Errorf("MaxSize = %d, want 1", got)
	}
}

func TestViewCache_SummaryTracksSize(t *testing.T) {
	c := NewViewCache(3)
	calls := 0
	views := map[string]*View{}
	for i := 0; i < 5; i++ {
		views[fmt.Sprintf("doc-%d", i)] = &View{}
	}
	load := loaderFor(views, &calls)
	for i := 0; i < 5; i++ {
		c.GetOrLoad(fmt.Sprintf("doc-%d", i), load)
	}

	sum := c.Summary()
	if sum.CurrSize != 3 {
		t.Errorf("CurrSize = %d, want 3", sum.CurrSize)
	}
	if sum.MaxSize != 3 {
		t.Errorf("MaxSize = %d, want 3", sum.MaxSize)
	}
	if sum.Misses != 5 {
		t.Errorf("Misses = %d, want 5", sum.Misses)
	}
}
