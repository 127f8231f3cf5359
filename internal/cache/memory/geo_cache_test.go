package memory

import (
	"context"
	"testing"

	"github.com/velotrail/velotrail/internal/domain"
)

func newPlace(name string, lat, lon float64) *domain.Place {
	return &domain.Place{Lat: lat, Lon: lon, Name: name, FullAddress: name + ", Spain"}
}

func TestSetGet_HitMiss(t *testing.T) {
	c := NewGeoLRU(2)
	ctx := context.Background()

	// miss
	if _, ok := c.Get(ctx, 40.416, -3.703); ok {
		t.Fatalf("expected miss before Set")
	}

	// hit после Set
	_ = c.Set(ctx, 40.416, -3.703, newPlace("Madrid", 40.416, -3.703))
	got, ok := c.Get(ctx, 40.416, -3.703)
	if !ok || got.Name != "Madrid" {
		t.Fatalf("expected hit for Madrid, got %+v ok=%v", got, ok)
	}
}

func TestKeyRounding_NearbyCoordsShareEntry(t *testing.T) {
	c := NewGeoLRU(10)
	ctx := context.Background()

	// Обе пары округляются до "40.417,-3.704".
	_ = c.Set(ctx, 40.416775, -3.703790, newPlace("Sol", 40.416775, -3.703790))
	got, ok := c.Get(ctx, 40.416812, -3.703755)
	if !ok || got.Name != "Sol" {
		t.Fatalf("nearby coords must hit the same entry, got %+v ok=%v", got, ok)
	}

	if k1, k2 := Key(40.416775, -3.703790), Key(40.416812, -3.703755); k1 != k2 || k1 != "40.417,-3.704" {
		t.Fatalf("keys must match: %q vs %q", k1, k2)
	}
}

func TestCapacityBound(t *testing.T) {
	c := NewGeoLRU(3)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		lat := float64(i)
		_ = c.Set(ctx, lat, 0, newPlace("p", lat, 0))
		if size := c.Stats(ctx).Size; size > 3 {
			t.Fatalf("size %d exceeds maxSize after insert %d", size, i)
		}
	}
	if size := c.Stats(ctx).Size; size != 3 {
		t.Fatalf("want size 3 after overflow, got %d", size)
	}
}

func TestLRUEviction(t *testing.T) {
	c := NewGeoLRU(2)
	ctx := context.Background()

	_ = c.Set(ctx, 1, 1, newPlace("A", 1, 1))
	_ = c.Set(ctx, 2, 2, newPlace("B", 2, 2))
	// A сделать «свежим»
	if _, ok := c.Get(ctx, 1, 1); !ok {
		t.Fatalf("expected hit for A")
	}
	// Добавляем C — вытеснит B (самый давний)
	_ = c.Set(ctx, 3, 3, newPlace("C", 3, 3))

	if c.Has(ctx, 2, 2) {
		t.Fatalf("expected B to be evicted")
	}
	if !c.Has(ctx, 1, 1) || !c.Has(ctx, 3, 3) || c.ll.Len() != 2 {
		t.Fatalf("expected A & C to stay in cache")
	}
}

func TestHas_DoesNotPromoteOrCount(t *testing.T) {
	c := NewGeoLRU(2)
	ctx := context.Background()

	_ = c.Set(ctx, 1, 1, newPlace("A", 1, 1))
	_ = c.Set(ctx, 2, 2, newPlace("B", 2, 2))

	// Has(A) не должен продвигать A: после вставки C вытесняется именно A.
	if !c.Has(ctx, 1, 1) {
		t.Fatalf("expected A present")
	}
	_ = c.Set(ctx, 3, 3, newPlace("C", 3, 3))
	if c.Has(ctx, 1, 1) {
		t.Fatalf("Has must not refresh recency: A should be evicted")
	}

	stats := c.Stats(ctx)
	if stats.Hits != 0 || stats.Misses != 0 {
		t.Fatalf("Has must not touch hit/miss counters: %+v", stats)
	}
}

func TestHitMissCounters(t *testing.T) {
	c := NewGeoLRU(5)
	ctx := context.Background()

	_ = c.Set(ctx, 40.416, -3.703, newPlace("Madrid", 40.416, -3.703))
	c.Get(ctx, 40.416, -3.703)
	c.Get(ctx, 40.416, -3.703)

	stats := c.Stats(ctx)
	if stats.Hits != 2 || stats.Misses != 0 {
		t.Fatalf("want hits=2 misses=0, got hits=%d misses=%d", stats.Hits, stats.Misses)
	}
	if stats.HitRate != 1 {
		t.Fatalf("want hit rate 1, got %v", stats.HitRate)
	}
}

func TestClear_KeepsCounters(t *testing.T) {
	c := NewGeoLRU(5)
	ctx := context.Background()

	_ = c.Set(ctx, 1, 1, newPlace("A", 1, 1))
	c.Get(ctx, 1, 1) // hit
	c.Get(ctx, 9, 9) // miss

	c.Clear(ctx)

	stats := c.Stats(ctx)
	if stats.Size != 0 {
		t.Fatalf("want empty cache after Clear, got size=%d", stats.Size)
	}
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("counters must survive Clear: %+v", stats)
	}
}

func TestSet_ExistingKeyResetsAccessCount(t *testing.T) {
	c := NewGeoLRU(5)
	ctx := context.Background()

	_ = c.Set(ctx, 1, 1, newPlace("A", 1, 1))
	c.Get(ctx, 1, 1)
	c.Get(ctx, 1, 1)

	_ = c.Set(ctx, 1, 1, newPlace("A2", 1, 1))

	stats := c.Stats(ctx)
	if len(stats.Entries) != 1 || stats.Entries[0].AccessCount != 1 {
		t.Fatalf("re-Set must reset accessCount to 1: %+v", stats.Entries)
	}
	got, _ := c.Get(ctx, 1, 1)
	if got.Name != "A2" {
		t.Fatalf("re-Set must replace the value, got %q", got.Name)
	}
}

func TestStats_EntriesOrderedByRecency(t *testing.T) {
	c := NewGeoLRU(3)
	ctx := context.Background()

	_ = c.Set(ctx, 1, 1, newPlace("A", 1, 1))
	_ = c.Set(ctx, 2, 2, newPlace("B", 2, 2))
	c.Get(ctx, 1, 1) // A теперь самая свежая

	stats := c.Stats(ctx)
	if len(stats.Entries) != 2 {
		t.Fatalf("want 2 entries, got %d", len(stats.Entries))
	}
	if stats.Entries[0].Key != Key(1, 1) || stats.Entries[1].Key != Key(2, 2) {
		t.Fatalf("entries must be ordered most-recent first: %+v", stats.Entries)
	}
}

func TestCloneImmutability(t *testing.T) {
	c := NewGeoLRU(1)
	ctx := context.Background()
	orig := newPlace("Z", 1, 1)
	_ = c.Set(ctx, 1, 1, orig)

	// меняем то, что вернул Get — не должно влиять на кэш
	p1, _ := c.Get(ctx, 1, 1)
	p1.Name = "changed"

	p2, _ := c.Get(ctx, 1, 1)
	if p2.Name == "changed" {
		t.Fatalf("cache should return clones, not pointers to internal value")
	}
}

func TestWarmUp(t *testing.T) {
	c := NewGeoLRU(10)
	ctx := context.Background()

	places := []*domain.Place{
		newPlace("A", 1, 1),
		nil,
		newPlace("B", 2, 2),
	}
	if err := c.WarmUp(ctx, places); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !c.Has(ctx, 1, 1) || !c.Has(ctx, 2, 2) {
		t.Fatalf("warm-up must load all non-nil places")
	}
}
