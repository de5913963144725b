package rcache_test

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/m-lab/memcache-info/rcache"
	"github.com/m-lab/memcache-info/wire"
)

func TestPutAndGet(t *testing.T) {
	c := rcache.New(4)
	item := wire.CachedItem{Key: "key1", Data: []byte("val1"), CAS: 5, Flags: 2}
	c.Put(item)

	got, ok := c.Get("key1")
	if !ok {
		t.Fatal("Get(key1) = not found, want found")
	}
	if diff := deep.Equal(got, item); diff != nil {
		t.Errorf("Get(key1) diff: %v", diff)
	}
}

func TestGetMiss(t *testing.T) {
	c := rcache.New(4)
	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) = found, want not found")
	}
}

func TestPutOverwrites(t *testing.T) {
	c := rcache.New(4)
	c.Put(wire.CachedItem{Key: "key1", Data: []byte("old")})
	c.Put(wire.CachedItem{Key: "key1", Data: []byte("new")})

	got, _ := c.Get("key1")
	if string(got.Data) != "new" {
		t.Errorf("Get(key1).Data = %q, want %q", got.Data, "new")
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}
}

func TestInvalidate(t *testing.T) {
	c := rcache.New(4)
	c.Put(wire.CachedItem{Key: "key1", Data: []byte("val1")})
	c.Invalidate("key1")

	if _, ok := c.Get("key1"); ok {
		t.Error("Get(key1) after Invalidate = found, want not found")
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestInvalidateMissingKeyIsNoop(t *testing.T) {
	c := rcache.New(4)
	c.Invalidate("never-set")
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLenTracksDistinctKeys(t *testing.T) {
	c := rcache.New(4)
	c.Put(wire.CachedItem{Key: "key1"})
	c.Put(wire.CachedItem{Key: "key2"})
	c.Put(wire.CachedItem{Key: "key1"})
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}
