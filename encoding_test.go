package memcache_test

import (
	"testing"

	memcache "github.com/m-lab/memcache-info"
)

func TestTrimScalarStripsNULAndWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"42", "42"},
		{"42\x00\x00\x00", "42"},
		{"  42  \x00", "42"},
		{"", ""},
	}
	for _, c := range cases {
		got := string(memcache.TrimScalar([]byte(c.in)))
		if got != c.want {
			t.Errorf("TrimScalar(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAsStringTrims(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("hello\x00\x00")}
	s, ok := memcache.AsString(item)
	if !ok || s != "hello" {
		t.Errorf("AsString = %q, %v, want %q, true", s, ok, "hello")
	}
}

func TestAsInt64(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("-17\x00")}
	v, ok := memcache.AsInt64(item)
	if !ok || v != -17 {
		t.Errorf("AsInt64 = %d, %v, want -17, true", v, ok)
	}
}

func TestAsInt64InvalidPayload(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("not-a-number")}
	if _, ok := memcache.AsInt64(item); ok {
		t.Error("AsInt64 on non-numeric payload = true, want false")
	}
}

func TestAsUint64(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("12345")}
	v, ok := memcache.AsUint64(item)
	if !ok || v != 12345 {
		t.Errorf("AsUint64 = %d, %v, want 12345, true", v, ok)
	}
}

func TestAsFloat64(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("3.5")}
	v, ok := memcache.AsFloat64(item)
	if !ok || v != 3.5 {
		t.Errorf("AsFloat64 = %v, %v, want 3.5, true", v, ok)
	}
}

func TestAsJSONRoundTrips(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
		N    int    `json:"n"`
	}
	item := memcache.CachedItem{Data: []byte(`{"name":"key1","n":7}`)}
	var p payload
	if !memcache.AsJSON(item, &p) {
		t.Fatal("AsJSON returned false on valid payload")
	}
	if p.Name != "key1" || p.N != 7 {
		t.Errorf("AsJSON decoded = %+v", p)
	}
}

func TestAsJSONInvalidPayload(t *testing.T) {
	item := memcache.CachedItem{Data: []byte("not json")}
	var v map[string]interface{}
	if memcache.AsJSON(item, &v) {
		t.Error("AsJSON on invalid payload = true, want false")
	}
}

func TestSetScalarThenGetItemRoundTrips(t *testing.T) {
	fs := newFakeServer(t)
	cl := mustConnect(t, fs.addr())

	if _, err := cl.SetScalar("counter", int64(42), 0, 0, 0); err != nil {
		t.Fatalf("SetScalar: %v", err)
	}
	item, err := cl.GetItem("counter")
	if err != nil || item == nil {
		t.Fatalf("GetItem: %v, %v", item, err)
	}
	v, ok := memcache.AsInt64(*item)
	if !ok || v != 42 {
		t.Errorf("AsInt64(GetItem result) = %d, %v, want 42, true", v, ok)
	}
}

func TestSetJSONThenGetItemRoundTrips(t *testing.T) {
	fs := newFakeServer(t)
	cl := mustConnect(t, fs.addr())

	type payload struct {
		Name string `json:"name"`
	}
	if _, err := cl.SetJSON("key1", payload{Name: "value1"}, 0, 0, 0); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	item, err := cl.GetItem("key1")
	if err != nil || item == nil {
		t.Fatalf("GetItem: %v, %v", item, err)
	}
	var got payload
	if !memcache.AsJSON(*item, &got) || got.Name != "value1" {
		t.Errorf("AsJSON(GetItem result) = %+v", got)
	}
}
