package addr_test

import (
	"testing"

	"github.com/m-lab/memcache-info/addr"
)

func TestParseHostPort(t *testing.T) {
	cases := []struct {
		in   string
		want addr.ServerAddress
	}{
		{"127.0.0.1:11212", addr.ServerAddress{Host: "127.0.0.1", Port: 11212}},
		{"cache-3:11213", addr.ServerAddress{Host: "cache-3", Port: 11213}},
		{"127.0.0.1", addr.ServerAddress{Host: "127.0.0.1", Port: 9999}},
		{"host:", addr.ServerAddress{Host: "host", Port: 9999}},
		{"host:notanumber", addr.ServerAddress{Host: "host", Port: 9999}},
		{"  host : 123  ", addr.ServerAddress{Host: "host", Port: 123}},
		{":123", addr.ServerAddress{Host: "", Port: 123}},
	}
	for _, c := range cases {
		got := addr.ParseHostPort(c.in, 9999)
		if got != c.want {
			t.Errorf("ParseHostPort(%q, 9999) = %+v, want %+v", c.in, got, c.want)
		}
	}
}

func TestParseServerList(t *testing.T) {
	list := addr.ParseServerList("127.0.0.1   10.0.0.2:11212  cache-3:11213 ")
	want := []addr.ServerAddress{
		{Host: "127.0.0.1", Port: addr.DefaultPort},
		{Host: "10.0.0.2", Port: 11212},
		{Host: "cache-3", Port: 11213},
	}
	if len(list) != len(want) {
		t.Fatalf("ParseServerList returned %d entries, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, list[i], want[i])
		}
	}
}

func TestParseServerListEmpty(t *testing.T) {
	if got := addr.ParseServerList("   "); len(got) != 0 {
		t.Errorf("ParseServerList(whitespace) = %v, want empty", got)
	}
}
