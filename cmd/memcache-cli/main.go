// Command memcache-cli runs a single cache operation against a server pool
// and prints the result. The -op flag selects the operation.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/gocarina/gocsv"
	"github.com/m-lab/go/rtx"

	memcache "github.com/m-lab/memcache-info"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	servers  = flag.String("servers", "127.0.0.1:11211", "whitespace-separated list of host[:port] cache servers")
	protocol = flag.String("protocol", "binary", "wire protocol: binary or text")
	op       = flag.String("op", "get", "operation: get, set, add, replace, delete, incr, decr, touch, stats, version, flush")
	key      = flag.String("key", "", "key to operate on")
	value    = flag.String("value", "", "value for set/add/replace")
	flags    = flag.Uint64("flags", 0, "client flags to store alongside the value")
	exptime  = flag.Uint64("exptime", 0, "expiration time in seconds (0 = never)")
	amount   = flag.Uint64("amount", 1, "amount for incr/decr")
	initial  = flag.Uint64("initial", 0, "initial value for incr/decr when the key is missing")
	delay    = flag.Uint64("delay", 0, "delay in seconds for flush")
	asCSV    = flag.Bool("csv", false, "emit stats output as CSV instead of name=value lines")
)

// statRow adapts a StatEntry for gocsv, which needs exported struct fields
// with csv tags, not the wire.StatEntry shape directly.
type statRow struct {
	Server string `csv:"server"`
	Name   string `csv:"name"`
	Value  string `csv:"value"`
}

func parseProtocol(s string) memcache.Protocol {
	if s == "text" {
		return memcache.Text
	}
	return memcache.Binary
}

func main() {
	flag.Parse()

	cl, err := memcache.Connect(*servers, memcache.WithProtocol(parseProtocol(*protocol)))
	rtx.Must(err, "Could not connect to %q", *servers)
	defer cl.Quit()

	switch *op {
	case "get":
		item, err := cl.GetItem(*key)
		rtx.Must(err, "get %q failed", *key)
		if item == nil {
			fmt.Println("(miss)")
			return
		}
		fmt.Printf("%s flags=%d cas=%d: %s\n", item.Key, item.Flags, item.CAS, item.Data)

	case "set":
		res, err := cl.Set(*key, []byte(*value), 0, uint32(*flags), uint32(*exptime))
		rtx.Must(err, "set %q failed", *key)
		fmt.Println(resultLine(res))

	case "add":
		res, err := cl.Add(*key, []byte(*value), 0, uint32(*flags), uint32(*exptime))
		rtx.Must(err, "add %q failed", *key)
		fmt.Println(resultLine(res))

	case "replace":
		res, err := cl.Replace(*key, []byte(*value), 0, uint32(*flags), uint32(*exptime))
		rtx.Must(err, "replace %q failed", *key)
		fmt.Println(resultLine(res))

	case "delete":
		status, err := cl.Delete(*key)
		rtx.Must(err, "delete %q failed", *key)
		fmt.Println(status)

	case "incr":
		res, err := cl.Incr(*key, *amount, *initial, uint32(*exptime))
		rtx.Must(err, "incr %q failed", *key)
		fmt.Println(resultLine(res))

	case "decr":
		res, err := cl.Decr(*key, *amount, *initial, uint32(*exptime))
		rtx.Must(err, "decr %q failed", *key)
		fmt.Println(resultLine(res))

	case "touch":
		status, err := cl.Touch(*key, uint32(*exptime))
		rtx.Must(err, "touch %q failed", *key)
		fmt.Println(status)

	case "flush":
		for i, status := range cl.Flush(uint32(*delay)) {
			fmt.Printf("server[%d]: %s\n", i, status)
		}

	case "version":
		for i, v := range cl.Version() {
			fmt.Printf("server[%d]: %s\n", i, v)
		}

	case "stats":
		printStats(cl)

	default:
		fmt.Fprintf(os.Stderr, "unknown -op %q\n", *op)
		os.Exit(2)
	}
}

func resultLine(res memcache.OpResult) string {
	return res.Status.String() + " cas=" + strconv.FormatUint(res.Value, 10)
}

func printStats(cl *memcache.Client) {
	allStats := cl.Stats()
	if !*asCSV {
		for i, entries := range allStats {
			for _, e := range entries {
				fmt.Printf("server[%d] %s=%s\n", i, e.Name, e.Value)
			}
		}
		return
	}
	var rows []*statRow
	for i, entries := range allStats {
		server := strconv.Itoa(i)
		for _, e := range entries {
			rows = append(rows, &statRow{Server: server, Name: e.Name, Value: e.Value})
		}
	}
	rtx.Must(gocsv.Marshal(rows, os.Stdout), "Could not write stats as CSV")
}
