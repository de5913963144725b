// Command memcache-bench drives a configurable mix of read and write
// traffic against a cache server pool and exports the resulting latency,
// status, and pool-health metrics on a Prometheus endpoint.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"runtime/trace"
	"sync"
	"sync/atomic"
	"time"

	"github.com/m-lab/go/flagx"
	"github.com/m-lab/go/prometheusx"
	"github.com/m-lab/go/rtx"
	"github.com/m-lab/uuid"

	memcache "github.com/m-lab/memcache-info"
	"github.com/m-lab/memcache-info/zstd"
)

func init() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

var (
	servers     = flag.String("servers", "127.0.0.1:11211", "whitespace-separated list of host[:port] cache servers")
	protocol    = flag.String("protocol", "binary", "wire protocol: binary or text")
	promPort    = flag.String("prom", ":9090", "Prometheus metrics export address and port")
	numWorkers  = flag.Int("workers", 8, "number of concurrent client goroutines")
	numKeys     = flag.Int("keys", 1000, "size of the keyspace each worker reads and writes")
	valueSize   = flag.Int("value-size", 128, "size in bytes of the value written by set operations")
	getFraction = flag.Float64("get-fraction", 0.9, "fraction of ops that are get rather than set, in [0,1]")
	duration    = flag.Duration("duration", 30*time.Second, "how long to run before stopping, 0 means run until reps is reached")
	reps        = flag.Int64("reps", 0, "total op count across all workers; 0 means unbounded (bounded by -duration instead)")
	enableTrace = flag.Bool("trace", false, "write a runtime/trace profile to trace.out")
	resultsLog  = flag.String("results-log", "", "if set, write a compressed time series of cumulative op counts to this .zst file")

	ctx, cancel = context.WithCancel(context.Background())
)

// logResults writes one line per tick with the cumulative op count, piped
// through an external zstd process, until stop is closed.
func logResults(filename string, ops *int64, stop <-chan struct{}) {
	w, err := zstd.NewWriter(filename)
	if err != nil {
		log.Printf("results log disabled: %v", err)
		return
	}
	defer w.Close()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			line := fmt.Sprintf("%d %d\n", now.Unix(), atomic.LoadInt64(ops))
			if _, err := w.Write([]byte(line)); err != nil {
				log.Printf("results log write failed: %v", err)
				return
			}
		}
	}
}

func parseProtocol(s string) memcache.Protocol {
	if s == "text" {
		return memcache.Text
	}
	return memcache.Binary
}

func worker(id int, cl *memcache.Client, ops *int64, stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	runID := uuid.FromCookie(uint64(id))
	rng := rand.New(rand.NewSource(int64(id) + 1))
	value := make([]byte, *valueSize)
	rng.Read(value)

	for {
		select {
		case <-stop:
			return
		default:
		}
		if *reps > 0 && atomic.LoadInt64(ops) >= *reps {
			return
		}
		key := fmt.Sprintf("%s-%d", runID, rng.Intn(*numKeys))
		if rng.Float64() < *getFraction {
			if _, err := cl.GetItem(key); err != nil {
				log.Printf("worker %d: get %s: %v", id, key, err)
			}
		} else {
			if _, err := cl.Set(key, value, 0, 0, 0); err != nil {
				log.Printf("worker %d: set %s: %v", id, key, err)
			}
		}
		atomic.AddInt64(ops, 1)
	}
}

func main() {
	flag.Parse()
	flagx.ArgsFromEnv(flag.CommandLine)

	runtime.SetBlockProfileRate(1000000)
	runtime.SetMutexProfileFraction(1000)

	promSrv := prometheusx.MustStartPrometheus(*promPort)
	defer promSrv.Shutdown(ctx)

	if *enableTrace {
		traceFile, err := os.Create("trace.out")
		rtx.Must(err, "Could not create trace file")
		rtx.Must(trace.Start(traceFile), "failed to start trace")
		defer trace.Stop()
	}

	cl, err := memcache.Connect(*servers, memcache.WithProtocol(parseProtocol(*protocol)))
	rtx.Must(err, "Could not connect to %q", *servers)
	defer cl.Quit()

	var ops int64
	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < *numWorkers; i++ {
		wg.Add(1)
		go worker(i, cl, &ops, stop, &wg)
	}
	if *resultsLog != "" {
		go logResults(*resultsLog, &ops, stop)
	}

	if *duration > 0 {
		go func() {
			<-time.After(*duration)
			close(stop)
		}()
	}

	wg.Wait()
	cancel()
	log.Printf("completed %d ops across %d workers", atomic.LoadInt64(&ops), *numWorkers)
}
