// bench-workload generates a random workload, optionally writes it to disk and
// runs it in-process while recording heap snapshots and profiles.
//
// Usage:
//
//	go run ./scripts/bench-workload --sets 8 --runs 4000 --steps 500 \
//	  --out /tmp/big.yaml.lz4 --profile-dir docs/profiles/workload
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/safeconv"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
	"github.com/Sumatoshi-tech/runstore/pkg/workload"
)

const maxRunLen = 40

var binaryOps = []string{workload.OpOr, workload.OpXor, workload.OpAnd}

func main() {
	sets := flag.Int("sets", 8, "Number of initial sets")
	runs := flag.Int("runs", 2000, "Upper bound on runs per initial set")
	steps := flag.Int("steps", 200, "Number of steps")
	seed := flag.Uint64("seed", 1, "Random seed")
	out := flag.String("out", "", "Write the generated workload here (.lz4 compresses)")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	cpuProfile := flag.Bool("cpu-profile", false, "Write CPU profile to profile-dir/cpu.prof")

	flag.Parse()

	if *runs < 1 {
		log.Fatal("--runs must be positive")
	}

	if *sets < 2 {
		log.Fatal("--sets must be at least 2")
	}

	if *profileDir != "" {
		if err := os.MkdirAll(*profileDir, 0o755); err != nil {
			log.Fatalf("mkdir profile-dir: %v", err)
		}
	}

	if *cpuProfile {
		if *profileDir == "" {
			log.Fatal("--cpu-profile requires --profile-dir")
		}

		cpuPath := filepath.Join(*profileDir, "cpu.prof")

		cpuFile, cpuErr := os.Create(cpuPath)
		if cpuErr != nil {
			log.Fatalf("create cpu profile: %v", cpuErr)
		}
		defer cpuFile.Close()

		if startErr := pprof.StartCPUProfile(cpuFile); startErr != nil {
			log.Fatalf("start cpu profile: %v", startErr)
		}

		defer pprof.StopCPUProfile()

		log.Printf("CPU profiling enabled -> %s", cpuPath)
	}

	rng := rand.New(rand.NewPCG(*seed, *seed))
	doc := generate(rng, *sets, *runs, *steps)

	var raw bytes.Buffer
	if err := doc.Encode(&raw); err != nil {
		log.Fatalf("encode: %v", err)
	}

	if err := workload.Validate(raw.Bytes()); err != nil {
		log.Fatalf("generated workload is invalid: %v", err)
	}

	if *out != "" {
		if err := writeWorkload(*out, raw.Bytes()); err != nil {
			log.Fatalf("write %s: %v", *out, err)
		}

		log.Printf("wrote %s", *out)
	}

	type heapSnapshot struct {
		label     string
		heapInUse uint64
		heapSys   uint64
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{label: label, heapInUse: m.HeapInuse, heapSys: m.HeapSys})
		log.Printf("  [heap] %-20s inuse=%6.1f MB  sys=%6.1f MB",
			label, float64(m.HeapInuse)/1e6, float64(m.HeapSys)/1e6)
	}

	writeHeapProfile := func(name string) {
		if *profileDir == "" {
			return
		}

		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	runner, err := workload.NewRunner(
		tracenoop.NewTracerProvider().Tracer("bench"),
		metricnoop.NewMeterProvider().Meter("bench"),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	if err != nil {
		log.Fatalf("runner: %v", err)
	}

	takeSnapshot("before_run")
	writeHeapProfile("heap_before_run.prof")

	log.Printf("running %d steps over %d sets", len(doc.Steps), len(doc.Sets))

	start := time.Now()

	res, err := runner.Run(context.Background(), doc)
	if err != nil {
		log.Fatalf("run: %v", err)
	}

	elapsed := time.Since(start)

	takeSnapshot("after_run")
	writeHeapProfile("heap_after_run.prof")

	fmt.Println()
	fmt.Println("=== Step Timings ===")
	fmt.Printf("%-12s %8s %12s %12s\n", "Op", "Steps", "Total(ms)", "Mean(us)")

	byOp := map[string][]time.Duration{}
	order := []string{}

	for _, step := range res.Steps {
		if _, ok := byOp[step.Op]; !ok {
			order = append(order, step.Op)
		}

		byOp[step.Op] = append(byOp[step.Op], step.Duration)
	}

	for _, op := range order {
		var total time.Duration
		for _, d := range byOp[op] {
			total += d
		}

		fmt.Printf("%-12s %8d %12.2f %12.1f\n", op, len(byOp[op]),
			float64(total.Microseconds())/1e3, float64(total.Microseconds())/float64(len(byOp[op])))
	}

	fmt.Println()
	fmt.Printf("total %s, workload %.1f KB\n", elapsed, float64(raw.Len())/1e3)

	for _, s := range snapshots {
		fmt.Printf("%-20s inuse=%.1f MB sys=%.1f MB\n", s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6)
	}
}

func generate(rng *rand.Rand, sets, runs, steps int) *workload.Document {
	doc := &workload.Document{
		Name: fmt.Sprintf("bench-%d-%d-%d", sets, runs, steps),
		Sets: make(map[string]workload.SetSpec, sets),
	}

	names := make([]string, 0, sets)

	for i := range sets {
		name := fmt.Sprintf("s%d", i)
		names = append(names, name)
		doc.Sets[name] = workload.SetSpec{Expr: setexpr.Format(randomStore(rng, 1+rng.IntN(runs)))}
	}

	for range steps {
		pick := func() string { return names[rng.IntN(len(names))] }

		switch n := rng.IntN(10); {
		case n < 3:
			keys := make([]int, 1+rng.IntN(16))
			for i := range keys {
				keys[i] = rng.IntN(rle.MaxKey + 1)
			}

			doc.Steps = append(doc.Steps, workload.Step{Op: workload.OpInsert, Target: pick(), Keys: keys})
		case n < 5:
			doc.Steps = append(doc.Steps, workload.Step{
				Op: workload.OpCount, With: binaryOps[rng.IntN(len(binaryOps))], Args: []string{pick(), pick()},
			})
		default:
			step := workload.Step{Op: binaryOps[rng.IntN(len(binaryOps))], Args: []string{pick(), pick()}}
			if rng.IntN(2) == 0 {
				step.Into = pick()
			}

			doc.Steps = append(doc.Steps, step)
		}
	}

	return doc
}

func randomStore(rng *rand.Rand, runs int) *rle.RunStore {
	store := rle.New()
	runs = min(runs, (rle.MaxKey+1)/2)
	stride := (rle.MaxKey + 1) / runs

	for i := range runs {
		base := i * stride

		width := min(1+rng.IntN(maxRunLen), stride)
		start := base + rng.IntN(stride-width+1)

		for key := start; key < start+width; key++ {
			store.Insert(safeconv.MustIntToUint16(key))
		}
	}

	return store
}

func writeWorkload(path string, raw []byte) error {
	if !strings.HasSuffix(path, workload.CompressedSuffix) {
		return os.WriteFile(path, raw, 0o644)
	}

	var buf bytes.Buffer
	if err := workload.Compress(&buf, raw); err != nil {
		return err
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
