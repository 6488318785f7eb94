package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/intersect.report/internal/config"
	"github.com/banshee-data/intersect.report/internal/monitoring"
	"github.com/banshee-data/intersect.report/internal/network"
	"github.com/banshee-data/intersect.report/internal/sim"
	"github.com/banshee-data/intersect.report/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to tuning config JSON (defaults apply when empty)")
	layout      = flag.String("layout", network.LayoutGrid2x2, "Network layout to simulate")
	seed        = flag.Int64("seed", 0, "Simulation rng seed")
	speed       = flag.Float64("speed", 1, "Tick cadence multiplier")
	ticks       = flag.Int("ticks", 0, "Run this many ticks headless and exit (0 = run until interrupted)")
	statusEvery = flag.Duration("status-every", 10*time.Second, "Interval between status lines in continuous mode")
	showVersion = flag.Bool("version", false, "Print version and exit")
	verbose     = flag.Bool("v", false, "Enable diagnostic logging")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *verbose {
		monitoring.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		monitoring.SetLogWriters(os.Stderr, nil, nil)
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	engine, err := sim.New(cfg, sim.Options{Layout: *layout, Seed: *seed})
	if err != nil {
		log.Fatalf("failed to build network: %v", err)
	}
	if *speed != 1 {
		if err := engine.SetSpeed(*speed); err != nil {
			log.Fatalf("invalid speed: %v", err)
		}
	}

	if *ticks > 0 {
		runHeadless(engine, *ticks)
		return
	}
	runContinuous(engine)
}

// runHeadless steps the engine a fixed number of ticks on the calling
// goroutine. Combined with -seed this gives bit-identical replays.
func runHeadless(engine *sim.Engine, ticks int) {
	for i := 0; i < ticks; i++ {
		engine.Tick()
	}
	printSummary(engine.Snapshot())
}

func runContinuous(engine *sim.Engine) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engine.Start()
	log.Printf("simulation running (layout %s, seed %d)", *layout, *seed)

	ticker := time.NewTicker(*statusEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			snap := engine.Snapshot()
			log.Printf("t=%.1fs vehicles=%d queued=%d wait=%.1fs congestion=%s",
				snap.SimTimeS, snap.Metrics.VehicleCount, snap.Metrics.TotalQueueLength,
				snap.Metrics.AvgWaitS, snap.Metrics.Congestion)
		case <-ctx.Done():
			engine.Stop()
			log.Print("simulation stopped")
			printSummary(engine.Snapshot())
			return
		}
	}
}

func printSummary(snap *network.State) {
	fmt.Printf("ticks: %d (%.1f simulated seconds)\n", snap.TickCount, snap.SimTimeS)
	fmt.Printf("vehicles: %d active, %d queued\n", snap.Metrics.VehicleCount, snap.Metrics.TotalQueueLength)
	fmt.Printf("avg wait: %.1fs  avg speed: %.1f km/h\n", snap.Metrics.AvgWaitS, snap.Metrics.AvgSpeedKmh)
	fmt.Printf("throughput: %.1f  congestion: %s\n", snap.Metrics.TotalThroughput, snap.Metrics.Congestion)
	for _, id := range snap.IntersectionIDs() {
		ic := snap.Intersections[id]
		fmt.Printf("  %-8s efficiency=%.2f wait=%.1fs throughput=%.1f\n",
			id, ic.Metrics.Efficiency, ic.Metrics.AvgWaitS, ic.Metrics.Throughput)
	}
}
