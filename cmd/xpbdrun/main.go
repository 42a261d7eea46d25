// Command xpbdrun is a headless driver for the simulation: it loads a
// config, instantiates one of a few built-in scenes, steps the world for a
// fixed number of rendered frames (or until interrupted), and writes
// telemetry CSVs alongside a copy of the config it ran with.
//
// This is the "runnable end to end" stand-in for a console benchmark
// harness; it drives the simulation through the same World/protocol
// surface an external renderer would, nothing more.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/archlab/xpbd2d/config"
	"github.com/archlab/xpbd2d/model"
	"github.com/archlab/xpbd2d/particle"
	"github.com/archlab/xpbd2d/telemetry"
	"github.com/archlab/xpbd2d/world"
)

func main() {
	configPath := flag.String("config", "", "config YAML overlay (empty = embedded defaults)")
	scene := flag.String("scene", "block", "scene to run: block, pendulum, or cloth")
	ticks := flag.Int("ticks", 1000, "rendered frames to run (0 = run until interrupted)")
	outDir := flag.String("out", "", "directory to write telemetry/perf CSV and a config snapshot (empty = disabled)")
	flag.Parse()

	config.MustInit(*configPath)
	cfg := config.Cfg()

	w := world.New(cfg)
	addScene(w, *scene, cfg)

	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)
	collector := telemetry.NewCollector(cfg.Telemetry.StatsWindowSec, cfg.Derived.DT32)
	output, err := telemetry.NewOutputManager(*outDir)
	if err != nil {
		log.Fatalf("xpbdrun: %v", err)
	}
	if output != nil {
		if err := output.WriteConfig(cfg); err != nil {
			log.Fatalf("xpbdrun: %v", err)
		}
		defer output.Close()
	}
	w.AttachTelemetry(collector, perf, output)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	frame := 0
	for *ticks == 0 || frame < *ticks {
		select {
		case <-ctx.Done():
			slog.Info("xpbdrun: shutdown requested", "frame", frame)
			return
		default:
		}
		w.RunFrame()
		frame++
	}

	slog.Info("xpbdrun: run complete", "scene", *scene, "frames", frame)
}

// addScene instantiates the requested built-in PhysicalModel at a fixed
// world-space offset. cloth is the same pinned grid construction as block,
// just larger, more finely spaced and with zero-compliance (rigid) edges,
// matching the original's own cloth benchmark
// being a bigger instance of its block scene rather than a distinct model.
func addScene(w *world.World, scene string, cfg *config.Config) {
	gravity := particle.Vec2{X: 0, Y: -9.8}
	switch scene {
	case "block":
		m := model.NewBlock(6, 6, 1.0, 1.0, float32(cfg.Compliance.Distance), true, gravity)
		w.AddModel(m, particle.Vec2{X: -3, Y: 10})
	case "cloth":
		m := model.NewBlock(20, 14, 0.5, 1.0, 0, true, gravity)
		w.AddModel(m, particle.Vec2{X: -5, Y: 10})
	case "pendulum":
		m := model.NewChain(10, 1.0, 1.0, float32(cfg.Compliance.Distance), gravity)
		w.AddModel(m, particle.Vec2{X: 0, Y: 10})
	default:
		log.Fatalf("xpbdrun: unknown scene %q (want block, pendulum, or cloth)", scene)
	}
}
