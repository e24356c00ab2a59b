package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"github.com/signalsfoundry/dtn-simulator/core"
	"github.com/signalsfoundry/dtn-simulator/internal/logging"
	"github.com/signalsfoundry/dtn-simulator/internal/observability"
	"github.com/signalsfoundry/dtn-simulator/internal/report"
)

func main() {
	scenarioPath := flag.String("scenario", "configs/scenario.json", "path to the scenario JSON file")
	until := flag.Float64("until", 3600, "simulation end time in seconds")
	metricsAddr := flag.String("metrics-addr", "", "serve Prometheus metrics on this address (empty = off)")
	flag.Parse()

	log := logging.NewFromEnv().With(logging.String("run_id", uuid.NewString()))
	ctx := context.Background()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "tracing init failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(ctx, shutdownTracing, log)

	if err := run(ctx, log, *scenarioPath, *until, *metricsAddr); err != nil {
		log.Error(ctx, "simulation failed", logging.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, log logging.Logger, scenarioPath string, until float64, metricsAddr string) error {
	simCtx := core.NewSimContext()

	collector, err := observability.NewSimCollector(simCtx.Clock(), nil)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}
	contacts := report.NewContactReport(simCtx.Clock())

	f, err := os.Open(scenarioPath)
	if err != nil {
		return fmt.Errorf("open scenario: %w", err)
	}
	scenario, err := core.LoadScenario(simCtx, f,
		[]core.ConnectionListener{collector, contacts},
		[]core.UpdateListener{collector})
	f.Close()
	if err != nil {
		return fmt.Errorf("load scenario %q: %w", scenarioPath, err)
	}
	world := scenario.World

	if metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(metricsAddr, collector.Handler()); err != nil {
				log.Warn(ctx, "metrics server stopped", logging.String("error", err.Error()))
			}
		}()
		log.Info(ctx, "serving metrics", logging.String("addr", metricsAddr))
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		world.Cancel()
	}()

	runCtx, span := otel.Tracer("dtn-simulator").Start(ctx, "simulation.run")
	defer span.End()

	log.Info(ctx, "simulation started",
		logging.Int("hosts", scenario.HostCount),
		logging.Any("groups", scenario.Groups),
		logging.Any("until", until))

	wallStart := time.Now()
	updates := 0
	for world.Clock().Time() < until && ctx.Err() == nil {
		t0 := time.Now()
		world.Update(runCtx)
		collector.ObserveUpdate(time.Since(t0))
		updates++
	}

	log.Info(ctx, "simulation finished",
		logging.Any("sim_time", world.Clock().Time()),
		logging.Int("updates", updates),
		logging.Any("wall_time", time.Since(wallStart).String()),
		logging.String("contacts", contacts.Summary()))
	return nil
}
