// Command triton-bench drives an engine through a synthetic frame loop and
// reports arena and store statistics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/hupe1980/triton"
	"github.com/hupe1980/triton/config"
	"github.com/hupe1980/triton/prom"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	app := kingpin.New("triton-bench", "Run a synthetic frame loop against a triton engine.")
	app.HelpFlag.Short('h')

	var (
		cfgPath  = app.Flag("config", "Engine descriptor (.toml, .yaml or .yml).").Short('c').ExistingFile()
		frames   = app.Flag("frames", "Number of frames to simulate.").Default("600").Int()
		spawn    = app.Flag("spawn", "Entities spawned per frame.").Default("56").Int()
		despawn  = app.Flag("despawn", "Entities despawned per frame.").Default("48").Int()
		seed     = app.Flag("seed", "Random seed.").Default("1").Uint64()
		listen   = app.Flag("listen", "Serve /metrics on this address, overriding the descriptor.").String()
		interval = app.Flag("frame-interval", "Minimum duration of a frame.").Default("0s").Duration()
	)

	kingpin.MustParse(app.Parse(os.Args[1:]))

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			exitWithErr(err)
		}
	}
	if *listen != "" {
		cfg.Metrics.Listen = *listen
	}

	eng, err := triton.New(triton.WithConfig(cfg))
	if err != nil {
		exitWithErr(err)
	}

	stop := serveMetrics(eng, cfg)

	b, err := newBench(eng, benchConfig{
		Spawn:    *spawn,
		Despawn:  *despawn,
		Seed:     *seed,
		Interval: *interval,
	})
	if err != nil {
		_ = eng.Close()
		exitWithErr(err)
	}

	start := time.Now()
	runErr := b.run(context.Background(), *frames)
	elapsed := time.Since(start)

	report(b, eng.Snapshot(), *frames, elapsed)

	closeErr := errors.Join(b.close(), eng.Close())
	stop()

	if err := errors.Join(runErr, closeErr); err != nil {
		exitWithErr(err)
	}
}

func serveMetrics(eng *triton.Engine, cfg *config.Config) func() {
	if cfg.Metrics.Listen == "" {
		return func() {}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		prom.NewCollector(eng, prometheus.Labels{"engine": cfg.Name}),
		collectors.NewGoCollector(),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			eng.Logger().Error("metrics server failed", "addr", srv.Addr, "error", err)
		}
	}()
	eng.Logger().Info("serving metrics", "addr", srv.Addr)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

func report(b *bench, s *triton.Snapshot, frames int, elapsed time.Duration) {
	fmt.Printf("frames:        %d in %v (%.0f fps)\n", frames, elapsed.Round(time.Millisecond), float64(frames)/elapsed.Seconds())
	fmt.Printf("entities:      %d live, %d spawned, %d despawned\n", b.entities.Len(), b.spawned, b.despawned)
	fmt.Printf("projectiles:   %d live\n", b.projectiles.Live())
	fmt.Printf("collisions:    %d events\n", b.collisions)
	fmt.Printf("identifiers:   %d issued over %d seeds\n", s.IdentifiersIssued, s.IdentifierSeeds)
	fmt.Printf("arena:         %s\n", s.Arena)
	fmt.Printf("arena peak:    %s used\n", humanize.IBytes(b.peak))
	fmt.Printf("workers:       %d tasks, %d panics\n", s.Workers.Executed, s.Workers.Panics)
}

func exitWithErr(err error) {
	fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
