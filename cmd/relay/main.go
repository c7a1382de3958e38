// Command relay is the embedding program spec §1 calls "out of scope" for
// the core: it bootstraps a Runtime, runs the ping/pong-with-link seed
// scenario from spec §8 to demonstrate the process/mailbox/link
// discipline, and optionally exposes the admin/metrics HTTP surface and
// a SQLite audit recorder. Register components, start, wait for signal,
// graceful stop.
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

	"github.com/fluxorio/relay/pkg/admin"
	"github.com/fluxorio/relay/pkg/audit"
	"github.com/fluxorio/relay/pkg/config"
	"github.com/fluxorio/relay/pkg/core"
	"github.com/fluxorio/relay/pkg/process"
	"github.com/fluxorio/relay/pkg/registry"
	"github.com/fluxorio/relay/pkg/runtime"
	"github.com/fluxorio/relay/pkg/telemetry"
)

func main() {
	configPath := flag.String("config", "", "path to a relay config file (.yaml or .json); empty uses defaults plus the flags below")
	adminAddr := flag.String("admin", "", "admin HTTP surface address (e.g. :9090); empty disables it")
	auditPath := flag.String("audit-db", "", "sqlite path for spawn/link/exit audit events; empty disables recording")
	flag.Parse()

	logger := core.NewLogger()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	} else {
		cfg.Admin.Addr = *adminAddr
		if *auditPath != "" {
			cfg.Audit = config.AuditConfig{Driver: "sqlite", DSN: *auditPath}
		}
	}

	flavor := process.FlavorThread
	if cfg.Flavor == "os" {
		flavor = process.FlavorOS
	}

	recorder, err := buildRecorder(cfg.Audit)
	if err != nil {
		log.Fatalf("configure audit recorder: %v", err)
	}
	if closer, ok := recorder.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	rt := runtime.New(runtime.Options{DefaultFlavor: flavor, Logger: logger, Audit: recorder})

	root, err := rt.Bootstrap(func(ctx *process.Context) {})
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	ponger, err := rt.Spawn(root.ID(), "ponger", process.FlavorThread, pongerBody, true)
	if err != nil {
		log.Fatalf("spawn ponger: %v", err)
	}

	_, err = rt.Spawn(root.ID(), "installer", process.FlavorThread, func(ctx *process.Context) {
		_ = ctx.Receive(process.Pattern{process.Lit("pong"), process.AnyProcess()}, func(ctx *process.Context, args []interface{}) error {
			logger.Info("received pong", "from", args[1])
			return process.Exit
		})
		_ = ctx.Send(ponger, "ping", ctx.Self())
	}, false)
	if err != nil {
		log.Fatalf("spawn installer: %v", err)
	}

	if cfg.Admin.Addr != "" {
		metrics := telemetry.NewMetrics()
		collector := telemetry.NewCollector(metrics, rt, 5*time.Second)
		collector.Start()
		defer collector.Stop(context.Background())

		adminCfg := admin.DefaultConfig(cfg.Admin.Addr)
		if cfg.Admin.ReadTimeout > 0 {
			adminCfg.ReadTimeout = cfg.Admin.ReadTimeout
		}
		if cfg.Admin.WriteTimeout > 0 {
			adminCfg.WriteTimeout = cfg.Admin.WriteTimeout
		}

		srv := admin.New(adminCfg, rt, metrics)
		go func() {
			if err := srv.Start(); err != nil {
				logger.Error("admin server stopped", "error", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Stop(ctx)
		}()
		logger.Info("admin surface listening", "addr", cfg.Admin.Addr)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
}

// buildRecorder constructs the audit.Recorder cfg selects. An empty
// Driver yields audit.NoopRecorder{}.
func buildRecorder(cfg config.AuditConfig) (audit.Recorder, error) {
	switch cfg.Driver {
	case "":
		return audit.NoopRecorder{}, nil
	case "sqlite":
		return audit.NewSQLiteRecorder(cfg.DSN)
	case "postgres":
		return audit.NewPostgresRecorder(context.Background(), cfg.DSN, cfg.Workers)
	default:
		return nil, fmt.Errorf("unknown audit driver %q", cfg.Driver)
	}
}

func pongerBody(ctx *process.Context) {
	ctx.Receive(process.Pattern{process.Lit("ping"), process.AnyProcess()}, func(ctx *process.Context, args []interface{}) error {
		peer := args[1].(registry.Handle)
		return peer.Send("pong", ctx.Self())
	})
}
