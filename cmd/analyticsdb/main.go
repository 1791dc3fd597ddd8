package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"

	"github.com/yungbote/analytics-database/internal/app"
	"github.com/yungbote/analytics-database/internal/config"
	"github.com/yungbote/analytics-database/internal/ingest"
)

const usage = `usage: analyticsdb [flags] <command> [files...]

commands:
  migrate          create or update the schema
  ingest FILE...   replay event files (.yaml, .yml or .jsonl)
  kinds            list the event kinds ingest understands
`

func main() {
	var (
		configFile  string
		envFile     string
		trace       bool
		metrics     bool
		workers     int
		stopOnError bool
	)
	flag.StringVar(&configFile, "config", "", "YAML config file")
	flag.StringVar(&envFile, "env-file", ".env", "env file loaded before the process environment")
	flag.BoolVar(&trace, "trace", false, "export traces over OTLP")
	flag.BoolVar(&metrics, "metrics", false, "serve Prometheus metrics while running")
	flag.IntVar(&workers, "workers", 4, "files decoded in parallel")
	flag.BoolVar(&stopOnError, "stop-on-error", false, "abort ingest at the first failed event")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	cmd := strings.ToLower(args[0])

	if cmd == "kinds" {
		for _, k := range ingest.New(nil, nil).Kinds() {
			fmt.Println(k)
		}
		return
	}
	if cmd != "migrate" && cmd != "ingest" {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", cmd)
		flag.Usage()
		os.Exit(2)
	}

	application, err := app.New(app.Options{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Migrate:    cmd == "migrate",
		Override: func(cfg *config.Config) {
			if trace {
				cfg.Tracing.Enabled = true
			}
			if metrics {
				cfg.Metrics.Enabled = true
			}
		},
	})
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if cmd == "migrate" {
		application.Log.Info("schema up to date", "driver", application.Cfg.Database.Driver)
		return
	}

	files := args[1:]
	if len(files) == 0 {
		fmt.Println("ingest needs at least one event file")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	application.Start()

	runID := uuid.NewString()
	log := application.Log.With("run_id", runID)
	log.Info("ingest started", "files", len(files), "workers", workers)

	batches, err := ingest.DecodeFiles(ctx, files, workers)
	if err != nil {
		log.Error("decode failed", "error", err)
		application.Close()
		os.Exit(1)
	}

	replayer := ingest.New(application.Analytics, log)
	var total ingest.Result
	for i, recs := range batches {
		res, err := replayer.Replay(ctx, recs, stopOnError)
		total.Applied += res.Applied
		total.Failed += res.Failed
		if err != nil {
			log.Error("ingest aborted", "file", files[i], "error", err)
			break
		}
	}
	log.Info("ingest finished", "applied", total.Applied, "failed", total.Failed)
	if total.Failed > 0 {
		application.Close()
		os.Exit(1)
	}
}
