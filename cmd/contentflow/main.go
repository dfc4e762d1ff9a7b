package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/contentflow/contentflow/api"
	checkpointfactory "github.com/contentflow/contentflow/checkpoint/factory"
	"github.com/contentflow/contentflow/config"
	"github.com/contentflow/contentflow/observe"
	observeotel "github.com/contentflow/contentflow/observe/otel"
	providerfactory "github.com/contentflow/contentflow/providers/factory"
	"github.com/contentflow/contentflow/search"
	"github.com/contentflow/contentflow/workflow"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("contentflow: %v", err)
	}
}

func run() error {
	// Missing .env is fine; real env vars win either way.
	_ = godotenv.Load()

	cfg := config.Load()

	provider, err := providerfactory.FromEnv()
	if err != nil {
		return err
	}

	store, err := checkpointfactory.FromEnv()
	if err != nil {
		return err
	}
	defer store.Close()

	var sink observe.Sink = observe.LogSink{}
	if cfg.TracingEnabled {
		tp := sdktrace.NewTracerProvider()
		defer func() { _ = tp.Shutdown(context.Background()) }()
		async := observe.NewAsyncSink(observeotel.NewSink(tp), 256)
		defer async.Close()
		sink = observe.NewMultiSink(observe.LogSink{}, async)
		log.Printf("tracing enabled for project %s", cfg.TracingProject)
	}

	searcher := search.NewDuckDuckGo()

	pipeline, err := workflow.NewPipeline([]workflow.Stage{
		workflow.NewResearchStage(provider, searcher, cfg.Stages.Research),
		workflow.NewWriterStage(provider, cfg.Stages.Writer),
		workflow.NewNewsletterStage(provider, cfg.Stages.Newsletter),
	}, workflow.WithStore(store), workflow.WithObserver(sink))
	if err != nil {
		return err
	}

	service, err := workflow.NewService(pipeline, store,
		workflow.WithDeliverer(workflow.LogDeliverer{}),
		workflow.WithRunTimeout(cfg.RunTimeout),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := api.NewServer(api.Config{Addr: cfg.Addr, Service: service})
	log.Printf("contentflow listening on %s (provider=%s)", cfg.Addr, provider.Name())
	if err := server.ListenAndServe(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
