package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tailored-agentic-units/sunshine/app"
	"github.com/tailored-agentic-units/sunshine/event"
	"github.com/tailored-agentic-units/sunshine/observability"
	"github.com/tailored-agentic-units/sunshine/remote"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to session config JSON file")
		historyKind = flag.String("history", "", "History store: memory, bolt or sqlite (overrides config)")
		historyPath = flag.String("history-path", "", "History database path (overrides config)")
		tracing     = flag.String("tracing", "", "OTLP/HTTP trace endpoint URL (overrides config)")
		latency     = flag.Duration("latency", 50*time.Millisecond, "Simulated save latency")
		timeout     = flag.Duration("timeout", 10*time.Second, "Maximum time to wait for the session to settle")
		listen      = flag.String("listen", "", "Serve the session over Connect RPC on this address after the commands settle")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	if flag.NArg() == 0 && *listen == "" {
		fmt.Fprintln(os.Stderr, "Usage: sunshine [flags] add:<text> done:<index> clear ...")
		flag.PrintDefaults()
		os.Exit(1)
	}

	commands := make([]event.Event, 0, flag.NArg())
	for _, arg := range flag.Args() {
		e, err := parseCommand(arg)
		if err != nil {
			log.Fatalf("Invalid command: %v", err)
		}
		commands = append(commands, e)
	}

	cfg := app.DefaultConfig()
	if *configFile != "" {
		loaded, err := app.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	if err := app.ParseEnv(&cfg); err != nil {
		log.Fatalf("Failed to read environment: %v", err)
	}

	if *historyKind != "" {
		cfg.History.Store = *historyKind
	}
	if *historyPath != "" {
		cfg.History.Path = *historyPath
	}
	if *tracing != "" {
		cfg.Tracing = *tracing
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	shutdown, err := observability.SetupTracing(ctx, cfg.Name, cfg.Tracing)
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer shutdown(context.Background())

	var (
		settle   func()
		warnings atomic.Int64
	)

	session, err := app.NewSession(todoApp(*latency), &cfg,
		app.WithContext(ctx),
		app.WithLogger(logger),
		app.AddObserver(observability.LevelFilter{
			Min:  observability.LevelWarning,
			Next: observability.ObserverFunc(func(context.Context, observability.Event) {
				warnings.Add(1)
			}),
		}),
		app.WithErrorHandler(func(err error) {
			fmt.Fprintf(os.Stderr, "rejected: %v\n", err)
			settle()
		}),
	)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	defer session.Close(time.Second)

	settled := make(chan struct{})
	var once sync.Once

	// Failed commands never publish a state, so count finished transitions
	// of either outcome. Async re-entries are excluded.
	settle = func() {
		m := session.Metrics()
		handled := m.Transitions + m.TransitionFailures - m.AsyncCompleted
		if handled >= int64(len(commands)) && session.CurrentState().Sync.Pending == 0 {
			once.Do(func() { close(settled) })
		}
	}

	if *verbose {
		session.Events().OnValue(func(e event.Event) {
			fmt.Fprintf(os.Stderr, "event: %s\n", e.Kind().Path())
		})
	}

	session.States().OnValue(func(s State) {
		out, _ := json.Marshal(s)
		fmt.Println(string(out))
		settle()
	})

	for _, e := range commands {
		if err := session.Emit(e); err != nil {
			log.Fatalf("Failed to emit: %v", err)
		}
	}

	select {
	case <-settled:
	case <-ctx.Done():
	case <-time.After(*timeout):
		fmt.Fprintln(os.Stderr, "timed out waiting for session to settle")
	}

	m := session.Metrics()
	fmt.Printf("\nSession: %s\n", session.ID())
	fmt.Printf("Transitions: %d (failed %d)\n", m.Transitions, m.TransitionFailures)
	fmt.Printf("Async: %d scheduled, %d completed, %d failed\n", m.AsyncScheduled, m.AsyncCompleted, m.AsyncFailed)
	fmt.Printf("Warnings: %d\n", warnings.Load())

	if *listen != "" {
		if err := serve(ctx, *listen, session, logger); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

func serve(ctx context.Context, addr string, session *app.Session[State], logger *slog.Logger) error {
	reg := remote.NewRegistry()
	reg.Register(KindAdd, remote.JSON[Add]())
	reg.Register(KindComplete, remote.JSON[Complete]())
	reg.Register(KindClear, remote.Signal(KindClear))

	mux := http.NewServeMux()
	path, handler := remote.NewHandler(session, reg)
	mux.Handle(path, handler)

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving session", "addr", addr, "session", session.ID())

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
