package app_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tailored-agentic-units/sunshine/app"
	"github.com/tailored-agentic-units/sunshine/history"
	"github.com/tailored-agentic-units/sunshine/observability"
	"github.com/tailored-agentic-units/sunshine/scheduler"
)

func TestDefaultConfig(t *testing.T) {
	cfg := app.DefaultConfig()

	if cfg.Name != "sunshine" {
		t.Errorf("got Name %q, want sunshine", cfg.Name)
	}
	if cfg.Observer != "slog" {
		t.Errorf("got Observer %q, want slog", cfg.Observer)
	}
	if cfg.History.Store != "" {
		t.Errorf("got History.Store %q, want disabled", cfg.History.Store)
	}
}

func TestConfig_Merge(t *testing.T) {
	cfg := app.DefaultConfig()

	source := &app.Config{
		Name:    "mail",
		History: history.Config{Store: "memory"},
	}

	cfg.Merge(source)

	if cfg.Name != "mail" {
		t.Errorf("got Name %q, want mail", cfg.Name)
	}
	if cfg.Observer != "slog" {
		t.Errorf("got Observer %q, want preserved slog", cfg.Observer)
	}
	if cfg.History.Store != "memory" {
		t.Errorf("got History.Store %q, want memory", cfg.History.Store)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	content := `{
		"name": "loaded",
		"history": {
			"store": "bolt",
			"path": "/tmp/history.db"
		}
	}`

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "loaded" {
		t.Errorf("got Name %q, want loaded", cfg.Name)
	}
	if cfg.Observer != "slog" {
		t.Errorf("got Observer %q, want default slog", cfg.Observer)
	}
	if cfg.History.Store != "bolt" || cfg.History.Path != "/tmp/history.db" {
		t.Errorf("got History %+v", cfg.History)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := app.LoadConfig(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte("{not json"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := app.LoadConfig(bad); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestParseEnv(t *testing.T) {
	t.Setenv("SUNSHINE_NAME", "from-env")
	t.Setenv("SUNSHINE_HISTORY_STORE", "sqlite")
	t.Setenv("SUNSHINE_HISTORY_PATH", "/tmp/env.db")

	cfg := app.DefaultConfig()
	if err := app.ParseEnv(&cfg); err != nil {
		t.Fatalf("ParseEnv failed: %v", err)
	}

	if cfg.Name != "from-env" {
		t.Errorf("got Name %q, want from-env", cfg.Name)
	}
	if cfg.Observer != "slog" {
		t.Errorf("got Observer %q, want unset variable to keep slog", cfg.Observer)
	}
	if cfg.History.Store != "sqlite" || cfg.History.Path != "/tmp/env.db" {
		t.Errorf("got History %+v", cfg.History)
	}
}

func TestNewSession_FromConfig(t *testing.T) {
	recorder := observability.NewRecorder()
	observability.RegisterObserver("app-test-recorder", recorder)

	cfg := app.DefaultConfig()
	cfg.Name = "configured"
	cfg.Observer = "app-test-recorder"
	cfg.History = history.Config{Store: "bolt", Path: filepath.Join(t.TempDir(), "history.db")}

	m := scheduler.NewManual()
	s, err := app.NewSession(counterApp(), &cfg, app.WithScheduler(m))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}

	s.Emit(increment)
	m.Drain()

	if s.Name() != "configured" {
		t.Errorf("got name %q, want configured", s.Name())
	}
	if n := len(recorder.OfType(app.EventTransitionComplete)); n != 1 {
		t.Errorf("got %d transition.complete events, want 1", n)
	}

	if err := s.Close(time.Second); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	store, err := history.OpenBolt(cfg.History.Path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer store.Close()

	latest, err := store.Latest(context.Background(), s.ID())
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Seq != 1 {
		t.Errorf("got latest seq %d, want 1", latest.Seq)
	}
}

func TestNewSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  app.Config
		want error
	}{
		{
			name: "unknown store",
			cfg:  app.Config{History: history.Config{Store: "etcd"}},
			want: history.ErrUnknownStore,
		},
		{
			name: "unknown observer",
			cfg:  app.Config{Observer: "missing"},
			want: observability.ErrUnknownObserver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := app.NewSession(counterApp(), &tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewSession_NilConfigUsesDefaults(t *testing.T) {
	m := scheduler.NewManual()
	s, err := app.NewSession(counterApp(), nil, app.WithScheduler(m))
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	defer s.Close(time.Second)

	if s.Name() != app.DefaultConfig().Name {
		t.Errorf("got name %q, want %q", s.Name(), app.DefaultConfig().Name)
	}

	s.Emit(increment)
	m.Drain()

	if got := s.CurrentState().Count; got != 1 {
		t.Errorf("got count %d, want 1", got)
	}
}
