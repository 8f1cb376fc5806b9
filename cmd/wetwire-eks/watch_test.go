package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWatchCmd(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	if cmd.Use != "watch" {
		t.Errorf("Use = %q, want 'watch'", cmd.Use)
	}
	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	for _, flag := range []string{"debounce", "output", "manifests", "context-file"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("missing --%s flag", flag)
		}
	}
}

func TestDebounceDefault(t *testing.T) {
	cmd := newWatchCmd(&globalOptions{})

	flag := cmd.Flags().Lookup("debounce")
	if flag == nil {
		t.Fatal("missing --debounce flag")
	}
	if flag.DefValue != "500ms" {
		t.Errorf("debounce default = %q, want '500ms'", flag.DefValue)
	}
}

func TestIsWatchedEvent(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"yaml write", fsnotify.Event{Name: "manifests/deployment.yaml", Op: fsnotify.Write}, true},
		{"yml create", fsnotify.Event{Name: "manifests/extra.yml", Op: fsnotify.Create}, true},
		{"context file", fsnotify.Event{Name: "cdk.json", Op: fsnotify.Write}, true},
		{"removed template", fsnotify.Event{Name: "manifests/job.yaml", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "manifests/job.yaml", Op: fsnotify.Chmod}, false},
		{"editor backup", fsnotify.Event{Name: "manifests/job.yaml~", Op: fsnotify.Write}, false},
		{"hidden swap file", fsnotify.Event{Name: "manifests/.job.yaml.swp", Op: fsnotify.Write}, false},
		{"go file", fsnotify.Event{Name: "main.go", Op: fsnotify.Write}, false},
		{"new directory", fsnotify.Event{Name: "manifests/overlays", Op: fsnotify.Create}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isWatchedEvent(tt.event); got != tt.want {
				t.Errorf("isWatchedEvent(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestRunWatch_InitialSynthAndStop(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "fluent-bit"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	var out bytes.Buffer
	err := runWatch(ctx, &out, watchOptions{
		debounce: 10 * time.Millisecond,
		paths:    []string{dir, filepath.Join(dir, "missing.json")},
		synth: func(w io.Writer) error {
			calls++
			return nil
		},
		log: zap.NewNop(),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Watching: "+dir)
	assert.Contains(t, out.String(), "Stopping watch...")
}

func TestRunWatch_ResynthOnChange(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "deployment.yaml")
	require.NoError(t, os.WriteFile(file, []byte("kind: Deployment\n"), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	synths := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- runWatch(ctx, io.Discard, watchOptions{
			debounce: 20 * time.Millisecond,
			paths:    []string{dir},
			synth: func(io.Writer) error {
				synths <- struct{}{}
				return nil
			},
			log: zap.NewNop(),
		})
	}()

	<-synths
	require.NoError(t, os.WriteFile(file, []byte("kind: Deployment\nmetadata: {}\n"), 0644))

	select {
	case <-synths:
	case <-ctx.Done():
		t.Fatal("no synth after change")
	}
	cancel()
	require.NoError(t, <-done)
}
