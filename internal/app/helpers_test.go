package app

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// SafeBuffer is a thread-safe buffer for capturing output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

func (b *SafeBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.b.Reset()
}

// setupAppTest creates an app working on a fresh project directory.
func setupAppTest(t *testing.T) (*App, *SafeBuffer, *SafeBuffer) {
	t.Helper()
	project := t.TempDir()
	cfg, err := NewConfig(Config{
		PipelineName:  "test",
		PipelinePath:  filepath.Join(project, "default_pipeline.star"),
		ProjectDir:    project,
		LogLevel:      "debug",
		LogFormat:     "text",
		WatchInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	a := NewApp(out, logs, cfg)
	t.Cleanup(func() {
		if os.Getenv("PIPELINER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}

// touch creates a file relative to the app's project directory.
func touch(t *testing.T, a *App, name string) {
	t.Helper()
	path := filepath.Join(a.config.ProjectDir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}
