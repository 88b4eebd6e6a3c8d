package liveserver

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatchParentEOF(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	done := make(chan error, 1)
	go func() { done <- watchParent(context.Background(), r) }()

	_ = w.Close()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, errParentGone)
	case <-time.After(time.Second):
		t.Fatal("watcher did not notice EOF")
	}
}

func TestWatchParentContextDone(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, watchParent(ctx, r))
}

func TestChildEnviron(t *testing.T) {
	t.Parallel()

	env := childEnviron([]string{"PATH=/bin", EnvChildID + "=old", "LIVETEST_SCOPE=module"})
	assert.Equal(t, []string{"PATH=/bin", "LIVETEST_SCOPE=module"}, env)
}
