package sweepers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/importusers/import-service/internal/storage"
)

func TestUploadSweeper_Sweep(t *testing.T) {
	ctx := context.Background()
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	staleKey, err := storage.Stage(ctx, files, "run-old", storage.KindData, "old.csv", []byte("a,b\n"))
	require.NoError(t, err)
	freshKey, err := storage.Stage(ctx, files, "run-new", storage.KindData, "new.csv", []byte("a,b\n"))
	require.NoError(t, err)

	sweeper := NewUploadSweeper(files, nil, time.Minute, time.Hour)
	sweeper.now = func() time.Time { return time.Now().Add(30 * time.Minute) }

	removed, err := sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed, "nothing is older than an hour yet")

	sweeper.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, files.Put(ctx, freshKey, []byte("a,b\n"), &storage.Metadata{UploadedAt: time.Now().Add(90 * time.Minute)}))

	removed, err = sweeper.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	exists, err := files.Exists(ctx, staleKey)
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = files.Exists(ctx, freshKey)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUploadSweeper_StartStops(t *testing.T) {
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	sweeper := NewUploadSweeper(files, nil, time.Millisecond, time.Hour)

	done := make(chan struct{})
	go func() {
		sweeper.Start(context.Background())
		close(done)
	}()
	sweeper.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
