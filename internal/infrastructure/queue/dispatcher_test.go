package queue

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

type recordingUploader struct {
	mu      sync.Mutex
	deleted []string
}

func (u *recordingUploader) Upload(_ context.Context, _ ports.UploadFile) (string, error) {
	return "", nil
}

func (u *recordingUploader) Delete(_ context.Context, uri string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.deleted = append(u.deleted, uri)
	return nil
}

func (u *recordingUploader) snapshot() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.deleted...)
}

func TestDispatcher_DeletesEnqueuedURIs(t *testing.T) {
	up := &recordingUploader{}
	d := NewDispatcher(2, up, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	want := []string{"blob://a", "blob://b", "blob://c"}
	d.EnqueueBatch(want)

	deadline := time.After(2 * time.Second)
	for {
		got := up.snapshot()
		if len(got) == len(want) {
			sort.Strings(got)
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("unexpected deletions: %v", got)
				}
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("timed out waiting for deletions, got %v", up.snapshot())
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestDispatcher_ShardIsStable(t *testing.T) {
	d := NewDispatcher(4, &recordingUploader{}, zerolog.Nop())
	for _, uri := range []string{"blob://a", "blob://b", "blob://c"} {
		if d.shardIndex(uri) != d.shardIndex(uri) {
			t.Fatalf("shard index not deterministic for %s", uri)
		}
	}
}
