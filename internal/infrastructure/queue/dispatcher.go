package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/mandimarket/marketplace-api/internal/api/metrics"
	"github.com/mandimarket/marketplace-api/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 128
)

// Dispatcher fans orphaned blob URIs out to a fixed set of workers that
// delete them from the blob store. Deletion is best-effort: a failed delete
// is logged and dropped, the store's own garbage collection is the backstop.
type Dispatcher struct {
	workers  []chan string
	uploader ports.BlobUploader
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, uploader ports.BlobUploader, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan string, numWorkers),
		uploader: uploader,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands one URI to the worker responsible for it. Drops the URI when
// the worker's buffer is full rather than blocking a request goroutine.
func (d *Dispatcher) Enqueue(uri string) {
	select {
	case d.workers[d.shardIndex(uri)] <- uri:
	default:
		d.log.Warn().Str("uri", uri).Msg("orphan cleanup queue full, dropping")
	}
}

// EnqueueBatch enqueues multiple URIs.
func (d *Dispatcher) EnqueueBatch(uris []string) {
	for _, uri := range uris {
		d.Enqueue(uri)
	}
}

// shardIndex maps a URI deterministically to a worker index.
func (d *Dispatcher) shardIndex(uri string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(uri))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case uri, ok := <-ch:
			if !ok {
				return
			}
			if err := d.uploader.Delete(ctx, uri); err != nil {
				metrics.OrphanCleanupTotal.WithLabelValues("failed").Inc()
				d.log.Warn().Err(err).
					Str("uri", uri).
					Int("worker_id", id).
					Msg("orphaned blob delete failed")
				continue
			}
			metrics.OrphanCleanupTotal.WithLabelValues("ok").Inc()
			d.log.Debug().Str("uri", uri).Msg("orphaned blob deleted")
		}
	}
}
