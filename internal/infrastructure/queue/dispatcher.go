package queue

import (
	"context"
	"hash/fnv"
	"strconv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/storefront/credential-service/internal/api/metrics"
	"github.com/storefront/credential-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// Dispatcher delivers security notices on a fixed set of workers. Notices are
// sharded by account ID so that one account's notices go out in order.
type Dispatcher struct {
	workers []chan ports.Notice
	mailer  ports.Mailer
	log     zerolog.Logger
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, mailer ports.Mailer, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers: make([]chan ports.Notice, numWorkers),
		mailer:  mailer,
		log:     log.With().Str("component", "notice_dispatcher").Logger(),
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.Notice, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Enqueue hands a notice to the worker responsible for its account. It never
// blocks: when that worker's buffer is full the notice is dropped and false
// is returned.
func (d *Dispatcher) Enqueue(n ports.Notice) bool {
	idx := d.shardIndex(n.AccountID)
	select {
	case d.workers[idx] <- n:
		metrics.NoticesQueueDepth.WithLabelValues(strconv.Itoa(idx)).Set(float64(len(d.workers[idx])))
		return true
	default:
		metrics.NoticesTotal.WithLabelValues(string(n.Kind), "dropped").Inc()
		return false
	}
}

// shardIndex maps an account ID deterministically to a worker index.
func (d *Dispatcher) shardIndex(accountID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(accountID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.Notice) {
	defer d.wg.Done()
	depth := metrics.NoticesQueueDepth.WithLabelValues(strconv.Itoa(id))

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-ch:
			depth.Set(float64(len(ch)))
			d.deliver(ctx, id, n)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, worker int, n ports.Notice) {
	msg, ok := render(n)
	if !ok {
		d.log.Warn().Str("kind", string(n.Kind)).Msg("unknown notice kind")
		return
	}
	if err := d.mailer.Send(ctx, msg); err != nil {
		metrics.NoticesTotal.WithLabelValues(string(n.Kind), "failed").Inc()
		d.log.Error().Err(err).
			Str("account_id", n.AccountID).
			Str("kind", string(n.Kind)).
			Int("worker_id", worker).
			Msg("notice delivery failed")
		return
	}
	metrics.NoticesTotal.WithLabelValues(string(n.Kind), "sent").Inc()
}

func render(n ports.Notice) (ports.Message, bool) {
	switch n.Kind {
	case ports.NoticePasswordChanged:
		return ports.Message{
			To:      n.Email,
			Subject: "Your password was changed",
			Body: "The password for your account was just changed.\n\n" +
				"If you did not make this change, reset your password immediately.",
		}, true
	case ports.NoticePasswordReset:
		return ports.Message{
			To:      n.Email,
			Subject: "Your password was reset",
			Body: "Your password was reset using a recovery link.\n\n" +
				"If you did not request this, reset your password again and contact support.",
		}, true
	}
	return ports.Message{}, false
}
