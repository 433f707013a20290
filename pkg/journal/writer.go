package journal

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/SimplexDevelopment/SimplexSS/pkg/metrics"
	"github.com/SimplexDevelopment/SimplexSS/pkg/scheduling/pool"
)

// WriterConfig configures a Writer.
type WriterConfig struct {
	// Buffer is the number of pending records; further activations are
	// dropped while it is full. Defaults to 256.
	Buffer int

	// Timeout bounds each Append. Defaults to one second.
	Timeout time.Duration

	// InstanceID is stamped on every record. Defaults to InstanceID().
	InstanceID string

	Metrics *metrics.Registry
	Logger  *zerolog.Logger
}

// Writer feeds pool activations into a Journal from one goroutine.
type Writer struct {
	j        Journal
	cfg      WriterConfig
	log      zerolog.Logger
	registry *metrics.Registry

	mu     sync.RWMutex
	closed bool
	ch     chan Record
	done   chan struct{}
}

// NewWriter starts a Writer for j. Close stops it.
func NewWriter(j Journal, cfg WriterConfig) *Writer {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Second
	}
	if cfg.InstanceID == "" {
		cfg.InstanceID = InstanceID()
	}

	log := zerolog.Nop()
	if cfg.Logger != nil {
		log = *cfg.Logger
	}

	w := &Writer{
		j:        j,
		cfg:      cfg,
		log:      log.With().Str("sink", j.Sink()).Logger(),
		registry: cfg.Metrics,
		ch:       make(chan Record, cfg.Buffer),
		done:     make(chan struct{}),
	}
	go w.run()
	return w
}

// Observe is a pool.Observer. It never blocks.
func (w *Writer) Observe(a pool.Activation) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}

	select {
	case w.ch <- FromActivation(a, w.cfg.InstanceID):
	default:
		w.failed()
		w.log.Warn().Str("service", a.Service).Msg("journal buffer full, activation dropped")
	}
}

func (w *Writer) run() {
	defer close(w.done)
	for r := range w.ch {
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
		err := w.j.Append(ctx, r)
		cancel()

		if err != nil {
			w.failed()
			w.log.Warn().Err(err).Str("service", r.Service).Msg("journal append failed")
			continue
		}
		if w.registry != nil {
			w.registry.JournalEntries.WithLabelValues(w.j.Sink()).Inc()
		}
	}
}

func (w *Writer) failed() {
	if w.registry != nil {
		w.registry.JournalErrors.WithLabelValues(w.j.Sink()).Inc()
	}
}

// Close stops accepting activations, writes the buffered ones and closes the
// journal. It is safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		<-w.done
		return nil
	}
	w.closed = true
	close(w.ch)
	w.mu.Unlock()

	<-w.done
	return w.j.Close()
}
