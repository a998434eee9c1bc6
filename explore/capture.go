package explore

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// LogBatcher accumulates diagnostic text from an explorer and emits it in
// batches on an interval, so chatty agents don't flood the handler with one
// event per line. It satisfies the explorer's sink contract.
type LogBatcher struct {
	level    string
	emit     func(level, message string)
	interval time.Duration
	logger   hclog.Logger

	mu   sync.Mutex
	buf  strings.Builder
	done chan struct{}
	once sync.Once
}

// NewLogBatcher starts the background flush loop. Close must be called to
// stop it and deliver whatever is still buffered.
func NewLogBatcher(level string, interval time.Duration, emit func(level, message string), logger hclog.Logger) *LogBatcher {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	b := &LogBatcher{
		level:    level,
		emit:     emit,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go b.flushLoop()
	return b
}

func (b *LogBatcher) flushLoop() {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			b.Flush()
		case <-b.done:
			return
		}
	}
}

// Write appends text to the current batch.
func (b *LogBatcher) Write(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		b.buf.WriteString("\n")
	}
}

// Flush emits the buffered text, if any.
func (b *LogBatcher) Flush() {
	b.mu.Lock()
	text := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	b.mu.Unlock()

	if text != "" && b.emit != nil {
		b.safeEmit(text)
	}
}

// safeEmit delivers one batch to the sink. A misbehaving sink must not take
// down the exploration, so panics are swallowed and logged.
func (b *LogBatcher) safeEmit(text string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("log sink panicked", "panic", r)
		}
	}()
	b.emit(b.level, text)
}

// Close stops the flush loop and delivers any remaining buffer. Safe to call
// more than once.
func (b *LogBatcher) Close() {
	b.once.Do(func() { close(b.done) })
	b.Flush()
}
