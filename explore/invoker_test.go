package explore_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"uxscope/agent"
	"uxscope/explore"
)

// emitRecorder collects batched log emissions.
type emitRecorder struct {
	mu     sync.Mutex
	events []logEvent
}

func (e *emitRecorder) emit(level, message string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, logEvent{level, message})
}

func (e *emitRecorder) all() []logEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]logEvent(nil), e.events...)
}

var _ = Describe("Invoker", func() {
	var rec *emitRecorder

	BeforeEach(func() {
		rec = &emitRecorder{}
	})

	It("returns the explorer's result", func() {
		explorer := &fakeExplorer{script: []*agent.Result{okResult("# Report")}}
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = flushFast

		result, err := inv.Invoke(context.Background(), "explore the app", 50, rec.emit)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.FinalAnswer).To(Equal("# Report"))
		Expect(explorer.call(1).Goal).To(Equal("explore the app"))
		Expect(explorer.call(1).Budget).To(Equal(50))
	})

	It("passes explorer errors through", func() {
		explorer := &failingExplorer{err: fmt.Errorf("device offline")}
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = flushFast

		_, err := inv.Invoke(context.Background(), "goal", 10, rec.emit)
		Expect(err).To(MatchError(ContainSubstring("device offline")))
	})

	It("delivers buffered diagnostics even for fast runs", func() {
		explorer := &fakeExplorer{
			script:  []*agent.Result{okResult("# Report")},
			sinkMsg: "Step 1/50: inspecting Home screen",
		}
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = time.Hour // only the final close flush can deliver

		_, err := inv.Invoke(context.Background(), "goal", 50, rec.emit)
		Expect(err).NotTo(HaveOccurred())

		events := rec.all()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Level).To(Equal("info"))
		Expect(events[0].Message).To(ContainSubstring("inspecting Home screen"))
	})

	It("aborts the run when the stop check trips", func() {
		explorer := &fakeExplorer{script: []*agent.Result{nil}} // blocks until cancelled
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = flushFast

		var polls int32
		inv.Stop = func() bool {
			return atomic.AddInt32(&polls, 1) > 3
		}

		_, err := inv.Invoke(context.Background(), "goal", 10, rec.emit)
		Expect(err).To(MatchError(explore.ErrStopped))
	})

	It("fails the run when the stage timeout elapses", func() {
		explorer := &fakeExplorer{script: []*agent.Result{nil}} // blocks until cancelled
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = flushFast
		inv.StageTimeout = 20 * time.Millisecond

		_, err := inv.Invoke(context.Background(), "goal", 10, rec.emit)
		Expect(err).To(MatchError(ContainSubstring("timed out")))
		Expect(errors.Is(err, explore.ErrStopped)).To(BeFalse())
	})

	It("aborts the run when the context is cancelled", func() {
		explorer := &fakeExplorer{script: []*agent.Result{nil}}
		inv := explore.NewInvoker(explorer, nil)
		inv.PollInterval = pollFast
		inv.FlushInterval = flushFast

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		_, err := inv.Invoke(ctx, "goal", 10, rec.emit)
		Expect(err).To(MatchError(explore.ErrStopped))
	})
})

var _ = Describe("LogBatcher", func() {

	It("batches writes into one emission per flush", func() {
		rec := &emitRecorder{}
		b := explore.NewLogBatcher("info", time.Hour, rec.emit, nil)
		b.Write("line one")
		b.Write("line two\n")
		b.Close()

		events := rec.all()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Message).To(Equal("line one\nline two"))
	})

	It("flushes on the interval while running", func() {
		rec := &emitRecorder{}
		b := explore.NewLogBatcher("info", flushFast, rec.emit, nil)
		defer b.Close()

		b.Write("early line")
		Eventually(rec.all).Should(HaveLen(1))
	})

	It("emits nothing when there is no buffered text", func() {
		rec := &emitRecorder{}
		b := explore.NewLogBatcher("info", time.Hour, rec.emit, nil)
		b.Close()
		Expect(rec.all()).To(BeEmpty())
	})

	It("is safe to close twice", func() {
		rec := &emitRecorder{}
		b := explore.NewLogBatcher("info", time.Hour, rec.emit, nil)
		b.Write("once")
		b.Close()
		b.Close()
		Expect(rec.all()).To(HaveLen(1))
	})

	It("survives a sink that panics and keeps delivering later batches", func() {
		rec := &emitRecorder{}
		var calls int32
		emit := func(level, message string) {
			if atomic.AddInt32(&calls, 1) == 1 {
				panic("sink exploded")
			}
			rec.emit(level, message)
		}

		b := explore.NewLogBatcher("info", time.Hour, emit, nil)
		b.Write("first")
		Expect(b.Flush).NotTo(Panic())

		b.Write("second")
		Expect(b.Close).NotTo(Panic())

		events := rec.all()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Message).To(Equal("second"))
	})

	It("survives a panicking sink on the interval flush", func() {
		var calls int32
		emit := func(level, message string) {
			atomic.AddInt32(&calls, 1)
			panic("sink exploded")
		}

		b := explore.NewLogBatcher("info", flushFast, emit, nil)
		defer b.Close()

		b.Write("early line")
		Eventually(func() int32 { return atomic.LoadInt32(&calls) }).Should(BeNumerically(">=", 1))

		// The flush loop is still alive after the panic.
		b.Write("later line")
		Eventually(func() int32 { return atomic.LoadInt32(&calls) }).Should(BeNumerically(">=", 2))
	})
})

// failingExplorer always errors.
type failingExplorer struct {
	err error
}

func (f *failingExplorer) Run(ctx context.Context, goal string, stepBudget int, sink agent.DiagnosticSink) (*agent.Result, error) {
	return nil, f.err
}
