package app

import (
	"context"
	"sync"
	"time"
)

// TimerEvent is one countdown step. Seq identifies the countdown it came from.
type TimerEvent struct {
	Seq       uint64
	Remaining time.Duration
	Expired   bool
}

// QuestionTimer is a cancellable per-question countdown. It ticks every
// interval and emits a single expiry event when the budget runs out. Starting
// a new countdown or stopping cancels the previous one; once Start or Stop
// returns, the previous countdown can deliver nothing more.
type QuestionTimer struct {
	interval time.Duration
	events   chan TimerEvent

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

// NewQuestionTimer ticks once per interval (one second when interval <= 0).
func NewQuestionTimer(interval time.Duration) *QuestionTimer {
	if interval <= 0 {
		interval = time.Second
	}
	return &QuestionTimer{interval: interval, events: make(chan TimerEvent)}
}

// C delivers countdown events. It is unbuffered so nothing from a cancelled
// countdown is left waiting in it.
func (t *QuestionTimer) C() <-chan TimerEvent {
	return t.events
}

// Start cancels any running countdown and begins a new one of limit.
func (t *QuestionTimer) Start(limit time.Duration) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()

	t.seq++
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel, t.done = cancel, done
	go t.run(ctx, done, t.seq, limit)
	return t.seq
}

// Stop cancels the running countdown, if any.
func (t *QuestionTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *QuestionTimer) stopLocked() {
	if t.cancel == nil {
		return
	}
	t.cancel()
	<-t.done
	t.cancel, t.done = nil, nil
}

func (t *QuestionTimer) run(ctx context.Context, done chan struct{}, seq uint64, limit time.Duration) {
	defer close(done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	remaining := limit
	for remaining > 0 {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		remaining -= t.interval
		if remaining <= 0 {
			break
		}
		if !t.emit(ctx, TimerEvent{Seq: seq, Remaining: remaining}) {
			return
		}
	}
	t.emit(ctx, TimerEvent{Seq: seq, Expired: true})
}

func (t *QuestionTimer) emit(ctx context.Context, ev TimerEvent) bool {
	select {
	case t.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
