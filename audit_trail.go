package padlock

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var auditEventTypes = []string{
	EventClaimSigned,
	EventClaimSignRejected,
	EventClaimVerified,
	EventClaimVerificationFailed,
	EventClaimDecodeFailed,
}

// auditTrail hands events to the sink from a single goroutine, so claim
// operations never wait on sink I/O unless DropIfFull is off. A nil trail
// records nothing.
type auditTrail struct {
	sink       AuditSink
	dropIfFull bool
	logger     *zap.Logger
	now        func() time.Time

	// mu is read-locked around every send and write-locked to close queue.
	mu     sync.RWMutex
	closed bool
	queue  chan AuditEvent
	idle   chan struct{}

	drops map[string]*atomic.Uint64
	other atomic.Uint64
}

func newAuditTrail(cfg AuditConfig, sink AuditSink, logger *zap.Logger) *auditTrail {
	if !cfg.Enabled {
		return nil
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	t := &auditTrail{
		sink:       sink,
		dropIfFull: cfg.DropIfFull,
		logger:     logger,
		now:        time.Now,
		queue:      make(chan AuditEvent, max(cfg.BufferSize, 1)),
		idle:       make(chan struct{}),
		drops:      make(map[string]*atomic.Uint64, len(auditEventTypes)),
	}
	for _, et := range auditEventTypes {
		t.drops[et] = new(atomic.Uint64)
	}

	go t.deliver()
	return t
}

func (t *auditTrail) deliver() {
	defer close(t.idle)

	ctx := context.Background()
	for event := range t.queue {
		t.forward(ctx, event)
	}
}

func (t *auditTrail) forward(ctx context.Context, event AuditEvent) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("padlock: audit sink panicked",
				zap.String("event_type", event.EventType),
				zap.Any("panic", r),
			)
		}
	}()
	t.sink.Emit(ctx, event)
}

// record stamps event and queues it. Events recorded after close are ignored.
func (t *auditTrail) record(event AuditEvent) {
	if t == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.now().UTC()
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	if !t.dropIfFull {
		t.queue <- event
		return
	}
	select {
	case t.queue <- event:
	default:
		t.drop(event.EventType)
	}
}

func (t *auditTrail) drop(eventType string) {
	counter, ok := t.drops[eventType]
	if !ok {
		counter = &t.other
	}
	if counter.Add(1) == 1 {
		t.logger.Warn("padlock: audit buffer full, dropping events", zap.String("event_type", eventType))
	}
}

// close stops the trail and returns once every queued event reached the sink.
func (t *auditTrail) close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()
	<-t.idle
}

func (t *auditTrail) droppedCount() uint64 {
	if t == nil {
		return 0
	}
	total := t.other.Load()
	for _, c := range t.drops {
		total += c.Load()
	}
	return total
}

// droppedByType lists the event types that lost at least one event. Types
// outside the known set are reported under "other".
func (t *auditTrail) droppedByType() map[string]uint64 {
	out := make(map[string]uint64)
	if t == nil {
		return out
	}
	for et, c := range t.drops {
		if n := c.Load(); n > 0 {
			out[et] = n
		}
	}
	if n := t.other.Load(); n > 0 {
		out["other"] = n
	}
	return out
}
