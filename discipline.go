package padlock

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"

	"go.uber.org/zap"
)

// ProviderMode names how one role obtains its provider.
type ProviderMode uint8

const (
	// ModeNone leaves the role unconfigured.
	ModeNone ProviderMode = iota
	// ModeShared guards one instance with a FIFO lock.
	ModeShared
	// ModePerContext builds instances from a factory, one per concurrent caller.
	ModePerContext
)

func (m ProviderMode) String() string {
	switch m {
	case ModeShared:
		return "shared"
	case ModePerContext:
		return "per-context"
	default:
		return "none"
	}
}

// roleConfig is the configuration of one role. Exactly one of shared or build
// is meaningful, selected by mode.
type roleConfig[P any] struct {
	mode   ProviderMode
	shared P
	lock   *fairLock
	build  func() (P, error)
}

// discipline lends a provider to fn for the duration of the call.
type discipline[P any] interface {
	with(fn func(P)) error
	close() error
}

func newDiscipline[P any](rc roleConfig[P], role string, metrics *Metrics, logger *zap.Logger) discipline[P] {
	switch rc.mode {
	case ModeShared:
		lock := rc.lock
		if lock == nil {
			lock = newFairLock()
		}
		return &sharedDiscipline[P]{provider: rc.shared, lock: lock}
	case ModePerContext:
		return &pooledDiscipline[P]{
			build:   rc.build,
			role:    role,
			metrics: metrics,
			logger:  logger,
		}
	default:
		return nil
	}
}

// fairLock is a mutex that admits waiters in arrival order. Blocked senders on
// a channel are queued FIFO by the runtime, and a receive hands the free slot
// straight to the oldest of them.
type fairLock struct {
	token chan struct{}
}

func newFairLock() *fairLock {
	return &fairLock{token: make(chan struct{}, 1)}
}

func (l *fairLock) lock()   { l.token <- struct{}{} }
func (l *fairLock) unlock() { <-l.token }

type sharedDiscipline[P any] struct {
	provider P
	lock     *fairLock
}

func (d *sharedDiscipline[P]) with(fn func(P)) error {
	d.lock.lock()
	defer d.lock.unlock()
	fn(d.provider)
	return nil
}

// close leaves the shared provider alone; its owner supplied it and closes it.
func (d *sharedDiscipline[P]) close() error { return nil }

// pooledDiscipline keeps idle providers built by the factory. A caller takes an
// idle instance or builds a new one, uses it alone, and puts it back. The mutex
// guards only the idle list.
type pooledDiscipline[P any] struct {
	build   func() (P, error)
	role    string
	metrics *Metrics
	logger  *zap.Logger

	mu     sync.Mutex
	idle   []P
	live   int
	closed bool
}

func (d *pooledDiscipline[P]) with(fn func(P)) error {
	p, err := d.get()
	if err != nil {
		return err
	}
	defer d.put(p)
	fn(p)
	return nil
}

func (d *pooledDiscipline[P]) get() (P, error) {
	var zero P

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return zero, ErrClosed
	}
	if n := len(d.idle); n > 0 {
		p := d.idle[n-1]
		d.idle[n-1] = zero
		d.idle = d.idle[:n-1]
		d.mu.Unlock()
		return p, nil
	}
	d.mu.Unlock()

	p, err := d.build()
	if err == nil && isNil(p) {
		err = fmt.Errorf("%w: %s factory returned nil", ErrNoProvider, d.role)
	}
	if err != nil {
		d.metrics.Inc(MetricProviderBuildFailure)
		d.logger.Error("padlock: provider factory failed", zap.String("role", d.role), zap.Error(err))
		return zero, err
	}
	d.metrics.Inc(MetricProviderBuilt)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		_ = closeProvider(p)
		return zero, ErrClosed
	}
	d.live++
	d.mu.Unlock()
	return p, nil
}

func (d *pooledDiscipline[P]) put(p P) {
	d.mu.Lock()
	if d.closed {
		d.live--
		d.mu.Unlock()
		_ = closeProvider(p)
		return
	}
	d.idle = append(d.idle, p)
	d.mu.Unlock()
}

// size returns the number of providers built and not yet closed.
func (d *pooledDiscipline[P]) size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// close closes idle providers now and borrowed ones when they are returned.
func (d *pooledDiscipline[P]) close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	idle := d.idle
	d.idle = nil
	d.live -= len(idle)
	d.mu.Unlock()

	var errs []error
	for _, p := range idle {
		if err := closeProvider(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func closeProvider(p any) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// sameInstance reports whether a and b are the same pointer. Values of other
// kinds are never considered shared.
func sameInstance(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() {
		return false
	}
	if va.Kind() != reflect.Pointer || va.Type() != vb.Type() {
		return false
	}
	return va.Pointer() == vb.Pointer()
}

// isNil reports whether v is nil or a typed nil held in an interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Slice, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
