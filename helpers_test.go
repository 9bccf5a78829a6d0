package padlock

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
	"github.com/google/uuid"
)

const (
	concreteJSON      = `{"identifier":"8ccb03dc-55dd-4ebd-9b68-79ea3b1fc79a","issuance":1.000000000,"expiration":2.000000000}`
	concreteKey       = "padlock-concrete-scenario-secret"
	concreteTagHex    = "110934baf8a070ad3f0ab53b39674aa1b33f7cd9b2f91d26b9993c403ee4961e"
	concreteMetaToken = "eyJpZGVudGlmaWVyIjoiOGNjYjAzZGMtNTVkZC00ZWJkLTliNjgtNzllYTNiMWZjNzlhIiwiaXNzdWFuY2UiOjEuMDAwMDAwMDAwLCJleHBpcmF0aW9uIjoyLjAwMDAwMDAwMH0="
	concreteSigToken  = "EQk0uvigcK0_CrU7OWdKobM_fNmy-R0muZk8QD7klh4="
	concreteToken     = concreteMetaToken + "." + concreteSigToken
)

var fixtureID = uuid.MustParse("8ccb03dc-55dd-4ebd-9b68-79ea3b1fc79a")

func fixtureMetadata() metadata.ClaimMetadata {
	return metadata.New(fixtureID, time.Unix(1, 0), time.Unix(2, 0))
}

func hs256(t testing.TB, key string) *provider.Symmetric {
	t.Helper()
	p, err := provider.NewSymmetric("HS256", []byte(key))
	if err != nil {
		t.Fatalf("NewSymmetric: %v", err)
	}
	return p
}

func buildHS256(t testing.TB, key string) *Padlock[metadata.ClaimMetadata] {
	t.Helper()
	p, err := New[metadata.ClaimMetadata]().WithUniversal(hs256(t, key)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// exclusiveUniversal fails loudly when two goroutines use it at once.
type exclusiveUniversal struct {
	inner    provider.Universal
	inUse    atomic.Int32
	overlaps atomic.Int32
	calls    atomic.Int64
	closed   atomic.Bool
}

func newExclusiveUniversal(t testing.TB, key string) *exclusiveUniversal {
	return &exclusiveUniversal{inner: hs256(t, key)}
}

func (e *exclusiveUniversal) enter() {
	if !e.inUse.CompareAndSwap(0, 1) {
		e.overlaps.Add(1)
	}
	e.calls.Add(1)
	time.Sleep(time.Microsecond)
}

func (e *exclusiveUniversal) leave() { e.inUse.Store(0) }

func (e *exclusiveUniversal) Sign(data []byte) ([]byte, error) {
	e.enter()
	defer e.leave()
	return e.inner.Sign(data)
}

func (e *exclusiveUniversal) Verify(data, sig []byte) bool {
	e.enter()
	defer e.leave()
	return e.inner.Verify(data, sig)
}

func (e *exclusiveUniversal) Close() error {
	e.closed.Store(true)
	return nil
}

type failingSigner struct{ err error }

func (f failingSigner) Sign([]byte) ([]byte, error) { return nil, f.err }

var errPrimitive = errors.New("primitive exploded")

// countingSigner records how often Sign runs.
type countingSigner struct {
	calls atomic.Int64
}

func (c *countingSigner) Sign(data []byte) ([]byte, error) {
	c.calls.Add(1)
	return []byte{0x01}, nil
}

// fixedCodec encodes every value as the same bytes and decodes any input into
// the zero value with a fixed identifier.
type fixedCodec struct {
	out     []byte
	decoded [][]byte
}

func (c *fixedCodec) Encode(any) ([]byte, error) { return c.out, nil }

func (c *fixedCodec) Decode(data []byte, v any) error {
	c.decoded = append(c.decoded, append([]byte(nil), data...))
	m, ok := v.(*metadata.ClaimMetadata)
	if !ok {
		return errors.New("unexpected target")
	}
	*m = metadata.NewNonExpiring(fixtureID, time.Unix(1, 0))
	return nil
}
