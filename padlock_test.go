package padlock

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
	"github.com/google/uuid"
)

func TestConcreteScenario(t *testing.T) {
	p := buildHS256(t, concreteKey)

	claim, err := p.Sign(fixtureMetadata())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if got := hex.EncodeToString(claim.Signature()); got != concreteTagHex {
		t.Fatalf("unexpected tag %s", got)
	}

	token, err := p.Encode(claim)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if token != concreteToken {
		t.Fatalf("unexpected token %q", token)
	}

	decoded, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !decoded.Equal(claim) || !reflect.DeepEqual(decoded.Metadata(), fixtureMetadata()) {
		t.Fatalf("decoded claim differs: %+v", decoded.Metadata())
	}

	if ok, err := p.Verify(decoded); err != nil || !ok {
		t.Fatalf("Verify: ok=%v err=%v", ok, err)
	}

	other := buildHS256(t, "some-other-secret")
	if ok, err := other.Verify(decoded); err != nil || ok {
		t.Fatalf("foreign key verified: ok=%v err=%v", ok, err)
	}

	altered := decoded.WithMetadata(decoded.Metadata().WithExpiration(time.Unix(3, 0)))
	if ok, err := p.Verify(altered); err != nil || ok {
		t.Fatalf("altered metadata verified: ok=%v err=%v", ok, err)
	}
}

func TestDecodeRejectsNonCanonicalSegments(t *testing.T) {
	p := buildHS256(t, concreteKey)

	tests := []struct {
		name  string
		token string
	}{
		{name: "unpadded", token: strings.TrimRight(concreteMetaToken, "=") + "." + strings.TrimRight(concreteSigToken, "=")},
		{name: "unpadded signature", token: concreteMetaToken + "." + strings.TrimRight(concreteSigToken, "=")},
		{name: "crlf in metadata", token: concreteToken[:8] + "\r\n" + concreteToken[8:]},
		{name: "lf in signature", token: concreteMetaToken + ".EQk0\nuvigcK0_CrU7OWdKobM_fNmy-R0muZk8QD7klh4="},
		{name: "non-zero trailing bits", token: concreteMetaToken + ".EQk0uvigcK0_CrU7OWdKobM_fNmy-R0muZk8QD7klh5="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Decode(tt.token); !errors.Is(err, ErrMalformedClaim) {
				t.Fatalf("expected ErrMalformedClaim, got %v", err)
			}
		})
	}

	decoded, err := p.Decode(concreteToken)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	token, err := p.Encode(decoded)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if token != concreteToken {
		t.Fatalf("canonical token did not round-trip: %q", token)
	}
}

func TestDecodeRejectsTrailingMetadata(t *testing.T) {
	p := buildHS256(t, concreteKey)

	// The signature still matches the leading metadata object.
	smuggled := encodeRaw(concreteJSON+` {"admin":true}`) + "." + concreteSigToken

	if _, err := p.Decode(smuggled); !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
	if _, err := p.Authenticate(smuggled, time.Unix(1, 500)); !errors.Is(err, ErrCodec) {
		t.Fatalf("expected Authenticate to fail with ErrCodec, got %v", err)
	}
}

func TestEncodeUsesCodecBytesVerbatim(t *testing.T) {
	codec := &fixedCodec{out: []byte{0x01, 0x02, 0x03, 0x04}}
	p, err := New[metadata.ClaimMetadata]().WithCodec(codec).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	claim := NewClaim(fixtureMetadata(), []byte{0x01, 0x02, 0x03, 0x04})
	token, err := p.Encode(claim)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if token != "AQIDBA==.AQIDBA==" {
		t.Fatalf("unexpected token %q", token)
	}

	decoded, err := p.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []byte{0x01, 0x02, 0x03, 0x04}
	if len(codec.decoded) != 1 || !bytes.Equal(codec.decoded[0], want) {
		t.Fatalf("codec saw %x", codec.decoded)
	}
	if !bytes.Equal(decoded.Signature(), want) {
		t.Fatalf("unexpected signature %x", decoded.Signature())
	}
}

type scopedMetadata struct {
	metadata.ClaimMetadata
	Subject string   `json:"subject"`
	Scopes  []string `json:"scopes"`
}

func TestSignVerifyRoundTrip(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("ecdsa key: %v", err)
	}
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("ed25519 key: %v", err)
	}
	cbor, err := metadata.NewCBORCodec()
	if err != nil {
		t.Fatalf("NewCBORCodec: %v", err)
	}

	mustSigner := func(alg string, key any) provider.Signer {
		s, err := provider.NewAsymmetricSigner(alg, key)
		if err != nil {
			t.Fatalf("NewAsymmetricSigner(%s): %v", alg, err)
		}
		return s
	}
	mustVerifier := func(alg string, key any) provider.Verifier {
		v, err := provider.NewAsymmetricVerifier(alg, key)
		if err != nil {
			t.Fatalf("NewAsymmetricVerifier(%s): %v", alg, err)
		}
		return v
	}
	blake, err := provider.NewSymmetric(provider.BLAKE2b256, []byte("0123456789abcdef0123456789abcdef"))
	if err != nil {
		t.Fatalf("NewSymmetric: %v", err)
	}

	tests := []struct {
		name    string
		builder func() *Builder[scopedMetadata]
	}{
		{
			name: "hmac universal",
			builder: func() *Builder[scopedMetadata] {
				return New[scopedMetadata]().WithUniversal(hs256(t, "k"))
			},
		},
		{
			name: "blake2b with cbor",
			builder: func() *Builder[scopedMetadata] {
				return New[scopedMetadata]().WithUniversal(blake).WithCodec(cbor)
			},
		},
		{
			name: "ecdsa shared",
			builder: func() *Builder[scopedMetadata] {
				return New[scopedMetadata]().
					WithSigner(mustSigner("ES256", ecKey)).
					WithVerifier(mustVerifier("ES256", &ecKey.PublicKey))
			},
		},
		{
			name: "ed25519 per-context",
			builder: func() *Builder[scopedMetadata] {
				return New[scopedMetadata]().
					WithSignerFactory(provider.NewAsymmetricSignerFactory("EdDSA", edPriv)).
					WithVerifierFactory(provider.NewAsymmetricVerifierFactory("EdDSA", edPub))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.builder().Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			defer p.Close()

			m := scopedMetadata{
				ClaimMetadata: metadata.NewFromNow(time.Hour),
				Subject:       "user-42",
				Scopes:        []string{"read", "write"},
			}

			claim, err := p.Sign(m)
			if err != nil {
				t.Fatalf("Sign: %v", err)
			}
			token, err := p.Encode(claim)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := p.Decode(token)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !decoded.Equal(claim) {
				t.Fatal("decode(encode(c)) must equal c")
			}
			if decoded.MetadataType() != reflect.TypeOf(scopedMetadata{}) {
				t.Fatalf("unexpected metadata type %s", decoded.MetadataType())
			}

			if ok, err := p.Verify(decoded); err != nil || !ok {
				t.Fatalf("Verify: ok=%v err=%v", ok, err)
			}

			tampered := decoded.Metadata()
			tampered.Scopes = append(slices.Clip(tampered.Scopes), "admin")
			if ok, err := p.Verify(decoded.WithMetadata(tampered)); err != nil || ok {
				t.Fatalf("tampered scopes verified: ok=%v err=%v", ok, err)
			}
		})
	}
}

func TestTamperedSignatureNeverVerifies(t *testing.T) {
	p := buildHS256(t, concreteKey)

	claim, err := p.Sign(fixtureMetadata())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig := claim.Signature()

	for i := range sig {
		flipped := append([]byte(nil), sig...)
		flipped[i] ^= 0x80
		if ok, err := p.Verify(claim.WithSignature(flipped)); err != nil || ok {
			t.Fatalf("flipped byte %d verified: ok=%v err=%v", i, ok, err)
		}
	}
}

func TestTamperedMetadataNeverVerifies(t *testing.T) {
	p := buildHS256(t, concreteKey)

	claim, err := p.Sign(fixtureMetadata())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	m := claim.Metadata()

	variants := map[string]metadata.ClaimMetadata{
		"identifier":         metadata.New(uuid.New(), time.Unix(1, 0), time.Unix(2, 0)),
		"issuance":           m.WithIssuance(time.Unix(0, 0)),
		"issuance nanos":     m.WithIssuance(time.Unix(1, 1)),
		"expiration":         m.WithExpiration(time.Unix(20, 0)),
		"expiration removed": m.WithoutExpiration(),
	}
	for name, altered := range variants {
		if ok, err := p.Verify(claim.WithMetadata(altered)); err != nil || ok {
			t.Fatalf("%s: altered metadata verified: ok=%v err=%v", name, ok, err)
		}
	}
}

func TestValidityCap(t *testing.T) {
	signer := &countingSigner{}
	p, err := New[metadata.ClaimMetadata]().
		WithSigner(signer).
		WithMaxValidity(0).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := p.Sign(metadata.NewWithDuration(uuid.New(), time.Now(), time.Nanosecond)); !errors.Is(err, ErrValidityExceeded) {
		t.Fatalf("expected ErrValidityExceeded, got %v", err)
	}
	if n := signer.calls.Load(); n != 0 {
		t.Fatalf("cap must be checked before signing, signer ran %d times", n)
	}

	allowed := []metadata.ClaimMetadata{
		metadata.NewWithDuration(uuid.New(), time.Now(), 0),
		metadata.NewWithDuration(uuid.New(), time.Now(), -time.Minute),
		metadata.NewNonExpiring(uuid.New(), time.Now()),
	}
	for i, m := range allowed {
		if _, err := p.Sign(m); err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
	}
	if n := signer.calls.Load(); n != 3 {
		t.Fatalf("expected 3 signatures, got %d", n)
	}
}

func TestValidityCapBoundary(t *testing.T) {
	p, err := New[metadata.ClaimMetadata]().
		WithUniversal(hs256(t, "k")).
		WithMaxValidity(time.Hour).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := p.Sign(metadata.NewFromNow(time.Hour)); err != nil {
		t.Fatalf("validity equal to the cap must be accepted: %v", err)
	}
	if _, err := p.Sign(metadata.NewFromNow(time.Hour + time.Nanosecond)); !errors.Is(err, ErrValidityExceeded) {
		t.Fatalf("expected ErrValidityExceeded, got %v", err)
	}
}

func TestNoProvider(t *testing.T) {
	p, err := New[metadata.ClaimMetadata]().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := p.Sign(fixtureMetadata()); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Sign: expected ErrNoProvider, got %v", err)
	}
	if _, err := p.Verify(NewClaim(fixtureMetadata(), []byte{0x01})); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Verify: expected ErrNoProvider, got %v", err)
	}

	decoded, err := p.Decode(concreteToken)
	if err != nil {
		t.Fatalf("decode works without providers: %v", err)
	}
	token, err := p.Encode(decoded)
	if err != nil {
		t.Fatalf("encode works without providers: %v", err)
	}
	if token != concreteToken {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestSignOnlyAndVerifyOnly(t *testing.T) {
	signOnly, err := New[metadata.ClaimMetadata]().WithSigner(hs256(t, concreteKey)).Build()
	if err != nil {
		t.Fatalf("Build sign-only: %v", err)
	}
	verifyOnly, err := New[metadata.ClaimMetadata]().WithVerifier(hs256(t, concreteKey)).Build()
	if err != nil {
		t.Fatalf("Build verify-only: %v", err)
	}

	claim, err := signOnly.Sign(fixtureMetadata())
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := signOnly.Verify(claim); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("sign-only Verify: expected ErrNoProvider, got %v", err)
	}

	if ok, err := verifyOnly.Verify(claim); err != nil || !ok {
		t.Fatalf("verify-only Verify: ok=%v err=%v", ok, err)
	}
	if _, err := verifyOnly.Sign(fixtureMetadata()); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("verify-only Sign: expected ErrNoProvider, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	p := buildHS256(t, concreteKey)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "no delimiter", token: "no-delimiter-here", want: ErrMalformedClaim},
		{name: "empty", token: "", want: ErrMalformedClaim},
		{name: "bad metadata base64", token: "***." + concreteSigToken, want: ErrMalformedClaim},
		{name: "bad signature base64", token: concreteMetaToken + ".***", want: ErrMalformedClaim},
		{name: "only first delimiter splits", token: concreteMetaToken + ".AQID.BA==", want: ErrMalformedClaim},
		{name: "standard alphabet", token: concreteMetaToken + ".ab+/", want: ErrMalformedClaim},
		{name: "line breaks", token: concreteToken[:8] + "\r\n" + concreteToken[8:], want: ErrMalformedClaim},
		{name: "empty metadata", token: "." + concreteSigToken, want: ErrCodec},
		{name: "metadata not json", token: "AQIDBA==.AQIDBA==", want: ErrCodec},
		{name: "unknown field", token: encodeRaw(`{"identifier":"8ccb03dc-55dd-4ebd-9b68-79ea3b1fc79a","issuance":1.0,"expiration":null,"admin":true}`) + ".", want: ErrCodec},
		{name: "trailing bytes after metadata", token: encodeRaw(concreteJSON+` {"admin":true}`) + "." + concreteSigToken, want: ErrCodec},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Decode(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestDecodeEmptySignature(t *testing.T) {
	p := buildHS256(t, concreteKey)

	claim, err := p.Decode(concreteMetaToken + ".")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n := len(claim.Signature()); n != 0 {
		t.Fatalf("expected empty signature, got %d bytes", n)
	}
	if ok, err := p.Verify(claim); err != nil || ok {
		t.Fatalf("empty signature verified: ok=%v err=%v", ok, err)
	}
}

func TestSigningFailure(t *testing.T) {
	p, err := New[metadata.ClaimMetadata]().WithSigner(failingSigner{err: errPrimitive}).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	claim, err := p.Sign(fixtureMetadata())
	if !errors.Is(err, ErrSigningFailed) || !errors.Is(err, errPrimitive) {
		t.Fatalf("expected ErrSigningFailed wrapping the primitive error, got %v", err)
	}
	if claim.Signature() != nil {
		t.Fatal("no partial claim on failure")
	}
}

func TestAuthenticate(t *testing.T) {
	p := buildHS256(t, concreteKey)

	current, err := p.Issue(metadata.NewFromNow(time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claim, err := p.Authenticate(current, time.Now())
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if !claim.Metadata().Expires() {
		t.Fatal("issued claim must expire")
	}

	if _, err := p.Authenticate(concreteToken, time.Now()); !errors.Is(err, ErrClaimNotValid) {
		t.Fatalf("expected ErrClaimNotValid, got %v", err)
	}

	claim, err = p.Authenticate(concreteToken, time.Unix(1, 500))
	if err != nil {
		t.Fatalf("Authenticate inside window: %v", err)
	}
	if claim.Metadata().ClaimID() != fixtureID {
		t.Fatalf("unexpected claim id %s", claim.Metadata().ClaimID())
	}

	forged, err := buildHS256(t, "attacker").Issue(metadata.NewFromNow(time.Minute))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := p.Authenticate(forged, time.Now()); !errors.Is(err, ErrClaimRejected) {
		t.Fatalf("expected ErrClaimRejected, got %v", err)
	}

	if _, err := p.Authenticate("garbage", time.Now()); !errors.Is(err, ErrMalformedClaim) {
		t.Fatalf("expected ErrMalformedClaim, got %v", err)
	}
}

func TestClaimIsImmutable(t *testing.T) {
	sig := []byte{0x01, 0x02}
	c := NewClaim(fixtureMetadata(), sig)

	sig[0] = 0xff
	if !bytes.Equal(c.Signature(), []byte{0x01, 0x02}) {
		t.Fatal("claim must copy the signature it is given")
	}

	out := c.Signature()
	out[1] = 0xff
	if !bytes.Equal(c.Signature(), []byte{0x01, 0x02}) {
		t.Fatal("Signature must return a copy")
	}

	if c.MetadataType() != reflect.TypeOf(metadata.ClaimMetadata{}) {
		t.Fatalf("unexpected metadata type %s", c.MetadataType())
	}
	if c.Equal(c.WithSignature([]byte{0x01})) {
		t.Fatal("claims with different signatures must differ")
	}
	if !c.Equal(NewClaim(fixtureMetadata(), []byte{0x01, 0x02})) {
		t.Fatal("claims with equal parts must be equal")
	}
}

func TestErrorAliases(t *testing.T) {
	if _, err := provider.NewSymmetric("HS256", nil); !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := provider.NewSymmetric("nope", []byte("k")); !errors.Is(err, ErrUnsupportedAlgorithm) {
		t.Fatalf("expected ErrUnsupportedAlgorithm, got %v", err)
	}

	var m metadata.ClaimMetadata
	if err := metadata.NewJSONCodec().Decode(nil, &m); !errors.Is(err, ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func encodeRaw(s string) string {
	return segmentEncoding.EncodeToString([]byte(s))
}
