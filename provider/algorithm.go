package provider

import (
	"crypto"
	"crypto/hmac"
	_ "crypto/sha1" // SHA-1 backs the HmacSHA1 and SHA1withRSA aliases
	"fmt"
	"hash"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

// Keyed BLAKE2b MACs. Keys must be 1 to 64 bytes long.
const (
	BLAKE2b256 = "BLAKE2b-256"
	BLAKE2b512 = "BLAKE2b-512"
)

var jcaAliases = map[string]string{
	"HmacSHA256":        "HS256",
	"HmacSHA384":        "HS384",
	"HmacSHA512":        "HS512",
	"SHA256withRSA":     "RS256",
	"SHA384withRSA":     "RS384",
	"SHA512withRSA":     "RS512",
	"SHA256withRSA/PSS": "PS256",
	"SHA384withRSA/PSS": "PS384",
	"SHA512withRSA/PSS": "PS512",
	"SHA256withECDSA":   "ES256",
	"SHA384withECDSA":   "ES384",
	"SHA512withECDSA":   "ES512",
	"Ed25519":           "EdDSA",
}

var sha1Methods = map[string]jwt.SigningMethod{
	"HmacSHA1":    &jwt.SigningMethodHMAC{Name: "HmacSHA1", Hash: crypto.SHA1},
	"SHA1withRSA": &jwt.SigningMethodRSA{Name: "SHA1withRSA", Hash: crypto.SHA1},
}

// Lookup resolves an algorithm name to its golang-jwt signing method.
// The "none" method is never returned.
func Lookup(alg string) (jwt.SigningMethod, error) {
	if m, ok := sha1Methods[alg]; ok {
		return m, nil
	}
	name := alg
	if jwa, ok := jcaAliases[alg]; ok {
		name = jwa
	}
	m := jwt.GetSigningMethod(name)
	if m == nil || m == jwt.SigningMethodNone {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}
	return m, nil
}

// Supported reports whether alg names an algorithm this package can use.
func Supported(alg string) bool {
	if alg == BLAKE2b256 || alg == BLAKE2b512 {
		return true
	}
	m, err := Lookup(alg)
	if err != nil {
		return false
	}
	switch m.(type) {
	case *jwt.SigningMethodHMAC, *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS,
		*jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
		return true
	}
	return false
}

func asymmetricMethod(alg string) (jwt.SigningMethod, error) {
	m, err := Lookup(alg)
	if err != nil {
		return nil, err
	}
	switch m.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS,
		*jwt.SigningMethodECDSA, *jwt.SigningMethodEd25519:
		return m, nil
	}
	return nil, fmt.Errorf("%w: %q is not an asymmetric algorithm", ErrUnsupportedAlgorithm, alg)
}

type macConstructor func(key []byte) (hash.Hash, error)

func symmetricMAC(alg string) (macConstructor, error) {
	switch alg {
	case BLAKE2b256:
		return blake2b.New256, nil
	case BLAKE2b512:
		return blake2b.New512, nil
	}
	m, err := Lookup(alg)
	if err != nil {
		return nil, err
	}
	h, ok := m.(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a symmetric algorithm", ErrUnsupportedAlgorithm, alg)
	}
	if !h.Hash.Available() {
		return nil, fmt.Errorf("%w: hash for %q is not linked in", ErrUnsupportedAlgorithm, alg)
	}
	return func(key []byte) (hash.Hash, error) {
		return hmac.New(h.Hash.New, key), nil
	}, nil
}
