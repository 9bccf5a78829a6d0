// Package pkcs11 signs claims with private keys held in a PKCS#11 token.
//
// A [Module] loads the vendor library once and logs in. Every signer it
// builds owns a dedicated PKCS#11 session, which makes [Module] a natural
// provider.SignerFactory for the per-context discipline: sessions are not
// safe for concurrent use, and the discipline never shares a signer between
// goroutines. Signers implement io.Closer so Padlock.Close releases their
// sessions.
//
// Only ECDSA keys are supported (ES256, ES384, ES512). The token returns raw
// r||s signatures, which is the form provider.NewAsymmetricVerifier checks,
// so verification needs only the public key.
//
// The binding needs cgo. Without it, [Open] returns [ErrUnavailable].
//
// # Environment
//
//	PADLOCK_PKCS11_MODULE     path to the vendor library
//	PADLOCK_PKCS11_PIN        user PIN
//	PADLOCK_PKCS11_KEY_LABEL  CKA_LABEL of the private key
//	PADLOCK_PKCS11_SLOT       slot id, -1 for the first slot with a token
//	PADLOCK_PKCS11_ALGORITHM  ES256 (default), ES384 or ES512
package pkcs11
