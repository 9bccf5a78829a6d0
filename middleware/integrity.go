package middleware

import (
	"net/http"

	"github.com/MrEthical07/padlock"
	"github.com/MrEthical07/padlock/metadata"
)

// RequireIntegrity returns middleware that only checks the claim signature,
// skipping the clock and the denylist.
func RequireIntegrity[M metadata.Metadata](p *padlock.Padlock[M], opts ...Option) func(http.Handler) http.Handler {
	return Guard(p, ModeIntegrity, opts...)
}
