package middleware

import (
	"net/http"

	"github.com/MrEthical07/padlock"
	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/revocation"
)

func RequireStrict[M metadata.Metadata](p *padlock.Padlock[M], checker revocation.Checker, opts ...Option) func(http.Handler) http.Handler {
	return Guard(p, ModeStrict, append(opts, WithRevocation(checker))...)
}
