package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/padlock"
	"github.com/MrEthical07/padlock/metadata"
	"github.com/MrEthical07/padlock/provider"
	"github.com/MrEthical07/padlock/revocation"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	claims      int
	concurrency int
	ops         int
	alg         string
	redisAddr   string
	prefix      string
	revokeEvery int
	verbose     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "padlock-loadtest",
		Short: "Compare the shared and per-context provider disciplines under load",
		Long: `padlock-loadtest signs and verifies claims from many goroutines, first
through one shared provider guarded by a fair lock and then through per-context
providers built on demand, and finally checks every claim against a Redis
revocation denylist.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.claims, "claims", 10000, "number of distinct claims to sign")
	f.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	f.IntVar(&opts.ops, "ops", 50000, "operations per phase")
	f.StringVar(&opts.alg, "alg", "ES256", "signature algorithm (HS256, ES256, ES384, EdDSA)")
	f.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	f.StringVar(&opts.prefix, "prefix", "padlock", "revocation key prefix")
	f.IntVar(&opts.revokeEvery, "revoke-every", 10, "revoke one claim in every N")
	f.BoolVar(&opts.verbose, "verbose", false, "log provider construction")
	return cmd
}

func run(ctx context.Context, opts options) error {
	if opts.claims <= 0 || opts.concurrency <= 0 || opts.ops <= 0 || opts.revokeEvery <= 0 {
		return fmt.Errorf("claims, concurrency, ops and revoke-every must be > 0")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	logger := zap.NewNop()
	if opts.verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		logger = l
		defer func() { _ = logger.Sync() }()
	}

	signerFactory, verifierFactory, err := factoriesFor(opts.alg)
	if err != nil {
		return err
	}

	shared, err := buildShared(signerFactory, verifierFactory, logger)
	if err != nil {
		return err
	}
	defer shared.Close()

	pooled, err := padlock.New[metadata.ClaimMetadata]().
		WithSignerFactory(signerFactory).
		WithVerifierFactory(verifierFactory).
		WithLogger(logger).
		WithMetricsEnabled(true).
		Build()
	if err != nil {
		return err
	}
	defer pooled.Close()

	seeds := make([]metadata.ClaimMetadata, opts.claims)
	for i := range seeds {
		seeds[i] = metadata.NewFromNow(time.Hour)
	}

	fmt.Printf("algorithm=%s claims=%d concurrency=%d ops=%d\n", opts.alg, opts.claims, opts.concurrency, opts.ops)

	signShared, claims := runSignPhase(shared, seeds, opts.ops, opts.concurrency)
	signPooled, _ := runSignPhase(pooled, seeds, opts.ops, opts.concurrency)
	verifyShared := runVerifyPhase(shared, claims, opts.ops, opts.concurrency)
	verifyPooled := runVerifyPhase(pooled, claims, opts.ops, opts.concurrency)

	store, cleanup, err := openRevocationStore(opts.redisAddr, opts.prefix)
	if err != nil {
		return err
	}
	defer cleanup()

	revoked := 0
	for i, m := range seeds {
		if i%opts.revokeEvery != 0 {
			continue
		}
		if _, err := store.Revoke(ctx, m.Identifier, time.Hour); err != nil {
			return err
		}
		revoked++
	}
	fmt.Printf("revoked %d of %d claims\n", revoked, len(seeds))
	revocationStats, hits := runRevocationPhase(ctx, store, seeds, opts.ops, opts.concurrency)

	snap := pooled.MetricsSnapshot()

	fmt.Println("---- results ----")
	printStats("sign/shared", signShared)
	printStats("sign/per-context", signPooled)
	printStats("verify/shared", verifyShared)
	printStats("verify/per-context", verifyPooled)
	printStats("revocation", revocationStats)
	fmt.Printf("per-context providers built=%d build failures=%d revoked hits=%d\n",
		snap.Counters[padlock.MetricProviderBuilt],
		snap.Counters[padlock.MetricProviderBuildFailure],
		hits,
	)
	return nil
}

// factoriesFor returns fresh-key factories; the shared padlock draws one
// instance from each, the pooled padlock draws many.
func factoriesFor(alg string) (provider.SignerFactory, provider.VerifierFactory, error) {
	method, err := provider.Lookup(alg)
	if err != nil {
		return nil, nil, err
	}
	alg = method.Alg()

	switch alg {
	case "HS256", "HS384", "HS512":
		key := make([]byte, 64)
		if _, err := rand.Read(key); err != nil {
			return nil, nil, err
		}
		f := provider.NewSymmetricFactory(alg, key)
		return f, f, nil
	case "ES256", "ES384", "ES512":
		curve := map[string]elliptic.Curve{"ES256": elliptic.P256(), "ES384": elliptic.P384(), "ES512": elliptic.P521()}[alg]
		priv, err := ecdsa.GenerateKey(curve, rand.Reader)
		if err != nil {
			return nil, nil, err
		}
		return provider.NewAsymmetricSignerFactory(alg, priv), provider.NewAsymmetricVerifierFactory(alg, &priv.PublicKey), nil
	case "EdDSA":
		priv, pub, err := ed25519Pair()
		if err != nil {
			return nil, nil, err
		}
		return provider.NewAsymmetricSignerFactory(alg, priv), provider.NewAsymmetricVerifierFactory(alg, pub), nil
	default:
		return nil, nil, fmt.Errorf("load test does not generate keys for %s", alg)
	}
}

func buildShared(sf provider.SignerFactory, vf provider.VerifierFactory, logger *zap.Logger) (*padlock.Padlock[metadata.ClaimMetadata], error) {
	signer, err := sf.NewSigner()
	if err != nil {
		return nil, err
	}
	verifier, err := vf.NewVerifier()
	if err != nil {
		return nil, err
	}
	return padlock.New[metadata.ClaimMetadata]().
		WithSigner(signer).
		WithVerifier(verifier).
		WithLogger(logger).
		Build()
}

func openRevocationStore(addr, prefix string) (*revocation.Store, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return revocation.NewStore(client, prefix), func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return revocation.NewStore(client, prefix), func() { _ = client.Close() }, nil
}

func runSignPhase(p *padlock.Padlock[metadata.ClaimMetadata], seeds []metadata.ClaimMetadata, ops, concurrency int) (phaseStats, []padlock.Claim[metadata.ClaimMetadata]) {
	claims := make([]padlock.Claim[metadata.ClaimMetadata], len(seeds))
	var failures int64
	stats := runPhase(ops, concurrency, func(i int) {
		idx := i % len(seeds)
		c, err := p.Sign(seeds[idx])
		if err != nil {
			atomic.AddInt64(&failures, 1)
			return
		}
		if i < len(seeds) {
			claims[idx] = c
		}
	})
	stats.failures = failures
	return stats, claims
}

func runVerifyPhase(p *padlock.Padlock[metadata.ClaimMetadata], claims []padlock.Claim[metadata.ClaimMetadata], ops, concurrency int) phaseStats {
	var failures int64
	stats := runPhase(ops, concurrency, func(i int) {
		ok, err := p.Verify(claims[i%len(claims)])
		if err != nil || !ok {
			atomic.AddInt64(&failures, 1)
		}
	})
	stats.failures = failures
	return stats
}

func runRevocationPhase(ctx context.Context, store *revocation.Store, seeds []metadata.ClaimMetadata, ops, concurrency int) (phaseStats, int64) {
	var failures, hits int64
	stats := runPhase(ops, concurrency, func(i int) {
		revoked, err := store.IsRevoked(ctx, seeds[i%len(seeds)].Identifier)
		if err != nil {
			atomic.AddInt64(&failures, 1)
			return
		}
		if revoked {
			atomic.AddInt64(&hits, 1)
		}
	})
	stats.failures = failures
	return stats, hits
}

// runPhase spreads ops calls of fn over concurrency workers and records the
// latency of each call.
func runPhase(ops, concurrency int, fn func(i int)) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				fn(i)
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
		}()
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, 0)
}
