// Package quote discovers the best available execution path for a token swap
// by probing the venue's on-chain quoting contract across a fixed set of fee
// tiers and, when no direct pool exists, two-hop routes through a designated
// bridge asset. Probes are read-only eth_call queries; the router never
// submits a transaction.
package quote

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/plagtech/spraay-x402-gateway"
)

// ContractCaller is the read-only chain query surface the router probes
// through. Implementations must be safe for concurrent use.
type ContractCaller interface {
	// Call executes a read-only contract call and returns the raw return data.
	Call(ctx context.Context, to common.Address, data []byte) ([]byte, error)
}

// quoteCacheSize bounds the in-memory quote cache; entries also expire after
// the configured TTL.
const quoteCacheSize = 256

// Router finds the best (fee tier, route) combination for a swap.
type Router struct {
	caller        ContractCaller
	cfg           *spraay.Config
	log           *slog.Logger
	quoter        common.Address
	bridge        common.Address
	wrappedNative common.Address
	cache         *lru.LRU[string, spraay.QuoteResult]
}

// NewRouter creates a router over the given chain caller and configuration.
// A nil logger falls back to slog.Default().
func NewRouter(caller ContractCaller, cfg *spraay.Config, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Router{
		caller:        caller,
		cfg:           cfg,
		log:           logger,
		quoter:        cfg.Quoter(),
		bridge:        cfg.Bridge(),
		wrappedNative: cfg.WrappedNativeToken(),
	}
	if cfg.QuoteTTL > 0 {
		r.cache = lru.NewLRU[string, spraay.QuoteResult](quoteCacheSize, nil, cfg.QuoteTTL.Std())
	}
	return r
}

// probeOutcome is the typed result of a single quoter query. A missing pool
// surfaces as err with transport=false; RPC and timeout failures set
// transport=true. Exactly one of (amountOut != nil) and (err != nil) holds.
type probeOutcome struct {
	amountOut *big.Int
	gas       uint64
	err       error
	transport bool
}

// candidate is one successful routing option under consideration.
type candidate struct {
	amountOut *big.Int
	gas       uint64
	tiers     []uint32
	route     []common.Address
	multiHop  bool
}

// tierSum is the aggregate fee-tier value, used as the deterministic tie-break.
func (c candidate) tierSum() uint64 {
	var sum uint64
	for _, tier := range c.tiers {
		sum += uint64(tier)
	}
	return sum
}

// betterThan reports whether c wins over other: larger output first, then the
// lower aggregate fee tier.
func (c candidate) betterThan(other candidate) bool {
	switch c.amountOut.Cmp(other.amountOut) {
	case 1:
		return true
	case -1:
		return false
	}
	return c.tierSum() < other.tierSum()
}

// Quote returns the best output found for the request across all probed
// (fee tier, route) combinations. Two-hop routing through the bridge asset is
// attempted only when no direct pool succeeds and neither side of the pair is
// the bridge itself. When no probe succeeds, the failure distinguishes a quiet
// market (ErrNoLiquidity) from an unreachable provider
// (ErrQuoteProviderUnavailable: every probe errored at the transport level).
func (r *Router) Quote(ctx context.Context, req spraay.QuoteRequest) (spraay.QuoteResult, error) {
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		return spraay.QuoteResult{}, spraay.NewEngineError(spraay.ErrCodeInvalidAmount,
			"quote amount must be positive", spraay.ErrInvalidAmount)
	}

	// The venue quotes token pairs only; the native sentinel trades as its
	// wrapped representation.
	tokenIn := r.probeAddress(req.TokenIn)
	tokenOut := r.probeAddress(req.TokenOut)
	if tokenIn == tokenOut {
		return spraay.QuoteResult{}, spraay.NewEngineError(spraay.ErrCodeInvalidPair,
			"identical input and output token", spraay.ErrInvalidPair).
			WithDetails("token", tokenIn.Hex())
	}

	cacheKey := fmt.Sprintf("%s|%s|%s", tokenIn.Hex(), tokenOut.Hex(), req.AmountIn.String())
	if r.cache != nil {
		if cached, ok := r.cache.Get(cacheKey); ok {
			return cloneResult(cached), nil
		}
	}

	var probes, transportFailures int

	best, stats := r.probeDirect(ctx, tokenIn, tokenOut, req.AmountIn)
	probes += stats.probes
	transportFailures += stats.transport

	if best == nil && tokenIn != r.bridge && tokenOut != r.bridge {
		best, stats = r.probeTwoHop(ctx, tokenIn, tokenOut, req.AmountIn)
		probes += stats.probes
		transportFailures += stats.transport
	}

	if best == nil {
		if probes > 0 && transportFailures == probes {
			return spraay.QuoteResult{}, spraay.NewEngineError(spraay.ErrCodeQuoteProviderUnavailable,
				"every quote probe failed at the transport level", spraay.ErrQuoteProviderUnavailable).
				WithDetails("probes", probes)
		}
		return spraay.QuoteResult{}, spraay.NewEngineError(spraay.ErrCodeNoLiquidity,
			"no probed route produced any output", spraay.ErrNoLiquidity).
			WithDetails("tokenIn", tokenIn.Hex()).
			WithDetails("tokenOut", tokenOut.Hex())
	}

	result := spraay.QuoteResult{
		AmountOut:   best.amountOut,
		Route:       best.route,
		FeeTiers:    best.tiers,
		GasEstimate: best.gas,
		MultiHop:    best.multiHop,
	}
	r.log.Debug("quote selected",
		"tokenIn", tokenIn.Hex(),
		"tokenOut", tokenOut.Hex(),
		"amountOut", result.AmountOut.String(),
		"multiHop", result.MultiHop,
		"feeTiers", result.FeeTiers)

	if r.cache != nil {
		r.cache.Add(cacheKey, cloneResult(result))
	}
	return result, nil
}

// probeStats tallies the search space covered by one probing pass.
type probeStats struct {
	probes    int
	transport int
}

// probeDirect fans out one probe per configured fee tier and folds the
// outcomes into the best direct candidate, if any succeeded.
func (r *Router) probeDirect(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*candidate, probeStats) {
	tiers := r.cfg.FeeTiers
	outcomes := make([]probeOutcome, len(tiers))

	var wg sync.WaitGroup
	for i, tier := range tiers {
		wg.Add(1)
		go func(i int, tier uint32) {
			defer wg.Done()
			outcomes[i] = r.probe(ctx, tokenIn, tokenOut, amountIn, tier)
		}(i, tier)
	}
	wg.Wait()

	var best *candidate
	stats := probeStats{probes: len(tiers)}
	// Ascending tier order plus strictly-greater replacement keeps selection
	// deterministic: ties go to the lowest fee tier.
	for i, outcome := range outcomes {
		if outcome.err != nil {
			if outcome.transport {
				stats.transport++
			}
			continue
		}
		c := candidate{
			amountOut: outcome.amountOut,
			gas:       outcome.gas,
			tiers:     []uint32{tiers[i]},
			route:     []common.Address{tokenIn, tokenOut},
		}
		if best == nil || c.betterThan(*best) {
			clone := c
			best = &clone
		}
	}
	return best, stats
}

// probeTwoHop tries every ordered fee-tier pair through the bridge asset,
// feeding the first hop's output into the second, and returns the best
// composed candidate. Tier pairs run concurrently; the two hops of one pair
// are necessarily sequential.
func (r *Router) probeTwoHop(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int) (*candidate, probeStats) {
	tiers := r.cfg.FeeTiers

	type pairOutcome struct {
		out       *big.Int
		gas       uint64
		probes    int
		transport int
		ok        bool
	}
	outcomes := make([]pairOutcome, len(tiers)*len(tiers))

	var wg sync.WaitGroup
	for i, firstTier := range tiers {
		for j, secondTier := range tiers {
			wg.Add(1)
			go func(idx int, firstTier, secondTier uint32) {
				defer wg.Done()
				po := pairOutcome{}

				hop1 := r.probe(ctx, tokenIn, r.bridge, amountIn, firstTier)
				po.probes++
				if hop1.err != nil {
					if hop1.transport {
						po.transport++
					}
					outcomes[idx] = po
					return
				}

				hop2 := r.probe(ctx, r.bridge, tokenOut, hop1.amountOut, secondTier)
				po.probes++
				if hop2.err != nil {
					if hop2.transport {
						po.transport++
					}
					outcomes[idx] = po
					return
				}

				po.out = hop2.amountOut
				po.gas = hop1.gas + hop2.gas
				po.ok = true
				outcomes[idx] = po
			}(i*len(tiers)+j, firstTier, secondTier)
		}
	}
	wg.Wait()

	var best *candidate
	var stats probeStats
	for idx, outcome := range outcomes {
		stats.probes += outcome.probes
		stats.transport += outcome.transport
		if !outcome.ok {
			continue
		}
		c := candidate{
			amountOut: outcome.out,
			gas:       outcome.gas,
			tiers:     []uint32{tiers[idx/len(tiers)], tiers[idx%len(tiers)]},
			route:     []common.Address{tokenIn, r.bridge, tokenOut},
			multiHop:  true,
		}
		if best == nil || c.betterThan(*best) {
			clone := c
			best = &clone
		}
	}
	return best, stats
}

// probe issues one read-only quoter query under the configured per-probe
// timeout and classifies its failure mode.
func (r *Router) probe(ctx context.Context, tokenIn, tokenOut common.Address, amountIn *big.Int, feeTier uint32) probeOutcome {
	data, err := encodeQuoteSingle(tokenIn, tokenOut, amountIn, feeTier)
	if err != nil {
		return probeOutcome{err: err, transport: true}
	}

	if r.cfg.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ProbeTimeout.Std())
		defer cancel()
	}

	ret, err := r.caller.Call(ctx, r.quoter, data)
	if err != nil {
		transport := !isPoolMissing(err)
		r.log.Debug("quote probe skipped",
			"tokenIn", tokenIn.Hex(),
			"tokenOut", tokenOut.Hex(),
			"feeTier", feeTier,
			"transport", transport,
			"error", err)
		return probeOutcome{err: err, transport: transport}
	}

	amountOut, gas, err := decodeQuoteSingle(ret)
	if err != nil {
		return probeOutcome{err: err, transport: true}
	}
	return probeOutcome{amountOut: amountOut, gas: gas}
}

// probeAddress maps a descriptor to the address the venue quotes it under.
func (r *Router) probeAddress(token spraay.TokenDescriptor) common.Address {
	if token.IsNative() {
		return r.wrappedNative
	}
	return token.Address
}

// isPoolMissing reports whether a probe failure is the venue signalling that
// no pool exists for the (pair, tier), which is an expected, silent outcome.
// Anything else is a transport-level failure.
func isPoolMissing(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "execution reverted") || strings.Contains(msg, "revert")
}

// cloneResult deep-copies a result so cache entries are never aliased by callers.
func cloneResult(in spraay.QuoteResult) spraay.QuoteResult {
	out := in
	out.AmountOut = new(big.Int).Set(in.AmountOut)
	out.Route = append([]common.Address(nil), in.Route...)
	out.FeeTiers = append([]uint32(nil), in.FeeTiers...)
	return out
}
