package dispatch

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"shipdesk/internal/carrier"
	"shipdesk/internal/config"
	"shipdesk/internal/logger"
	"shipdesk/internal/pkg/circuit"
	"shipdesk/internal/quote"
)

// Error kinds recorded on a per-provider result.
const (
	FailureAuth    = "auth"
	FailureNetwork = "network"
	FailureTimeout = "timeout"
	FailureCircuit = "circuit_open"
)

// ProviderResult is one provider's contribution to an aggregation:
// either its quotes or the reason it produced none. A failed provider
// never aborts the providers around it.
type ProviderResult struct {
	Provider string        `json:"provider"`
	Quotes   []quote.Quote `json:"quotes,omitempty"`
	Error    string        `json:"error,omitempty"`
	Failure  string        `json:"failure,omitempty"`
}

func (r ProviderResult) Failed() bool { return r.Error != "" }

// AggregateResult is the merged outcome of one category fan-out.
// Ranked is sorted by ascending price with ties broken by the adapter's
// position in the configured provider list. If every provider failed,
// Best is nil and the category is simply unavailable.
type AggregateResult struct {
	Category    quote.Category   `json:"category"`
	Request     quote.Request    `json:"request"`
	PerProvider []ProviderResult `json:"per_provider"`
	Ranked      []quote.Quote    `json:"ranked"`
	Best        *quote.Quote     `json:"best,omitempty"`
	SecondBest  *quote.Quote     `json:"second_best,omitempty"`
	Savings     decimal.Decimal  `json:"savings"`
}

// Aggregator fans a quote request out to every adapter of a category
// concurrently and merges whatever comes back. Wait-all semantics: the
// call returns only once every adapter has succeeded, failed, or timed
// out.
type Aggregator struct {
	providerTimeout time.Duration
	overallTimeout  time.Duration

	breakerThreshold int
	breakerCooldown  time.Duration
	breakerMu        sync.Mutex
	breakers         map[string]*circuit.Breaker
}

func NewAggregator(cfg config.AggregatorConfig) *Aggregator {
	return &Aggregator{
		providerTimeout:  time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		overallTimeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
		breakerThreshold: cfg.BreakerThreshold,
		breakerCooldown:  time.Duration(cfg.BreakerCooldownSeconds) * time.Second,
		breakers:         make(map[string]*circuit.Breaker),
	}
}

func (a *Aggregator) breaker(name string) *circuit.Breaker {
	a.breakerMu.Lock()
	defer a.breakerMu.Unlock()
	b, ok := a.breakers[name]
	if !ok {
		b = circuit.NewBreaker(name, a.breakerThreshold, a.breakerCooldown)
		a.breakers[name] = b
	}
	return b
}

// Aggregate queries every adapter concurrently and ranks the merged
// quote list. Adapter failures become per-provider entries; only the
// caller decides what an empty result means.
func (a *Aggregator) Aggregate(ctx context.Context, cat quote.Category, req quote.Request, adapters []carrier.Adapter) *AggregateResult {
	if a.overallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.overallTimeout)
		defer cancel()
	}

	perProvider := make([]ProviderResult, len(adapters))
	var eg errgroup.Group
	for i, adapter := range adapters {
		i, adapter := i, adapter
		eg.Go(func() error {
			perProvider[i] = a.callAdapter(ctx, adapter, req)
			return nil
		})
	}
	// Errors are folded into perProvider entries, never returned.
	if err := eg.Wait(); err != nil {
		logger.Debugf("aggregate errgroup: %v", err)
	}

	result := &AggregateResult{
		Category:    cat,
		Request:     req,
		PerProvider: perProvider,
		Savings:     decimal.Zero,
	}
	rankQuotes(result)
	return result
}

func (a *Aggregator) callAdapter(ctx context.Context, adapter carrier.Adapter, req quote.Request) ProviderResult {
	name := adapter.Name()
	res := ProviderResult{Provider: name}
	br := a.breaker(name)
	if !br.Allow() {
		res.Error = "circuit open, provider skipped"
		res.Failure = FailureCircuit
		return res
	}

	callCtx := ctx
	if a.providerTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.providerTimeout)
		defer cancel()
	}
	start := time.Now()
	quotes, err := adapter.GetQuotes(callCtx, req)
	elapsed := time.Since(start).Truncate(time.Millisecond)
	if err != nil {
		br.RecordFailure()
		res.Error = err.Error()
		res.Failure = classifyFailure(err)
		logger.Warnf("provider %s failed after %s: %v", name, elapsed, err)
		return res
	}
	br.RecordSuccess()
	res.Quotes = quotes
	logger.Debugf("provider %s returned %d quotes in %s", name, len(quotes), elapsed)
	return res
}

func classifyFailure(err error) string {
	var authErr *carrier.AuthError
	if errors.As(err, &authErr) {
		return FailureAuth
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	return FailureNetwork
}

// rankQuotes flattens successful quotes into one ascending price list.
// sort.SliceStable preserves provider order for equal prices, which is
// exactly the configured tie-break.
func rankQuotes(result *AggregateResult) {
	var ranked []quote.Quote
	for _, pr := range result.PerProvider {
		if pr.Failed() {
			continue
		}
		ranked = append(ranked, pr.Quotes...)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Price.LessThan(ranked[j].Price)
	})
	result.Ranked = ranked
	if len(ranked) > 0 {
		first := ranked[0]
		result.Best = &first
	}
	if len(ranked) > 1 {
		second := ranked[1]
		result.SecondBest = &second
		result.Savings = second.Price.Sub(ranked[0].Price)
	}
}
