// Package broker implements the execution and accounting core: order
// validation, trigger/fill evaluation, slippage and fee pricing, signed
// position bookkeeping, settlement, and margin-call liquidation.
package broker

import (
	"context"
	"fmt"
	"sync"

	"broker-sim/internal/clock"
	"broker-sim/internal/ledger"
	"broker-sim/internal/marketdata"
	"broker-sim/internal/observability"
	"broker-sim/internal/rng"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Service is a broker instance: one configuration, one market-data
// provider, and the set of accounts it serves. All account mutation
// goes through an account's own mutex; Service itself only guards the
// accounts map.
type Service struct {
	cfg      Config
	provider marketdata.Provider
	clock    clock.Clock
	root     *rng.Stream

	mu       sync.RWMutex
	accounts map[string]*ledger.Account
}

// NewService wires a Service from its three collaborators. cfg must
// already have passed Validate.
func NewService(cfg Config, provider marketdata.Provider, c clock.Clock) *Service {
	return &Service{
		cfg:      cfg,
		provider: provider,
		clock:    c,
		root:     rng.NewStream(cfg.Seed, ""),
		accounts: make(map[string]*ledger.Account),
	}
}

// CreateAccount opens a new account with initialCapital fully settled.
func (s *Service) CreateAccount(ctx context.Context, initialCapital decimal.Decimal) (*ledger.Account, error) {
	now := s.clock.Now()

	// The root stream is shared by every CreateAccount caller, so its
	// draw happens under the service lock.
	s.mu.Lock()
	id := s.root.ID("ACC", now)
	acct := ledger.New(id, now, initialCapital, s.cfg.Seed)
	acct.Random = rng.NewStream(s.cfg.Seed, id)
	s.accounts[id] = acct
	s.mu.Unlock()

	observability.LogEvent(ctx, "info", "account_created", map[string]any{
		"account_id":      id,
		"initial_capital": initialCapital.String(),
	})
	return acct, nil
}

// account looks up an account by ID under the service-level read lock.
func (s *Service) account(accountID string) (*ledger.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountID)
	}
	return acct, nil
}

// AccountIDs returns a snapshot of all known account IDs, used by a
// maintenance sweep driver outside this package.
func (s *Service) AccountIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.accounts))
	for id := range s.accounts {
		ids = append(ids, id)
	}
	return ids
}

// RunMaintenanceSweep refreshes every account in accountIDs concurrently.
// Each account's refresh is already serialized behind its own mutex, so
// fanning the sweep out across accounts is safe; the only shared mutable
// resource is the market-data cursor, which the provider itself
// serializes.
func (s *Service) RunMaintenanceSweep(ctx context.Context, accountIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range accountIDs {
		id := id
		g.Go(func() error {
			acct, err := s.account(id)
			if err != nil {
				return err
			}
			acct.Mu.Lock()
			defer acct.Mu.Unlock()
			return s.refreshLocked(gctx, acct)
		})
	}
	return g.Wait()
}

// PeekQuote exposes the market-data provider's non-advancing quote for
// callers (such as the HTTP façade) that want to display a price
// without consuming the replay stream.
func (s *Service) PeekQuote(ctx context.Context, symbol string) (marketdata.Quote, error) {
	return s.provider.PeekQuote(ctx, symbol)
}

// marks builds a symbol -> mid map for every symbol the account holds a
// position in, using a non-advancing peek so maintenance reads never
// consume the replay stream.
func (s *Service) marks(ctx context.Context, acct *ledger.Account) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(acct.Positions))
	for symbol := range acct.Positions {
		q, err := s.provider.PeekQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		out[symbol] = q.Mid
	}
	return out, nil
}

// withRequestContext stamps ctx with a fresh request ID and the account
// ID for log correlation, the way a request-scoped middleware would.
func withRequestContext(ctx context.Context, accountID string) context.Context {
	info := observability.RunInfoFromContext(ctx)
	info.AccountID = accountID
	if info.RequestID == "" {
		info.RequestID = uuid.NewString()
	}
	return observability.WithRunInfo(ctx, info)
}
