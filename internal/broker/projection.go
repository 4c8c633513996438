package broker

import (
	"context"
	"strings"

	"broker-sim/internal/ledger"

	"github.com/shopspring/decimal"
)

// Balances is the cash-balance slice of an AccountSummary.
type Balances struct {
	Settled   decimal.Decimal `json:"settled"`
	Unsettled decimal.Decimal `json:"unsettled"`
	Available decimal.Decimal `json:"available"`
	Reserved  decimal.Decimal `json:"reserved"`
}

// Margin is the margin-metrics slice of an AccountSummary.
type Margin struct {
	Long        decimal.Decimal `json:"long"`
	Short       decimal.Decimal `json:"short"`
	Initial     decimal.Decimal `json:"initial"`
	Maintenance decimal.Decimal `json:"maintenance"`
	Excess      decimal.Decimal `json:"excess"`
}

// AccountSummary is the getAccount read-side projection.
type AccountSummary struct {
	ID           string          `json:"id"`
	CreatedAt    string          `json:"createdAt"`
	Balances     Balances        `json:"balances"`
	Equity       decimal.Decimal `json:"equity"`
	Margin       Margin          `json:"margin"`
	FeesDue      decimal.Decimal `json:"feesDue"`
	OpenPositions int            `json:"openPositions"`
	OpenOrders   int             `json:"openOrders"`
}

// PositionView is the getPositions read-side projection for one symbol.
type PositionView struct {
	Symbol         string          `json:"symbol"`
	Quantity       decimal.Decimal `json:"quantity"`
	AvgPrice       decimal.Decimal `json:"avgPrice"`
	Mid            decimal.Decimal `json:"mid"`
	MarketValue    decimal.Decimal `json:"marketValue"`
	UnrealizedPnl  decimal.Decimal `json:"unrealizedPnl"`
}

// GetAccount refreshes acct and returns its summary projection.
func (s *Service) GetAccount(ctx context.Context, accountID string) (AccountSummary, error) {
	acct, err := s.account(accountID)
	if err != nil {
		return AccountSummary{}, err
	}
	if err := s.refresh(ctx, acct); err != nil {
		return AccountSummary{}, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()

	marks, err := s.marks(ctx, acct)
	if err != nil {
		return AccountSummary{}, err
	}
	metrics := acct.ComputeMetrics(marks, s.cfg.MarginRatios())

	openOrders := 0
	for _, o := range acct.Orders {
		if o.Status == ledger.StatusOpen {
			openOrders++
		}
	}

	return AccountSummary{
		ID:        acct.ID,
		CreatedAt: acct.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		Balances: Balances{
			Settled:   acct.SettledCash,
			Unsettled: acct.UnsettledCash,
			Available: metrics.AvailableCash,
			Reserved:  acct.ReservedCash,
		},
		Equity: metrics.Equity,
		Margin: Margin{
			Long:        metrics.LongValue,
			Short:       metrics.ShortValue,
			Initial:     metrics.InitialRequired,
			Maintenance: metrics.MaintenanceRequired,
			Excess:      metrics.MarginExcess,
		},
		FeesDue:       acct.FeesDue,
		OpenPositions: len(acct.Positions),
		OpenOrders:    openOrders,
	}, nil
}

// GetPositions refreshes acct and returns one PositionView per symbol
// currently held.
func (s *Service) GetPositions(ctx context.Context, accountID string) ([]PositionView, error) {
	acct, err := s.account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, acct); err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()

	views := make([]PositionView, 0, len(acct.Positions))
	for symbol, pos := range acct.Positions {
		q, err := s.provider.PeekQuote(ctx, symbol)
		if err != nil {
			return nil, err
		}
		marketValue := pos.Quantity.Mul(q.Mid).Round(6)
		views = append(views, PositionView{
			Symbol:        symbol,
			Quantity:      pos.Quantity,
			AvgPrice:      pos.AvgPrice,
			Mid:           q.Mid,
			MarketValue:   marketValue,
			UnrealizedPnl: ledger.UnrealizedPnL(*pos, q.Mid),
		})
	}
	return views, nil
}

// GetOrders refreshes acct and returns its newest-first order log,
// optionally filtered by status (case-insensitive).
func (s *Service) GetOrders(ctx context.Context, accountID string, status *string) ([]ledger.Order, error) {
	acct, err := s.account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, acct); err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()

	if status == nil || *status == "" {
		return append([]ledger.Order(nil), acct.Orders...), nil
	}
	want := strings.ToUpper(strings.TrimSpace(*status))
	var out []ledger.Order
	for _, o := range acct.Orders {
		if string(o.Status) == want {
			out = append(out, o)
		}
	}
	return out, nil
}

// GetFills refreshes acct and returns its newest-first fill log.
func (s *Service) GetFills(ctx context.Context, accountID string) ([]ledger.Fill, error) {
	acct, err := s.account(accountID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx, acct); err != nil {
		return nil, err
	}

	acct.Mu.Lock()
	defer acct.Mu.Unlock()
	return append([]ledger.Fill(nil), acct.Fills...), nil
}
