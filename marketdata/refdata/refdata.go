// Package refdata loads bond reference data and coupon schedules from the
// security master. Amounts arrive as integer minor units (cents) and are
// converted exactly before entering float pricing.
package refdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/meenmo/bondlib/bond"
)

// Source resolves an ISIN to a fully resolved bond.
type Source interface {
	LoadBond(ctx context.Context, isin string) (*bond.Bond, error)
}

// Store is a Postgres-backed Source.
type Store struct {
	db *sql.DB
}

// Open connects to the security master. The DSN follows lib/pq conventions.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("refdata.Open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("refdata.Open: ping: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// bondRow mirrors the bonds table.
type bondRow struct {
	ISIN                 string
	Currency             string
	FixedRateBP          int64 // coupon in basis points
	NotionalCents        int64
	RedemptionRatioBP    int64 // redemption per 10 000 of notional
	Frequency            int
	DayCount             string
	YieldConvention      string
	SettlementOffsetDays int
}

// periodRow mirrors the bond_periods table.
type periodRow struct {
	StartDate      time.Time
	EndDate        time.Time
	PaymentDate    time.Time
	DetachmentDate time.Time
	YearFraction   float64
	HasExCoupon    bool
}

// LoadBond loads the reference row and coupon schedule for an ISIN.
func (s *Store) LoadBond(ctx context.Context, isin string) (*bond.Bond, error) {
	const bondQuery = `
		SELECT isin, currency, fixed_rate_bp, notional_cents, redemption_ratio_bp,
		       frequency, day_count, yield_convention, settlement_offset_days
		FROM bonds
		WHERE isin = $1`
	var row bondRow
	err := s.db.QueryRowContext(ctx, bondQuery, isin).Scan(
		&row.ISIN, &row.Currency, &row.FixedRateBP, &row.NotionalCents, &row.RedemptionRatioBP,
		&row.Frequency, &row.DayCount, &row.YieldConvention, &row.SettlementOffsetDays,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("LoadBond: unknown isin %q", isin)
	}
	if err != nil {
		return nil, fmt.Errorf("LoadBond: %w", err)
	}

	const periodQuery = `
		SELECT start_date, end_date, payment_date, detachment_date, year_fraction, has_ex_coupon
		FROM bond_periods
		WHERE isin = $1
		ORDER BY start_date`
	rows, err := s.db.QueryContext(ctx, periodQuery, isin)
	if err != nil {
		return nil, fmt.Errorf("LoadBond: periods: %w", err)
	}
	defer rows.Close()

	var periods []periodRow
	for rows.Next() {
		var p periodRow
		if err := rows.Scan(&p.StartDate, &p.EndDate, &p.PaymentDate, &p.DetachmentDate,
			&p.YearFraction, &p.HasExCoupon); err != nil {
			return nil, fmt.Errorf("LoadBond: periods: %w", err)
		}
		periods = append(periods, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("LoadBond: periods: %w", err)
	}

	return assemble(row, periods)
}

// assemble converts feed rows into a resolved bond, doing the minor-unit
// arithmetic in decimal so cents never pick up binary rounding.
func assemble(row bondRow, periods []periodRow) (*bond.Bond, error) {
	if len(periods) == 0 {
		return nil, fmt.Errorf("LoadBond: isin %q has no coupon periods", row.ISIN)
	}
	conv, err := parseConvention(row.YieldConvention)
	if err != nil {
		return nil, fmt.Errorf("LoadBond: isin %q: %w", row.ISIN, err)
	}

	fixedRate := decimal.NewFromInt(row.FixedRateBP).Div(decimal.NewFromInt(10_000)).InexactFloat64()
	notional := decimal.NewFromInt(row.NotionalCents).Div(decimal.NewFromInt(100)).InexactFloat64()
	redemptionRatio := decimal.NewFromInt(row.RedemptionRatioBP).Div(decimal.NewFromInt(10_000)).InexactFloat64()

	out := make([]bond.CouponPeriod, 0, len(periods))
	for _, p := range periods {
		out = append(out, bond.CouponPeriod{
			StartDate:      p.StartDate,
			EndDate:        p.EndDate,
			PaymentDate:    p.PaymentDate,
			DetachmentDate: p.DetachmentDate,
			YearFraction:   p.YearFraction,
			FixedRate:      fixedRate,
			HasExCoupon:    p.HasExCoupon,
		})
	}

	b := &bond.Bond{
		Periods: out,
		Nominal: bond.NominalPayment{
			Date:   out[len(out)-1].EndDate,
			Amount: notional * redemptionRatio,
		},
		FixedRate:            fixedRate,
		Notional:             notional,
		RedemptionRatio:      redemptionRatio,
		Frequency:            row.Frequency,
		DayCount:             row.DayCount,
		Convention:           conv,
		Currency:             row.Currency,
		SettlementOffsetDays: row.SettlementOffsetDays,
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("LoadBond: isin %q: %w", row.ISIN, err)
	}
	return b, nil
}

func parseConvention(value string) (bond.YieldConvention, error) {
	switch bond.YieldConvention(value) {
	case bond.USStreet, bond.GBBumpDMO, bond.DEBonds, bond.JPSimple:
		return bond.YieldConvention(value), nil
	}
	return "", fmt.Errorf("unknown yield convention %q", value)
}
