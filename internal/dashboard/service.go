package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-propostas/internal/cache"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/pricing"
	"github.com/noah-isme/backend-propostas/internal/proposal"
)

// StatusRow is one aggregated row per status as returned by the store.
type StatusRow struct {
	Status string
	Count  int64
	Amount decimal.Decimal
}

// Store aggregates an owner's proposals by status.
type Store interface {
	CountByStatus(ctx context.Context, owner string) ([]StatusRow, error)
}

// StatusStat is the count and summed amount of one status.
type StatusStat struct {
	Status proposal.Status `json:"status"`
	Count  int64           `json:"count"`
	Amount float64         `json:"amount"`
}

// Overview summarises the owner's pipeline.
type Overview struct {
	Statuses       []StatusStat `json:"statuses"`
	TotalCount     int64        `json:"total_count"`
	TotalAmount    float64      `json:"total_amount"`
	ApprovedAmount float64      `json:"approved_amount"`
	ConversionRate float64      `json:"conversion_rate"`
	GeneratedAt    time.Time    `json:"generated_at"`
}

// Service provides cached pipeline overviews.
type Service struct {
	Store  Store
	Cache  *cache.JSON
	Logger zerolog.Logger
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Overview returns per-status counts for every status, zero-filled, plus totals and the
// approval conversion rate as a percentage of decided proposals.
func (s *Service) Overview(ctx context.Context, owner string) (Overview, error) {
	if s == nil || s.Store == nil {
		return Overview{}, errors.New("dashboard service not configured")
	}
	if _, err := uuid.Parse(owner); err != nil {
		return Overview{}, common.Unauthorized()
	}
	key := cache.KeyDashboard(owner)
	var cached Overview
	if hit, err := s.Cache.GetJSON(ctx, key, &cached); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("dashboard cache read failed")
	} else if hit {
		return cached, nil
	}

	rows, err := s.Store.CountByStatus(ctx, owner)
	if err != nil {
		return Overview{}, fmt.Errorf("count proposals by status: %w", err)
	}
	overview := Summarize(rows)
	overview.GeneratedAt = s.now().UTC()
	if err := s.Cache.SetJSON(ctx, key, overview); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("dashboard cache write failed")
	}
	return overview, nil
}

// Summarize folds store rows into an Overview. Rows with unknown statuses are ignored.
func Summarize(rows []StatusRow) Overview {
	byStatus := make(map[proposal.Status]StatusRow, len(rows))
	for _, row := range rows {
		status, ok := proposal.ParseStatus(row.Status)
		if !ok {
			continue
		}
		acc := byStatus[status]
		acc.Count += row.Count
		acc.Amount = acc.Amount.Add(row.Amount)
		byStatus[status] = acc
	}

	var out Overview
	total := decimal.Zero
	for _, status := range proposal.Statuses() {
		row := byStatus[status]
		amount, _ := row.Amount.Round(2).Float64()
		out.Statuses = append(out.Statuses, StatusStat{Status: status, Count: row.Count, Amount: amount})
		out.TotalCount += row.Count
		total = total.Add(row.Amount)
	}
	out.TotalAmount, _ = total.Round(2).Float64()

	approved := byStatus[proposal.StatusApproved]
	rejected := byStatus[proposal.StatusRejected]
	out.ApprovedAmount, _ = approved.Amount.Round(2).Float64()
	if decided := approved.Count + rejected.Count; decided > 0 {
		out.ConversionRate = pricing.Round2(float64(approved.Count) / float64(decided) * 100)
	}
	return out
}
