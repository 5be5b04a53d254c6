package proposal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PGStore is the Postgres implementation of Store.
type PGStore struct {
	Pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{Pool: pool}
}

const proposalSelect = `SELECT p.id::text, p.title, p.amount, p.client_id::text, p.status, p.created_by::text,
       p.notes, p.expected_close_date, p.share_token, p.created_at, p.updated_at,
       p.payment_type, p.cash_discount_percentage, p.installment_number, p.installment_value,
       p.manual_installment_total, p.validity_enabled, p.validity_days, p.logo_url, p.gradient_theme,
       c.id::text, c.name, c.email, c.company, c.phone
FROM proposals p
LEFT JOIN clients c ON c.id = p.client_id`

const lineSelect = `SELECT id::text, proposal_id::text, service_id::text, name, description, base_price,
       custom_price, quantity, discount, discount_percentage, discount_type, features, category,
       icon, is_custom, billing_type
FROM proposal_services
WHERE proposal_id = $1::uuid
ORDER BY position ASC, id ASC`

func (s *PGStore) Insert(ctx context.Context, p Proposal) (string, error) {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var id string
	err = tx.QueryRow(ctx, `INSERT INTO proposals (
    title, amount, client_id, status, created_by, notes, expected_close_date, share_token,
    payment_type, cash_discount_percentage, installment_number, installment_value,
    manual_installment_total, validity_enabled, validity_days, logo_url, gradient_theme)
VALUES ($1, $2, $3::uuid, $4, $5::uuid, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id::text`,
		p.Title, dec(p.Amount), p.ClientID, string(p.Status), p.Owner, toText(p.Notes), toDate(p.ExpectedCloseDate), toText(p.ShareToken),
		string(p.Payment.Type), dec(p.Payment.CashDiscountPercentage), int32(p.Payment.InstallmentNumber), dec(p.Payment.InstallmentValue),
		nullDec(p.Payment.ManualInstallmentTotal), p.Validity.Enabled, int32(p.Validity.Days), toText(&p.Theme.LogoURL), string(p.Theme.GradientTheme),
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("insert proposal: %w", err)
	}
	if err := insertLines(ctx, tx, id, p.Services); err != nil {
		return "", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PGStore) Replace(ctx context.Context, p Proposal) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	tag, err := tx.Exec(ctx, `UPDATE proposals SET
    title = $3, amount = $4, client_id = $5::uuid, notes = $6, expected_close_date = $7,
    payment_type = $8, cash_discount_percentage = $9, installment_number = $10,
    installment_value = $11, manual_installment_total = $12, validity_enabled = $13,
    validity_days = $14, logo_url = $15, gradient_theme = $16, updated_at = now()
WHERE id = $1::uuid AND created_by = $2::uuid`,
		p.ID, p.Owner, p.Title, dec(p.Amount), p.ClientID, toText(p.Notes), toDate(p.ExpectedCloseDate),
		string(p.Payment.Type), dec(p.Payment.CashDiscountPercentage), int32(p.Payment.InstallmentNumber),
		dec(p.Payment.InstallmentValue), nullDec(p.Payment.ManualInstallmentTotal), p.Validity.Enabled,
		int32(p.Validity.Days), toText(&p.Theme.LogoURL), string(p.Theme.GradientTheme),
	)
	if err != nil {
		return fmt.Errorf("update proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM proposal_services WHERE proposal_id = $1::uuid`, p.ID); err != nil {
		return fmt.Errorf("delete proposal lines: %w", err)
	}
	if err := insertLines(ctx, tx, p.ID, p.Services); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertLines(ctx context.Context, tx pgx.Tx, proposalID string, lines []ServiceLine) error {
	if len(lines) == 0 {
		return nil
	}
	const q = `INSERT INTO proposal_services (
    proposal_id, service_id, position, name, description, base_price, custom_price, quantity,
    discount, discount_percentage, discount_type, features, category, icon, is_custom, billing_type)
VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	batch := &pgx.Batch{}
	for i, l := range lines {
		var custom decimal.NullDecimal
		if l.CustomPrice != nil {
			custom = decimal.NewNullDecimal(decimal.NewFromFloat(*l.CustomPrice))
		}
		batch.Queue(q,
			proposalID, optionalString(l.ServiceID), int32(i), l.Name, toText(&l.Description), dec(l.BasePrice), custom,
			int32(l.Quantity), dec(l.Discount), dec(l.DiscountPercentage), string(l.DiscountType), l.Features,
			toText(&l.Category), toText(&l.Icon), l.IsCustom, string(l.BillingType),
		)
	}
	results := tx.SendBatch(ctx, batch)
	for range lines {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert proposal line: %w", err)
		}
	}
	return results.Close()
}

func (s *PGStore) Get(ctx context.Context, owner, id string) (RawProposal, []RawServiceLine, error) {
	row := s.Pool.QueryRow(ctx, proposalSelect+` WHERE p.id = $1::uuid AND p.created_by = $2::uuid`, id, owner)
	return s.loadWithLines(ctx, row)
}

func (s *PGStore) GetByShareToken(ctx context.Context, token string) (RawProposal, []RawServiceLine, error) {
	row := s.Pool.QueryRow(ctx, proposalSelect+` WHERE p.share_token = $1`, token)
	return s.loadWithLines(ctx, row)
}

func (s *PGStore) loadWithLines(ctx context.Context, row pgx.Row) (RawProposal, []RawServiceLine, error) {
	raw, err := scanRawProposal(row)
	if err != nil {
		return RawProposal{}, nil, err
	}
	rows, err := s.Pool.Query(ctx, lineSelect, raw.ID)
	if err != nil {
		return RawProposal{}, nil, fmt.Errorf("list proposal lines: %w", err)
	}
	defer rows.Close()
	var lines []RawServiceLine
	for rows.Next() {
		line, err := scanRawLine(rows)
		if err != nil {
			return RawProposal{}, nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return RawProposal{}, nil, fmt.Errorf("list proposal lines: %w", err)
	}
	return raw, lines, nil
}

func (s *PGStore) List(ctx context.Context, owner string, params ListParams) ([]Summary, int64, error) {
	const filter = `
WHERE p.created_by = $1::uuid
  AND ($2::text = '' OR p.status = $2::text)
  AND ($3::text = '' OR p.client_id::text = $3::text)
  AND ($4::text = '' OR p.title ILIKE '%' || $4::text || '%' OR c.name ILIKE '%' || $4::text || '%')`
	args := []any{owner, string(params.Status), params.ClientID, params.Query}

	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM proposals p LEFT JOIN clients c ON c.id = p.client_id`+filter, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count proposals: %w", err)
	}
	rows, err := s.Pool.Query(ctx, `SELECT p.id::text, p.title, p.amount, p.status, p.client_id::text, c.name,
       p.expected_close_date, p.share_token IS NOT NULL, p.created_at, p.updated_at
FROM proposals p
LEFT JOIN clients c ON c.id = p.client_id`+filter+`
ORDER BY p.created_at DESC
LIMIT $5 OFFSET $6`, append(args, params.Limit, (params.Page-1)*params.Limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()
	out := make([]Summary, 0, params.Limit)
	for rows.Next() {
		var (
			item   Summary
			amount decimal.NullDecimal
			status string
		)
		if err := rows.Scan(&item.ID, &item.Title, &amount, &status, &item.ClientID, &item.ClientName,
			&item.ExpectedCloseDate, &item.Shared, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan proposal summary: %w", err)
		}
		item.Amount = numberOf(amount)
		item.Status, _ = ParseStatus(status)
		if item.Status == "" {
			item.Status = StatusDraft
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list proposals: %w", err)
	}
	return out, total, nil
}

func (s *PGStore) SetStatus(ctx context.Context, owner, id string, status Status) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE proposals SET status = $3, updated_at = now()
WHERE id = $1::uuid AND created_by = $2::uuid`, id, owner, string(status))
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SetShareToken(ctx context.Context, owner, id, token string) (string, error) {
	var current string
	err := s.Pool.QueryRow(ctx, `UPDATE proposals
SET share_token = COALESCE(share_token, $3), updated_at = now()
WHERE id = $1::uuid AND created_by = $2::uuid
RETURNING share_token`, id, owner, token).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("set share token: %w", err)
	}
	return current, nil
}

func (s *PGStore) Delete(ctx context.Context, owner, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM proposals WHERE id = $1::uuid AND created_by = $2::uuid`, id, owner)
	if err != nil {
		return fmt.Errorf("delete proposal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) SharedTokensByClient(ctx context.Context, owner, clientID string) ([]string, error) {
	rows, err := s.Pool.Query(ctx, `SELECT share_token FROM proposals
WHERE created_by = $1::uuid AND client_id = $2::uuid AND share_token IS NOT NULL`, owner, clientID)
	if err != nil {
		return nil, fmt.Errorf("list shared proposals: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan share tokens: %w", err)
	}
	return tokens, nil
}

func scanRawProposal(row pgx.Row) (RawProposal, error) {
	var (
		raw                             RawProposal
		amount, cashPct, instValue      decimal.NullDecimal
		manualTotal                     decimal.NullDecimal
		instNumber, validityDays        pgtype.Int4
		clientID, clientName            *string
		clientEmail, clientCo, clientPh *string
	)
	err := row.Scan(
		&raw.ID, &raw.Title, &amount, &raw.ClientID, &raw.Status, &raw.Owner,
		&raw.Notes, &raw.ExpectedCloseDate, &raw.ShareToken, &raw.CreatedAt, &raw.UpdatedAt,
		&raw.PaymentType, &cashPct, &instNumber, &instValue,
		&manualTotal, &raw.ValidityEnabled, &validityDays, &raw.LogoURL, &raw.GradientTheme,
		&clientID, &clientName, &clientEmail, &clientCo, &clientPh,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RawProposal{}, ErrNotFound
		}
		return RawProposal{}, fmt.Errorf("scan proposal: %w", err)
	}
	raw.Amount = amount
	raw.CashDiscountPercentage = cashPct
	raw.InstallmentValue = instValue
	raw.ManualInstallmentTotal = manualTotal
	raw.InstallmentNumber = int4(instNumber)
	raw.ValidityDays = int4(validityDays)
	if clientID != nil {
		raw.Client = &RawClient{ID: *clientID, Name: clientName, Email: clientEmail, Company: clientCo, Phone: clientPh}
	}
	return raw, nil
}

func scanRawLine(rows pgx.Rows) (RawServiceLine, error) {
	var (
		line                                   RawServiceLine
		basePrice, customPrice, discount, dPct decimal.NullDecimal
		quantity                               pgtype.Int4
	)
	err := rows.Scan(
		&line.ID, &line.ProposalID, &line.ServiceID, &line.Name, &line.Description, &basePrice,
		&customPrice, &quantity, &discount, &dPct, &line.DiscountType, &line.Features, &line.Category,
		&line.Icon, &line.IsCustom, &line.BillingType,
	)
	if err != nil {
		return RawServiceLine{}, fmt.Errorf("scan proposal line: %w", err)
	}
	line.BasePrice = basePrice
	line.CustomPrice = customPrice
	line.Quantity = int4(quantity)
	line.Discount = discount
	line.DiscountPercentage = dPct
	return line, nil
}

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func nullDec(v float64) decimal.NullDecimal {
	if v <= 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(dec(v))
}

func numberOf(v decimal.NullDecimal) float64 {
	if !v.Valid {
		return 0
	}
	f, _ := v.Decimal.Float64()
	return f
}

func int4(v pgtype.Int4) any {
	if !v.Valid {
		return nil
	}
	return int(v.Int32)
}

func toText(s *string) pgtype.Text {
	if s == nil || strings.TrimSpace(*s) == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func toDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *t, Valid: true}
}
