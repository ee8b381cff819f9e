package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
)

var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseRepo struct {
	pool *pgxpool.Pool
}

// LedgerEntry is a purchase joined with its resource for operator listings.
// PriceCents is zero when the resource has no price anymore.
type LedgerEntry struct {
	ID            int64
	ResourceID    int64
	ResourceTitle string
	PriceCents    int64
	UserID        int64
	SessionID     string
	Paid          bool
	CreatedAt     time.Time
}

func NewPurchaseRepo(pool *pgxpool.Pool) *PurchaseRepo {
	return &PurchaseRepo{pool: pool}
}

const purchaseColumns = `id, resource_id, user_id, session_id, paid, created_at`

func (r *PurchaseRepo) CreatePending(ctx context.Context, resourceID, userID int64, sessionID string) (model.Purchase, error) {
	if r.pool == nil {
		return model.Purchase{}, fmt.Errorf("postgres pool is nil")
	}
	if resourceID <= 0 || userID <= 0 || strings.TrimSpace(sessionID) == "" {
		return model.Purchase{}, fmt.Errorf("invalid purchase create payload")
	}

	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `
INSERT INTO purchases (
	resource_id,
	user_id,
	session_id,
	paid,
	created_at
) VALUES ($1, $2, $3, FALSE, NOW())
RETURNING `+purchaseColumns+`
`, resourceID, userID, strings.TrimSpace(sessionID)))
	if err != nil {
		return model.Purchase{}, fmt.Errorf("create pending purchase: %w", err)
	}

	return purchase, nil
}

func (r *PurchaseRepo) FindByID(ctx context.Context, purchaseID int64) (model.Purchase, error) {
	if r.pool == nil {
		return model.Purchase{}, fmt.Errorf("postgres pool is nil")
	}
	if purchaseID <= 0 {
		return model.Purchase{}, fmt.Errorf("invalid purchase id")
	}

	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT `+purchaseColumns+`
FROM purchases
WHERE id = $1
LIMIT 1
`, purchaseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, ErrPurchaseNotFound
		}
		return model.Purchase{}, fmt.Errorf("find purchase by id: %w", err)
	}

	return purchase, nil
}

func (r *PurchaseRepo) FindBySession(ctx context.Context, sessionID string) (model.Purchase, error) {
	if r.pool == nil {
		return model.Purchase{}, fmt.Errorf("postgres pool is nil")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return model.Purchase{}, fmt.Errorf("invalid session id")
	}

	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `
SELECT `+purchaseColumns+`
FROM purchases
WHERE session_id = $1
LIMIT 1
`, sessionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Purchase{}, ErrPurchaseNotFound
		}
		return model.Purchase{}, fmt.Errorf("find purchase by session: %w", err)
	}

	return purchase, nil
}

// MarkPaidBySession flips the purchase matching the session token to paid.
// The second return reports whether this call changed the row; an already
// paid purchase comes back unchanged so redelivered events stay harmless.
func (r *PurchaseRepo) MarkPaidBySession(ctx context.Context, sessionID string) (model.Purchase, bool, error) {
	if r.pool == nil {
		return model.Purchase{}, false, fmt.Errorf("postgres pool is nil")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return model.Purchase{}, false, fmt.Errorf("invalid session id")
	}

	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `
UPDATE purchases
SET paid = TRUE
WHERE session_id = $1
  AND NOT paid
RETURNING `+purchaseColumns+`
`, sessionID))
	if err == nil {
		return purchase, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, false, fmt.Errorf("mark purchase paid by session: %w", err)
	}

	existing, err := r.FindBySession(ctx, sessionID)
	if err != nil {
		return model.Purchase{}, false, err
	}
	return existing, false, nil
}

// MarkPaidByID is the operator override for lost confirmation events.
func (r *PurchaseRepo) MarkPaidByID(ctx context.Context, purchaseID int64) (model.Purchase, bool, error) {
	if r.pool == nil {
		return model.Purchase{}, false, fmt.Errorf("postgres pool is nil")
	}
	if purchaseID <= 0 {
		return model.Purchase{}, false, fmt.Errorf("invalid purchase id")
	}

	purchase, err := scanPurchase(r.pool.QueryRow(ctx, `
UPDATE purchases
SET paid = TRUE
WHERE id = $1
  AND NOT paid
RETURNING `+purchaseColumns+`
`, purchaseID))
	if err == nil {
		return purchase, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Purchase{}, false, fmt.Errorf("mark purchase paid by id: %w", err)
	}

	existing, err := r.FindByID(ctx, purchaseID)
	if err != nil {
		return model.Purchase{}, false, err
	}
	return existing, false, nil
}

func (r *PurchaseRepo) HasPaid(ctx context.Context, resourceID, userID int64) (bool, error) {
	if r.pool == nil {
		return false, fmt.Errorf("postgres pool is nil")
	}
	if resourceID <= 0 || userID <= 0 {
		return false, fmt.Errorf("invalid entitlement lookup payload")
	}

	var exists bool
	err := r.pool.QueryRow(ctx, `
SELECT EXISTS (
	SELECT 1
	FROM purchases
	WHERE resource_id = $1
	  AND user_id = $2
	  AND paid
)
`, resourceID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check paid purchase: %w", err)
	}

	return exists, nil
}

func (r *PurchaseRepo) ListAll(ctx context.Context) ([]LedgerEntry, error) {
	return r.listEntries(ctx, ``)
}

func (r *PurchaseRepo) ListPaid(ctx context.Context) ([]LedgerEntry, error) {
	return r.listEntries(ctx, `WHERE p.paid`)
}

func (r *PurchaseRepo) ListPaidByUser(ctx context.Context, userID int64) ([]LedgerEntry, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("invalid user id")
	}
	return r.listEntries(ctx, `WHERE p.paid AND p.user_id = $1`, userID)
}

func (r *PurchaseRepo) Delete(ctx context.Context, purchaseID int64) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}
	if purchaseID <= 0 {
		return fmt.Errorf("invalid purchase id")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, purchaseID)
	if err != nil {
		return fmt.Errorf("delete purchase: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseNotFound
	}

	return nil
}

func (r *PurchaseRepo) listEntries(ctx context.Context, where string, args ...any) ([]LedgerEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT
	p.id,
	p.resource_id,
	r.title,
	COALESCE(r.price_cents, 0),
	p.user_id,
	p.session_id,
	p.paid,
	p.created_at
FROM purchases p
JOIN resources r ON r.id = p.resource_id
` + where + `
ORDER BY p.created_at DESC, p.id DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list purchases: %w", err)
	}
	defer rows.Close()

	entries := make([]LedgerEntry, 0)
	for rows.Next() {
		var entry LedgerEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.ResourceID,
			&entry.ResourceTitle,
			&entry.PriceCents,
			&entry.UserID,
			&entry.SessionID,
			&entry.Paid,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan purchase row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate purchase rows: %w", err)
	}

	return entries, nil
}

func scanPurchase(row pgx.Row) (model.Purchase, error) {
	var purchase model.Purchase
	if err := row.Scan(
		&purchase.ID,
		&purchase.ResourceID,
		&purchase.UserID,
		&purchase.SessionID,
		&purchase.Paid,
		&purchase.CreatedAt,
	); err != nil {
		return model.Purchase{}, err
	}
	return purchase, nil
}
