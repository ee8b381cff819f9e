package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
)

var (
	ErrValidation           = errors.New("validation error")
	ErrPurchaseNotFound     = errors.New("purchase not found")
	ErrAlreadyPaid          = errors.New("purchase is already paid")
	ErrConfirmationRequired = errors.New("confirmation code required")
)

type Store interface {
	ListAll(ctx context.Context) ([]pgrepo.LedgerEntry, error)
	ListPaid(ctx context.Context) ([]pgrepo.LedgerEntry, error)
	ListPaidByUser(ctx context.Context, userID int64) ([]pgrepo.LedgerEntry, error)
	FindByID(ctx context.Context, purchaseID int64) (model.Purchase, error)
	MarkPaidByID(ctx context.Context, purchaseID int64) (model.Purchase, bool, error)
	Delete(ctx context.Context, purchaseID int64) error
}

type Service struct {
	store         Store
	confirmIssuer string
	confirmSecret string
	logger        *zap.Logger
	now           func() time.Time
}

type Dependencies struct {
	Store         Store
	ConfirmIssuer string
	ConfirmSecret string
	Logger        *zap.Logger
}

type ConfirmSetup struct {
	Secret    string
	OTPURL    string
	QRDataURL string
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		store:         deps.Store,
		confirmIssuer: deps.ConfirmIssuer,
		confirmSecret: deps.ConfirmSecret,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *Service) ListAll(ctx context.Context) ([]pgrepo.LedgerEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}
	return s.store.ListAll(ctx)
}

func (s *Service) ListPaid(ctx context.Context) ([]pgrepo.LedgerEntry, error) {
	if s.store == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}
	return s.store.ListPaid(ctx)
}

func (s *Service) ListPaidByUser(ctx context.Context, userID int64) ([]pgrepo.LedgerEntry, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}
	return s.store.ListPaidByUser(ctx, userID)
}

// MarkPaid settles a purchase by hand, for cases where a webhook delivery
// never arrived. Unlike webhook reconciliation, marking an already-paid row
// is reported as a conflict so the operator notices.
func (s *Service) MarkPaid(ctx context.Context, purchaseID int64) (model.Purchase, error) {
	if purchaseID <= 0 {
		return model.Purchase{}, ErrValidation
	}
	if s.store == nil {
		return model.Purchase{}, fmt.Errorf("purchase store is nil")
	}

	purchase, changed, err := s.store.MarkPaidByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return model.Purchase{}, ErrPurchaseNotFound
		}
		return model.Purchase{}, fmt.Errorf("mark purchase paid: %w", err)
	}
	if !changed {
		return purchase, ErrAlreadyPaid
	}

	s.logger.Info("purchase marked paid manually", zap.Int64("purchase_id", purchaseID))

	return purchase, nil
}

// Delete removes a ledger row. Pending rows go without ceremony; deleting a
// settled purchase revokes an entitlement someone paid for, so it demands a
// valid confirmation code.
func (s *Service) Delete(ctx context.Context, purchaseID int64, confirmCode string) error {
	if purchaseID <= 0 {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("purchase store is nil")
	}

	purchase, err := s.store.FindByID(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("find purchase: %w", err)
	}

	if purchase.Paid {
		if s.confirmSecret == "" {
			return ErrConfirmationRequired
		}
		if !validateConfirmCode(s.confirmSecret, confirmCode, s.now()) {
			return ErrConfirmationRequired
		}
	}

	if err := s.store.Delete(ctx, purchaseID); err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			return ErrPurchaseNotFound
		}
		return fmt.Errorf("delete purchase: %w", err)
	}

	s.logger.Info("ledger row deleted",
		zap.Int64("purchase_id", purchaseID),
		zap.Bool("was_paid", purchase.Paid),
	)

	return nil
}

// EnrollConfirmation generates a fresh confirmation secret for the operator
// together with a QR code for authenticator apps. The secret still has to be
// placed into configuration before deletes start honoring it.
func (s *Service) EnrollConfirmation(accountName string) (ConfirmSetup, error) {
	accountName = strings.TrimSpace(accountName)
	if accountName == "" {
		return ConfirmSetup{}, ErrValidation
	}

	issuer := s.confirmIssuer
	if issuer == "" {
		issuer = "Tekhnologia"
	}

	secret, otpURL, err := generateConfirmSecret(issuer, accountName)
	if err != nil {
		return ConfirmSetup{}, fmt.Errorf("generate confirmation secret: %w", err)
	}

	qr, err := makeQRCodeDataURL(otpURL, 256)
	if err != nil {
		return ConfirmSetup{}, fmt.Errorf("encode qr code: %w", err)
	}

	return ConfirmSetup{
		Secret:    secret,
		OTPURL:    otpURL,
		QRDataURL: qr,
	}, nil
}
