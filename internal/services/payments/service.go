package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ibitsola/Tekhnologia/internal/domain/model"
	pgrepo "github.com/ibitsola/Tekhnologia/internal/repo/postgres"
)

const eventCheckoutCompleted = "checkout.session.completed"

var (
	ErrValidation       = errors.New("validation error")
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceIsFree   = errors.New("resource does not require payment")
	ErrNotPriced        = errors.New("resource has no price")
	ErrBadSignature     = errors.New("webhook signature verification failed")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

type ResourceStore interface {
	FindByID(ctx context.Context, resourceID int64) (model.Resource, error)
}

type PurchaseStore interface {
	CreatePending(ctx context.Context, resourceID, userID int64, sessionID string) (model.Purchase, error)
	MarkPaidBySession(ctx context.Context, sessionID string) (model.Purchase, bool, error)
}

// Gateway abstracts the payment provider: session creation on checkout and
// signature verification on incoming webhook deliveries.
type Gateway interface {
	CreateSession(ctx context.Context, in SessionInput) (SessionResult, error)
	VerifyEvent(payload []byte, signature string) (Event, error)
}

type SessionInput struct {
	ResourceID  int64
	UserID      int64
	Title       string
	AmountCents int64
}

type SessionResult struct {
	SessionID string
	URL       string
}

// Event is a provider webhook delivery reduced to the fields the
// reconciler acts on.
type Event struct {
	ID        string
	Type      string
	SessionID string
}

type Service struct {
	resources ResourceStore
	purchases PurchaseStore
	gateway   Gateway
	logger    *zap.Logger
}

type Dependencies struct {
	Resources ResourceStore
	Purchases PurchaseStore
	Gateway   Gateway
	Logger    *zap.Logger
}

type CheckoutResult struct {
	PurchaseID int64
	SessionID  string
	URL        string
}

type EventResult struct {
	Applied          bool
	AlreadyProcessed bool
	PurchaseID       int64
	ResourceID       int64
	UserID           int64
}

func NewService(deps Dependencies) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		resources: deps.Resources,
		purchases: deps.Purchases,
		gateway:   deps.Gateway,
		logger:    logger,
	}
}

// CreateCheckout opens a payment session for a paid resource and records a
// pending purchase bound to the session id. The pending row is written only
// after the provider accepts the session, so a gateway failure leaves no
// trace in the ledger.
func (s *Service) CreateCheckout(ctx context.Context, userID, resourceID int64) (CheckoutResult, error) {
	if userID <= 0 || resourceID <= 0 {
		return CheckoutResult{}, ErrValidation
	}
	if s.resources == nil || s.purchases == nil || s.gateway == nil {
		return CheckoutResult{}, fmt.Errorf("payments dependencies are not configured")
	}

	resource, err := s.resources.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrResourceNotFound) {
			return CheckoutResult{}, ErrResourceNotFound
		}
		return CheckoutResult{}, fmt.Errorf("find resource: %w", err)
	}
	if resource.IsFree {
		return CheckoutResult{}, ErrResourceIsFree
	}
	if resource.PriceCents == nil || *resource.PriceCents <= 0 {
		return CheckoutResult{}, ErrNotPriced
	}

	session, err := s.gateway.CreateSession(ctx, SessionInput{
		ResourceID:  resource.ID,
		UserID:      userID,
		Title:       resource.Title,
		AmountCents: *resource.PriceCents,
	})
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create checkout session: %w", err)
	}

	purchase, err := s.purchases.CreatePending(ctx, resource.ID, userID, session.SessionID)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("create pending purchase: %w", err)
	}

	s.logger.Info("checkout session created",
		zap.Int64("resource_id", resource.ID),
		zap.Int64("user_id", userID),
		zap.String("session_id", session.SessionID),
	)

	return CheckoutResult{
		PurchaseID: purchase.ID,
		SessionID:  session.SessionID,
		URL:        session.URL,
	}, nil
}

// HandleEvent verifies and applies a webhook delivery. Replays and
// out-of-order deliveries settle on the same final state: only the first
// completion event flips the purchase to paid, later ones report
// AlreadyProcessed. Events for sessions this service never opened are
// acknowledged without side effects so the provider stops retrying them.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signature string) (EventResult, error) {
	if s.purchases == nil || s.gateway == nil {
		return EventResult{}, fmt.Errorf("payments dependencies are not configured")
	}

	event, err := s.gateway.VerifyEvent(payload, signature)
	if err != nil {
		return EventResult{}, ErrBadSignature
	}

	if event.Type != eventCheckoutCompleted {
		s.logger.Info("ignoring webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
		)
		return EventResult{}, nil
	}

	sessionID := strings.TrimSpace(event.SessionID)
	if sessionID == "" {
		return EventResult{}, ErrMalformedEvent
	}

	purchase, changed, err := s.purchases.MarkPaidBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPurchaseNotFound) {
			s.logger.Warn("webhook for unknown checkout session",
				zap.String("event_id", event.ID),
				zap.String("session_id", sessionID),
			)
			return EventResult{}, nil
		}
		return EventResult{}, fmt.Errorf("mark purchase paid: %w", err)
	}

	if !changed {
		s.logger.Info("duplicate completion event",
			zap.String("event_id", event.ID),
			zap.String("session_id", sessionID),
		)
		return EventResult{
			AlreadyProcessed: true,
			PurchaseID:       purchase.ID,
			ResourceID:       purchase.ResourceID,
			UserID:           purchase.UserID,
		}, nil
	}

	s.logger.Info("purchase marked paid",
		zap.String("event_id", event.ID),
		zap.String("session_id", sessionID),
		zap.Int64("purchase_id", purchase.ID),
	)

	return EventResult{
		Applied:    true,
		PurchaseID: purchase.ID,
		ResourceID: purchase.ResourceID,
		UserID:     purchase.UserID,
	}, nil
}
