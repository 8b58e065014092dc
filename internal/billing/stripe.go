package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
	"github.com/stripe/stripe-go/v78/webhook"

	"github.com/pratik-mahalle/tiergate/internal/config"
	"github.com/pratik-mahalle/tiergate/internal/domain/gate"
	"github.com/pratik-mahalle/tiergate/internal/domain/plan"
	"github.com/pratik-mahalle/tiergate/internal/domain/subscription"
	"github.com/pratik-mahalle/tiergate/internal/pkg/logger"
	"github.com/pratik-mahalle/tiergate/internal/pkg/metrics"
)

// Metadata keys attached to checkout sessions and their subscriptions
const (
	MetaUserID   = "user_id"
	MetaPlanID   = "plan_id"
	MetaDuration = "duration"
)

const currency = "usd"

var (
	ErrDisabled         = errors.New("billing is not configured")
	ErrInvalidSignature = errors.New("webhook signature verification failed")
	ErrMissingMetadata  = errors.New("webhook event is missing plan metadata")
	ErrFreePlan         = errors.New("plan has no price")
)

// Checkout is a created Stripe Checkout session
type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// EventLog remembers which webhook events were handled. Stripe delivers at
// least once, so every event is claimed before it is applied. Claim reports
// false for an event that was already claimed; Release drops the claim of an
// event that failed so its redelivery is processed.
type EventLog interface {
	Claim(ctx context.Context, id, eventType string) (bool, error)
	Release(ctx context.Context, id string) error
}

// Stripe turns checkout sessions and subscription webhooks into plan changes
type Stripe struct {
	api           *client.API
	events        EventLog
	webhookSecret string
	successURL    string
	cancelURL     string
	catalog       *plan.Catalog
	gate          gate.Service
	logger        *logger.Logger
}

// NewStripe returns nil when no API key is configured
func NewStripe(cfg config.BillingConfig, catalog *plan.Catalog, g gate.Service, events EventLog, log *logger.Logger) *Stripe {
	if !cfg.Enabled() {
		return nil
	}
	api := &client.API{}
	api.Init(cfg.StripeAPIKey, nil)
	return newStripe(api, cfg, catalog, g, events, log)
}

func newStripe(api *client.API, cfg config.BillingConfig, catalog *plan.Catalog, g gate.Service, events EventLog, log *logger.Logger) *Stripe {
	return &Stripe{
		api:           api,
		events:        events,
		webhookSecret: cfg.StripeWebhookSecret,
		successURL:    cfg.SuccessURL,
		cancelURL:     cfg.CancelURL,
		catalog:       catalog,
		gate:          g,
		logger:        log,
	}
}

// CreateCheckout opens a subscription checkout for planID. The plan is applied
// when Stripe reports the session completed.
func (s *Stripe) CreateCheckout(ctx context.Context, userID, email string, planID plan.ID, d subscription.Duration) (*Checkout, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	if !s.catalog.Known(planID) {
		return nil, fmt.Errorf("%w: %s", plan.ErrUnknownPlan, planID)
	}
	p := s.catalog.Lookup(planID)
	if p.IsFree() || s.catalog.IsBase(planID) {
		return nil, fmt.Errorf("%w: %s", ErrFreePlan, planID)
	}
	if _, err := d.Days(); err != nil {
		return nil, err
	}

	meta := map[string]string{
		MetaUserID:   userID,
		MetaPlanID:   string(planID),
		MetaDuration: string(d),
	}

	item := &stripe.CheckoutSessionLineItemParams{Quantity: stripe.Int64(1)}
	if p.StripePriceID != "" {
		item.Price = stripe.String(p.StripePriceID)
	} else {
		item.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:   stripe.String(currency),
			UnitAmount: stripe.Int64(p.PriceCents),
			ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
				Name: stripe.String(p.Label),
			},
			Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
				Interval: stripe.String(interval(d)),
			},
		}
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(userID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{item},
		SuccessURL:        stripe.String(s.successURL),
		CancelURL:         stripe.String(s.cancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: meta,
		},
	}
	if email != "" {
		params.CustomerEmail = stripe.String(email)
	}
	for k, v := range meta {
		params.AddMetadata(k, v)
	}
	params.Context = ctx

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"plan_id": planID,
		}).ErrorWithErr(err, "Failed to create checkout session")
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id":    userID,
		"plan_id":    planID,
		"duration":   d,
		"session_id": sess.ID,
	}).Info("Checkout session created")

	return &Checkout{ID: sess.ID, URL: sess.URL}, nil
}

// HandleWebhook verifies and applies one Stripe event. Redelivered events
// and unhandled event types are acknowledged without changes.
func (s *Stripe) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s == nil || s.webhookSecret == "" {
		return ErrDisabled
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	log := s.logger.WithFields(map[string]interface{}{
		"stripe_event": event.ID,
		"type":         eventType,
	})

	fresh, err := s.events.Claim(ctx, event.ID, eventType)
	if err != nil {
		log.ErrorWithErr(err, "Failed to claim webhook event")
		metrics.RecordWebhookEvent(eventType, "failed")
		return err
	}
	if !fresh {
		log.Info("Skipping redelivered webhook event")
		metrics.RecordWebhookEvent(eventType, "duplicate")
		return nil
	}

	result, err := s.apply(ctx, event, log)
	if err != nil {
		if rerr := s.events.Release(ctx, event.ID); rerr != nil {
			log.ErrorWithErr(rerr, "Failed to release webhook event claim")
		}
		metrics.RecordWebhookEvent(eventType, "failed")
		return err
	}
	metrics.RecordWebhookEvent(eventType, result)
	return nil
}

// apply runs the plan change for one claimed event and reports applied or
// ignored
func (s *Stripe) apply(ctx context.Context, event stripe.Event, log *logger.Logger) (string, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return "", fmt.Errorf("decode checkout session: %w", err)
		}
		userID, planID, d, err := planMetadata(sess.Metadata)
		if err != nil {
			return "", err
		}
		if _, err := s.gate.ChangePlan(ctx, userID, planID, d); err != nil {
			log.ErrorWithErr(err, "Failed to apply purchased plan")
			return "", err
		}
		log.With("user_id", userID).With("plan_id", planID).Info("Purchased plan applied")

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return "", fmt.Errorf("decode invoice: %w", err)
		}
		// the first invoice of a subscription is covered by checkout.session.completed
		if inv.BillingReason != stripe.InvoiceBillingReasonSubscriptionCycle {
			log.With("billing_reason", inv.BillingReason).Debug("Ignoring non-renewal invoice")
			return "ignored", nil
		}
		var meta map[string]string
		if inv.SubscriptionDetails != nil {
			meta = inv.SubscriptionDetails.Metadata
		}
		userID, planID, d, err := planMetadata(meta)
		if err != nil {
			return "", err
		}
		summary, err := s.gate.Renew(ctx, userID, planID, d)
		if err != nil {
			log.ErrorWithErr(err, "Failed to renew subscription")
			return "", err
		}
		log.WithFields(map[string]interface{}{
			"user_id":    userID,
			"plan_id":    planID,
			"invoice":    inv.ID,
			"expires_at": summary.ExpiresAt,
		}).Info("Subscription renewal applied")

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return "", fmt.Errorf("decode subscription: %w", err)
		}
		userID := sub.Metadata[MetaUserID]
		if userID == "" {
			return "", ErrMissingMetadata
		}
		if _, err := s.gate.ChangePlan(ctx, userID, s.catalog.Base(), ""); err != nil {
			log.ErrorWithErr(err, "Failed to downgrade cancelled subscription")
			return "", err
		}
		log.With("user_id", userID).Info("Cancelled subscription moved to base plan")

	default:
		log.Debug("Ignoring webhook event")
		return "ignored", nil
	}

	return "applied", nil
}

func planMetadata(meta map[string]string) (string, plan.ID, subscription.Duration, error) {
	userID, planID := meta[MetaUserID], plan.ID(meta[MetaPlanID])
	if userID == "" || planID == "" {
		return "", "", "", ErrMissingMetadata
	}
	d, err := subscription.ParseDuration(meta[MetaDuration])
	if err != nil {
		return "", "", "", err
	}
	return userID, planID, d, nil
}

func interval(d subscription.Duration) string {
	if d == subscription.Annual {
		return string(stripe.PriceRecurringIntervalYear)
	}
	return string(stripe.PriceRecurringIntervalMonth)
}
