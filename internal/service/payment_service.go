package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"github.com/tapolio/tapolio-server/internal/event"
	"github.com/tapolio/tapolio-server/internal/metrics"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/repository"
	"github.com/tidwall/gjson"
)

const eventCheckoutSessionCompleted = "checkout.session.completed"

var (
	ErrUnknownPackage = errors.New("unknown credits package")
	ErrInvalidPrice   = errors.New("discounted price must not be negative")
)

// WebhookError is a webhook payload that failed signature verification.
type WebhookError struct {
	Err error
}

func (e *WebhookError) Error() string { return e.Err.Error() }
func (e *WebhookError) Unwrap() error { return e.Err }

type CheckoutRequest struct {
	Credits         int
	UserID          string
	Email           string
	CouponCode      string
	ReferredBy      string
	DiscountedPrice *float64 // dollars
}

type CheckoutResult struct {
	SessionID string
	URL       string
}

type VerifyResult struct {
	Success    bool
	Credits    int
	CouponCode string
	ReferredBy string
	UserID     string
}

// CheckoutGateway is the slice of the payment processor API the server uses.
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

type PaymentConfig struct {
	BaseURL       string
	WebhookSecret string
}

type PaymentService interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
	VerifyPayment(ctx context.Context, checkoutSessionID string) (*VerifyResult, error)
	// HandleWebhook verifies and processes a raw webhook body. It returns a *WebhookError
	// when the signature does not match.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type paymentService struct {
	gateway   CheckoutGateway
	events    repository.PaymentEventRepository
	publisher event.Publisher
	metrics   *metrics.Metrics
	cfg       PaymentConfig
}

func NewPaymentService(
	gateway CheckoutGateway,
	events repository.PaymentEventRepository,
	publisher event.Publisher,
	m *metrics.Metrics,
	cfg PaymentConfig,
) PaymentService {
	return &paymentService{
		gateway:   gateway,
		events:    events,
		publisher: publisher,
		metrics:   m,
		cfg:       cfg,
	}
}

func (s *paymentService) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	pkg, ok := model.LookupCreditPackage(req.Credits)
	if !ok {
		return nil, ErrUnknownPackage
	}

	finalPrice := pkg.PriceCents
	if req.DiscountedPrice != nil {
		if *req.DiscountedPrice < 0 {
			return nil, ErrInvalidPrice
		}
		finalPrice = int64(math.Round(*req.DiscountedPrice * 100))
	}

	credits := strconv.Itoa(req.Credits)
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String("Tapolio " + pkg.Name),
						Description: stripe.String(credits + " interview practice credits"),
					},
					UnitAmount: stripe.Int64(finalPrice),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL(credits, req.CouponCode, req.ReferredBy)),
		CancelURL:  stripe.String(s.cfg.BaseURL + "/home"),
	}
	if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.AddMetadata("userId", req.UserID)
	params.AddMetadata("credits", credits)
	params.AddMetadata("couponCode", req.CouponCode)
	params.AddMetadata("referredBy", req.ReferredBy)
	params.AddMetadata("originalPrice", strconv.FormatInt(pkg.PriceCents, 10))
	params.AddMetadata("finalPrice", strconv.FormatInt(finalPrice, 10))

	log.Info().
		Int("credits", req.Credits).
		Int64("final_price_cents", finalPrice).
		Str("user_id", req.UserID).
		Str("coupon", req.CouponCode).
		Str("referred_by", req.ReferredBy).
		Msg("Creating checkout session")

	sess, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	if s.metrics != nil {
		s.metrics.CheckoutSessions.Inc()
	}
	log.Info().Str("checkout_session_id", sess.ID).Msg("Checkout session created")
	return &CheckoutResult{SessionID: sess.ID, URL: sess.URL}, nil
}

// successURL keeps the literal {CHECKOUT_SESSION_ID} placeholder the processor substitutes.
func (s *paymentService) successURL(credits, coupon, referredBy string) string {
	return s.cfg.BaseURL + "/payment-success?session_id={CHECKOUT_SESSION_ID}" +
		"&credits=" + credits +
		"&coupon=" + url.QueryEscape(coupon) +
		"&referredBy=" + url.QueryEscape(referredBy)
}

func (s *paymentService) VerifyPayment(ctx context.Context, checkoutSessionID string) (*VerifyResult, error) {
	sess, err := s.gateway.GetCheckoutSession(ctx, checkoutSessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve checkout session: %w", err)
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		log.Warn().Str("checkout_session_id", checkoutSessionID).Str("payment_status", string(sess.PaymentStatus)).Msg("Payment not completed")
		return &VerifyResult{Success: false}, nil
	}

	credits, _ := strconv.Atoi(sess.Metadata["credits"])
	pe := &model.PaymentEvent{
		CheckoutSessionID: sess.ID,
		UserID:            sess.Metadata["userId"],
		Credits:           credits,
		AmountTotal:       sess.AmountTotal,
		Currency:          string(sess.Currency),
		CouponCode:        sess.Metadata["couponCode"],
		ReferredBy:        sess.Metadata["referredBy"],
		Source:            model.PaymentSourceVerify,
	}
	if sess.CustomerDetails != nil {
		pe.Email = sess.CustomerDetails.Email
	}
	s.record(ctx, pe)

	log.Info().Str("checkout_session_id", checkoutSessionID).Msg("Payment verified")
	return &VerifyResult{
		Success:    true,
		Credits:    credits,
		CouponCode: pe.CouponCode,
		ReferredBy: pe.ReferredBy,
		UserID:     pe.UserID,
	}, nil
}

func (s *paymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.cfg.WebhookSecret == "" {
		log.Warn().Msg("Stripe webhook received but no STRIPE_WEBHOOK_SECRET configured")
		return nil
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, s.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Warn().Err(err).Msg("Webhook signature verification failed")
		return &WebhookError{Err: err}
	}

	if string(evt.Type) != eventCheckoutSessionCompleted || evt.Data == nil {
		log.Debug().Str("type", string(evt.Type)).Msg("Ignoring webhook event")
		return nil
	}

	obj := gjson.ParseBytes(evt.Data.Raw)
	pe := &model.PaymentEvent{
		CheckoutSessionID: obj.Get("id").String(),
		UserID:            obj.Get("metadata.userId").String(),
		Email:             obj.Get("customer_details.email").String(),
		Credits:           int(obj.Get("metadata.credits").Int()),
		AmountTotal:       obj.Get("amount_total").Int(),
		Currency:          obj.Get("currency").String(),
		CouponCode:        obj.Get("metadata.couponCode").String(),
		ReferredBy:        obj.Get("metadata.referredBy").String(),
		Source:            model.PaymentSourceWebhook,
	}

	log.Info().
		Str("checkout_session_id", pe.CheckoutSessionID).
		Str("email", pe.Email).
		Str("amount", fmt.Sprintf("%.2f", float64(pe.AmountTotal)/100)).
		Str("currency", pe.Currency).
		Int("credits", pe.Credits).
		Str("user_id", pe.UserID).
		Msg("Payment successful")

	if pe.CheckoutSessionID != "" {
		s.record(ctx, pe)
	}
	return nil
}

// record stores the payment once and publishes it the first time it is seen.
// Credits are granted by the front end, so failures here are only logged.
func (s *paymentService) record(ctx context.Context, pe *model.PaymentEvent) {
	if s.events == nil {
		return
	}
	created, err := s.events.Record(pe)
	if err != nil {
		log.Error().Err(err).Str("checkout_session_id", pe.CheckoutSessionID).Msg("Failed to record payment event")
		return
	}
	if !created || s.publisher == nil {
		return
	}

	err = s.publisher.Publish(ctx, event.RoutingPaymentCompleted, event.PaymentCompleted{
		CheckoutSessionID: pe.CheckoutSessionID,
		UserID:            pe.UserID,
		Credits:           pe.Credits,
		AmountTotal:       pe.AmountTotal,
		Currency:          pe.Currency,
		CouponCode:        pe.CouponCode,
		ReferredBy:        pe.ReferredBy,
	})
	if err != nil {
		log.Error().Err(err).Str("checkout_session_id", pe.CheckoutSessionID).Msg("Failed to publish payment event")
	}
}
