package payment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/controller"
	"github.com/tapolio/tapolio-server/internal/dto"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/service"
)

// WebhookPath must be exempt from the JSON body limit.
const WebhookPath = "/stripe-webhook"

const maxWebhookBody = 1 << 20

type PaymentController struct {
	paymentService service.PaymentService
}

func NewPaymentController(ps service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: ps}
}

func (c *PaymentController) RegisterRoutes(router gin.IRoutes) {
	router.POST(WebhookPath, c.Webhook)
	router.GET("/credit-packages", c.CreditPackages)
	router.POST("/create-checkout-session", c.CreateCheckoutSession)
	router.GET("/verify-payment", c.VerifyPayment)
}

// CreditPackages godoc
// @Summary List purchasable credit packages
// @Tags Payments
// @Produce json
// @Success 200 {array} dto.CreditPackageResponse
// @Router /credit-packages [get]
func (c *PaymentController) CreditPackages(ctx *gin.Context) {
	var resp []dto.CreditPackageResponse
	if err := copier.Copy(&resp, model.SortedCreditPackages()); err != nil {
		log.Error().Err(err).Msg("Failed to map credit packages")
		controller.Error(ctx, http.StatusInternalServerError, controller.MsgInternalError)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// CreateCheckoutSession godoc
// @Summary Create a checkout session for a credits package
// @Description discountedPrice is in dollars and replaces the package price when present.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreateCheckoutRequest true "Package and buyer"
// @Success 200 {object} dto.CheckoutSessionResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid credits package / User ID is required"
// @Failure 500 {object} dto.ErrorResponse "Failed to create checkout session"
// @Router /create-checkout-session [post]
func (c *PaymentController) CreateCheckoutSession(ctx *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, err, dto.MsgInvalidPackage)
		return
	}
	if err := req.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	res, err := c.paymentService.CreateCheckoutSession(ctx.Request.Context(), service.CheckoutRequest{
		Credits:         req.Credits,
		UserID:          req.UserID,
		Email:           req.Email,
		CouponCode:      req.CouponCode,
		ReferredBy:      req.ReferredBy,
		DiscountedPrice: req.DiscountedPrice,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnknownPackage):
			controller.Error(ctx, http.StatusBadRequest, dto.MsgInvalidPackage)
		case errors.Is(err, service.ErrInvalidPrice):
			controller.Error(ctx, http.StatusBadRequest, dto.MsgInvalidPrice)
		default:
			log.Error().Err(err).Str("user_id", req.UserID).Msg("Stripe checkout error")
			controller.Error(ctx, http.StatusInternalServerError, "Failed to create checkout session")
		}
		return
	}
	ctx.JSON(http.StatusOK, dto.CheckoutSessionResponse{SessionID: res.SessionID, URL: res.URL})
}

// VerifyPayment godoc
// @Summary Check whether a checkout session was paid
// @Tags Payments
// @Produce json
// @Param session_id query string true "Checkout session ID"
// @Success 200 {object} dto.VerifyPaymentResponse "Paid"
// @Success 200 {object} dto.PaymentNotCompletedResponse "Not paid yet"
// @Failure 400 {object} dto.ErrorResponse "Session ID is required"
// @Failure 500 {object} dto.ErrorResponse "Failed to verify payment"
// @Router /verify-payment [get]
func (c *PaymentController) VerifyPayment(ctx *gin.Context) {
	var q dto.VerifyPaymentQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		controller.BindFailed(ctx, err, dto.MsgSessionIDRequired)
		return
	}
	if err := q.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	res, err := c.paymentService.VerifyPayment(ctx.Request.Context(), q.SessionID)
	if err != nil {
		log.Error().Err(err).Str("checkout_session_id", q.SessionID).Msg("Payment verification error")
		controller.Error(ctx, http.StatusInternalServerError, "Failed to verify payment")
		return
	}
	if !res.Success {
		ctx.JSON(http.StatusOK, dto.PaymentNotCompletedResponse{Success: false})
		return
	}
	ctx.JSON(http.StatusOK, dto.VerifyPaymentResponse{
		Success:    true,
		Credits:    res.Credits,
		CouponCode: nullable(res.CouponCode),
		ReferredBy: nullable(res.ReferredBy),
		UserID:     res.UserID,
	})
}

// Webhook godoc
// @Summary Payment processor webhook
// @Description Verifies the Stripe-Signature header against the raw body. Without a configured secret the event is acknowledged unverified.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string false "Webhook signature"
// @Success 200 {object} dto.WebhookResponse
// @Failure 400 {string} string "Webhook Error: <reason>"
// @Router /stripe-webhook [post]
func (c *PaymentController) Webhook(ctx *gin.Context) {
	ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, maxWebhookBody)
	payload, err := ctx.GetRawData()
	if err != nil {
		ctx.String(http.StatusBadRequest, "Webhook Error: %s", err.Error())
		return
	}

	err = c.paymentService.HandleWebhook(ctx.Request.Context(), payload, ctx.GetHeader("Stripe-Signature"))
	var whErr *service.WebhookError
	if errors.As(err, &whErr) {
		ctx.String(http.StatusBadRequest, "Webhook Error: %s", whErr.Error())
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Webhook processing failed")
	}
	ctx.JSON(http.StatusOK, dto.WebhookResponse{Received: true})
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
