package dto

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status    string `json:"status" example:"ok"`
	Timestamp string `json:"timestamp" example:"2026-01-01T00:00:00.000Z"`
}

type ConversationEntry struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type SuggestResponse struct {
	Suggestion   string              `json:"suggestion"`
	Conversation []ConversationEntry `json:"conversation"`
}

type ResetResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type StartInterviewResponse struct {
	SessionID      string `json:"sessionId"`
	FirstQuestion  string `json:"firstQuestion"`
	TotalQuestions int    `json:"totalQuestions"`
}

type SubmitAnswerResponse struct {
	Score          int      `json:"score"`
	Feedback       string   `json:"feedback"`
	NextQuestion   *string  `json:"nextQuestion"`
	Complete       bool     `json:"complete"`
	QuestionNumber int      `json:"questionNumber"`
	AverageScore   *float64 `json:"averageScore,omitempty"` // set once complete
}

type HintResponse struct {
	Hint string `json:"hint"`
}

type CreditPackageResponse struct {
	Credits    int    `json:"credits"`
	PriceCents int64  `json:"priceCents"`
	Name       string `json:"name"`
}

type CheckoutSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// VerifyPaymentResponse is returned for paid sessions. Empty coupon and referrer are null.
type VerifyPaymentResponse struct {
	Success    bool    `json:"success"`
	Credits    int     `json:"credits"`
	CouponCode *string `json:"couponCode"`
	ReferredBy *string `json:"referredBy"`
	UserID     string  `json:"userId"`
}

type PaymentNotCompletedResponse struct {
	Success bool `json:"success"`
}

type WebhookResponse struct {
	Received bool `json:"received"`
}
