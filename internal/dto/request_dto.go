package dto

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/tapolio/tapolio-server/internal/model"
)

// MaxTextLength bounds transcripts and answers, in characters.
const MaxTextLength = 5000

// MaxSessionIDLength rejects obviously forged session ids before a lookup.
const MaxSessionIDLength = 50

const (
	MsgInvalidTranscript  = "Missing or invalid transcript"
	MsgTranscriptTooLong  = "Transcript too long (max 5000 characters)"
	MsgTechnologyRequired = "Technology required"
	MsgInvalidTechnology  = "Invalid technology"
	MsgMissingAnswer      = "Missing sessionId or answer"
	MsgAnswerTooLong      = "Answer too long (max 5000 characters)"
	MsgInvalidSessionID   = "Invalid session ID"
	MsgInvalidPackage     = "Invalid credits package"
	MsgUserIDRequired     = "User ID is required"
	MsgInvalidPrice       = "Invalid discounted price"
	MsgSessionIDRequired  = "Session ID is required"
)

type SuggestRequest struct {
	Transcript *string `json:"transcript" example:"So, what is the difference between let and const?"`
}

func (r SuggestRequest) Validate() error {
	return validation.Validate(r.Transcript,
		validation.Required.Error(MsgInvalidTranscript),
		validation.RuneLength(0, MaxTextLength).Error(MsgTranscriptTooLong),
	)
}

type StartInterviewRequest struct {
	Technology string `json:"technology" example:"React"`
}

func (r StartInterviewRequest) Validate() error {
	return validation.Validate(r.Technology,
		validation.Required.Error(MsgTechnologyRequired),
		validation.In(allowedTechnologies()...).Error(MsgInvalidTechnology),
	)
}

type SubmitAnswerRequest struct {
	SessionID string `json:"sessionId" example:"1717171717171k3j9x2ab"`
	Answer    string `json:"answer" example:"Hooks let function components hold state."`
}

func (r SubmitAnswerRequest) Validate() error {
	return firstError(
		validation.Validate(r.SessionID, validation.Required.Error(MsgMissingAnswer)),
		validation.Validate(r.Answer, validation.Required.Error(MsgMissingAnswer)),
		validation.Validate(r.Answer, validation.RuneLength(0, MaxTextLength).Error(MsgAnswerTooLong)),
		validation.Validate(r.SessionID, validation.Length(0, MaxSessionIDLength).Error(MsgInvalidSessionID)),
	)
}

type HintRequest struct {
	SessionID string `json:"sessionId" example:"1717171717171k3j9x2ab"`
}

func (r HintRequest) Validate() error {
	return validation.Validate(r.SessionID,
		validation.Required.Error(MsgInvalidSessionID),
		validation.Length(0, MaxSessionIDLength).Error(MsgInvalidSessionID),
	)
}

type CreateCheckoutRequest struct {
	Credits         int      `json:"credits" example:"25"`
	UserID          string   `json:"userId" example:"b7c1f1d2-0d6b-4d0b-9a55-2fd0b8f5a111"`
	Email           string   `json:"email,omitempty" example:"dev@example.com"`
	CouponCode      string   `json:"couponCode,omitempty" example:"WELCOME10"`
	DiscountedPrice *float64 `json:"discountedPrice,omitempty" example:"8.99"`
	ReferredBy      string   `json:"referredBy,omitempty"`
}

func (r CreateCheckoutRequest) Validate() error {
	return firstError(
		validation.Validate(r.Credits, validation.By(func(any) error {
			if _, ok := model.LookupCreditPackage(r.Credits); !ok {
				return validation.NewError("credits_package", MsgInvalidPackage)
			}
			return nil
		})),
		validation.Validate(r.UserID, validation.Required.Error(MsgUserIDRequired)),
		validation.Validate(r.DiscountedPrice, validation.Min(0.0).Error(MsgInvalidPrice)),
	)
}

type VerifyPaymentQuery struct {
	SessionID string `form:"session_id"`
}

func (q VerifyPaymentQuery) Validate() error {
	return validation.Validate(q.SessionID, validation.Required.Error(MsgSessionIDRequired))
}

func allowedTechnologies() []any {
	out := make([]any, len(model.AllowedTopics))
	for i, t := range model.AllowedTopics {
		out[i] = t.String()
	}
	return out
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
