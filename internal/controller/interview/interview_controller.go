package interview

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/controller"
	"github.com/tapolio/tapolio-server/internal/dto"
	"github.com/tapolio/tapolio-server/internal/model"
	"github.com/tapolio/tapolio-server/internal/service"
	"github.com/tapolio/tapolio-server/internal/store"
)

const (
	msgTooManySessions   = "Too many active sessions. Please complete or wait for existing sessions to expire."
	msgSessionNotFound   = "Session not found"
	msgHintUsed          = "Hint already used for this question"
	msgInterviewComplete = "Interview already complete"
	msgStaleAnswer       = "Answer does not match the current question"
)

type InterviewController struct {
	interviewService service.InterviewService
}

func NewInterviewController(is service.InterviewService) *InterviewController {
	return &InterviewController{interviewService: is}
}

func (c *InterviewController) RegisterRoutes(router gin.IRoutes) {
	router.POST("/interview/start", c.Start)
	router.POST("/interview/answer", c.Answer)
	router.POST("/interview/hint", c.Hint)
}

// Start godoc
// @Summary Start a mock interview
// @Description Creates a session for the technology and returns its first question.
// @Description "General Knowledge" runs 3 questions, every other technology 5.
// @Tags Interview
// @Accept json
// @Produce json
// @Param request body dto.StartInterviewRequest true "Technology"
// @Success 200 {object} dto.StartInterviewResponse
// @Failure 400 {object} dto.ErrorResponse "Technology required / Invalid technology"
// @Failure 429 {object} dto.ErrorResponse "Too many active sessions"
// @Failure 500 {object} dto.ErrorResponse "Failed to start interview"
// @Router /interview/start [post]
func (c *InterviewController) Start(ctx *gin.Context) {
	var req dto.StartInterviewRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, err, dto.MsgTechnologyRequired)
		return
	}
	if err := req.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}
	topic, _ := model.ParseTopic(req.Technology)

	res, err := c.interviewService.Start(ctx.Request.Context(), topic, ctx.ClientIP())
	if err != nil {
		if errors.Is(err, store.ErrTooManySessions) {
			log.Warn().Str("client_ip", ctx.ClientIP()).Msg("Interview start rejected: session cap reached")
			controller.Error(ctx, http.StatusTooManyRequests, msgTooManySessions)
			return
		}
		log.Error().Err(err).Str("topic", topic.String()).Msg("Failed to start interview")
		controller.Error(ctx, http.StatusInternalServerError, "Failed to start interview")
		return
	}

	ctx.JSON(http.StatusOK, dto.StartInterviewResponse{
		SessionID:      res.SessionID,
		FirstQuestion:  res.FirstQuestion,
		TotalQuestions: res.TotalQuestions,
	})
}

// Answer godoc
// @Summary Submit an answer to the current question
// @Description Scores the answer 0-10 with feedback and returns the next question, or null with complete=true after the last one.
// @Tags Interview
// @Accept json
// @Produce json
// @Param request body dto.SubmitAnswerRequest true "Session and answer"
// @Success 200 {object} dto.SubmitAnswerResponse
// @Failure 400 {object} dto.ErrorResponse "Missing sessionId or answer / Answer too long / Invalid session ID"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 409 {object} dto.ErrorResponse "Interview already complete or answer raced another submission"
// @Failure 500 {object} dto.ErrorResponse "Failed to process answer"
// @Router /interview/answer [post]
func (c *InterviewController) Answer(ctx *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, err, dto.MsgMissingAnswer)
		return
	}
	if err := req.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	res, err := c.interviewService.SubmitAnswer(ctx.Request.Context(), req.SessionID, req.Answer)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			controller.Error(ctx, http.StatusNotFound, msgSessionNotFound)
		case errors.Is(err, store.ErrInterviewComplete):
			controller.Error(ctx, http.StatusConflict, msgInterviewComplete)
		case errors.Is(err, store.ErrStaleAnswer):
			controller.Error(ctx, http.StatusConflict, msgStaleAnswer)
		default:
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to process answer")
			controller.Error(ctx, http.StatusInternalServerError, "Failed to process answer")
		}
		return
	}

	resp := dto.SubmitAnswerResponse{
		Score:          res.Score,
		Feedback:       res.Feedback,
		NextQuestion:   res.NextQuestion,
		Complete:       res.Complete,
		QuestionNumber: res.QuestionNumber,
	}
	if res.Complete {
		avg := res.AverageScore
		resp.AverageScore = &avg
	}
	ctx.JSON(http.StatusOK, resp)
}

// Hint godoc
// @Summary Get a hint for the current question
// @Description One hint per question. The hint guides without giving the answer away.
// @Tags Interview
// @Accept json
// @Produce json
// @Param request body dto.HintRequest true "Session"
// @Success 200 {object} dto.HintResponse
// @Failure 400 {object} dto.ErrorResponse "Invalid session ID"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Failure 429 {object} dto.ErrorResponse "Hint already used for this question"
// @Failure 500 {object} dto.ErrorResponse "Failed to generate hint"
// @Router /interview/hint [post]
func (c *InterviewController) Hint(ctx *gin.Context) {
	var req dto.HintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, err, dto.MsgInvalidSessionID)
		return
	}
	if err := req.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	hint, err := c.interviewService.Hint(ctx.Request.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			controller.Error(ctx, http.StatusNotFound, msgSessionNotFound)
		case errors.Is(err, store.ErrHintAlreadyUsed):
			controller.Error(ctx, http.StatusTooManyRequests, msgHintUsed)
		default:
			log.Error().Err(err).Str("session_id", req.SessionID).Msg("Failed to generate hint")
			controller.Error(ctx, http.StatusInternalServerError, "Failed to generate hint")
		}
		return
	}
	ctx.JSON(http.StatusOK, dto.HintResponse{Hint: hint})
}
