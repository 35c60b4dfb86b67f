package assistant

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/controller"
	"github.com/tapolio/tapolio-server/internal/dto"
	"github.com/tapolio/tapolio-server/internal/logger"
	"github.com/tapolio/tapolio-server/internal/service"
)

type AssistantController struct {
	assistantService service.AssistantService
	now              func() time.Time
}

func NewAssistantController(as service.AssistantService) *AssistantController {
	return &AssistantController{assistantService: as, now: time.Now}
}

// RegisterRoutes mounts the assistant routes. /reset is left out when allowReset is false.
func (c *AssistantController) RegisterRoutes(router gin.IRoutes, allowReset bool) {
	router.GET("/health", c.Health)
	router.POST("/suggest", c.Suggest)
	if allowReset {
		router.POST("/reset", c.Reset)
	}
}

// Health godoc
// @Summary Liveness probe
// @Tags System
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func (c *AssistantController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.HealthResponse{
		Status:    "ok",
		Timestamp: c.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

// Suggest godoc
// @Summary Answer the last question in a live transcript
// @Description Detects a question in the transcript and answers it. A transcript without a question returns an empty suggestion.
// @Description Repeated questions return the stored answer.
// @Tags Assistant
// @Accept json
// @Produce json
// @Param request body dto.SuggestRequest true "Speech transcript"
// @Success 200 {object} dto.SuggestResponse
// @Failure 400 {object} dto.ErrorResponse "Missing, invalid or too long transcript"
// @Failure 429 {object} dto.ErrorResponse "Too many requests"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /suggest [post]
func (c *AssistantController) Suggest(ctx *gin.Context) {
	var req dto.SuggestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		controller.BindFailed(ctx, err, dto.MsgInvalidTranscript)
		return
	}
	if err := req.Validate(); err != nil {
		controller.Error(ctx, http.StatusBadRequest, err.Error())
		return
	}

	log.Info().Str("transcript", logger.Truncate(*req.Transcript, 100)).Msg("Suggest request")
	res, err := c.assistantService.Suggest(ctx.Request.Context(), *req.Transcript)
	if err != nil {
		log.Error().Err(err).Msg("Suggest failed")
		controller.Error(ctx, http.StatusInternalServerError, controller.MsgInternalError)
		return
	}

	resp := dto.SuggestResponse{Suggestion: res.Suggestion, Conversation: []dto.ConversationEntry{}}
	if err := copier.Copy(&resp.Conversation, &res.Conversation); err != nil {
		log.Error().Err(err).Msg("Failed to map conversation")
		controller.Error(ctx, http.StatusInternalServerError, controller.MsgInternalError)
		return
	}
	if resp.Conversation == nil {
		resp.Conversation = []dto.ConversationEntry{}
	}
	ctx.JSON(http.StatusOK, resp)
}

// Reset godoc
// @Summary Clear the assistant conversation (development only)
// @Tags Assistant
// @Produce json
// @Success 200 {object} dto.ResetResponse
// @Router /reset [post]
func (c *AssistantController) Reset(ctx *gin.Context) {
	c.assistantService.Reset()
	ctx.JSON(http.StatusOK, dto.ResetResponse{Success: true, Message: "Conversation history cleared"})
}
