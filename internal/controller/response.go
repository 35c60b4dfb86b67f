// Package controller holds helpers shared by the HTTP handlers.
package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/tapolio/tapolio-server/internal/dto"
	"github.com/tapolio/tapolio-server/internal/middleware"
)

const MsgInternalError = "Internal server error"

// BindFailed answers a request whose body could not be decoded.
// Oversized bodies get 413; anything else is reported with the endpoint's own message.
func BindFailed(ctx *gin.Context, err error, msg string) {
	if middleware.IsBodyTooLarge(err) {
		ctx.JSON(http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "Request body too large"})
		return
	}
	log.Warn().Err(err).Str("path", ctx.Request.URL.Path).Msg("Failed to bind request")
	ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

func Error(ctx *gin.Context, status int, msg string) {
	ctx.JSON(status, dto.ErrorResponse{Error: msg})
}

// NotFound is the catch-all for unknown routes.
func NotFound(ctx *gin.Context) {
	Error(ctx, http.StatusNotFound, "Not found")
}
