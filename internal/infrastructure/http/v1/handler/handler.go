package handler

import (
	"net/http"

	"github.com/Robotvalley19/Geocaching-App/internal/usecase"
	"github.com/Robotvalley19/Geocaching-App/pkg/logger"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	tileUseCase *usecase.TileUseCase
}

func NewHandler(uc *usecase.TileUseCase) *Handler {
	return &Handler{
		tileUseCase: uc,
	}
}

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (h *Handler) RespondWithJSON(c *gin.Context, code int, message string, data any) {
	c.JSON(code, response{code < 400, message, data})
}

func (h *Handler) RespondWithError(c *gin.Context, code int, err error) {
	h.RespondWithJSON(c, code, err.Error(), nil)
}

func (h *Handler) RespondWithInternalServerError(c *gin.Context, err error) {
	requestLogger(c).Error("internal http_server error",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"user_agent", c.Request.UserAgent(),
		"ip", c.ClientIP(),
		"error", err,
	)
	_ = c.Error(err)

	h.RespondWithError(c, http.StatusInternalServerError, InternalServerError)
}

func (h *Handler) NotFound(c *gin.Context) {
	h.RespondWithError(c, http.StatusNotFound, ErrNotFound)
}

func requestLogger(c *gin.Context) logger.Logger {
	if v, ok := c.Get("logger"); ok {
		if l, ok := v.(logger.Logger); ok {
			return l
		}
	}
	return logger.FromContext(c.Request.Context())
}
