package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Robotvalley19/Geocaching-App/pkg/metrics"
	"github.com/gin-gonic/gin"
)

const tileCacheControl = "public, max-age=86400"

// Tile serves {root}/{z}/{x}/{y}.png. Anything that does not name a stored
// tile, including malformed coordinates, is a 404.
func (h *Handler) Tile(c *gin.Context) {
	l := requestLogger(c)
	metrics.TilesRequests.Inc()

	strZ := c.Param("z")
	strX := c.Param("x")
	strY, hasExt := strings.CutSuffix(c.Param("y"), ".png")

	z, okZ := parseCoord(strZ)
	x, okX := parseCoord(strX)
	y, okY := parseCoord(strY)
	if !hasExt || !okZ || !okX || !okY {
		l.Debug("malformed tile path", "path", c.Request.URL.Path)
		h.tileNotFound(c)
		return
	}

	data, exists, err := h.tileUseCase.GetTile(c.Request.Context(), z, x, y)
	if err != nil {
		h.RespondWithInternalServerError(c, err)
		return
	}
	if !exists {
		h.tileNotFound(c)
		return
	}

	c.Header("Cache-Control", tileCacheControl)
	c.Data(http.StatusOK, "image/png", data)
}

func (h *Handler) tileNotFound(c *gin.Context) {
	metrics.TilesNotFound.Inc()
	h.RespondWithError(c, http.StatusNotFound, ErrTileNotFound)
}

// parseCoord accepts plain decimal digits only, no sign.
func parseCoord(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
