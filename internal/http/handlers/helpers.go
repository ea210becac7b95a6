// README: Shared handler utilities (JSON helpers, error mapping, caller identity).
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/modules/ride"
	"glide/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

// writeServiceError maps module error kinds to HTTP statuses. Wrapped
// messages carry the offending invariant, so they pass through verbatim.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrBadRequest),
		errors.Is(err, driver.ErrBadRequest),
		errors.Is(err, pairing.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, ride.ErrNotFound),
		errors.Is(err, driver.ErrNotFound),
		errors.Is(err, pairing.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, ride.ErrInvalidState),
		errors.Is(err, ride.ErrActiveRide),
		errors.Is(err, ride.ErrConflict):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// callerID reads the authenticated user id forwarded by the auth layer.
// Credential verification itself lives outside this service.
func callerID(c *gin.Context) (types.ID, bool) {
	id := c.GetHeader("X-User-ID")
	if id == "" {
		writeError(c, http.StatusUnauthorized, "missing user identity")
		return "", false
	}
	return types.ID(id), true
}
