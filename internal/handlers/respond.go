package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub-app/server/internal/services"
)

// respondError maps a service error onto the wire. Known service errors
// carry their own status and user-facing message; anything else is a 500
// with the operation's fallback message so internals never leak.
func respondError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	var svcErr *services.ServiceError
	if errors.As(err, &svcErr) {
		c.JSON(svcErr.HTTPStatus(), gin.H{
			"success": false,
			"message": svcErr.Message,
		})
		return
	}

	requestID, _ := c.Get("request_id")
	logger.Error(fallback,
		"request_id", requestID,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"message": fallback,
	})
}

// respondBadRequest is for malformed input caught at the HTTP layer
// (bad JSON bodies, invalid path IDs).
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"message": message,
	})
}
