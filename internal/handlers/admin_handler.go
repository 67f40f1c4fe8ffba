package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/services"
)

type AdminHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewAdminHandler(userService *services.UserService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{userService: userService, logger: logger}
}

func userIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "ID utente non valido")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero degli utenti")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(users),
		"users":   users,
	})
}

// ToggleBlock flips the target user's active flag.
func (h *AdminHandler) ToggleBlock(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.ToggleUserBlock(c.Request.Context(), principal, userID)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante il blocco dell'utente")
		return
	}

	message := "Utente bloccato con successo"
	if user.IsActive {
		message = "Utente sbloccato con successo"
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": message,
		"user":    user,
	})
}

func (h *AdminHandler) Promote(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.PromoteToAdmin(c.Request.Context(), principal, userID)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante la promozione dell'utente")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Utente promosso a amministratore con successo",
		"user":    user,
	})
}

func (h *AdminHandler) Demote(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	userID, ok := userIDParam(c)
	if !ok {
		return
	}

	user, err := h.userService.DemoteToUser(c.Request.Context(), principal, userID)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante il declassamento dell'utente")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Amministratore degradato a utente con successo",
		"user":    user,
	})
}

func (h *AdminHandler) Stats(c *gin.Context) {
	stats, err := h.userService.GetAdminStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero delle statistiche")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stats":   stats,
	})
}
