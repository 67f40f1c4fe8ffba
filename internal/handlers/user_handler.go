package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/services"
)

type UserHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewUserHandler(userService *services.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{userService: userService, logger: logger}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)

	user, err := h.userService.GetProfile(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero del profilo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

type updateProfileRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)

	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Fornisci almeno un campo da aggiornare")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), principal, req.Username, req.Email)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante l'aggiornamento del profilo")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profilo aggiornato con successo",
		"user":    user,
	})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)

	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Password corrente e nuova password sono richieste")
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), principal, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.logger, err, "Errore durante il cambio password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password cambiata con successo",
	})
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

// ForgotPassword answers identically whether or not the email exists, so
// the endpoint cannot be used to enumerate accounts.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Email richiesta")
		return
	}

	if err := h.userService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, h.logger, err, "Errore durante la richiesta di reset")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Se l'email esiste, riceverai un link per il reset.",
	})
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")

	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Nuova password richiesta")
		return
	}

	if err := h.userService.ResetPassword(c.Request.Context(), token, req.Password); err != nil {
		respondError(c, h.logger, err, "Errore durante il reset della password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password aggiornata con successo. Puoi effettuare il login.",
	})
}
