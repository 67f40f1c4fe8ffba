package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/services"
)

type AuthHandler struct {
	userService *services.UserService
	logger      *slog.Logger
}

func NewAuthHandler(userService *services.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{userService: userService, logger: logger}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Tutti i campi sono richiesti")
		return
	}

	user, token, err := h.userService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante la registrazione")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Utente registrato con successo",
		"data": gin.H{
			"user":  user,
			"token": token,
		},
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Email e password sono richieste")
		return
	}

	user, token, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante il login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login effettuato con successo",
		"data": gin.H{
			"user":  user,
			"token": token,
		},
	})
}

// Logout is stateless: tokens are not tracked server side, the client
// simply discards its copy.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logout effettuato con successo",
	})
}

// Verify confirms the presented token resolved to an active user.
func (h *AuthHandler) Verify(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Token valido",
		"data": gin.H{
			"user": user,
		},
	})
}

// Me returns the authenticated principal.
func (h *AuthHandler) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"user": user,
		},
	})
}
