package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/services"
)

type ChatHandler struct {
	eventService *services.EventService
	logger       *slog.Logger
}

func NewChatHandler(eventService *services.EventService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{eventService: eventService, logger: logger}
}

type chatMessageRequest struct {
	Message string `json:"message"`
}

func (h *ChatHandler) AddMessage(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Il messaggio non puo essere vuoto")
		return
	}

	msg, err := h.eventService.AddChatMessage(c.Request.Context(), principal, eventID, req.Message)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante l'invio del messaggio")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "Messaggio inviato con successo",
		"chatMessage": msg,
	})
}

func (h *ChatHandler) GetMessages(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	messages, err := h.eventService.GetChatMessages(c.Request.Context(), principal, eventID)
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero dei messaggi")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"chatMessages": messages,
	})
}
