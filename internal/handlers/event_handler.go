package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/models"
	"github.com/eventhub-app/server/internal/services"
)

type EventHandler struct {
	eventService *services.EventService
	logger       *slog.Logger
}

func NewEventHandler(eventService *services.EventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{eventService: eventService, logger: logger}
}

// eventIDParam parses the :id path segment. The second return reports
// whether the handler should continue.
func eventIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondBadRequest(c, "ID evento non valido")
		return primitive.NilObjectID, false
	}
	return id, true
}

// PublicEvents lists upcoming events with optional date, category and
// location filters. No authentication required.
func (h *EventHandler) PublicEvents(c *gin.Context) {
	var filter models.EventFilter
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			respondBadRequest(c, "Data non valida, usa il formato YYYY-MM-DD")
			return
		}
		filter.Date = &parsed
	}
	filter.Category = c.Query("category")
	filter.Location = c.Query("location")

	events, err := h.eventService.ListPublicEvents(c.Request.Context(), filter)
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero degli eventi")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
	})
}

// MyEvents lists events the principal owns or attends.
func (h *EventHandler) MyEvents(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)

	events, err := h.eventService.ListMyEvents(c.Request.Context(), principal)
	if err != nil {
		respondError(c, h.logger, err, "Errore nel recupero degli eventi")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  events,
	})
}

func (h *EventHandler) Create(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)

	var in services.CreateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "Tutti i campi obbligatori (titolo, descrizione, data, luogo, capienza, categoria) sono richiesti")
		return
	}

	event, err := h.eventService.CreateEvent(c.Request.Context(), principal, in)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante la creazione dell'evento")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Evento creato con successo!",
		"event":   event,
	})
}

func (h *EventHandler) Update(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	var in services.UpdateEventInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "Dati evento non validi")
		return
	}

	event, err := h.eventService.UpdateEvent(c.Request.Context(), principal, eventID, in)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante l'aggiornamento dell'evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Evento aggiornato con successo",
		"event":   event,
	})
}

func (h *EventHandler) Delete(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.DeleteEvent(c.Request.Context(), principal, eventID); err != nil {
		respondError(c, h.logger, err, "Errore durante l'eliminazione dell'evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Evento eliminato con successo",
	})
}

func (h *EventHandler) Join(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.JoinEvent(c.Request.Context(), principal, eventID); err != nil {
		respondError(c, h.logger, err, "Errore durante l'iscrizione all'evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Iscrizione all'evento avvenuta con successo",
	})
}

func (h *EventHandler) Leave(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	if err := h.eventService.LeaveEvent(c.Request.Context(), principal, eventID); err != nil {
		respondError(c, h.logger, err, "Errore durante la disiscrizione dall'evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Disiscrizione dall'evento avvenuta con successo",
	})
}

func (h *EventHandler) Report(c *gin.Context) {
	principal, _ := middleware.CurrentUser(c)
	eventID, ok := eventIDParam(c)
	if !ok {
		return
	}

	count, err := h.eventService.ReportEvent(c.Request.Context(), principal, eventID)
	if err != nil {
		respondError(c, h.logger, err, "Errore durante la segnalazione dell'evento")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Evento segnalato con successo",
		"reportCount": count,
	})
}
