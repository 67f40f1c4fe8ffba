package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/eventhub-app/server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventService owns the event lifecycle: creation, owner-gated mutation,
// attendance, reporting and the event chat. Every invariant (capacity,
// membership idempotency, report latch, chat authorization) is checked here,
// not in the HTTP layer.
type EventService struct {
	eventRepo models.EventRepo
	notifier  Notifier
}

func NewEventService(eventRepo models.EventRepo, notifier Notifier) *EventService {
	return &EventService{
		eventRepo: eventRepo,
		notifier:  notifier,
	}
}

type CreateEventInput struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location"`
	Capacity    int       `json:"capacity"`
	Category    string    `json:"category"`
	Image       string    `json:"image"`
}

// UpdateEventInput carries a partial update: nil fields keep their value.
type UpdateEventInput struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Date        *time.Time `json:"date,omitempty"`
	Location    *string    `json:"location,omitempty"`
	Capacity    *int       `json:"capacity,omitempty"`
	Category    *string    `json:"category,omitempty"`
	Image       *string    `json:"image,omitempty"`
}

func (es *EventService) CreateEvent(ctx context.Context, principal *models.User, in CreateEventInput) (*models.Event, error) {
	if in.Title == "" || in.Description == "" || in.Date.IsZero() ||
		in.Location == "" || in.Capacity == 0 || in.Category == "" {
		return nil, ErrEventFieldsRequired
	}

	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = models.DefaultEventImage
	}

	event := &models.Event{
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Date:         in.Date,
		Location:     strings.TrimSpace(in.Location),
		Capacity:     in.Capacity,
		Category:     strings.TrimSpace(in.Category),
		Image:        image,
		Owner:        principal.ID,
		Attendees:    []primitive.ObjectID{},
		ChatMessages: []models.ChatMessage{},
		ReportedBy:   []primitive.ObjectID{},
		CreatedAt:    time.Now(),
	}

	if err := models.Validate.Struct(event); err != nil {
		return nil, validation("Dati evento non validi")
	}

	created, err := es.eventRepo.CreateEvent(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	return created, nil
}

func (es *EventService) GetEvent(ctx context.Context, eventID primitive.ObjectID) (*models.Event, error) {
	event, err := es.eventRepo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrEventNotFound
	}
	return event, nil
}

func (es *EventService) UpdateEvent(ctx context.Context, principal *models.User, eventID primitive.ObjectID, in UpdateEventInput) (*models.Event, error) {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if event.Owner != principal.ID {
		return nil, ErrUpdateEventForbidden
	}

	if in.Title != nil {
		event.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		event.Description = strings.TrimSpace(*in.Description)
	}
	if in.Date != nil {
		event.Date = *in.Date
	}
	if in.Location != nil {
		event.Location = strings.TrimSpace(*in.Location)
	}
	if in.Capacity != nil {
		event.Capacity = *in.Capacity
	}
	if in.Category != nil {
		event.Category = strings.TrimSpace(*in.Category)
	}
	if in.Image != nil {
		event.Image = strings.TrimSpace(*in.Image)
	}

	if err := models.Validate.Struct(event); err != nil {
		return nil, validation("Dati evento non validi")
	}

	if err := es.eventRepo.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	return event, nil
}

func (es *EventService) DeleteEvent(ctx context.Context, principal *models.User, eventID primitive.ObjectID) error {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Owner != principal.ID {
		return ErrDeleteEventForbidden
	}

	if err := es.eventRepo.DeleteEvent(ctx, eventID); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	return nil
}

// JoinEvent subscribes the principal. Membership is checked before capacity
// so a second join by a member reports the duplicate, never the full room.
func (es *EventService) JoinEvent(ctx context.Context, principal *models.User, eventID primitive.ObjectID) error {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if event.HasAttendee(principal.ID) {
		return ErrAlreadyMember
	}
	if len(event.Attendees) >= event.Capacity {
		return ErrCapacityExceeded
	}

	event.Attendees = append(event.Attendees, principal.ID)
	if err := es.eventRepo.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to join event: %w", err)
	}

	es.notifier.Emit(EventUserJoined, AttendancePayload{
		EventID:    event.ID.Hex(),
		UserID:     principal.ID.Hex(),
		Username:   principal.Username,
		EventTitle: event.Title,
	})
	return nil
}

func (es *EventService) LeaveEvent(ctx context.Context, principal *models.User, eventID primitive.ObjectID) error {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return err
	}

	if !event.HasAttendee(principal.ID) {
		return ErrNotMember
	}

	event.RemoveAttendee(principal.ID)
	if err := es.eventRepo.SaveEvent(ctx, event); err != nil {
		return fmt.Errorf("failed to leave event: %w", err)
	}

	es.notifier.Emit(EventUserLeft, AttendancePayload{
		EventID:    event.ID.Hex(),
		UserID:     principal.ID.Hex(),
		Username:   principal.Username,
		EventTitle: event.Title,
	})
	return nil
}

// ReportEvent records one report per user. Crossing the threshold flags the
// event for review once; the flag never reverts and the admin notification
// fires only on the crossing report.
func (es *EventService) ReportEvent(ctx context.Context, principal *models.User, eventID primitive.ObjectID) (int, error) {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return 0, err
	}

	if event.WasReportedBy(principal.ID) {
		return 0, ErrAlreadyReported
	}

	event.ReportedBy = append(event.ReportedBy, principal.ID)
	event.ReportCount++

	crossed := event.ReportCount >= models.ReportThreshold && !event.IsReported
	if crossed {
		event.IsReported = true
	}

	if err := es.eventRepo.SaveEvent(ctx, event); err != nil {
		return 0, fmt.Errorf("failed to report event: %w", err)
	}

	if crossed {
		es.notifier.Emit(EventReportedAdmin, ReportPayload{
			EventID:     event.ID.Hex(),
			EventName:   event.Title,
			ReportCount: event.ReportCount,
			ReportedBy:  principal.ID.Hex(),
		})
	}
	return event.ReportCount, nil
}

func (es *EventService) AddChatMessage(ctx context.Context, principal *models.User, eventID primitive.ObjectID, text string) (*models.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Owner != principal.ID && !event.HasAttendee(principal.ID) {
		return nil, ErrChatPostForbidden
	}

	msg := models.ChatMessage{
		ID:        primitive.NewObjectID(),
		Sender:    principal.ID,
		Message:   text,
		Timestamp: time.Now(),
	}
	event.ChatMessages = append(event.ChatMessages, msg)

	if err := es.eventRepo.SaveEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to add chat message: %w", err)
	}

	es.notifier.EmitToRoom(EventRoom(event.ID), EventNewMessage, ChatPayload{
		EventID: event.ID.Hex(),
		Message: &models.ChatMessageView{
			ID:        msg.ID,
			Sender:    &models.UserRef{ID: principal.ID, Username: principal.Username},
			Message:   msg.Message,
			Timestamp: msg.Timestamp,
		},
	})
	return &msg, nil
}

func (es *EventService) GetChatMessages(ctx context.Context, principal *models.User, eventID primitive.ObjectID) ([]*models.ChatMessageView, error) {
	event, err := es.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if event.Owner != principal.ID && !event.HasAttendee(principal.ID) {
		return nil, ErrChatReadForbidden
	}

	messages, err := es.eventRepo.GetEventChat(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	return messages, nil
}

func (es *EventService) ListPublicEvents(ctx context.Context, filter models.EventFilter) ([]*models.EventView, error) {
	events, err := es.eventRepo.ListPublicEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list public events: %w", err)
	}
	return events, nil
}

func (es *EventService) ListMyEvents(ctx context.Context, principal *models.User) ([]*models.EventView, error) {
	events, err := es.eventRepo.ListUserEvents(ctx, principal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user events: %w", err)
	}
	return events, nil
}
