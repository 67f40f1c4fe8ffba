package services

import (
	"context"

	"github.com/eventhub-app/server/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Realtime event names, matched by the browser clients.
const (
	EventUserJoined    = "userJoinedEvent"
	EventUserLeft      = "userLeftEvent"
	EventNewMessage    = "newMessage"
	EventReportedAdmin = "admin:eventReported"
)

// Notifier is the realtime fan-out used on state changes. Delivery is
// best-effort: implementations must never fail the calling operation.
type Notifier interface {
	Emit(event string, payload any)
	EmitToRoom(room, event string, payload any)
}

// Mailer delivers transactional mail. Implementations may be disabled and
// simply log the request.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

// EventRoom is the broadcast group key for one event's realtime traffic.
func EventRoom(eventID primitive.ObjectID) string {
	return "event:" + eventID.Hex()
}

type AttendancePayload struct {
	EventID    string `json:"eventId"`
	UserID     string `json:"userId"`
	Username   string `json:"username"`
	EventTitle string `json:"eventTitle"`
}

type ReportPayload struct {
	EventID     string `json:"eventId"`
	EventName   string `json:"eventName"`
	ReportCount int    `json:"reportCount"`
	ReportedBy  string `json:"reportedBy"`
}

type ChatPayload struct {
	EventID string                  `json:"eventId"`
	Message *models.ChatMessageView `json:"message"`
}

// NopNotifier drops every emission. It stands in when the realtime hub is
// not wired, e.g. in tests of unrelated paths.
type NopNotifier struct{}

func (NopNotifier) Emit(string, any)               {}
func (NopNotifier) EmitToRoom(string, string, any) {}
