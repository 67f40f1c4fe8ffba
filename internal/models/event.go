package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// DefaultEventImage is used when no image URL is provided at creation.
	DefaultEventImage = "https://via.placeholder.com/150"

	// ReportThreshold is the number of distinct reports after which an event
	// is flagged for review. The flag is a one-way latch.
	ReportThreshold = 5
)

type ChatMessage struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Sender    primitive.ObjectID `bson:"sender" json:"sender"`
	Message   string             `bson:"message" json:"message"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

type Event struct {
	ID           primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title        string               `bson:"title" json:"title" validate:"required,min=3,max=100"`
	Description  string               `bson:"description" json:"description" validate:"required,min=10,max=1000"`
	Date         time.Time            `bson:"date" json:"date" validate:"required"`
	Location     string               `bson:"location" json:"location" validate:"required,min=3,max=200"`
	Capacity     int                  `bson:"capacity" json:"capacity" validate:"required,min=1"`
	Category     string               `bson:"category" json:"category" validate:"required,min=3,max=50"`
	Image        string               `bson:"image" json:"image"`
	Owner        primitive.ObjectID   `bson:"owner" json:"owner"`
	Attendees    []primitive.ObjectID `bson:"attendees" json:"attendees"`
	ChatMessages []ChatMessage        `bson:"chatMessages" json:"chatMessages"`
	ReportCount  int                  `bson:"reportCount" json:"reportCount"`
	IsReported   bool                 `bson:"isReported" json:"isReported"`
	ReportedBy   []primitive.ObjectID `bson:"reportedBy" json:"-"`
	CreatedAt    time.Time            `bson:"createdAt" json:"createdAt"`
}

// HasAttendee reports whether the given user is currently subscribed.
func (e *Event) HasAttendee(userID primitive.ObjectID) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// WasReportedBy reports whether the given user already reported this event.
func (e *Event) WasReportedBy(userID primitive.ObjectID) bool {
	for _, id := range e.ReportedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RemoveAttendee drops the given user from the attendee list if present.
func (e *Event) RemoveAttendee(userID primitive.ObjectID) {
	out := e.Attendees[:0]
	for _, id := range e.Attendees {
		if id != userID {
			out = append(out, id)
		}
	}
	e.Attendees = out
}

// UserRef is the resolved identity embedded in listing responses, the
// equivalent of populating owner/attendees with username and email.
type UserRef struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Email    string             `bson:"email,omitempty" json:"email,omitempty"`
}

// EventView is an Event with owner and attendee identities resolved.
type EventView struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Date        time.Time          `bson:"date" json:"date"`
	Location    string             `bson:"location" json:"location"`
	Capacity    int                `bson:"capacity" json:"capacity"`
	Category    string             `bson:"category" json:"category"`
	Image       string             `bson:"image" json:"image"`
	Owner       *UserRef           `bson:"owner" json:"owner"`
	Attendees   []UserRef          `bson:"attendees" json:"attendees"`
	ReportCount int                `bson:"reportCount" json:"reportCount"`
	IsReported  bool               `bson:"isReported" json:"isReported"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// ChatMessageView is a ChatMessage with the sender identity resolved.
type ChatMessageView struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Sender    *UserRef           `bson:"sender" json:"sender"`
	Message   string             `bson:"message" json:"message"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// EventFilter narrows public event listings. Category and Location are
// case-insensitive substring matches; Date keeps events at or after it.
type EventFilter struct {
	Date     *time.Time
	Category string
	Location string
}

type EventRepo interface {
	CreateEvent(ctx context.Context, event *Event) (*Event, error)
	GetEventByID(ctx context.Context, id primitive.ObjectID) (*Event, error)
	// SaveEvent writes the whole document back, mirroring a load-mutate-save
	// cycle. Concurrent writers against the same event are not serialized.
	SaveEvent(ctx context.Context, event *Event) error
	DeleteEvent(ctx context.Context, id primitive.ObjectID) error
	ListPublicEvents(ctx context.Context, filter EventFilter) ([]*EventView, error)
	ListUserEvents(ctx context.Context, userID primitive.ObjectID) ([]*EventView, error)
	GetEventChat(ctx context.Context, id primitive.ObjectID) ([]*ChatMessageView, error)
}
