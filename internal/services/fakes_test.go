package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventhub-app/server/internal/models"
)

// memEventRepo is an in-memory EventRepo for service tests.
type memEventRepo struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]*models.Event
	users  map[primitive.ObjectID]*models.User
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{
		events: make(map[primitive.ObjectID]*models.Event),
		users:  make(map[primitive.ObjectID]*models.User),
	}
}

func (r *memEventRepo) CreateEvent(_ context.Context, event *models.Event) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID.IsZero() {
		event.ID = primitive.NewObjectID()
	}
	cp := *event
	r.events[event.ID] = &cp
	return event, nil
}

func (r *memEventRepo) GetEventByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *event
	cp.Attendees = append([]primitive.ObjectID(nil), event.Attendees...)
	cp.ChatMessages = append([]models.ChatMessage(nil), event.ChatMessages...)
	cp.ReportedBy = append([]primitive.ObjectID(nil), event.ReportedBy...)
	return &cp, nil
}

func (r *memEventRepo) SaveEvent(_ context.Context, event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *memEventRepo) DeleteEvent(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

func (r *memEventRepo) ListPublicEvents(_ context.Context, filter models.EventFilter) ([]*models.EventView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EventView
	for _, event := range r.events {
		if filter.Date != nil && event.Date.Before(*filter.Date) {
			continue
		}
		if filter.Category != "" && !strings.Contains(strings.ToLower(event.Category), strings.ToLower(filter.Category)) {
			continue
		}
		if filter.Location != "" && !strings.Contains(strings.ToLower(event.Location), strings.ToLower(filter.Location)) {
			continue
		}
		out = append(out, r.toView(event))
	}
	return out, nil
}

func (r *memEventRepo) ListUserEvents(_ context.Context, userID primitive.ObjectID) ([]*models.EventView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.EventView
	for _, event := range r.events {
		if event.Owner == userID || event.HasAttendee(userID) {
			out = append(out, r.toView(event))
		}
	}
	return out, nil
}

func (r *memEventRepo) GetEventChat(_ context.Context, id primitive.ObjectID) ([]*models.ChatMessageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	out := make([]*models.ChatMessageView, 0, len(event.ChatMessages))
	for _, msg := range event.ChatMessages {
		view := &models.ChatMessageView{
			ID:        msg.ID,
			Message:   msg.Message,
			Timestamp: msg.Timestamp,
		}
		if sender, ok := r.users[msg.Sender]; ok {
			view.Sender = &models.UserRef{ID: sender.ID, Username: sender.Username}
		}
		out = append(out, view)
	}
	return out, nil
}

func (r *memEventRepo) toView(event *models.Event) *models.EventView {
	view := &models.EventView{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		Date:        event.Date,
		Location:    event.Location,
		Capacity:    event.Capacity,
		Category:    event.Category,
		Image:       event.Image,
		ReportCount: event.ReportCount,
		IsReported:  event.IsReported,
		CreatedAt:   event.CreatedAt,
	}
	if owner, ok := r.users[event.Owner]; ok {
		view.Owner = &models.UserRef{ID: owner.ID, Username: owner.Username, Email: owner.Email}
	}
	for _, id := range event.Attendees {
		if attendee, ok := r.users[id]; ok {
			view.Attendees = append(view.Attendees, models.UserRef{ID: attendee.ID, Username: attendee.Username, Email: attendee.Email})
		}
	}
	return view
}

// memUserRepo is an in-memory UserRepo for service tests.
type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *memUserRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *memUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email || user.Username == username {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) FindConflicting(_ context.Context, exclude primitive.ObjectID, username, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ID == exclude {
			continue
		}
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.ResetPasswordToken == token &&
			user.ResetPasswordExpires != nil && user.ResetPasswordExpires.After(time.Now()) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) SaveUser(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *memUserRepo) ListUsers(_ context.Context, limit int64) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.User
	for _, user := range r.users {
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, user.Sanitized())
	}
	return out, nil
}

func (r *memUserRepo) GetAdminStats(_ context.Context) (*models.AdminStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &models.AdminStats{}
	for _, user := range r.users {
		stats.TotalUsers++
		if user.IsActive {
			stats.ActiveUsers++
		} else {
			stats.BlockedUsers++
		}
		if user.IsAdmin() {
			stats.AdminUsers++
		} else {
			stats.RegularUsers++
		}
	}
	if stats.TotalUsers > 0 {
		stats.ActivityRate = int(float64(stats.ActiveUsers) / float64(stats.TotalUsers) * 100)
	}
	return stats, nil
}

// emission records one Notifier call.
type emission struct {
	Room    string
	Event   string
	Payload any
}

// recordNotifier captures emissions for assertions.
type recordNotifier struct {
	mu        sync.Mutex
	emissions []emission
}

func (n *recordNotifier) Emit(event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emissions = append(n.emissions, emission{Event: event, Payload: payload})
}

func (n *recordNotifier) EmitToRoom(room, event string, payload any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.emissions = append(n.emissions, emission{Room: room, Event: event, Payload: payload})
}

func (n *recordNotifier) byEvent(event string) []emission {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []emission
	for _, e := range n.emissions {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

// recordMailer captures password reset sends.
type recordMailer struct {
	mu    sync.Mutex
	sends []string
}

func (m *recordMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, to+" "+resetURL)
	return nil
}
