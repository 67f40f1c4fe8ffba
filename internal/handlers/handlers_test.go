package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/eventhub-app/server/internal/helpers"
	"github.com/eventhub-app/server/internal/middleware"
	"github.com/eventhub-app/server/internal/models"
	"github.com/eventhub-app/server/internal/services"
)

const testSecret = "test-secret"

// memRepo is an in-memory implementation of both repositories, enough to
// drive the HTTP surface end to end.
type memRepo struct {
	users  map[primitive.ObjectID]*models.User
	events map[primitive.ObjectID]*models.Event
}

func newMemRepo() *memRepo {
	return &memRepo{
		users:  make(map[primitive.ObjectID]*models.User),
		events: make(map[primitive.ObjectID]*models.Event),
	}
}

func (r *memRepo) CreateUser(_ context.Context, u *models.User) (*models.User, error) {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	cp := *u
	r.users[u.ID] = &cp
	return u, nil
}

func (r *memRepo) GetUserByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email || u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) FindConflicting(_ context.Context, exclude primitive.ObjectID, username, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.ID == exclude {
			continue
		}
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetUserByResetToken(_ context.Context, token string) (*models.User, error) {
	for _, u := range r.users {
		if u.ResetPasswordToken == token && u.ResetPasswordExpires != nil && u.ResetPasswordExpires.After(time.Now()) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) SaveUser(_ context.Context, u *models.User) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *memRepo) ListUsers(_ context.Context, limit int64) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.users {
		if int64(len(out)) >= limit {
			break
		}
		out = append(out, u.Sanitized())
	}
	return out, nil
}

func (r *memRepo) GetAdminStats(_ context.Context) (*models.AdminStats, error) {
	stats := &models.AdminStats{}
	for _, u := range r.users {
		stats.TotalUsers++
		if u.IsActive {
			stats.ActiveUsers++
		} else {
			stats.BlockedUsers++
		}
		if u.IsAdmin() {
			stats.AdminUsers++
		} else {
			stats.RegularUsers++
		}
	}
	return stats, nil
}

func (r *memRepo) CreateEvent(_ context.Context, e *models.Event) (*models.Event, error) {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	cp := *e
	r.events[e.ID] = &cp
	return e, nil
}

func (r *memRepo) GetEventByID(_ context.Context, id primitive.ObjectID) (*models.Event, error) {
	if e, ok := r.events[id]; ok {
		cp := *e
		cp.Attendees = append([]primitive.ObjectID(nil), e.Attendees...)
		cp.ChatMessages = append([]models.ChatMessage(nil), e.ChatMessages...)
		cp.ReportedBy = append([]primitive.ObjectID(nil), e.ReportedBy...)
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) SaveEvent(_ context.Context, e *models.Event) error {
	cp := *e
	r.events[e.ID] = &cp
	return nil
}

func (r *memRepo) DeleteEvent(_ context.Context, id primitive.ObjectID) error {
	delete(r.events, id)
	return nil
}

func (r *memRepo) ListPublicEvents(_ context.Context, _ models.EventFilter) ([]*models.EventView, error) {
	var out []*models.EventView
	for _, e := range r.events {
		out = append(out, &models.EventView{ID: e.ID, Title: e.Title})
	}
	return out, nil
}

func (r *memRepo) ListUserEvents(_ context.Context, userID primitive.ObjectID) ([]*models.EventView, error) {
	var out []*models.EventView
	for _, e := range r.events {
		if e.Owner == userID || e.HasAttendee(userID) {
			out = append(out, &models.EventView{ID: e.ID, Title: e.Title})
		}
	}
	return out, nil
}

func (r *memRepo) GetEventChat(_ context.Context, id primitive.ObjectID) ([]*models.ChatMessageView, error) {
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	var out []*models.ChatMessageView
	for _, msg := range e.ChatMessages {
		view := &models.ChatMessageView{ID: msg.ID, Message: msg.Message, Timestamp: msg.Timestamp}
		if sender, ok := r.users[msg.Sender]; ok {
			view.Sender = &models.UserRef{ID: sender.ID, Username: sender.Username}
		}
		out = append(out, view)
	}
	return out, nil
}

type nopMailer struct{}

func (nopMailer) SendPasswordReset(context.Context, string, string) error { return nil }

// testApp bundles the router and its backing store for one test.
type testApp struct {
	router *gin.Engine
	repo   *memRepo
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemRepo()
	logger := slog.New(slog.DiscardHandler)
	userService := services.NewUserService(repo, nopMailer{}, testSecret, time.Hour, "http://localhost:3000")
	eventService := services.NewEventService(repo, services.NopNotifier{})

	authHandler := NewAuthHandler(userService, logger)
	userHandler := NewUserHandler(userService, logger)
	eventHandler := NewEventHandler(eventService, logger)
	chatHandler := NewChatHandler(eventService, logger)
	adminHandler := NewAdminHandler(userService, logger)

	authRequired := middleware.Auth(userService, testSecret, logger)
	memberOnly := middleware.RequireAnyRole(models.RoleUser, models.RoleAdmin)
	adminOnly := middleware.RequireRole(models.RoleAdmin)

	r := gin.New()
	api := r.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authRequired, authHandler.Me)

	api.GET("/user/public-events", eventHandler.PublicEvents)
	api.POST("/user/forgot-password", userHandler.ForgotPassword)

	user := api.Group("/user", authRequired)
	user.GET("/profile", userHandler.GetProfile)
	user.PUT("/profile", userHandler.UpdateProfile)
	events := user.Group("/events")
	events.GET("", eventHandler.MyEvents)
	events.POST("", adminOnly, eventHandler.Create)
	events.PUT("/:id", adminOnly, eventHandler.Update)
	events.DELETE("/:id", adminOnly, eventHandler.Delete)
	events.POST("/:id/join", memberOnly, eventHandler.Join)
	events.POST("/:id/leave", memberOnly, eventHandler.Leave)
	events.POST("/:id/report", memberOnly, eventHandler.Report)
	events.GET("/:id/chat", memberOnly, chatHandler.GetMessages)
	events.POST("/:id/chat", memberOnly, chatHandler.AddMessage)

	admin := api.Group("/admin", authRequired, adminOnly)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id/block", adminHandler.ToggleBlock)
	admin.GET("/stats", adminHandler.Stats)

	return &testApp{router: r, repo: repo}
}

func (a *testApp) seedUser(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	hash, err := helpers.HashPassword("segreta1")
	require.NoError(t, err)
	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: hash,
		Role:     role,
		IsActive: true,
	}
	_, err = a.repo.CreateUser(context.Background(), user)
	require.NoError(t, err)
	token, err := helpers.GenerateToken(testSecret, time.Hour, user.ID.Hex(), username, role)
	require.NoError(t, err)
	return user, token
}

func (a *testApp) seedEvent(t *testing.T, owner *models.User, capacity int) *models.Event {
	t.Helper()
	event := &models.Event{
		Title:        "Serata jazz",
		Description:  "Concerto dal vivo con jam session finale",
		Date:         time.Now().Add(48 * time.Hour),
		Location:     "Milano",
		Capacity:     capacity,
		Category:     "musica",
		Image:        models.DefaultEventImage,
		Owner:        owner.ID,
		Attendees:    []primitive.ObjectID{},
		ChatMessages: []models.ChatMessage{},
		ReportedBy:   []primitive.ObjectID{},
	}
	_, err := a.repo.CreateEvent(context.Background(), event)
	require.NoError(t, err)
	return event
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLoginFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "mario",
		"email":    "mario@example.com",
		"password": "segreta1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "Utente registrato con successo")

	// same email again
	w = app.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"username": "altro",
		"email":    "mario@example.com",
		"password": "segreta1",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Email già registrata")

	w = app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "mario@example.com",
		"password": "segreta1",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Login effettuato con successo")

	var resp struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)

	w = app.do(t, http.MethodGet, "/api/auth/me", resp.Data.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "mario")
}

func TestLoginWrongCredentials(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "mario", models.RoleUser)

	w := app.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "mario@example.com",
		"password": "sbagliata",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Credenziali non valide")
}

func TestEventCrudAuthorization(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, "boss", models.RoleAdmin)
	_, userToken := app.seedUser(t, "mario", models.RoleUser)

	body := gin.H{
		"title":       "Degustazione vini",
		"description": "Una serata tra i vigneti del Chianti",
		"date":        time.Now().Add(72 * time.Hour).Format(time.RFC3339),
		"location":    "Firenze",
		"capacity":    30,
		"category":    "enogastronomia",
	}

	// regular users cannot create events
	w := app.do(t, http.MethodPost, "/api/user/events", userToken, body)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "Accesso negato")

	w = app.do(t, http.MethodPost, "/api/user/events", adminToken, body)
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "Evento creato con successo!")

	var created struct {
		Event struct {
			ID string `json:"id"`
		} `json:"event"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = app.do(t, http.MethodPut, "/api/user/events/"+created.Event.ID, adminToken, gin.H{"title": "Degustazione autunnale"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Evento aggiornato con successo")

	w = app.do(t, http.MethodDelete, "/api/user/events/"+created.Event.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Evento eliminato con successo")

	w = app.do(t, http.MethodDelete, "/api/user/events/not-an-id", adminToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "ID evento non valido")
}

func TestJoinLeaveOverHTTP(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.seedUser(t, "boss", models.RoleAdmin)
	_, userToken := app.seedUser(t, "mario", models.RoleUser)
	event := app.seedEvent(t, owner, 1)

	path := "/api/user/events/" + event.ID.Hex()

	w := app.do(t, http.MethodPost, path+"/join", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Iscrizione all'evento avvenuta con successo")

	w = app.do(t, http.MethodPost, path+"/join", userToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Sei gia iscritto a questo evento")

	_, otherToken := app.seedUser(t, "luigi", models.RoleUser)
	w = app.do(t, http.MethodPost, path+"/join", otherToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Capienza massima raggiunta per questo evento")

	w = app.do(t, http.MethodPost, path+"/leave", userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Disiscrizione dall'evento avvenuta con successo")

	w = app.do(t, http.MethodPost, path+"/leave", userToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Non sei iscritto a questo evento")
}

func TestReportOverHTTP(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.seedUser(t, "boss", models.RoleAdmin)
	_, userToken := app.seedUser(t, "mario", models.RoleUser)
	event := app.seedEvent(t, owner, 10)

	path := "/api/user/events/" + event.ID.Hex() + "/report"

	w := app.do(t, http.MethodPost, path, userToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Evento segnalato con successo")
	require.Contains(t, w.Body.String(), `"reportCount":1`)

	w = app.do(t, http.MethodPost, path, userToken, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Hai già segnalato questo evento")
}

func TestChatOverHTTP(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.seedUser(t, "boss", models.RoleAdmin)
	member, memberToken := app.seedUser(t, "mario", models.RoleUser)
	_, strangerToken := app.seedUser(t, "luigi", models.RoleUser)
	event := app.seedEvent(t, owner, 10)
	event.Attendees = append(event.Attendees, member.ID)
	require.NoError(t, app.repo.SaveEvent(context.Background(), event))

	path := "/api/user/events/" + event.ID.Hex() + "/chat"

	w := app.do(t, http.MethodPost, path, strangerToken, gin.H{"message": "ciao"})
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "Non autorizzato a inviare messaggi in questa chat")

	w = app.do(t, http.MethodPost, path, memberToken, gin.H{"message": "  ci vediamo li  "})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), "Messaggio inviato con successo")

	w = app.do(t, http.MethodPost, path, memberToken, gin.H{"message": "   "})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Il messaggio non puo essere vuoto")

	w = app.do(t, http.MethodGet, path, strangerToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	require.Contains(t, w.Body.String(), "Non autorizzato a visualizzare questa chat")

	w = app.do(t, http.MethodGet, path, memberToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ci vediamo li")
}

func TestPublicEventsNoAuth(t *testing.T) {
	app := newTestApp(t)
	owner, _ := app.seedUser(t, "boss", models.RoleAdmin)
	app.seedEvent(t, owner, 10)

	w := app.do(t, http.MethodGet, "/api/user/public-events", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Serata jazz")
}

func TestAdminEndpoints(t *testing.T) {
	app := newTestApp(t)
	_, adminToken := app.seedUser(t, "boss", models.RoleAdmin)
	target, userToken := app.seedUser(t, "mario", models.RoleUser)

	// non-admin is rejected
	w := app.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"count":2`)

	w = app.do(t, http.MethodPatch, "/api/admin/users/"+target.ID.Hex()+"/block", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Utente bloccato con successo")

	// the blocked user can no longer authenticate
	w = app.do(t, http.MethodGet, "/api/user/profile", userToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "Account disabilitato")

	w = app.do(t, http.MethodPatch, "/api/admin/users/"+target.ID.Hex()+"/block", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Utente sbloccato con successo")

	w = app.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"totalUsers":2`)
}

func TestForgotPasswordUniformReply(t *testing.T) {
	app := newTestApp(t)
	app.seedUser(t, "mario", models.RoleUser)

	for _, email := range []string{"mario@example.com", "nessuno@example.com"} {
		w := app.do(t, http.MethodPost, "/api/user/forgot-password", "", gin.H{"email": email})
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "Se l'email esiste, riceverai un link per il reset.")
	}
}
