package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"taskboard/internal/domain"
	"taskboard/internal/live"
	"taskboard/internal/oauth"
	"taskboard/internal/service"
)

const testClientURL = "http://localhost:5173"

type mockUserRepo struct {
	usersByID    map[string]domain.User
	usersByEmail map[string]string
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		usersByID:    make(map[string]domain.User),
		usersByEmail: make(map[string]string),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user domain.User) error {
	if _, exists := m.usersByEmail[user.Email]; exists {
		return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
	}
	m.usersByID[user.ID] = user
	m.usersByEmail[user.Email] = user.ID
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (domain.User, error) {
	user, ok := m.usersByID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (domain.User, error) {
	id, ok := m.usersByEmail[email]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return m.GetByID(context.Background(), id)
}

func (m *mockUserRepo) LinkGoogle(_ context.Context, id, googleID, avatarURL string, updatedAt time.Time) error {
	user, ok := m.usersByID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	user.GoogleID = googleID
	if avatarURL != "" {
		user.AvatarURL = avatarURL
	}
	user.UpdatedAt = updatedAt
	m.usersByID[id] = user
	return nil
}

type mockTaskRepo struct {
	tasks map[string]domain.Task
	order []string
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{tasks: make(map[string]domain.Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, task domain.Task) error {
	m.tasks[task.ID] = task
	m.order = append(m.order, task.ID)
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id string) (domain.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return domain.Task{}, pgx.ErrNoRows
	}
	return task, nil
}

func (m *mockTaskRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.Task, error) {
	var tasks []domain.Task
	for i := len(m.order) - 1; i >= 0; i-- {
		if task, ok := m.tasks[m.order[i]]; ok && task.OwnerID == ownerID {
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

func (m *mockTaskRepo) Update(_ context.Context, task domain.Task) error {
	if _, ok := m.tasks[task.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.tasks[task.ID] = task
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id string) error {
	delete(m.tasks, id)
	return nil
}

type testEnv struct {
	router   *gin.Engine
	hub      *live.Hub
	tokenSvc *service.TokenService
	userRepo *mockUserRepo
	taskRepo *mockTaskRepo
}

func newTestEnv(t *testing.T, google *oauth.GoogleProvider) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	userRepo := newMockUserRepo()
	taskRepo := newMockTaskRepo()
	hub := live.NewHub(logger)
	t.Cleanup(hub.Close)

	tokenSvc := service.NewTokenService("secret", 24*time.Hour)
	userSvc := service.NewUserService(logger, userRepo)
	taskSvc := service.NewTaskService(logger, taskRepo, hub)

	authH := NewAuthHandler(logger, userSvc, tokenSvc, google, testClientURL)
	userH := NewUserHandler(logger, userSvc)
	taskH := NewTaskHandler(logger, taskSvc)
	wsH := NewWSHandler(logger, tokenSvc, hub, testClientURL)

	return &testEnv{
		router:   NewRouter(logger, testClientURL, tokenSvc, authH, userH, taskH, wsH),
		hub:      hub,
		tokenSvc: tokenSvc,
		userRepo: userRepo,
		taskRepo: taskRepo,
	}
}

func performRequest(r http.Handler, method, path string, body any, token string) *httptest.ResponseRecorder {
	var payload []byte
	if body != nil {
		payload, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, env *testEnv, displayName, email, password string) string {
	t.Helper()
	rec := performRequest(env.router, http.MethodPost, "/api/auth/register", map[string]string{
		"displayName": displayName,
		"email":       email,
		"password":    password,
	}, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Token == "" {
		t.Fatalf("register: expected token in response, got %s", rec.Body.String())
	}
	return resp.Token
}
