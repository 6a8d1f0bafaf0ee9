package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"taskboard/internal/domain"
)

func createTask(t *testing.T, env *testEnv, token, title string) domain.Task {
	t.Helper()
	rec := performRequest(env.router, http.MethodPost, "/api/tasks", map[string]string{"title": title}, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var task domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("decode task: %v", err)
	}
	return task
}

func TestTaskLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	token := registerUser(t, env, "Alice", "alice@example.com", "hunter22")

	task := createTask(t, env, token, "Buy milk")
	if task.Status != domain.StatusTodo {
		t.Fatalf("expected default status todo, got %q", task.Status)
	}

	// El ciclo de estados del cliente: todo -> inprogress -> done -> todo.
	status := task.Status
	for i := 0; i < 3; i++ {
		status = status.Next()
		rec := performRequest(env.router, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{
			"status": string(status),
		}, token)
		if rec.Code != http.StatusOK {
			t.Fatalf("update status: expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var updated domain.Task
		if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
			t.Fatalf("decode task: %v", err)
		}
		if updated.Status != status {
			t.Fatalf("expected status %q, got %q", status, updated.Status)
		}
	}
	if status != domain.StatusTodo {
		t.Fatalf("expected cycle back to todo, got %q", status)
	}

	rec := performRequest(env.router, http.MethodDelete, "/api/tasks/"+task.ID, nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}

	rec = performRequest(env.router, http.MethodGet, "/api/tasks", nil, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var tasks []domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(tasks))
	}
}

func TestTaskCreate_EmptyTitle(t *testing.T) {
	env := newTestEnv(t, nil)
	token := registerUser(t, env, "Alice", "alice@example.com", "hunter22")

	for _, title := range []string{"", "   "} {
		rec := performRequest(env.router, http.MethodPost, "/api/tasks", map[string]string{"title": title}, token)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for title %q, got %d", title, rec.Code)
		}
	}
	if len(env.taskRepo.tasks) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestTaskList_NewestFirstAndOwnerScoped(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := registerUser(t, env, "Alice", "alice@example.com", "hunter22")
	bob := registerUser(t, env, "Bob", "bob@example.com", "hunter22")

	first := createTask(t, env, alice, "first")
	second := createTask(t, env, alice, "second")
	createTask(t, env, bob, "bob task")

	rec := performRequest(env.router, http.MethodGet, "/api/tasks", nil, alice)
	var tasks []domain.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &tasks); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(tasks) != 2 || tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("expected alice's tasks newest first, got %+v", tasks)
	}
}

func TestTaskUpdate_ForeignOwnerRejected(t *testing.T) {
	env := newTestEnv(t, nil)
	alice := registerUser(t, env, "Alice", "alice@example.com", "hunter22")
	bob := registerUser(t, env, "Bob", "bob@example.com", "hunter22")

	task := createTask(t, env, alice, "Buy milk")

	rec := performRequest(env.router, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{
		"status": "done",
	}, bob)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign owner, got %d", rec.Code)
	}

	rec = performRequest(env.router, http.MethodDelete, "/api/tasks/"+task.ID, nil, bob)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign delete, got %d", rec.Code)
	}

	stored := env.taskRepo.tasks[task.ID]
	if stored.Status != domain.StatusTodo || stored.Title != "Buy milk" {
		t.Fatalf("task must stay unchanged, got %+v", stored)
	}
}

func TestTaskUpdate_NotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	token := registerUser(t, env, "Alice", "alice@example.com", "hunter22")

	rec := performRequest(env.router, http.MethodPut, "/api/tasks/missing", map[string]string{
		"status": "done",
	}, token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestTaskUpdate_InvalidStatus(t *testing.T) {
	env := newTestEnv(t, nil)
	token := registerUser(t, env, "Alice", "alice@example.com", "hunter22")
	task := createTask(t, env, token, "Buy milk")

	rec := performRequest(env.router, http.MethodPut, "/api/tasks/"+task.ID, map[string]string{
		"status": "archived",
	}, token)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid status, got %d", rec.Code)
	}
}

func TestTaskRoutes_RequireAuth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := performRequest(env.router, http.MethodGet, "/api/tasks", nil, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = performRequest(env.router, http.MethodGet, "/api/tasks", nil, "garbage")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid token, got %d", rec.Code)
	}
}
