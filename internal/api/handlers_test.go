package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/config"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/orchestrator"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/store"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

const testSecret = "test-secret"

type echoAgent struct {
	name string
}

func (e *echoAgent) Metadata() agent.Metadata {
	return agent.Metadata{Name: e.name}
}

func (e *echoAgent) Handle(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	return map[string]interface{}{"status": "success", "data": payload}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry := agent.NewRegistry()
	for _, name := range []string{agent.NameCustomerService, agent.NameInventory, agent.NamePricing, agent.NameAudit} {
		registry.Register(&echoAgent{name: name})
	}
	evaluator := audit.NewEvaluator(config.ComplianceConfig{MaxPriceChangePercent: 50, HighAmountThreshold: 1000})
	controller := orchestrator.New(
		store.NewMemoryTaskStore(),
		audit.NewMemoryLedger(),
		registry,
		evaluator,
		config.OrchestratorConfig{AgentTimeoutSeconds: 5, BreakerFailureThreshold: 10, BreakerSuccessThreshold: 1, BreakerTimeoutSeconds: 1},
		true,
		logger.New("api-test", "", ""),
	)

	apiHandler := NewAPI(controller, registry, NewConnectionManager(), logger.New("api-test", "", ""))
	return SetupRouter(apiHandler, testSecret)
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return "Bearer " + signed
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}, authorized bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authorized {
		req.Header.Set("Authorization", bearerToken(t, "u1"))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/health", nil, false)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "healthy" {
		t.Errorf("unexpected health body: %v", body)
	}
}

func TestQueryRequiresAuth(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/ai/query", map[string]interface{}{"page": "inventory"}, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request status = %d, want 401", w.Code)
	}
}

func TestQueryRejectsBadToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/query", bytes.NewBufferString("{}"))
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want 401", w.Code)
	}
}

func TestProcessQueryEndToEnd(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodPost, "/api/ai/query", map[string]interface{}{
		"user_id":    "u1",
		"session_id": "s1",
		"page":       "inventory",
		"ui_payload": map[string]interface{}{"sku": "SKU001"},
	}, true)
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d, body = %s", w.Code, w.Body.String())
	}

	var outcome struct {
		Success bool   `json:"success"`
		TaskID  string `json:"task_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &outcome); err != nil {
		t.Fatal(err)
	}
	if !outcome.Success || outcome.TaskID == "" {
		t.Fatalf("unexpected outcome: %s", w.Body.String())
	}

	// The created task is retrievable.
	taskResp := doJSON(t, router, http.MethodGet, "/api/ai/task/"+outcome.TaskID, nil, true)
	if taskResp.Code != http.StatusOK {
		t.Fatalf("task lookup status = %d", taskResp.Code)
	}
	var task map[string]interface{}
	if err := json.Unmarshal(taskResp.Body.Bytes(), &task); err != nil {
		t.Fatal(err)
	}
	if task["status"] != "completed" {
		t.Errorf("task status = %v, want completed", task["status"])
	}

	// The audit trail carries its entries.
	auditResp := doJSON(t, router, http.MethodGet, "/api/ai/audit?task_id="+outcome.TaskID, nil, true)
	if auditResp.Code != http.StatusOK {
		t.Fatalf("audit status = %d", auditResp.Code)
	}
	var trail struct {
		TotalEntries int `json:"total_entries"`
	}
	if err := json.Unmarshal(auditResp.Body.Bytes(), &trail); err != nil {
		t.Fatal(err)
	}
	if trail.TotalEntries == 0 {
		t.Error("expected audit entries for the task")
	}
}

func TestProcessQueryValidation(t *testing.T) {
	router := newTestRouter(t)

	// session_id missing: the orchestrator rejects before creating a task.
	w := doJSON(t, router, http.MethodPost, "/api/ai/query", map[string]interface{}{
		"user_id": "u1",
		"page":    "inventory",
	}, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
}

func TestGetTaskNotFound(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/ai/task/nonexistent", nil, true)
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing task status = %d, want 404", w.Code)
	}
}

func TestAgentProxyEndpoints(t *testing.T) {
	router := newTestRouter(t)

	paths := []string{
		"/api/inventory/query",
		"/api/pricing/calculate",
		"/api/customer/profile",
		"/api/audit/compliance-check",
	}
	for _, path := range paths {
		w := doJSON(t, router, http.MethodPost, path, map[string]interface{}{"action": "query"}, true)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, body = %s", path, w.Code, w.Body.String())
			continue
		}
		var body map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "success" {
			t.Errorf("%s returned %v", path, body)
		}
	}
}

func TestExportAuditRejectsBadRange(t *testing.T) {
	router := newTestRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/ai/audit/export?start=yesterday", nil, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad range status = %d, want 400", w.Code)
	}
}
