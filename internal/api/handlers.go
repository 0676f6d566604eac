package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/agent"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/audit"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/models"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/internal/orchestrator"
	"github.com/Kunguma1616/AI-Shop-Assistant-for-Small-Businesses/pkg/logger"
)

// API provides the HTTP handlers for the assistant service.
type API struct {
	controller  *orchestrator.Controller
	registry    *agent.Registry
	connections *ConnectionManager
	logger      *logger.Logger
	upgrader    websocket.Upgrader
}

// NewAPI creates a new API handler.
func NewAPI(controller *orchestrator.Controller, registry *agent.Registry, connections *ConnectionManager, log *logger.Logger) *API {
	return &API{
		controller:  controller,
		registry:    registry,
		connections: connections,
		logger:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // In production, implement a proper origin check.
			},
		},
	}
}

// Connections exposes the manager so the audit stream consumer can push
// entries to subscribers.
func (a *API) Connections() *ConnectionManager {
	return a.connections
}

// HealthHandler reports service liveness.
func (a *API) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "AI Shop Assistant Backend"})
}

type queryRequest struct {
	UserID     string                 `json:"user_id"`
	SessionID  string                 `json:"session_id"`
	Page       string                 `json:"page"`
	ActionType string                 `json:"action_type"`
	UIPayload  map[string]interface{} `json:"ui_payload"`
}

// ProcessQueryHandler is the main entry point: it runs one request through
// the orchestrator and returns the task outcome.
func (a *API) ProcessQueryHandler(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Warn("Invalid request payload")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if req.UserID == "" {
		// Fall back to the authenticated identity.
		if userID, ok := c.Get("userID"); ok {
			req.UserID = userID.(string)
		}
	}

	outcome, err := a.controller.Submit(c.Request.Context(), req.UserID, req.SessionID, req.Page, req.ActionType, req.UIPayload)
	if err != nil {
		var validationErr *orchestrator.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
			return
		}
		// The orchestrator already logged the detailed error.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process request"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetTaskHandler returns the full state of a single task.
func (a *API) GetTaskHandler(c *gin.Context) {
	taskID := c.Param("id")

	task, err := a.controller.GetTask(c.Request.Context(), taskID)
	if err != nil {
		if errors.Is(err, orchestrator.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Task %s not found", taskID)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// GetAuditHandler returns audit entries, newest-first, optionally filtered.
func (a *API) GetAuditHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(audit.DefaultQueryLimit)))
	filter := audit.Filter{
		TaskID: c.Query("task_id"),
		UserID: c.Query("user_id"),
		Agent:  c.Query("agent"),
		Event:  c.Query("event"),
		Limit:  limit,
	}

	entries, err := a.controller.GetAuditTrail(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve audit log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_entries": len(entries),
		"filters": gin.H{
			"task_id": filter.TaskID,
			"user_id": filter.UserID,
			"agent":   filter.Agent,
			"event":   filter.Event,
		},
		"logs": entries,
	})
}

// ExportAuditHandler aggregates audit entries over a time range.
func (a *API) ExportAuditHandler(c *gin.Context) {
	start, err := parseTimeParam(c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start parameter, expected RFC3339"})
		return
	}
	end, err := parseTimeParam(c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid end parameter, expected RFC3339"})
		return
	}

	summary, err := a.controller.ExportAuditRange(c.Request.Context(), start, end)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export audit log"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// AgentProxyHandler returns a handler that forwards the request body straight
// to one named agent, bypassing the orchestrator. The direct endpoints exist
// for dashboard widgets that talk to a single capability.
func (a *API) AgentProxyHandler(agentName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var payload map[string]interface{}
		if err := c.ShouldBindJSON(&payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
			return
		}

		ag, found := a.registry.Get(agentName)
		if !found {
			c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Agent %s is not available", agentName)})
			return
		}

		result, err := ag.Handle(c.Request.Context(), payload)
		if err != nil {
			a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Agent proxy call failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Agent call failed"})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// WebSocketHandler upgrades the connection and subscribes it to the live
// audit feed.
func (a *API) WebSocketHandler(c *gin.Context) {
	userID, _ := c.Get("userID")

	conn, err := a.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to upgrade WebSocket connection")
		return
	}

	a.connections.Add(userID.(string), conn)

	conn.SetCloseHandler(func(code int, text string) error {
		a.connections.Remove(userID.(string))
		return nil
	})

	go func() {
		defer a.connections.Remove(userID.(string))
		for {
			if _, _, err := conn.NextReader(); err != nil {
				break
			}
		}
	}()
}

func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, value)
}
