package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/careflowhq/careflow/internal/triage/application/commands"
	"github.com/careflowhq/careflow/internal/triage/application/queries"
	"github.com/careflowhq/careflow/internal/triage/domain/worklist"
)

// PriorityHandler handles priority engine API requests.
type PriorityHandler struct {
	recordInteraction *commands.RecordInteractionHandler
	trainModel        *commands.TrainModelHandler
	prioritizeTasks   *commands.PrioritizeTasksHandler
	modelInfo         *queries.ModelInfoHandler
	listAudit         *queries.ListAuditHandler
	logger            *slog.Logger
}

// PriorityHandlerConfig holds dependencies for the priority handler.
type PriorityHandlerConfig struct {
	RecordInteraction *commands.RecordInteractionHandler
	TrainModel        *commands.TrainModelHandler
	PrioritizeTasks   *commands.PrioritizeTasksHandler
	ModelInfo         *queries.ModelInfoHandler
	ListAudit         *queries.ListAuditHandler
	Logger            *slog.Logger
}

// NewPriorityHandler creates a new priority handler.
func NewPriorityHandler(cfg PriorityHandlerConfig) *PriorityHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &PriorityHandler{
		recordInteraction: cfg.RecordInteraction,
		trainModel:        cfg.TrainModel,
		prioritizeTasks:   cfg.PrioritizeTasks,
		modelInfo:         cfg.ModelInfo,
		listAudit:         cfg.ListAudit,
		logger:            cfg.Logger,
	}
}

type prioritizedTaskResponse struct {
	TaskID          uuid.UUID  `json:"task_id"`
	TaskType        string     `json:"task_type"`
	PatientID       *uuid.UUID `json:"patient_id,omitempty"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Urgency         string     `json:"urgency,omitempty"`
	Score           float64    `json:"priority_score"`
	Reasoning       any        `json:"reasoning"`
	SuggestedAction string     `json:"suggested_action"`
	CreatedAt       time.Time  `json:"created_at"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	Source          string     `json:"source"`
}

// GetPrioritizedTasks handles GET /api/v1/priority/tasks
func (h *PriorityHandler) GetPrioritizedTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.prioritizeTasks.Handle(r.Context(), commands.PrioritizeTasksCommand{UserID: userID})
	if err != nil {
		h.logger.Error("failed to prioritize tasks", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to prioritize tasks")
		return
	}

	tasks := make([]prioritizedTaskResponse, 0, len(result.Tasks))
	for _, view := range result.Tasks {
		tasks = append(tasks, prioritizedTaskResponse{
			TaskID:          view.Task.ID,
			TaskType:        view.Task.Type.String(),
			PatientID:       view.Task.PatientID,
			Title:           view.Task.Title,
			Description:     view.Task.Description,
			Urgency:         view.Task.Urgency.String(),
			Score:           view.Score,
			Reasoning:       view.Reasoning,
			SuggestedAction: view.SuggestedAction,
			CreatedAt:       view.Task.CreatedAt,
			DueDate:         view.Task.DueDate,
			Source:          view.Task.Source,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":           tasks,
		"model_version":   result.ModelVersion,
		"skipped_sources": result.SkippedSources,
		"generated_at":    result.GeneratedAt.Format(time.RFC3339),
	})
}

type recordInteractionRequest struct {
	TaskID           uuid.UUID         `json:"task_id"`
	TaskType         string            `json:"task_type"`
	Action           string            `json:"action"`
	OrderInSession   *int              `json:"order_in_session,omitempty"`
	TimeSpentSeconds *int              `json:"time_spent_seconds,omitempty"`
	Context          map[string]string `json:"context,omitempty"`
}

// RecordInteraction handles POST /api/v1/priority/interaction
func (h *PriorityHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req recordInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TaskID == uuid.Nil || req.TaskType == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "task_id, task_type and action are required")
		return
	}

	cmd := commands.RecordInteractionCommand{
		UserID:         userID,
		TaskID:         req.TaskID,
		TaskType:       req.TaskType,
		Action:         req.Action,
		OrderInSession: req.OrderInSession,
		Context:        req.Context,
	}
	if req.TimeSpentSeconds != nil {
		d := time.Duration(*req.TimeSpentSeconds) * time.Second
		cmd.TimeSpent = &d
	}

	result, err := h.recordInteraction.Handle(r.Context(), cmd)
	if err != nil {
		if errors.Is(err, worklist.ErrUnknownTaskType) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to record interaction", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to record interaction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"interaction_id":     result.InteractionID,
		"session_id":         result.SessionID,
		"interaction_count":  result.InteractionCount,
		"training_requested": result.TrainingRequested,
	})
}

// GetModelInfo handles GET /api/v1/priority/model
func (h *PriorityHandler) GetModelInfo(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.modelInfo.Handle(r.Context(), queries.ModelInfoQuery{UserID: userID})
	if err != nil {
		h.logger.Error("failed to load model info", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to load model info")
		return
	}

	response := map[string]any{
		"model_exists":      result.ModelExists,
		"interaction_count": result.InteractionCount,
		"needs_more_data":   result.NeedsMoreData,
	}
	if result.ModelExists {
		response["model_version"] = result.ModelVersion
		response["model_created_at"] = result.ModelCreatedAt
		if result.Accuracy != nil {
			response["accuracy"] = *result.Accuracy
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// TrainModel handles POST /api/v1/priority/train
func (h *PriorityHandler) TrainModel(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.trainModel.Handle(r.Context(), commands.TrainModelCommand{UserID: userID})
	if err != nil {
		h.logger.Error("failed to train model", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to train model")
		return
	}

	response := map[string]any{
		"trained":           result.Trained,
		"needs_more_data":   result.NeedsMoreData,
		"interaction_count": result.InteractionCount,
	}
	if result.NeedsMoreData {
		writeJSON(w, http.StatusBadRequest, response)
		return
	}
	if result.Trained {
		response["model_version"] = result.ModelVersion
	}
	writeJSON(w, http.StatusOK, response)
}

// ListAudit handles GET /api/v1/priority/audit
func (h *PriorityHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	result, err := h.listAudit.Handle(r.Context(), queries.ListAuditQuery{
		UserID: userID,
		Limit:  parseIntParam(r, "limit", 0),
	})
	if err != nil {
		h.logger.Error("failed to list audit records", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list audit records")
		return
	}

	records := make([]map[string]any, 0, len(result.Records))
	for _, record := range result.Records {
		entry := map[string]any{
			"task_id":          record.TaskID,
			"task_type":        record.TaskType.String(),
			"score":            record.Score,
			"reasoning":        record.Reasoning,
			"suggested_action": record.SuggestedAction,
			"created_at":       record.CreatedAt,
		}
		if record.ModelVersion != nil {
			entry["model_version"] = *record.ModelVersion
		}
		records = append(records, entry)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

// parseIntParam parses an integer query parameter with a default.
func parseIntParam(r *http.Request, name string, defaultValue int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return value
}
