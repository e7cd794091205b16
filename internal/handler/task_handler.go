package handler

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	Query(ctx context.Context, userID string, q model.TaskQuery) ([]*model.Task, error)
	Get(ctx context.Context, userID, id string) (*model.Task, error)
	Create(ctx context.Context, userID string, in task.CreateInput) (*model.Task, error)
	Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, listID *string, ids []string) error
}

// TaskHandler はタスク管理のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title    string   `json:"title"`
	ListID   *string  `json:"listId"`
	DueDate  *string  `json:"dueDate"`
	Priority *int     `json:"priority"`
	Notes    *string  `json:"notes"`
	Tags     []string `json:"tags"`
}

// updateTaskRequest のdueDate・orderIndexはnullで値を消去する。
type updateTaskRequest struct {
	Title      *string          `json:"title"`
	Completed  *bool            `json:"completed"`
	ListID     *string          `json:"listId"`
	DueDate    nullable[string] `json:"dueDate"`
	OrderIndex nullable[int]    `json:"orderIndex"`
	Priority   *int             `json:"priority"`
	Notes      *string          `json:"notes"`
	Tags       *[]string        `json:"tags"`
}

// ListTasks は条件に一致するタスク一覧を返す。
// GET /api/tasks?filter=&sort=&list_id=&due=&due_from=&due_to=&q=&tag=&priority=
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	q, apiErr := parseTaskQuery(r.URL.Query())
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	tasks, err := h.service.Query(r.Context(), userID, q)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// GetTask はタスク詳細を返す。
// GET /api/tasks/{id}
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	t, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// CreateTask はタスクを作成する。listIdを省略した場合は受信箱に入る。
// POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req createTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.service.Create(r.Context(), userID, task.CreateInput{
		Title:    req.Title,
		ListID:   req.ListID,
		DueDate:  req.DueDate,
		Priority: req.Priority,
		Notes:    req.Notes,
		Tags:     req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskResponse(t))
}

// UpdateTask はタスクを部分更新する。
// PATCH /api/tasks/{id}
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), model.TaskPatch{
		Title:        req.Title,
		Completed:    req.Completed,
		ListID:       req.ListID,
		DueDate:      req.DueDate.ptr(),
		ClearDueDate: req.DueDate.cleared(),
		OrderIndex:   req.OrderIndex.ptr(),
		ClearOrder:   req.OrderIndex.cleared(),
		Priority:     req.Priority,
		Notes:        req.Notes,
		Tags:         req.Tags,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskResponse(t))
}

// DeleteTask はタスクを削除する。
// DELETE /api/tasks/{id}
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedResponse{Deleted: true})
}

// ReorderTasks はタスクの手動並び順を更新する。listIdを指定するとそのリスト内に限定する。
// POST /api/tasks/reorder
func (h *TaskHandler) ReorderTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.Reorder(r.Context(), userID, req.ListID, req.IDs); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

// parseTaskQuery はクエリパラメータをTaskQueryに変換する。
// 値の妥当性検証はサービス層で行い、ここでは型変換のみを扱う。
func parseTaskQuery(v url.Values) (model.TaskQuery, *model.APIError) {
	q := model.TaskQuery{
		Filter:  model.TaskFilter(v.Get("filter")),
		Sort:    model.TaskSort(v.Get("sort")),
		ListID:  optionalParam(v, "list_id"),
		Due:     optionalParam(v, "due"),
		DueFrom: optionalParam(v, "due_from"),
		DueTo:   optionalParam(v, "due_to"),
		Search:  optionalParam(v, "q"),
		Tag:     optionalParam(v, "tag"),
	}
	if raw := v.Get("priority"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return q, model.NewValidationError("priorityは整数で指定してください: " + raw)
		}
		q.Priority = &p
	}
	return q, nil
}

func optionalParam(v url.Values, key string) *string {
	s := v.Get(key)
	if s == "" {
		return nil
	}
	return &s
}
