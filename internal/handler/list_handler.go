package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/tasklist"
)

// ListServiceInterface はリストハンドラーが必要とするサービスインターフェース。
type ListServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.List, error)
	Create(ctx context.Context, userID string, in tasklist.CreateInput) (*model.List, error)
	Update(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, ids []string) error
}

// ListHandler はリスト管理のHTTPハンドラー。
type ListHandler struct {
	service ListServiceInterface
}

// NewListHandler はListHandlerを生成する。
func NewListHandler(service ListServiceInterface) *ListHandler {
	return &ListHandler{service: service}
}

type createListRequest struct {
	Title    string  `json:"title"`
	Emoji    string  `json:"emoji"`
	FolderID *string `json:"folderId"`
}

// updateListRequest のfolderIdはnullでフォルダから外す。
type updateListRequest struct {
	Title    *string          `json:"title"`
	Emoji    *string          `json:"emoji"`
	FolderID nullable[string] `json:"folderId"`
}

// ListLists はリスト一覧を返す。
// GET /api/lists
func (h *ListHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	lists, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponses(lists))
}

// CreateList はリストを作成する。
// POST /api/lists
func (h *ListHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req createListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.service.Create(r.Context(), userID, tasklist.CreateInput{
		Title:    req.Title,
		Emoji:    req.Emoji,
		FolderID: req.FolderID,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toListResponse(l))
}

// UpdateList はリストを部分更新する。
// PATCH /api/lists/{id}
func (h *ListHandler) UpdateList(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateListRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	l, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), model.ListPatch{
		Title:       req.Title,
		Emoji:       req.Emoji,
		FolderID:    req.FolderID.ptr(),
		ClearFolder: req.FolderID.cleared(),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(l))
}

// DeleteList はリストを削除し、そのタスクを受信箱へ移動する。
// DELETE /api/lists/{id}
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
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

// ReorderLists はリストの並び順を更新する。
// POST /api/lists/reorder
func (h *ListHandler) ReorderLists(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req reorderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.service.Reorder(r.Context(), userID, req.IDs); err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}
