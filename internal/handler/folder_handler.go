package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/ticklist/internal/folder"
	"github.com/hitoshi/ticklist/internal/model"
)

// FolderServiceInterface はフォルダハンドラーが必要とするサービスインターフェース。
type FolderServiceInterface interface {
	List(ctx context.Context, userID string) ([]*model.Folder, error)
	Create(ctx context.Context, userID string, in folder.CreateInput) (*model.Folder, error)
	Update(ctx context.Context, userID, id string, patch model.FolderPatch) (*model.Folder, error)
	Delete(ctx context.Context, userID, id string) error
	Reorder(ctx context.Context, userID string, ids []string) error
}

// FolderHandler はフォルダ管理のHTTPハンドラー。
type FolderHandler struct {
	service FolderServiceInterface
}

// NewFolderHandler はFolderHandlerを生成する。
func NewFolderHandler(service FolderServiceInterface) *FolderHandler {
	return &FolderHandler{service: service}
}

type createFolderRequest struct {
	Title string `json:"title"`
	Emoji string `json:"emoji"`
}

type updateFolderRequest struct {
	Title *string `json:"title"`
	Emoji *string `json:"emoji"`
}

// ListFolders はフォルダ一覧を返す。
// GET /api/folders
func (h *FolderHandler) ListFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	folders, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolderResponses(folders))
}

// CreateFolder はフォルダを作成する。
// POST /api/folders
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req createFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.service.Create(r.Context(), userID, folder.CreateInput{Title: req.Title, Emoji: req.Emoji})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFolderResponse(f))
}

// UpdateFolder はフォルダを部分更新する。
// PATCH /api/folders/{id}
func (h *FolderHandler) UpdateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	var req updateFolderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	f, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), model.FolderPatch{
		Title: req.Title,
		Emoji: req.Emoji,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toFolderResponse(f))
}

// DeleteFolder はフォルダを削除する。所属していたリストはフォルダなしになる。
// DELETE /api/folders/{id}
func (h *FolderHandler) DeleteFolder(w http.ResponseWriter, r *http.Request) {
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

// ReorderFolders はフォルダの並び順を更新する。
// POST /api/folders/reorder
func (h *FolderHandler) ReorderFolders(w http.ResponseWriter, r *http.Request) {
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
