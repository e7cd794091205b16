package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/ticklist/internal/middleware"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Export はユーザーのフォルダ・リスト・タスクをすべて返す。
	Export(ctx context.Context, u *model.User) (*user.Export, error)
}

// UserHandler はユーザーデータのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

type exportResponse struct {
	Version    int              `json:"version"`
	ExportedAt int64            `json:"exportedAt"`
	User       userResponse     `json:"user"`
	Folders    []folderResponse `json:"folders"`
	Lists      []listResponse   `json:"lists"`
	Tasks      []taskResponse   `json:"tasks"`
}

// Export は呼び出しユーザーの全データをJSONで返す。
// GET /api/export
func (h *UserHandler) Export(w http.ResponseWriter, r *http.Request) {
	u, err := middleware.UserFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return
	}

	exp, err := h.service.Export(r.Context(), u)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="ticklist-export.json"`)
	writeJSON(w, http.StatusOK, exportResponse{
		Version:    exp.Version,
		ExportedAt: exp.ExportedAt,
		User:       toUserResponse(exp.User),
		Folders:    toFolderResponses(exp.Folders),
		Lists:      toListResponses(exp.Lists),
		Tasks:      toTaskResponses(exp.Tasks),
	})
}
