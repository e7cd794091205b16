package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ticklist/internal/middleware"
	"github.com/hitoshi/ticklist/internal/model"
)

// maxRequestBodyBytes はJSONリクエストボディの上限。
const maxRequestBodyBytes = 1 << 20

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"createdAt"`
}

type folderResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Emoji     string `json:"emoji"`
	SortOrder int    `json:"sortOrder"`
}

type listResponse struct {
	ID        string  `json:"id"`
	SystemKey *string `json:"systemKey"`
	Title     string  `json:"title"`
	Emoji     string  `json:"emoji"`
	SortOrder int     `json:"sortOrder"`
	FolderID  *string `json:"folderId"`
}

type taskResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Completed   bool     `json:"completed"`
	CreatedAt   int64    `json:"createdAt"`
	UpdatedAt   int64    `json:"updatedAt"`
	CompletedAt *int64   `json:"completedAt"`
	ListID      string   `json:"listId"`
	DueDate     *string  `json:"dueDate"`
	OrderIndex  *int     `json:"orderIndex"`
	Priority    int      `json:"priority"`
	Notes       string   `json:"notes"`
	Tags        []string `json:"tags"`
}

// okResponse は本文を持たない成功レスポンス。
type okResponse struct {
	OK bool `json:"ok"`
}

// deletedResponse は削除成功レスポンス。
type deletedResponse struct {
	Deleted bool `json:"deleted"`
}

// reorderRequest は並び替えリクエストのボディ。
type reorderRequest struct {
	IDs    []string `json:"ids"`
	ListID *string  `json:"listId"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, CreatedAt: u.CreatedAt}
}

func toFolderResponse(f *model.Folder) folderResponse {
	return folderResponse{ID: f.ID, Title: f.Title, Emoji: f.Emoji, SortOrder: f.SortOrder}
}

func toListResponse(l *model.List) listResponse {
	return listResponse{
		ID:        l.ID,
		SystemKey: l.SystemKey,
		Title:     l.Title,
		Emoji:     l.Emoji,
		SortOrder: l.SortOrder,
		FolderID:  l.FolderID,
	}
}

func toTaskResponse(t *model.Task) taskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
		ListID:      t.ListID,
		DueDate:     t.DueDate,
		OrderIndex:  t.OrderIndex,
		Priority:    t.Priority,
		Notes:       t.Notes,
		Tags:        tags,
	}
}

func toFolderResponses(folders []*model.Folder) []folderResponse {
	out := make([]folderResponse, len(folders))
	for i, f := range folders {
		out[i] = toFolderResponse(f)
	}
	return out
}

func toListResponses(lists []*model.List) []listResponse {
	out := make([]listResponse, len(lists))
	for i, l := range lists {
		out[i] = toListResponse(l)
	}
	return out
}

func toTaskResponses(tasks []*model.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskResponse(t)
	}
	return out
}

// writeJSON はステータスコードとJSONボディを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", slog.String("error", err.Error()))
	}
}

// decodeJSON はリクエストボディをvへデコードする。
// 失敗した場合はVALIDATION_ERRORを書き込みfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     model.ErrCodeValidation,
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return false
	}
	return true
}

// requireUserID はコンテキストのユーザーIDを返す。
// 取得できない場合は401を書き込みfalseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthenticatedError())
		return "", false
	}
	return userID, true
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外のエラーは詳細をログにのみ残し、500として扱う。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	return middleware.StatusForAPIError(apiErr)
}
