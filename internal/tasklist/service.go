// Package tasklist はタスクを格納するリストの管理機能を提供する。
//
// 受信箱（system_key = "inbox"）はユーザーごとに必ず1つ存在し、削除できない。
// リストを削除すると、そのタスクは受信箱へ移動する。
package tasklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
	"github.com/hitoshi/ticklist/internal/security"
)

// CreateInput はリスト作成の入力。
type CreateInput struct {
	Title    string
	Emoji    string
	FolderID *string
}

// Service はリスト管理のサービス層。
type Service struct {
	lists     repository.ListRepository
	folders   repository.FolderRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	lists repository.ListRepository,
	folders repository.FolderRepository,
	sanitizer security.TextSanitizer,
) *Service {
	return &Service{
		lists:     lists,
		folders:   folders,
		sanitizer: sanitizer,
	}
}

// List はユーザーのリストを並び順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.List, error) {
	lists, err := s.lists.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("リスト一覧の取得に失敗しました: %w", err)
	}
	if lists == nil {
		lists = []*model.List{}
	}
	return lists, nil
}

// Create はリストを末尾に作成する。FolderIDは呼び出しユーザーのフォルダであること。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.List, error) {
	title := s.sanitizer.Clean(in.Title)
	if apiErr := model.ValidateTitle(title, model.MaxGroupTitleLength); apiErr != nil {
		return nil, apiErr
	}
	emoji := s.sanitizer.Clean(in.Emoji)
	if apiErr := model.ValidateEmoji(emoji); apiErr != nil {
		return nil, apiErr
	}
	if in.FolderID != nil {
		if err := s.requireFolder(ctx, userID, *in.FolderID); err != nil {
			return nil, err
		}
	}

	l := &model.List{
		ID:       uuid.New().String(),
		UserID:   userID,
		Title:    title,
		Emoji:    emoji,
		FolderID: in.FolderID,
	}
	if err := s.lists.Create(ctx, l); err != nil {
		return nil, fmt.Errorf("リストの作成に失敗しました: %w", err)
	}
	return l, nil
}

// Update は指定されたフィールドのみ更新する。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error) {
	if patch.Title != nil {
		title := s.sanitizer.Clean(*patch.Title)
		if apiErr := model.ValidateTitle(title, model.MaxGroupTitleLength); apiErr != nil {
			return nil, apiErr
		}
		patch.Title = &title
	}
	if patch.Emoji != nil {
		emoji := s.sanitizer.Clean(*patch.Emoji)
		if apiErr := model.ValidateEmoji(emoji); apiErr != nil {
			return nil, apiErr
		}
		patch.Emoji = &emoji
	}
	if patch.FolderID != nil && !patch.ClearFolder {
		if err := s.requireFolder(ctx, userID, *patch.FolderID); err != nil {
			return nil, err
		}
	}

	l, err := s.lists.Update(ctx, userID, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewNotFoundError("リスト", id)
	}
	if err != nil {
		return nil, fmt.Errorf("リストの更新に失敗しました: %w", err)
	}
	return l, nil
}

// Delete はリストを削除し、そのタスクを受信箱へ移動する。受信箱自体は削除できない。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	l, err := s.lists.FindByID(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	if l == nil {
		return model.NewNotFoundError("リスト", id)
	}
	if l.IsInbox() {
		return model.NewInboxUndeletableError()
	}

	inbox, err := s.lists.EnsureInbox(ctx, userID)
	if err != nil {
		return fmt.Errorf("受信箱の取得に失敗しました: %w", err)
	}

	err = s.lists.DeleteMovingTasks(ctx, userID, id, inbox.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("リスト", id)
	}
	if err != nil {
		return fmt.Errorf("リストの削除に失敗しました: %w", err)
	}

	slog.Info("list deleted",
		slog.String("user_id", userID),
		slog.String("list_id", id),
		slog.String("inbox_id", inbox.ID),
	)
	return nil
}

// Reorder はidsの順に並び順を振り直す。
func (s *Service) Reorder(ctx context.Context, userID string, ids []string) error {
	if apiErr := model.ValidateReorderIDs(ids); apiErr != nil {
		return apiErr
	}
	err := s.lists.Reorder(ctx, userID, ids)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("リスト", strings.Join(ids, ","))
	}
	if err != nil {
		return fmt.Errorf("リストの並び替えに失敗しました: %w", err)
	}
	return nil
}

func (s *Service) requireFolder(ctx context.Context, userID, folderID string) error {
	f, err := s.folders.FindByID(ctx, userID, folderID)
	if err != nil {
		return fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	if f == nil {
		return model.NewNotFoundError("フォルダ", folderID)
	}
	return nil
}
