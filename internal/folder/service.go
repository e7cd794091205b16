// Package folder はリストをまとめるフォルダの管理機能を提供する。
package folder

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
	"github.com/hitoshi/ticklist/internal/security"
)

// CreateInput はフォルダ作成の入力。
type CreateInput struct {
	Title string
	Emoji string
}

// Service はフォルダ管理のサービス層。
type Service struct {
	repo      repository.FolderRepository
	sanitizer security.TextSanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.FolderRepository, sanitizer security.TextSanitizer) *Service {
	return &Service{repo: repo, sanitizer: sanitizer}
}

// List はユーザーのフォルダを並び順で返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Folder, error) {
	folders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("フォルダ一覧の取得に失敗しました: %w", err)
	}
	if folders == nil {
		folders = []*model.Folder{}
	}
	return folders, nil
}

// Create はフォルダを末尾に作成する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Folder, error) {
	title := s.sanitizer.Clean(in.Title)
	if apiErr := model.ValidateTitle(title, model.MaxGroupTitleLength); apiErr != nil {
		return nil, apiErr
	}
	emoji := s.sanitizer.Clean(in.Emoji)
	if apiErr := model.ValidateEmoji(emoji); apiErr != nil {
		return nil, apiErr
	}

	f := &model.Folder{
		ID:     uuid.New().String(),
		UserID: userID,
		Title:  title,
		Emoji:  emoji,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("フォルダの作成に失敗しました: %w", err)
	}
	return f, nil
}

// Update は指定されたフィールドのみ更新する。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.FolderPatch) (*model.Folder, error) {
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

	f, err := s.repo.Update(ctx, userID, id, patch)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewNotFoundError("フォルダ", id)
	}
	if err != nil {
		return nil, fmt.Errorf("フォルダの更新に失敗しました: %w", err)
	}
	return f, nil
}

// Delete はフォルダを削除する。所属リストはフォルダから外れるだけで削除されない。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.repo.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("フォルダ", id)
	}
	if err != nil {
		return fmt.Errorf("フォルダの削除に失敗しました: %w", err)
	}
	return nil
}

// Reorder はidsの順に並び順を振り直す。
// 1件でも他ユーザーのフォルダや存在しないIDを含む場合は何も変更しない。
func (s *Service) Reorder(ctx context.Context, userID string, ids []string) error {
	if apiErr := model.ValidateReorderIDs(ids); apiErr != nil {
		return apiErr
	}
	err := s.repo.Reorder(ctx, userID, ids)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("フォルダ", strings.Join(ids, ","))
	}
	if err != nil {
		return fmt.Errorf("フォルダの並び替えに失敗しました: %w", err)
	}
	return nil
}
