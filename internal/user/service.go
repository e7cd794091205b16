// Package user はユーザー単位のデータ管理を提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
)

// ExportVersion はエクスポート形式のバージョン。
const ExportVersion = 1

// Export はユーザーの全データのスナップショット。
type Export struct {
	Version    int
	ExportedAt int64
	User       *model.User
	Folders    []*model.Folder
	Lists      []*model.List
	Tasks      []*model.Task
}

// Service はユーザーデータ管理のサービス層。
type Service struct {
	folders repository.FolderRepository
	lists   repository.ListRepository
	tasks   repository.TaskRepository
	now     func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	folders repository.FolderRepository,
	lists repository.ListRepository,
	tasks repository.TaskRepository,
) *Service {
	return &Service{
		folders: folders,
		lists:   lists,
		tasks:   tasks,
		now:     time.Now,
	}
}

// Export はユーザーのフォルダ・リスト・タスクをすべて返す。
// タスクは作成日時の降順。
func (s *Service) Export(ctx context.Context, user *model.User) (*Export, error) {
	folders, err := s.folders.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("フォルダの取得に失敗しました: %w", err)
	}
	lists, err := s.lists.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	tasks, err := s.tasks.Query(ctx, user.ID, model.TaskQuery{
		Filter: model.TaskFilterAll,
		Sort:   model.TaskSortCreated,
	})
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}

	if folders == nil {
		folders = []*model.Folder{}
	}
	if lists == nil {
		lists = []*model.List{}
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	slog.Info("user data exported",
		slog.String("user_id", user.ID),
		slog.Int("folders", len(folders)),
		slog.Int("lists", len(lists)),
		slog.Int("tasks", len(tasks)),
	)

	return &Export{
		Version:    ExportVersion,
		ExportedAt: s.now().Unix(),
		User:       user,
		Folders:    folders,
		Lists:      lists,
		Tasks:      tasks,
	}, nil
}
