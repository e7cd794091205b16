// Package task はタスクの作成・更新・検索・並び替えを提供する。
package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/metrics"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
	"github.com/hitoshi/ticklist/internal/security"
)

// CreateInput はタスク作成の入力。ListIDがnilの場合は受信箱に入れる。
type CreateInput struct {
	Title    string
	ListID   *string
	DueDate  *string
	Priority *int
	Notes    *string
	Tags     []string
}

// Service はタスク管理のサービス層。
type Service struct {
	tasks     repository.TaskRepository
	lists     repository.ListRepository
	sanitizer security.TextSanitizer
	metrics   metrics.MetricsCollector
	now       func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	tasks repository.TaskRepository,
	lists repository.ListRepository,
	sanitizer security.TextSanitizer,
	mc metrics.MetricsCollector,
) *Service {
	if mc == nil {
		mc = metrics.Nop{}
	}
	return &Service{
		tasks:     tasks,
		lists:     lists,
		sanitizer: sanitizer,
		metrics:   mc,
		now:       time.Now,
	}
}

var validFilters = map[model.TaskFilter]bool{
	model.TaskFilterAll:       true,
	model.TaskFilterActive:    true,
	model.TaskFilterCompleted: true,
}

var validSorts = map[model.TaskSort]bool{
	model.TaskSortCreated: true,
	model.TaskSortDue:     true,
	model.TaskSortManual:  true,
}

// Query は条件に一致するタスクを返す。Filter/Sortが空の場合はall/createdとして扱う。
func (s *Service) Query(ctx context.Context, userID string, q model.TaskQuery) ([]*model.Task, error) {
	if q.Filter == "" {
		q.Filter = model.TaskFilterAll
	}
	if q.Sort == "" {
		q.Sort = model.TaskSortCreated
	}
	if !validFilters[q.Filter] {
		return nil, model.NewValidationError("filterはall, active, completedのいずれかを指定してください: " + string(q.Filter))
	}
	if !validSorts[q.Sort] {
		return nil, model.NewValidationError("sortはcreated, due, manualのいずれかを指定してください: " + string(q.Sort))
	}
	for _, d := range []*string{q.Due, q.DueFrom, q.DueTo} {
		if d != nil {
			if apiErr := model.ValidateDueDate(*d); apiErr != nil {
				return nil, apiErr
			}
		}
	}
	if q.Priority != nil {
		if apiErr := model.ValidatePriority(*q.Priority); apiErr != nil {
			return nil, apiErr
		}
	}
	if q.ListID != nil {
		l, err := s.lists.FindByID(ctx, userID, *q.ListID)
		if err != nil {
			return nil, fmt.Errorf("リストの取得に失敗しました: %w", err)
		}
		if l == nil {
			return nil, model.NewNotFoundError("リスト", *q.ListID)
		}
	}
	if q.Search != nil {
		trimmed := strings.TrimSpace(*q.Search)
		if trimmed == "" {
			q.Search = nil
		} else {
			q.Search = &trimmed
		}
	}

	tasks, err := s.tasks.Query(ctx, userID, q)
	if err != nil {
		return nil, fmt.Errorf("タスク一覧の取得に失敗しました: %w", err)
	}
	return tasks, nil
}

// Get は指定IDのタスクを返す。
func (s *Service) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("タスクの取得に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewNotFoundError("タスク", id)
	}
	return t, nil
}

// Create はタスクを作成する。並び順はリスト末尾になる。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Task, error) {
	title := s.sanitizer.Clean(in.Title)
	if apiErr := model.ValidateTitle(title, model.MaxTaskTitleLength); apiErr != nil {
		return nil, apiErr
	}

	now := s.now().Unix()
	t := &model.Task{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Tags:      []string{},
	}

	if in.DueDate != nil {
		if apiErr := model.ValidateDueDate(*in.DueDate); apiErr != nil {
			return nil, apiErr
		}
		t.DueDate = in.DueDate
	}
	if in.Priority != nil {
		if apiErr := model.ValidatePriority(*in.Priority); apiErr != nil {
			return nil, apiErr
		}
		t.Priority = *in.Priority
	}
	if in.Notes != nil {
		notes := s.sanitizer.Clean(*in.Notes)
		if apiErr := model.ValidateNotes(notes); apiErr != nil {
			return nil, apiErr
		}
		t.Notes = notes
	}
	if in.Tags != nil {
		tags, apiErr := s.normalizeTags(in.Tags)
		if apiErr != nil {
			return nil, apiErr
		}
		t.Tags = tags
	}

	listID, err := s.resolveListID(ctx, userID, in.ListID)
	if err != nil {
		return nil, err
	}
	t.ListID = listID

	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("タスクの作成に失敗しました: %w", err)
	}
	s.metrics.RecordTaskMutation("create")
	return t, nil
}

// Update は指定されたフィールドのみ更新し、更新日時を打ち直す。
// 完了状態の変更時は完了日時を同時に設定・解除する。
func (s *Service) Update(ctx context.Context, userID, id string, patch model.TaskPatch) (*model.Task, error) {
	t, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	now := s.now().Unix()

	if patch.Title != nil {
		title := s.sanitizer.Clean(*patch.Title)
		if apiErr := model.ValidateTitle(title, model.MaxTaskTitleLength); apiErr != nil {
			return nil, apiErr
		}
		t.Title = title
	}
	if patch.Completed != nil && *patch.Completed != t.Completed {
		t.Completed = *patch.Completed
		if t.Completed {
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
	}
	if patch.ClearDueDate {
		t.DueDate = nil
	} else if patch.DueDate != nil {
		if apiErr := model.ValidateDueDate(*patch.DueDate); apiErr != nil {
			return nil, apiErr
		}
		t.DueDate = patch.DueDate
	}
	if patch.ClearOrder {
		t.OrderIndex = nil
	} else if patch.OrderIndex != nil {
		t.OrderIndex = patch.OrderIndex
	}
	if patch.Priority != nil {
		if apiErr := model.ValidatePriority(*patch.Priority); apiErr != nil {
			return nil, apiErr
		}
		t.Priority = *patch.Priority
	}
	if patch.Notes != nil {
		notes := s.sanitizer.Clean(*patch.Notes)
		if apiErr := model.ValidateNotes(notes); apiErr != nil {
			return nil, apiErr
		}
		t.Notes = notes
	}
	if patch.Tags != nil {
		tags, apiErr := s.normalizeTags(*patch.Tags)
		if apiErr != nil {
			return nil, apiErr
		}
		t.Tags = tags
	}
	if patch.ListID != nil && *patch.ListID != t.ListID {
		listID, err := s.resolveListID(ctx, userID, patch.ListID)
		if err != nil {
			return nil, err
		}
		t.ListID = listID
	}

	t.UpdatedAt = now

	err = s.tasks.Update(ctx, t)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, model.NewNotFoundError("タスク", id)
	}
	if err != nil {
		return nil, fmt.Errorf("タスクの更新に失敗しました: %w", err)
	}
	s.metrics.RecordTaskMutation("update")
	return t, nil
}

// Delete はタスクを削除する。
func (s *Service) Delete(ctx context.Context, userID, id string) error {
	err := s.tasks.Delete(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("タスク", id)
	}
	if err != nil {
		return fmt.Errorf("タスクの削除に失敗しました: %w", err)
	}
	s.metrics.RecordTaskMutation("delete")
	return nil
}

// Reorder はidsの順に手動並び順を振り直す。
// listIDを指定した場合、全タスクがそのリストに属していなければならない。
func (s *Service) Reorder(ctx context.Context, userID string, listID *string, ids []string) error {
	if apiErr := model.ValidateReorderIDs(ids); apiErr != nil {
		return apiErr
	}
	if listID != nil {
		l, err := s.lists.FindByID(ctx, userID, *listID)
		if err != nil {
			return fmt.Errorf("リストの取得に失敗しました: %w", err)
		}
		if l == nil {
			return model.NewNotFoundError("リスト", *listID)
		}
	}

	err := s.tasks.Reorder(ctx, userID, listID, ids)
	if errors.Is(err, repository.ErrNotFound) {
		return model.NewNotFoundError("タスク", strings.Join(ids, ","))
	}
	if err != nil {
		return fmt.Errorf("タスクの並び替えに失敗しました: %w", err)
	}
	s.metrics.RecordTaskMutation("reorder")
	return nil
}

// resolveListID は指定リストの所有を確認する。nilの場合は受信箱のIDを返す。
func (s *Service) resolveListID(ctx context.Context, userID string, listID *string) (string, error) {
	if listID == nil || *listID == "" {
		inbox, err := s.lists.EnsureInbox(ctx, userID)
		if err != nil {
			return "", fmt.Errorf("受信箱の取得に失敗しました: %w", err)
		}
		return inbox.ID, nil
	}

	l, err := s.lists.FindByID(ctx, userID, *listID)
	if err != nil {
		return "", fmt.Errorf("リストの取得に失敗しました: %w", err)
	}
	if l == nil {
		return "", model.NewNotFoundError("リスト", *listID)
	}
	return l.ID, nil
}

func (s *Service) normalizeTags(raw []string) ([]string, *model.APIError) {
	cleaned := make([]string, len(raw))
	for i, tag := range raw {
		cleaned[i] = s.sanitizer.Clean(tag)
	}
	return model.NormalizeTags(cleaned)
}
