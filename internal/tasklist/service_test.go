package tasklist

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
	"github.com/hitoshi/ticklist/internal/security"
)

// --- モック ---

type mockListRepo struct {
	repository.ListRepository
	findByIDFn          func(ctx context.Context, userID, id string) (*model.List, error)
	createFn            func(ctx context.Context, list *model.List) error
	updateFn            func(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error)
	deleteMovingTasksFn func(ctx context.Context, userID, id, inboxID string) error
	ensureInboxFn       func(ctx context.Context, userID string) (*model.List, error)
}

func (m *mockListRepo) FindByID(ctx context.Context, userID, id string) (*model.List, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, nil
}

func (m *mockListRepo) Create(ctx context.Context, list *model.List) error {
	if m.createFn != nil {
		return m.createFn(ctx, list)
	}
	return nil
}

func (m *mockListRepo) Update(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, userID, id, patch)
	}
	return nil, repository.ErrNotFound
}

func (m *mockListRepo) DeleteMovingTasks(ctx context.Context, userID, id, inboxID string) error {
	if m.deleteMovingTasksFn != nil {
		return m.deleteMovingTasksFn(ctx, userID, id, inboxID)
	}
	return nil
}

func (m *mockListRepo) EnsureInbox(ctx context.Context, userID string) (*model.List, error) {
	if m.ensureInboxFn != nil {
		return m.ensureInboxFn(ctx, userID)
	}
	return inboxFor(userID), nil
}

type mockFolderRepo struct {
	repository.FolderRepository
	findByIDFn func(ctx context.Context, userID, id string) (*model.Folder, error)
}

func (m *mockFolderRepo) FindByID(ctx context.Context, userID, id string) (*model.Folder, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID, id)
	}
	return nil, nil
}

func inboxFor(userID string) *model.List {
	key := model.SystemKeyInbox
	return &model.List{ID: "inbox-" + userID, UserID: userID, SystemKey: &key, Title: "Inbox"}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("Code = %q, want %q", apiErr.Code, code)
	}
}

// --- テスト ---

func TestService_Delete_MovesTasksToInbox(t *testing.T) {
	var movedTo string
	lists := &mockListRepo{
		findByIDFn: func(_ context.Context, userID, id string) (*model.List, error) {
			return &model.List{ID: id, UserID: userID, Title: "Errands"}, nil
		},
		deleteMovingTasksFn: func(_ context.Context, _, _, inboxID string) error {
			movedTo = inboxID
			return nil
		},
	}
	svc := NewService(lists, &mockFolderRepo{}, security.NewTextSanitizer())

	if err := svc.Delete(context.Background(), "u1", "l1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if movedTo != "inbox-u1" {
		t.Errorf("tasks moved to %q, want caller's inbox", movedTo)
	}
}

func TestService_Delete_InboxUndeletable(t *testing.T) {
	lists := &mockListRepo{
		findByIDFn: func(_ context.Context, userID, _ string) (*model.List, error) {
			return inboxFor(userID), nil
		},
		deleteMovingTasksFn: func(context.Context, string, string, string) error {
			t.Error("inbox must never be deleted")
			return nil
		},
	}
	svc := NewService(lists, &mockFolderRepo{}, security.NewTextSanitizer())

	err := svc.Delete(context.Background(), "u1", "inbox-u1")
	assertCode(t, err, model.ErrCodeInboxUndeletable)
}

func TestService_Delete_OtherUsersList(t *testing.T) {
	svc := NewService(&mockListRepo{}, &mockFolderRepo{}, security.NewTextSanitizer())

	err := svc.Delete(context.Background(), "u2", "l1")
	assertCode(t, err, model.ErrCodeNotFound)
}

func TestService_Create_WithFolder(t *testing.T) {
	folders := &mockFolderRepo{
		findByIDFn: func(_ context.Context, userID, id string) (*model.Folder, error) {
			if userID == "u1" && id == "f1" {
				return &model.Folder{ID: id, UserID: userID}, nil
			}
			return nil, nil
		},
	}
	var created *model.List
	lists := &mockListRepo{
		createFn: func(_ context.Context, l *model.List) error {
			created = l
			return nil
		},
	}
	svc := NewService(lists, folders, security.NewTextSanitizer())

	folderID := "f1"
	l, err := svc.Create(context.Background(), "u1", CreateInput{Title: "Work", Emoji: "💼", FolderID: &folderID})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created != l || l.FolderID == nil || *l.FolderID != "f1" {
		t.Errorf("unexpected list: %+v", l)
	}
	if l.SystemKey != nil {
		t.Error("user-created lists must not have a system key")
	}

	// 他ユーザーのフォルダは指定できない
	foreign := "f-foreign"
	_, err = svc.Create(context.Background(), "u1", CreateInput{Title: "Work", FolderID: &foreign})
	assertCode(t, err, model.ErrCodeNotFound)
}

func TestService_Create_Validation(t *testing.T) {
	svc := NewService(&mockListRepo{}, &mockFolderRepo{}, security.NewTextSanitizer())

	_, err := svc.Create(context.Background(), "u1", CreateInput{Title: ""})
	assertCode(t, err, model.ErrCodeValidation)
}

func TestService_Update_ClearFolderSkipsFolderCheck(t *testing.T) {
	var got model.ListPatch
	lists := &mockListRepo{
		updateFn: func(_ context.Context, _, id string, patch model.ListPatch) (*model.List, error) {
			got = patch
			return &model.List{ID: id}, nil
		},
	}
	folders := &mockFolderRepo{
		findByIDFn: func(context.Context, string, string) (*model.Folder, error) {
			t.Error("folder lookup is not needed when detaching")
			return nil, nil
		},
	}
	svc := NewService(lists, folders, security.NewTextSanitizer())

	if _, err := svc.Update(context.Background(), "u1", "l1", model.ListPatch{ClearFolder: true}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !got.ClearFolder {
		t.Error("ClearFolder should be passed to the repository")
	}
}

func TestService_Update_NotFound(t *testing.T) {
	svc := NewService(&mockListRepo{}, &mockFolderRepo{}, security.NewTextSanitizer())

	title := "x"
	_, err := svc.Update(context.Background(), "u1", "missing", model.ListPatch{Title: &title})
	assertCode(t, err, model.ErrCodeNotFound)
}
