package handler

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/model"
	"github.com/hitoshi/ticklist/internal/repository"
)

// memStore はテスト用のインメモリ実装。4つのリポジトリインターフェースを1つのストアで提供する。
// PostgreSQL実装と同じくすべての操作をuserIDで絞り込む。
type memStore struct {
	mu      sync.Mutex
	users   map[string]*model.User
	folders map[string]*model.Folder
	lists   map[string]*model.List
	tasks   map[string]*model.Task
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]*model.User),
		folders: make(map[string]*model.Folder),
		lists:   make(map[string]*model.List),
		tasks:   make(map[string]*model.Task),
	}
}

type memUsers struct{ s *memStore }
type memFolders struct{ s *memStore }
type memLists struct{ s *memStore }
type memTasks struct{ s *memStore }

var (
	_ repository.UserRepository   = memUsers{}
	_ repository.FolderRepository = memFolders{}
	_ repository.ListRepository   = memLists{}
	_ repository.TaskRepository   = memTasks{}
)

// --- users ---

func (r memUsers) FindByID(_ context.Context, id string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if u, ok := r.s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, strings.TrimSpace(email)) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memUsers) CreateWithDefaults(_ context.Context, user *model.User) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return false, repository.ErrDuplicateEmail
		}
	}
	cp := *user
	r.s.users[user.ID] = &cp
	for _, d := range model.DefaultLists() {
		r.s.insertDefaultLocked(user.ID, d)
	}
	return false, nil
}

func (r memUsers) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (s *memStore) insertDefaultLocked(userID string, d model.DefaultList) *model.List {
	for _, l := range s.lists {
		if l.UserID == userID && l.SystemKey != nil && *l.SystemKey == d.SystemKey {
			return l
		}
	}
	key := d.SystemKey
	l := &model.List{
		ID:        uuid.NewString(),
		UserID:    userID,
		SystemKey: &key,
		Title:     d.Title,
		Emoji:     d.Emoji,
		SortOrder: d.SortOrder,
	}
	s.lists[l.ID] = l
	return l
}

// --- folders ---

func (r memFolders) ListByUser(_ context.Context, userID string) ([]*model.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Folder
	for _, f := range r.s.folders {
		if f.UserID == userID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r memFolders) FindByID(_ context.Context, userID, id string) (*model.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if f, ok := r.s.folders[id]; ok && f.UserID == userID {
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r memFolders) Create(_ context.Context, f *model.Folder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := 0
	for _, o := range r.s.folders {
		if o.UserID == f.UserID && o.SortOrder+repository.ReorderStep > next {
			next = o.SortOrder + repository.ReorderStep
		}
	}
	f.SortOrder = next
	cp := *f
	r.s.folders[f.ID] = &cp
	return nil
}

func (r memFolders) Update(_ context.Context, userID, id string, patch model.FolderPatch) (*model.Folder, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		f.Title = *patch.Title
	}
	if patch.Emoji != nil {
		f.Emoji = *patch.Emoji
	}
	cp := *f
	return &cp, nil
}

func (r memFolders) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	f, ok := r.s.folders[id]
	if !ok || f.UserID != userID {
		return repository.ErrNotFound
	}
	for _, l := range r.s.lists {
		if l.UserID == userID && l.FolderID != nil && *l.FolderID == id {
			l.FolderID = nil
		}
	}
	delete(r.s.folders, id)
	return nil
}

func (r memFolders) Reorder(_ context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if f, ok := r.s.folders[id]; !ok || f.UserID != userID {
			return repository.ErrNotFound
		}
	}
	for i, id := range ids {
		r.s.folders[id].SortOrder = (i + 1) * repository.ReorderStep
	}
	return nil
}

// --- lists ---

func (r memLists) ListByUser(_ context.Context, userID string) ([]*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.List
	for _, l := range r.s.lists {
		if l.UserID == userID {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}

func (r memLists) FindByID(_ context.Context, userID, id string) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if l, ok := r.s.lists[id]; ok && l.UserID == userID {
		cp := *l
		return &cp, nil
	}
	return nil, nil
}

func (r memLists) FindBySystemKey(_ context.Context, userID, key string) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, l := range r.s.lists {
		if l.UserID == userID && l.SystemKey != nil && *l.SystemKey == key {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memLists) Create(_ context.Context, l *model.List) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	next := 0
	for _, o := range r.s.lists {
		if o.UserID == l.UserID && o.SortOrder+repository.ReorderStep > next {
			next = o.SortOrder + repository.ReorderStep
		}
	}
	l.SortOrder = next
	cp := *l
	r.s.lists[l.ID] = &cp
	return nil
}

func (r memLists) Update(_ context.Context, userID, id string, patch model.ListPatch) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok || l.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Emoji != nil {
		l.Emoji = *patch.Emoji
	}
	if patch.ClearFolder {
		l.FolderID = nil
	} else if patch.FolderID != nil {
		fid := *patch.FolderID
		l.FolderID = &fid
	}
	cp := *l
	return &cp, nil
}

func (r memLists) DeleteMovingTasks(_ context.Context, userID, id, inboxID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.lists[id]
	if !ok || l.UserID != userID {
		return repository.ErrNotFound
	}
	for _, t := range r.s.tasks {
		if t.UserID == userID && t.ListID == id {
			t.ListID = inboxID
		}
	}
	delete(r.s.lists, id)
	return nil
}

func (r memLists) Reorder(_ context.Context, userID string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		if l, ok := r.s.lists[id]; !ok || l.UserID != userID {
			return repository.ErrNotFound
		}
	}
	for i, id := range ids {
		r.s.lists[id].SortOrder = (i + 1) * repository.ReorderStep
	}
	return nil
}

func (r memLists) EnsureInbox(_ context.Context, userID string) (*model.List, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l := r.s.insertDefaultLocked(userID, model.DefaultLists()[0])
	cp := *l
	return &cp, nil
}

func (r memLists) EnsureDefaultLists(_ context.Context, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range model.DefaultLists() {
		r.s.insertDefaultLocked(userID, d)
	}
	return nil
}

// --- tasks ---

func (r memTasks) Query(_ context.Context, userID string, q model.TaskQuery) ([]*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*model.Task
	for _, t := range r.s.tasks {
		if t.UserID != userID || !matchTask(t, q) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return lessTask(out[i], out[j], q.Sort) })
	return out, nil
}

func matchTask(t *model.Task, q model.TaskQuery) bool {
	switch q.Filter {
	case model.TaskFilterActive:
		if t.Completed {
			return false
		}
	case model.TaskFilterCompleted:
		if !t.Completed {
			return false
		}
	}
	if q.ListID != nil && t.ListID != *q.ListID {
		return false
	}
	if q.Due != nil && (t.DueDate == nil || *t.DueDate != *q.Due) {
		return false
	}
	if q.DueFrom != nil && (t.DueDate == nil || *t.DueDate < *q.DueFrom) {
		return false
	}
	if q.DueTo != nil && (t.DueDate == nil || *t.DueDate > *q.DueTo) {
		return false
	}
	if q.Search != nil {
		needle := strings.ToLower(*q.Search)
		if !strings.Contains(strings.ToLower(t.Title), needle) && !strings.Contains(strings.ToLower(t.Notes), needle) {
			return false
		}
	}
	if q.Tag != nil {
		found := false
		for _, tag := range t.Tags {
			if strings.EqualFold(tag, *q.Tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if q.Priority != nil && t.Priority != *q.Priority {
		return false
	}
	return true
}

func lessTask(a, b *model.Task, s model.TaskSort) bool {
	switch s {
	case model.TaskSortDue:
		if (a.DueDate == nil) != (b.DueDate == nil) {
			return a.DueDate != nil
		}
		if a.DueDate != nil && *a.DueDate != *b.DueDate {
			return *a.DueDate < *b.DueDate
		}
	case model.TaskSortManual:
		if (a.OrderIndex == nil) != (b.OrderIndex == nil) {
			return a.OrderIndex != nil
		}
		if a.OrderIndex != nil && *a.OrderIndex != *b.OrderIndex {
			return *a.OrderIndex < *b.OrderIndex
		}
	}
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt > b.CreatedAt
	}
	return a.ID < b.ID
}

func (r memTasks) FindByID(_ context.Context, userID, id string) (*model.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t, ok := r.s.tasks[id]; ok && t.UserID == userID {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r memTasks) Create(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if t.OrderIndex == nil {
		next := repository.ReorderStep
		for _, o := range r.s.tasks {
			if o.UserID == t.UserID && o.ListID == t.ListID && o.OrderIndex != nil && *o.OrderIndex+repository.ReorderStep > next {
				next = *o.OrderIndex + repository.ReorderStep
			}
		}
		t.OrderIndex = &next
	}
	cp := *t
	r.s.tasks[t.ID] = &cp
	return nil
}

func (r memTasks) Update(_ context.Context, t *model.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.tasks[t.ID]
	if !ok || cur.UserID != t.UserID {
		return repository.ErrNotFound
	}
	cp := *t
	r.s.tasks[t.ID] = &cp
	return nil
}

func (r memTasks) Delete(_ context.Context, userID, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tasks[id]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(r.s.tasks, id)
	return nil
}

func (r memTasks) Reorder(_ context.Context, userID string, listID *string, ids []string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, id := range ids {
		t, ok := r.s.tasks[id]
		if !ok || t.UserID != userID || (listID != nil && t.ListID != *listID) {
			return repository.ErrNotFound
		}
	}
	for i, id := range ids {
		v := (i + 1) * repository.ReorderStep
		r.s.tasks[id].OrderIndex = &v
	}
	return nil
}
