// Package repository はデータ永続化のインターフェースを定義する。
//
// フォルダ・リスト・タスクの全操作はuserIDで絞り込まれる。
// 他ユーザーの行は「存在しない」ものとして扱う。
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hitoshi/ticklist/internal/model"
)

var (
	// ErrNotFound は対象行が存在しない、または呼び出しユーザーの所有でないことを表す。
	ErrNotFound = errors.New("not found")
	// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
	ErrDuplicateEmail = errors.New("email already registered")
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレス（大文字小文字を区別しない）でユーザーを取得する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// CreateWithDefaults はユーザーを作成し、既定リストを用意する。
	// 作成したユーザーが最初のユーザーだった場合は所有者なしの旧データを引き継ぐ。
	// 引き継ぎを行った場合はadopted=trueを返す。
	CreateWithDefaults(ctx context.Context, user *model.User) (adopted bool, err error)

	// UpdatePasswordHash はパスワードハッシュを更新する。
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}

// FolderRepository はフォルダデータの永続化インターフェース。
type FolderRepository interface {
	// ListByUser はユーザーのフォルダを並び順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.Folder, error)

	// FindByID は指定IDのフォルダを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Folder, error)

	// Create はフォルダを末尾に作成し、SortOrderを設定する。
	Create(ctx context.Context, folder *model.Folder) error

	// Update は指定フィールドのみ更新し、更新後のフォルダを返す。
	Update(ctx context.Context, userID, id string, patch model.FolderPatch) (*model.Folder, error)

	// Delete はフォルダを削除する。所属リストは削除せずフォルダから外す。
	Delete(ctx context.Context, userID, id string) error

	// Reorder はidsの順にsort_orderを10刻みで振り直す。
	Reorder(ctx context.Context, userID string, ids []string) error
}

// ListRepository はリストデータの永続化インターフェース。
type ListRepository interface {
	// ListByUser はユーザーのリストを並び順で返す。
	ListByUser(ctx context.Context, userID string) ([]*model.List, error)

	// FindByID は指定IDのリストを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.List, error)

	// FindBySystemKey はシステムキーでリストを取得する。見つからない場合はnilを返す。
	FindBySystemKey(ctx context.Context, userID, key string) (*model.List, error)

	// Create はリストを末尾に作成し、SortOrderを設定する。
	Create(ctx context.Context, list *model.List) error

	// Update は指定フィールドのみ更新し、更新後のリストを返す。
	Update(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error)

	// DeleteMovingTasks はリストのタスクをinboxIDのリストへ移してからリストを削除する。
	DeleteMovingTasks(ctx context.Context, userID, id, inboxID string) error

	// Reorder はidsの順にsort_orderを10刻みで振り直す。
	Reorder(ctx context.Context, userID string, ids []string) error

	// EnsureInbox は受信箱リストを返す。存在しない場合は作成する。
	EnsureInbox(ctx context.Context, userID string) (*model.List, error)

	// EnsureDefaultLists は既定リストのうち欠けているものを作成する。
	EnsureDefaultLists(ctx context.Context, userID string) error
}

// TaskRepository はタスクデータの永続化インターフェース。
type TaskRepository interface {
	// Query は条件に一致するユーザーのタスクを返す。
	Query(ctx context.Context, userID string, q model.TaskQuery) ([]*model.Task, error)

	// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Task, error)

	// Create はタスクを作成する。OrderIndexがnilの場合はリスト末尾の値を割り当てる。
	Create(ctx context.Context, task *model.Task) error

	// Update はタスクの全可変フィールドを書き込む。
	Update(ctx context.Context, task *model.Task) error

	// Delete はタスクを削除する。
	Delete(ctx context.Context, userID, id string) error

	// Reorder はidsの順にorder_indexを10刻みで振り直す。
	// listIDが指定された場合は全タスクがそのリストに属することを要求する。
	Reorder(ctx context.Context, userID string, listID *string, ids []string) error
}

// DBTX は*sql.DBと*sql.Txの共通部分。
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReorderStep は手動並び順の間隔。間に挿入する余地を残す。
const ReorderStep = 10
