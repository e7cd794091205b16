// Package model はドメインモデルを定義する。
package model

// Task はユーザーのタスクを表す。
// CompletedとCompletedAtは常に同時に設定・解除される。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Completed   bool
	CreatedAt   int64
	UpdatedAt   int64
	CompletedAt *int64
	ListID      string
	DueDate     *string // YYYY-MM-DD
	OrderIndex  *int
	Priority    int
	Notes       string
	Tags        []string
}

// 優先度の範囲
const (
	PriorityNone = 0
	PriorityMax  = 3
)

// TaskFilter はタスク一覧の完了状態フィルタを表す。
type TaskFilter string

const (
	// TaskFilterAll は全タスクを返す。
	TaskFilterAll TaskFilter = "all"
	// TaskFilterActive は未完了タスクのみを返す。
	TaskFilterActive TaskFilter = "active"
	// TaskFilterCompleted は完了済みタスクのみを返す。
	TaskFilterCompleted TaskFilter = "completed"
)

// TaskSort はタスク一覧の並び順を表す。
type TaskSort string

const (
	// TaskSortCreated は作成日時の降順。
	TaskSortCreated TaskSort = "created"
	// TaskSortDue は期日の昇順（期日なしは末尾）。
	TaskSortDue TaskSort = "due"
	// TaskSortManual は手動並び順の昇順（未設定は末尾）。
	TaskSortManual TaskSort = "manual"
)

// TaskQuery はタスク一覧のフィルタ・ソート条件。
// ポインタフィールドがnilの条件は適用しない。
type TaskQuery struct {
	Filter   TaskFilter
	Sort     TaskSort
	ListID   *string
	Due      *string
	DueFrom  *string
	DueTo    *string
	Search   *string
	Tag      *string
	Priority *int
}

// TaskPatch はタスクの部分更新内容。nilのフィールドは変更しない。
// ClearDueDate/ClearOrderがtrueの場合は該当値をNULLにする。
type TaskPatch struct {
	Title        *string
	Completed    *bool
	ListID       *string
	DueDate      *string
	ClearDueDate bool
	OrderIndex   *int
	ClearOrder   bool
	Priority     *int
	Notes        *string
	Tags         *[]string
}
