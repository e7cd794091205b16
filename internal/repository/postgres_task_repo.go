package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/hitoshi/ticklist/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const taskColumns = `id, user_id, title, completed, created_at, updated_at, completed_at,
	list_id, due_date, order_index, priority, notes, tags`

// taskRow はtasksテーブルの1行。NULL許容カラムをsql.Null*で受ける。
type taskRow struct {
	ID          string         `db:"id"`
	UserID      string         `db:"user_id"`
	Title       string         `db:"title"`
	Completed   bool           `db:"completed"`
	CreatedAt   int64          `db:"created_at"`
	UpdatedAt   int64          `db:"updated_at"`
	CompletedAt sql.NullInt64  `db:"completed_at"`
	ListID      string         `db:"list_id"`
	DueDate     sql.NullString `db:"due_date"`
	OrderIndex  sql.NullInt64  `db:"order_index"`
	Priority    int            `db:"priority"`
	Notes       string         `db:"notes"`
	Tags        pq.StringArray `db:"tags"`
}

func (r taskRow) toModel() *model.Task {
	t := &model.Task{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Completed: r.Completed,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
		ListID:    r.ListID,
		Priority:  r.Priority,
		Notes:     r.Notes,
		Tags:      []string(r.Tags),
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if r.CompletedAt.Valid {
		v := r.CompletedAt.Int64
		t.CompletedAt = &v
	}
	if r.DueDate.Valid {
		v := r.DueDate.String
		t.DueDate = &v
	}
	if r.OrderIndex.Valid {
		v := int(r.OrderIndex.Int64)
		t.OrderIndex = &v
	}
	return t
}

// PostgresTaskRepo はPostgreSQLを使用したタスクリポジトリ。
// 動的な検索条件の組み立てにsqlxを使う。
type PostgresTaskRepo struct {
	db *sqlx.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sql.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: sqlx.NewDb(db, "postgres")}
}

// buildTaskQuery はTaskQueryからWHERE句とORDER BY句を組み立てる。
// プレースホルダは?で組み立て、呼び出し側でRebindする。
func buildTaskQuery(userID string, q model.TaskQuery) (string, []any) {
	where := []string{"user_id = ?"}
	args := []any{userID}

	switch q.Filter {
	case model.TaskFilterActive:
		where = append(where, "completed = false")
	case model.TaskFilterCompleted:
		where = append(where, "completed = true")
	}

	if q.ListID != nil {
		where = append(where, "list_id = ?")
		args = append(args, *q.ListID)
	}
	if q.Due != nil {
		where = append(where, "due_date = ?")
		args = append(args, *q.Due)
	}
	if q.DueFrom != nil {
		where = append(where, "due_date >= ?")
		args = append(args, *q.DueFrom)
	}
	if q.DueTo != nil {
		where = append(where, "due_date <= ?")
		args = append(args, *q.DueTo)
	}
	if q.Search != nil {
		pattern := "%" + escapeLike(*q.Search) + "%"
		where = append(where, `(title ILIKE ? ESCAPE '\' OR notes ILIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	if q.Tag != nil {
		where = append(where, "EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE lower(tag) = lower(?))")
		args = append(args, *q.Tag)
	}
	if q.Priority != nil {
		where = append(where, "priority = ?")
		args = append(args, *q.Priority)
	}

	var order string
	switch q.Sort {
	case model.TaskSortDue:
		order = "due_date ASC NULLS LAST, created_at DESC, id ASC"
	case model.TaskSortManual:
		order = "order_index ASC NULLS LAST, created_at DESC, id ASC"
	default:
		order = "created_at DESC, id ASC"
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY ` + order
	return query, args
}

// escapeLike はLIKEパターンのワイルドカードをエスケープする。
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Query は条件に一致するユーザーのタスクを返す。
func (r *PostgresTaskRepo) Query(ctx context.Context, userID string, q model.TaskQuery) ([]*model.Task, error) {
	query, args := buildTaskQuery(userID, q)

	var rows []taskRow
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}

	tasks := make([]*model.Task, 0, len(rows))
	for _, row := range rows {
		tasks = append(tasks, row.toModel())
	}
	return tasks, nil
}

// FindByID は指定IDのタスクを取得する。見つからない場合はnilを返す。
func (r *PostgresTaskRepo) FindByID(ctx context.Context, userID, id string) (*model.Task, error) {
	var row taskRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return row.toModel(), nil
}

// Create はタスクを作成する。OrderIndexがnilの場合はリスト内の末尾に置く。
func (r *PostgresTaskRepo) Create(ctx context.Context, task *model.Task) error {
	if task.OrderIndex == nil {
		var max int
		err := r.db.GetContext(ctx, &max,
			`SELECT COALESCE(MAX(order_index), 0) FROM tasks WHERE user_id = $1 AND list_id = $2`,
			task.UserID, task.ListID,
		)
		if err != nil {
			return fmt.Errorf("failed to get max order_index: %w", err)
		}
		next := max + ReorderStep
		task.OrderIndex = &next
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		task.ID, task.UserID, task.Title, task.Completed, task.CreatedAt, task.UpdatedAt, task.CompletedAt,
		task.ListID, task.DueDate, task.OrderIndex, task.Priority, task.Notes, pq.Array(task.Tags),
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// Update はタスクの可変フィールドを書き込む。
func (r *PostgresTaskRepo) Update(ctx context.Context, task *model.Task) error {
	if task.Tags == nil {
		task.Tags = []string{}
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE tasks SET
		     title = $3, completed = $4, completed_at = $5, updated_at = $6,
		     list_id = $7, due_date = $8, order_index = $9,
		     priority = $10, notes = $11, tags = $12
		 WHERE id = $1 AND user_id = $2`,
		task.ID, task.UserID,
		task.Title, task.Completed, task.CompletedAt, task.UpdatedAt,
		task.ListID, task.DueDate, task.OrderIndex,
		task.Priority, task.Notes, pq.Array(task.Tags),
	)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete はタスクを削除する。
func (r *PostgresTaskRepo) Delete(ctx context.Context, userID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Reorder はidsの順にorder_indexを振り直す。
func (r *PostgresTaskRepo) Reorder(ctx context.Context, userID string, listID *string, ids []string) error {
	spec := reorderSpec{table: "tasks", column: "order_index"}
	if listID != nil {
		spec.scope = "list_id = $4"
		spec.scopeArgs = []any{*listID}
	}
	return reorderRows(ctx, r.db.DB, userID, ids, spec)
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
