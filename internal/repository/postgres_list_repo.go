package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/ticklist/internal/model"
)

const listColumns = `id, user_id, system_key, title, emoji, sort_order, folder_id`

// PostgresListRepo はPostgreSQLを使用したリストリポジトリ。
type PostgresListRepo struct {
	db *sql.DB
}

// NewPostgresListRepo はPostgresListRepoを生成する。
func NewPostgresListRepo(db *sql.DB) *PostgresListRepo {
	return &PostgresListRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanList(s rowScanner) (*model.List, error) {
	l := &model.List{}
	var systemKey, folderID sql.NullString
	if err := s.Scan(&l.ID, &l.UserID, &systemKey, &l.Title, &l.Emoji, &l.SortOrder, &folderID); err != nil {
		return nil, err
	}
	if systemKey.Valid {
		l.SystemKey = &systemKey.String
	}
	if folderID.Valid {
		l.FolderID = &folderID.String
	}
	return l, nil
}

// ListByUser はユーザーのリストをsort_order昇順で返す。
func (r *PostgresListRepo) ListByUser(ctx context.Context, userID string) ([]*model.List, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE user_id = $1 ORDER BY sort_order ASC, title ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list lists: %w", err)
	}
	defer rows.Close()

	var lists []*model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate lists: %w", err)
	}

	return lists, nil
}

// FindByID は指定IDのリストを取得する。見つからない場合はnilを返す。
func (r *PostgresListRepo) FindByID(ctx context.Context, userID, id string) (*model.List, error) {
	l, err := scanList(r.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find list: %w", err)
	}
	return l, nil
}

// FindBySystemKey はシステムキーでリストを取得する。見つからない場合はnilを返す。
func (r *PostgresListRepo) FindBySystemKey(ctx context.Context, userID, key string) (*model.List, error) {
	l, err := scanList(r.db.QueryRowContext(ctx,
		`SELECT `+listColumns+` FROM lists WHERE user_id = $1 AND system_key = $2`,
		userID, key,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find list by system key: %w", err)
	}
	return l, nil
}

// Create はリストを末尾に作成する。
func (r *PostgresListRepo) Create(ctx context.Context, list *model.List) error {
	order, err := nextSortOrder(ctx, r.db, "lists", "sort_order", list.UserID)
	if err != nil {
		return err
	}
	list.SortOrder = order

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO lists (id, user_id, system_key, title, emoji, sort_order, folder_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		list.ID, list.UserID, list.SystemKey, list.Title, list.Emoji, list.SortOrder, list.FolderID,
	)
	if err != nil {
		return fmt.Errorf("failed to create list: %w", err)
	}
	return nil
}

// Update は指定フィールドのみ更新する。
func (r *PostgresListRepo) Update(ctx context.Context, userID, id string, patch model.ListPatch) (*model.List, error) {
	l, err := scanList(r.db.QueryRowContext(ctx,
		`UPDATE lists SET
		     title = COALESCE($3, title),
		     emoji = COALESCE($4, emoji),
		     folder_id = CASE WHEN $5::boolean THEN NULL ELSE COALESCE($6, folder_id) END
		 WHERE id = $1 AND user_id = $2
		 RETURNING `+listColumns,
		id, userID, patch.Title, patch.Emoji, patch.ClearFolder, patch.FolderID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update list: %w", err)
	}
	return l, nil
}

// DeleteMovingTasks はタスクを受信箱へ移してからリストを削除する。
func (r *PostgresListRepo) DeleteMovingTasks(ctx context.Context, userID, id, inboxID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE tasks SET list_id = $3 WHERE list_id = $1 AND user_id = $2`,
		id, userID, inboxID,
	); err != nil {
		return fmt.Errorf("failed to move tasks to inbox: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM lists WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete list: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Reorder はidsの順にsort_orderを振り直す。
func (r *PostgresListRepo) Reorder(ctx context.Context, userID string, ids []string) error {
	return reorderRows(ctx, r.db, userID, ids, reorderSpec{table: "lists", column: "sort_order"})
}

// EnsureInbox は受信箱リストを返す。存在しない場合は作成する。
func (r *PostgresListRepo) EnsureInbox(ctx context.Context, userID string) (*model.List, error) {
	inbox := model.DefaultLists()[0]
	if err := insertDefaultList(ctx, r.db, userID, inbox); err != nil {
		return nil, err
	}

	l, err := r.FindBySystemKey(ctx, userID, model.SystemKeyInbox)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("inbox missing after insert for user %s", userID)
	}
	return l, nil
}

// EnsureDefaultLists は受信箱を含む既定リストのうち、ユーザーに欠けているものを作成する。
func (r *PostgresListRepo) EnsureDefaultLists(ctx context.Context, userID string) error {
	return ensureDefaultLists(ctx, r.db, userID)
}

// ensureDefaultLists は既定リストのうちユーザーに欠けているものを作成する。
// 旧データを引き継いだユーザーは固定IDのリストを既に持つため、そのリストは作成しない。
func ensureDefaultLists(ctx context.Context, q DBTX, userID string) error {
	for _, d := range model.DefaultLists() {
		if err := insertDefaultList(ctx, q, userID, d); err != nil {
			return err
		}
	}
	return nil
}

func insertDefaultList(ctx context.Context, q DBTX, userID string, d model.DefaultList) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO lists (id, user_id, system_key, title, emoji, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, system_key) WHERE system_key IS NOT NULL DO NOTHING`,
		uuid.NewString(), userID, d.SystemKey, d.Title, d.Emoji, d.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to create default list %s: %w", d.SystemKey, err)
	}
	return nil
}

// compile-time interface check
var _ ListRepository = (*PostgresListRepo)(nil)
