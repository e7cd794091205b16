package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/ticklist/internal/model"
)

// PostgresFolderRepo はPostgreSQLを使用したフォルダリポジトリ。
type PostgresFolderRepo struct {
	db *sql.DB
}

// NewPostgresFolderRepo はPostgresFolderRepoを生成する。
func NewPostgresFolderRepo(db *sql.DB) *PostgresFolderRepo {
	return &PostgresFolderRepo{db: db}
}

// ListByUser はユーザーのフォルダをsort_order昇順で返す。
func (r *PostgresFolderRepo) ListByUser(ctx context.Context, userID string) ([]*model.Folder, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, title, emoji, sort_order
		 FROM folders WHERE user_id = $1
		 ORDER BY sort_order ASC, title ASC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	defer rows.Close()

	var folders []*model.Folder
	for rows.Next() {
		f := &model.Folder{}
		if err := rows.Scan(&f.ID, &f.UserID, &f.Title, &f.Emoji, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folders: %w", err)
	}

	return folders, nil
}

// FindByID は指定IDのフォルダを取得する。見つからない場合はnilを返す。
func (r *PostgresFolderRepo) FindByID(ctx context.Context, userID, id string) (*model.Folder, error) {
	f := &model.Folder{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, emoji, sort_order
		 FROM folders WHERE id = $1 AND user_id = $2`,
		id, userID,
	).Scan(&f.ID, &f.UserID, &f.Title, &f.Emoji, &f.SortOrder)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}

	return f, nil
}

// Create はフォルダを末尾に作成する。
func (r *PostgresFolderRepo) Create(ctx context.Context, folder *model.Folder) error {
	order, err := nextSortOrder(ctx, r.db, "folders", "sort_order", folder.UserID)
	if err != nil {
		return err
	}
	folder.SortOrder = order

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO folders (id, user_id, title, emoji, sort_order) VALUES ($1, $2, $3, $4, $5)`,
		folder.ID, folder.UserID, folder.Title, folder.Emoji, folder.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}
	return nil
}

// Update は指定フィールドのみ更新する。
func (r *PostgresFolderRepo) Update(ctx context.Context, userID, id string, patch model.FolderPatch) (*model.Folder, error) {
	f := &model.Folder{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE folders SET
		     title = COALESCE($3, title),
		     emoji = COALESCE($4, emoji)
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, title, emoji, sort_order`,
		id, userID, patch.Title, patch.Emoji,
	).Scan(&f.ID, &f.UserID, &f.Title, &f.Emoji, &f.SortOrder)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return f, nil
}

// Delete はフォルダを削除する。所属リストのfolder_idはNULLに戻す。
func (r *PostgresFolderRepo) Delete(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// ON DELETE SET NULLに頼らず明示的に外す
	if _, err := tx.ExecContext(ctx,
		`UPDATE lists SET folder_id = NULL WHERE folder_id = $1 AND user_id = $2`,
		id, userID,
	); err != nil {
		return fmt.Errorf("failed to detach lists: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM folders WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
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
func (r *PostgresFolderRepo) Reorder(ctx context.Context, userID string, ids []string) error {
	return reorderRows(ctx, r.db, userID, ids, reorderSpec{table: "folders", column: "sort_order"})
}

// compile-time interface check
var _ FolderRepository = (*PostgresFolderRepo)(nil)
