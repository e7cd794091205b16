package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// reorderSpec は並び替え対象のテーブルと順序カラム。
type reorderSpec struct {
	table  string
	column string
	// scope は追加の絞り込み条件（例: "list_id = $4"）。空の場合は無し。
	scope     string
	scopeArgs []any
}

// reorderRows はidsの順に (i+1)*ReorderStep を書き込む。
// いずれかのIDがuserIDの所有でない場合はErrNotFoundを返し、全体をロールバックする。
func reorderRows(ctx context.Context, db *sql.DB, userID string, ids []string, spec reorderSpec) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`UPDATE %s SET %s = $1 WHERE id = $2 AND user_id = $3`, spec.table, spec.column)
	if spec.scope != "" {
		query += " AND " + spec.scope
	}

	for i, id := range ids {
		args := append([]any{(i + 1) * ReorderStep, id, userID}, spec.scopeArgs...)
		result, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to reorder %s: %w", spec.table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if n == 0 {
			return ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// nextSortOrder はユーザー内の最大値+ReorderStepを返す。
func nextSortOrder(ctx context.Context, q DBTX, table, column, userID string) (int, error) {
	var max int
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COALESCE(MAX(%s), -%d) FROM %s WHERE user_id = $1`, column, ReorderStep, table),
		userID,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("failed to get max %s: %w", column, err)
	}
	return max + ReorderStep, nil
}
