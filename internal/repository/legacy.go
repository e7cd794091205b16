package repository

import (
	"context"
	"fmt"

	"github.com/hitoshi/ticklist/internal/model"
	"github.com/lib/pq"
)

// AdoptionResult は旧データ引き継ぎで所有者を設定した行数。
type AdoptionResult struct {
	Folders int64
	Lists   int64
	Tasks   int64
}

// AdoptOwnerless はマルチテナント化以前に作成された所有者なし（user_id IS NULL）の
// フォルダ・リスト・タスクをuserIDの所有に移し、固定IDの既定リストにsystem_keyを設定する。
//
// 一度限りの移行処理であり、最初のユーザー登録時にのみ呼び出すこと。
// 呼び出し側はユーザー作成と同じトランザクションを渡す。
func AdoptOwnerless(ctx context.Context, q DBTX, userID string) (AdoptionResult, error) {
	var res AdoptionResult

	steps := []struct {
		table string
		dst   *int64
	}{
		{"folders", &res.Folders},
		{"lists", &res.Lists},
		{"tasks", &res.Tasks},
	}
	for _, s := range steps {
		result, err := q.ExecContext(ctx,
			fmt.Sprintf(`UPDATE %s SET user_id = $1 WHERE user_id IS NULL`, s.table),
			userID,
		)
		if err != nil {
			return res, fmt.Errorf("failed to adopt ownerless %s: %w", s.table, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return res, fmt.Errorf("failed to get rows affected: %w", err)
		}
		*s.dst = n
	}

	_, err := q.ExecContext(ctx,
		`UPDATE lists SET system_key = id
		 WHERE user_id = $1 AND system_key IS NULL AND id = ANY($2)`,
		userID, pq.Array(model.LegacySystemKeys),
	)
	if err != nil {
		return res, fmt.Errorf("failed to backfill system keys: %w", err)
	}

	return res, nil
}
