// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// PasswordHashはAPIレスポンスに含めてはならない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    int64 // unix秒
}
