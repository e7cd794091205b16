// Package password はパスワードのハッシュ化と検証を提供する。
//
// 現行方式はSHA-256で固定長ダイジェストに縮約してからbcryptをかける。
// bcryptの72バイト入力制限に依存しないためである。
// ダイジェスト導入前に作成されたハッシュ（生パスワードを72バイトで切り詰めてbcrypt）も検証できる。
package password

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxBcryptInput はbcryptが受け付ける入力の最大バイト数。
const maxBcryptInput = 72

// Hasher はパスワードハッシュの生成と検証を行う。
type Hasher struct {
	cost int
}

// NewHasher はHasherを生成する。
// costがbcryptの許容範囲外の場合はbcrypt.DefaultCostを使用する。
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash はパスワードを現行方式でハッシュ化する。
// 出力はソルトとコストを含む自己記述的なbcrypt文字列。
func (h *Hasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(digest(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(b), nil
}

// Verify はパスワードが保存済みハッシュと一致するかを返す。
// 不正な形式のハッシュは不一致として扱う。
func (h *Hasher) Verify(password, stored string) bool {
	ok, _ := h.VerifyScheme(password, stored)
	return ok
}

// VerifyScheme はVerifyと同じ判定を行い、旧方式で一致した場合はlegacy=trueを返す。
// 呼び出し側は旧方式で一致したハッシュを現行方式で再ハッシュできる。
func (h *Hasher) VerifyScheme(password, stored string) (ok bool, legacy bool) {
	if stored == "" {
		return false, false
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), digest(password)) == nil {
		return true, false
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), truncate(password)) == nil {
		return true, true
	}
	return false, false
}

// NeedsRehash は保存済みハッシュのコストが現在の設定と異なるかを返す。
func (h *Hasher) NeedsRehash(stored string) bool {
	cost, err := bcrypt.Cost([]byte(stored))
	if err != nil {
		return true
	}
	return cost != h.cost
}

// digest はパスワードのSHA-256ダイジェストを16進文字列で返す（64バイト）。
func digest(password string) []byte {
	sum := sha256.Sum256([]byte(password))
	return []byte(hex.EncodeToString(sum[:]))
}

// truncate は旧方式と同じく生パスワードを72バイトで切り詰める。
func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxBcryptInput {
		b = b[:maxBcryptInput]
	}
	return b
}
