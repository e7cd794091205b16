// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer はタイトル・メモ・タグなどユーザー入力のプレーンテキストから
// HTMLマークアップを取り除く。bluemondayのStrictPolicyを使用し、
// タグは一切通過させない。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はプレーンテキスト入力のサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Clean はHTMLタグを除去し、前後の空白を取り除いたテキストを返す。
	// script/styleタグはその中身ごと除去される。
	// 入力に書かれた"&amp;"などの文字列はそのまま残す（保存値はHTMLではなくテキストとして扱う）。
	// 出力を再度Cleanしても変化しない。
	Clean(s string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフであり、共有して使用できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean はHTMLタグを除去したテキストを返す。
func (s *textSanitizer) Clean(in string) string {
	if in == "" {
		return ""
	}
	// タグを含まない入力はそのまま返す（&や<単体をエスケープさせない）
	if !strings.ContainsAny(in, "<>") {
		return strings.TrimSpace(in)
	}
	// &を先にエスケープしておくと、復元されるのはbluemondayが付けたエスケープだけになる
	escaped := strings.ReplaceAll(in, "&", "&amp;")
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(escaped)))
}
