package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// 入力値の上限（文字数）
const (
	MaxTaskTitleLength  = 200
	MaxGroupTitleLength = 100 // リスト・フォルダ
	MaxEmojiLength      = 16
	MaxNotesLength      = 10000
	MaxTagsPerTask      = 20
	MaxTagLength        = 40
)

// DueDateLayout は期日の形式。
const DueDateLayout = "2006-01-02"

// ValidateTitle はタイトルが空でなく上限以内であることを検証する。
// titleは前後の空白除去済みであること。
func ValidateTitle(title string, max int) *APIError {
	if title == "" {
		return NewValidationError("タイトルを入力してください。")
	}
	if utf8.RuneCountInString(title) > max {
		return NewValidationError(fmt.Sprintf("タイトルは%d文字以内で入力してください。", max))
	}
	return nil
}

// ValidateEmoji は絵文字フィールドの長さを検証する。空は許可する。
func ValidateEmoji(emoji string) *APIError {
	if utf8.RuneCountInString(emoji) > MaxEmojiLength {
		return NewValidationError(fmt.Sprintf("絵文字は%d文字以内で入力してください。", MaxEmojiLength))
	}
	return nil
}

// ValidateDueDate は期日がYYYY-MM-DD形式の実在する日付であることを検証する。
func ValidateDueDate(date string) *APIError {
	if len(date) != len(DueDateLayout) {
		return NewValidationError("期日はYYYY-MM-DD形式で入力してください: " + date)
	}
	if _, err := time.Parse(DueDateLayout, date); err != nil {
		return NewValidationError("期日はYYYY-MM-DD形式で入力してください: " + date)
	}
	return nil
}

// ValidatePriority は優先度が0〜3であることを検証する。
func ValidatePriority(p int) *APIError {
	if p < PriorityNone || p > PriorityMax {
		return NewValidationError(fmt.Sprintf("優先度は%d〜%dで指定してください。", PriorityNone, PriorityMax))
	}
	return nil
}

// ValidateNotes はメモの長さを検証する。
func ValidateNotes(notes string) *APIError {
	if utf8.RuneCountInString(notes) > MaxNotesLength {
		return NewValidationError(fmt.Sprintf("メモは%d文字以内で入力してください。", MaxNotesLength))
	}
	return nil
}

// NormalizeTags はタグの空白除去・空要素除去・大文字小文字を区別しない重複除去を行い、
// 件数と長さを検証する。最初に現れた表記を残す。
func NormalizeTags(tags []string) ([]string, *APIError) {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return nil, NewValidationError(fmt.Sprintf("タグは%d文字以内で入力してください: %s", MaxTagLength, tag))
		}
		key := strings.ToLower(tag)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tag)
	}
	if len(out) > MaxTagsPerTask {
		return nil, NewValidationError(fmt.Sprintf("タグは%d個までです。", MaxTagsPerTask))
	}
	return out, nil
}

// ValidateReorderIDs は並び替え対象のIDが空でなく重複しないことを検証する。
func ValidateReorderIDs(ids []string) *APIError {
	if len(ids) == 0 {
		return NewValidationError("並び替えるIDを指定してください。")
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" {
			return NewValidationError("空のIDは指定できません。")
		}
		if seen[id] {
			return NewValidationError("IDが重複しています: " + id)
		}
		seen[id] = true
	}
	return nil
}
