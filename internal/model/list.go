// Package model はドメインモデルを定義する。
package model

// Folder はリストをまとめるフォルダを表す。
type Folder struct {
	ID        string
	UserID    string
	Title     string
	Emoji     string
	SortOrder int
}

// List はタスクを格納するリストを表す。
// SystemKeyが設定されたリストはユーザー作成ではなく既定リストである。
type List struct {
	ID        string
	UserID    string
	SystemKey *string
	Title     string
	Emoji     string
	SortOrder int
	FolderID  *string
}

// IsInbox は受信箱リストかどうかを返す。
func (l *List) IsInbox() bool {
	return l.SystemKey != nil && *l.SystemKey == SystemKeyInbox
}

// システムキー
const (
	SystemKeyInbox    = "inbox"
	SystemKeyWelcome  = "welcome"
	SystemKeyWork     = "work"
	SystemKeyPersonal = "personal"
)

// DefaultList は新規ユーザーに用意する既定リストの定義。
type DefaultList struct {
	SystemKey string
	Title     string
	Emoji     string
	SortOrder int
}

// DefaultLists は受信箱と3つのスターターリストを並び順どおりに返す。
func DefaultLists() []DefaultList {
	return []DefaultList{
		{SystemKey: SystemKeyInbox, Title: "Inbox", Emoji: "📥", SortOrder: 0},
		{SystemKey: SystemKeyWelcome, Title: "Welcome", Emoji: "👋", SortOrder: 10},
		{SystemKey: SystemKeyWork, Title: "Work", Emoji: "💼", SortOrder: 20},
		{SystemKey: SystemKeyPersonal, Title: "Personal", Emoji: "🏠", SortOrder: 30},
	}
}

// LegacySystemKeys はマルチテナント化以前に固定IDで作成されていたリストのID。
// 旧データ引き継ぎ時にsystem_keyへそのまま転記する。
var LegacySystemKeys = []string{SystemKeyInbox, SystemKeyWelcome, SystemKeyWork, SystemKeyPersonal}

// FolderPatch はフォルダの部分更新内容。nilのフィールドは変更しない。
type FolderPatch struct {
	Title *string
	Emoji *string
}

// ListPatch はリストの部分更新内容。nilのフィールドは変更しない。
// ClearFolderがtrueの場合はフォルダから外す。
type ListPatch struct {
	Title       *string
	Emoji       *string
	FolderID    *string
	ClearFolder bool
}
