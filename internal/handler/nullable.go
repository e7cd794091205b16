package handler

import (
	"bytes"
	"encoding/json"
)

// nullable はPATCHボディで「未指定」「null」「値あり」を区別するためのフィールド型。
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// UnmarshalJSON はフィールドが存在したことを記録し、nullでなければ値をデコードする。
func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// ptr は値ありの場合のみポインタを返す。
func (n nullable[T]) ptr() *T {
	if !n.Set || n.Null {
		return nil
	}
	v := n.Value
	return &v
}

// cleared はnullが明示的に指定されたかどうかを返す。
func (n nullable[T]) cleared() bool {
	return n.Set && n.Null
}
