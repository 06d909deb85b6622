package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Record はリモートAPIが所有するリソースレコード（証明書、推薦文など）を表す。
// 管理画面はレコードの権威ある状態を持たず、最後に取得した一覧の写しとしてのみ保持する。
type Record struct {
	ID     string
	UserID string
	Values map[string]string
}

// Get は指定フィールドの値を返す。存在しない場合は空文字列。
func (r Record) Get(key string) string {
	switch key {
	case "id":
		return r.ID
	case "user_id":
		return r.UserID
	}
	return r.Values[key]
}

// Keys はValuesのキーをソート済みで返す。
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// UnmarshalJSON はAPIのJSONオブジェクトをフラットな文字列マップに変換する。
// 数値は10進表記、真偽値はtrue/false、nullは空文字列になり、
// ネストしたオブジェクトと配列は無視する。
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	rec := Record{Values: make(map[string]string, len(raw))}
	for k, v := range raw {
		s, ok := scalarString(v)
		if !ok {
			continue
		}
		switch k {
		case "id":
			rec.ID = s
		case "user_id":
			rec.UserID = s
		default:
			rec.Values[k] = s
		}
	}

	*r = rec
	return nil
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		if t {
			return "true", true
		}
		return "false", true
	default:
		return "", false
	}
}
