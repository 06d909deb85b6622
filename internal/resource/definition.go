// Package resource は管理画面のCRUDリソース画面のモデルを提供する。
// リソース定義、クライアント側ページネーション、最後に取得した一覧の写し（Mirror）、
// 作成・編集・削除モーダルの状態機械、およびリモートAPIとのやり取りを扱う。
package resource

import (
	"fmt"

	"github.com/hitoshi/adminconsole/internal/validation"
)

// ColumnKind は一覧の列の表示方法。
type ColumnKind string

const (
	ColumnText  ColumnKind = "text"
	ColumnDate  ColumnKind = "date"
	ColumnImage ColumnKind = "image"
)

// Column は一覧テーブルの列定義。
type Column struct {
	Key   string
	Label string
	Kind  ColumnKind
}

// FieldKind はフォーム入力の種類。
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextArea FieldKind = "textarea"
	FieldDate     FieldKind = "date"
	FieldImage    FieldKind = "image"
)

// Field はモーダルフォームの入力定義。
// FieldImageは作成時のみ必須で、編集時に未指定の場合は既存の画像を維持する。
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Required bool
}

// Definition は1つのリソース画面の定義。
type Definition struct {
	Name        string // URLセグメント（例: certificates）
	Title       string // 画面タイトル
	Singular    string // モーダルタイトルに使う単数形
	APIPath     string // リモートAPIのコレクションパス
	AssetFolder string // 画像のアセットフォルダ
	Columns     []Column
	Fields      []Field
}

// Op はログ・メトリクス用の操作名を返す（例: certificates.create）。
func (d *Definition) Op(action string) string {
	return d.Name + "." + action
}

// Submission はモーダルフォームから送信された値。
type Submission struct {
	Values map[string]string
	Files  map[string]*validation.Upload
}

// Value は指定フィールドの値を返す。
func (s Submission) Value(name string) string {
	if s.Values == nil {
		return ""
	}
	return s.Values[name]
}

// File は指定フィールドのアップロードを返す。未指定の場合はnil。
func (s Submission) File(name string) *validation.Upload {
	if s.Files == nil {
		return nil
	}
	return s.Files[name]
}

// Validate はモーダルの種類に応じてフォームを検証する。
// 削除モーダルは入力を持たないため常に成功する。
func (d *Definition) Validate(kind ModalKind, sub Submission, maxUploadBytes int64) validation.Errors {
	errs := validation.Errors{}
	if kind == ModalDelete {
		return errs
	}

	for _, f := range d.Fields {
		switch f.Kind {
		case FieldImage:
			upload := sub.File(f.Name)
			if upload == nil || len(upload.Data) == 0 {
				if f.Required && kind == ModalCreate {
					errs.Add(f.Name, fmt.Sprintf("%s is required", f.Label))
				}
				continue
			}
			if err := validation.Image(*upload, maxUploadBytes); err != nil {
				errs.Add(f.Name, err.Error())
			}
		case FieldDate:
			v := sub.Value(f.Name)
			if !validation.Required(v) {
				if f.Required {
					errs.Add(f.Name, fmt.Sprintf("%s is required", f.Label))
				}
				continue
			}
			if !validation.Date(v) {
				errs.Add(f.Name, "Invalid date")
			}
		default:
			if f.Required && !validation.Required(sub.Value(f.Name)) {
				errs.Add(f.Name, fmt.Sprintf("%s is required", f.Label))
			}
		}
	}
	return errs
}

// Registry はリソース定義をメニュー順に保持する。
type Registry struct {
	defs   []*Definition
	byName map[string]*Definition
}

// NewRegistry はRegistryを生成する。同名の定義は後のものが無視される。
func NewRegistry(defs ...*Definition) *Registry {
	r := &Registry{byName: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.byName[d.Name]; dup {
			continue
		}
		r.defs = append(r.defs, d)
		r.byName[d.Name] = d
	}
	return r
}

// DefaultRegistry は組み込みのリソース（certificates, testimonials）を持つRegistryを返す。
func DefaultRegistry() *Registry {
	return NewRegistry(Certificates(), Testimonials())
}

// Get は名前からリソース定義を返す。
func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// All はメニュー順の定義一覧を返す。
func (r *Registry) All() []*Definition {
	out := make([]*Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Certificates は証明書リソースの定義を返す。
func Certificates() *Definition {
	return &Definition{
		Name:        "certificates",
		Title:       "Certificates",
		Singular:    "certificate",
		APIPath:     "/api/certificates",
		AssetFolder: "certificates",
		Columns: []Column{
			{Key: "name", Label: "Name", Kind: ColumnText},
			{Key: "date", Label: "Date", Kind: ColumnDate},
			{Key: "image", Label: "Logo", Kind: ColumnImage},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "date", Label: "Date", Kind: FieldDate, Required: true},
			{Name: "image", Label: "Image", Kind: FieldImage, Required: true},
		},
	}
}

// Testimonials は推薦文リソースの定義を返す。
func Testimonials() *Definition {
	return &Definition{
		Name:        "testimonials",
		Title:       "Testimonials",
		Singular:    "testimonial",
		APIPath:     "/api/testimonials",
		AssetFolder: "testimonials",
		Columns: []Column{
			{Key: "name", Label: "Name", Kind: ColumnText},
			{Key: "position", Label: "Position", Kind: ColumnText},
			{Key: "message", Label: "Message", Kind: ColumnText},
			{Key: "image", Label: "Photo", Kind: ColumnImage},
		},
		Fields: []Field{
			{Name: "name", Label: "Name", Kind: FieldText, Required: true},
			{Name: "position", Label: "Position", Kind: FieldText, Required: true},
			{Name: "message", Label: "Message", Kind: FieldTextArea, Required: true},
			{Name: "image", Label: "Image", Kind: FieldImage, Required: true},
		},
	}
}
