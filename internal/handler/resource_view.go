package handler

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/adminconsole/internal/asset"
	"github.com/hitoshi/adminconsole/internal/model"
	"github.com/hitoshi/adminconsole/internal/resource"
	"github.com/hitoshi/adminconsole/internal/validation"
)

// displayDateLayout は一覧の日付表示形式（例: 05-March-2024）。
const displayDateLayout = "02-January-2006"

// APIが返し得る日付形式。
var apiDateLayouts = []string{
	validation.DateLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000000Z",
}

// listPage は一覧画面のテンプレートデータ。
type listPage struct {
	Resource  *resource.Definition
	Columns   []resource.Column
	Rows      []listRow
	Page      resource.Page
	PageLinks []pageLink
	PrevURL   string
	NextURL   string
	Error     string
	Modal     *modalView
	CreateURL string
}

type listRow struct {
	ID        string
	Cells     []listCell
	EditURL   string
	DeleteURL string
}

type listCell struct {
	Kind  resource.ColumnKind
	Text  string
	Image string
}

// IsImage はテンプレート用。
func (c listCell) IsImage() bool { return c.Kind == resource.ColumnImage }

// ColumnSpan は操作列を含む列数を返す。
func (lp *listPage) ColumnSpan() int { return len(lp.Columns) + 1 }

type pageLink struct {
	Number  int
	URL     string
	Current bool
}

// modalView はモーダルフォームのテンプレートデータ。
type modalView struct {
	Kind     resource.ModalKind
	Title    string
	Action   string
	CloseURL string
	RecordID string
	Confirm  string
	Fields   []fieldView
	Page     int
}

type fieldView struct {
	resource.Field
	Value   string
	Error   string
	Preview string
}

// IsDelete はテンプレート用。
func (m *modalView) IsDelete() bool { return m.Kind == resource.ModalDelete }

// IsImage はテンプレート用。
func (f fieldView) IsImage() bool { return f.Kind == resource.FieldImage }

// IsTextArea はテンプレート用。
func (f fieldView) IsTextArea() bool { return f.Kind == resource.FieldTextArea }

// InputType は<input>のtype属性を返す。
func (f fieldView) InputType() string {
	switch f.Kind {
	case resource.FieldDate:
		return "date"
	case resource.FieldImage:
		return "file"
	default:
		return "text"
	}
}

// listURL は一覧画面のURLを組み立てる。
func listURL(def *resource.Definition, page int, params ...string) string {
	q := url.Values{}
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	for i := 0; i+1 < len(params); i += 2 {
		q.Set(params[i], params[i+1])
	}
	u := "/admin/" + def.Name
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// buildListPage は写しのレコードから一覧画面のデータを組み立てる。
func buildListPage(ctx context.Context, def *resource.Definition, records []model.Record, pageNum, pageSize int, assets asset.Resolver) *listPage {
	page := resource.Paginate(records, pageNum, pageSize)

	lp := &listPage{
		Resource:  def,
		Columns:   def.Columns,
		Page:      page,
		CreateURL: listURL(def, page.Number, "modal", string(resource.ModalCreate)),
	}

	for _, rec := range page.Records {
		row := listRow{
			ID:        rec.ID,
			EditURL:   listURL(def, page.Number, "modal", string(resource.ModalEdit), "id", rec.ID),
			DeleteURL: listURL(def, page.Number, "modal", string(resource.ModalDelete), "id", rec.ID),
		}
		for _, col := range def.Columns {
			row.Cells = append(row.Cells, buildCell(ctx, def, col, rec.Get(col.Key), assets))
		}
		lp.Rows = append(lp.Rows, row)
	}

	for _, n := range page.Numbers() {
		lp.PageLinks = append(lp.PageLinks, pageLink{
			Number:  n,
			URL:     listURL(def, n),
			Current: n == page.Number,
		})
	}
	if page.HasPrev() {
		lp.PrevURL = listURL(def, page.Prev())
	}
	if page.HasNext() {
		lp.NextURL = listURL(def, page.Next())
	}
	return lp
}

func buildCell(ctx context.Context, def *resource.Definition, col resource.Column, value string, assets asset.Resolver) listCell {
	switch col.Kind {
	case resource.ColumnDate:
		return listCell{Kind: col.Kind, Text: formatDisplayDate(value)}
	case resource.ColumnImage:
		img := ""
		if assets != nil {
			img = assets.URL(ctx, def.AssetFolder, value)
		}
		return listCell{Kind: col.Kind, Text: value, Image: img}
	default:
		return listCell{Kind: col.Kind, Text: value}
	}
}

// formatDisplayDate はAPIの日付をdd-MMMM-yyyy形式にする。解釈できない値はそのまま返す。
func formatDisplayDate(value string) string {
	if t, ok := parseAPIDate(value); ok {
		return t.Format(displayDateLayout)
	}
	return value
}

// formatInputDate は<input type="date">に設定できるyyyy-mm-dd形式にする。
func formatInputDate(value string) string {
	if t, ok := parseAPIDate(value); ok {
		return t.Format(validation.DateLayout)
	}
	return value
}

func parseAPIDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range apiDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// buildModal はモーダルのデータを組み立てる。
// recordは編集・削除の対象、subは再表示時の送信値（nilなら初期表示）。
func buildModal(ctx context.Context, def *resource.Definition, kind resource.ModalKind, record model.Record, sub *resource.Submission, errs validation.Errors, page int, assets asset.Resolver) *modalView {
	m := &modalView{
		Kind:     kind,
		RecordID: record.ID,
		CloseURL: listURL(def, page),
		Page:     page,
	}

	switch kind {
	case resource.ModalCreate:
		m.Title = "Add " + def.Singular
		m.Action = "/admin/" + def.Name
	case resource.ModalEdit:
		m.Title = "Edit " + def.Singular
		m.Action = "/admin/" + def.Name + "/" + url.PathEscape(record.ID)
	case resource.ModalDelete:
		m.Title = "Delete " + def.Singular
		m.Action = "/admin/" + def.Name + "/" + url.PathEscape(record.ID) + "/delete"
		m.Confirm = fmt.Sprintf("Are you sure you want to delete this %s?", def.Singular)
		return m
	}

	for _, f := range def.Fields {
		fv := fieldView{Field: f, Error: errs[f.Name]}
		switch {
		case f.Kind == resource.FieldImage:
			if kind == resource.ModalEdit && assets != nil {
				fv.Preview = assets.URL(ctx, def.AssetFolder, record.Get(f.Name))
			}
		case sub != nil:
			fv.Value = sub.Value(f.Name)
		case f.Kind == resource.FieldDate:
			fv.Value = formatInputDate(record.Get(f.Name))
		default:
			fv.Value = record.Get(f.Name)
		}
		m.Fields = append(m.Fields, fv)
	}
	return m
}
