package resource

import "github.com/hitoshi/adminconsole/internal/model"

// Page は一覧の1ページ分の表示データ。
type Page struct {
	Records      []model.Record
	Number       int // 1始まりのページ番号
	TotalPages   int
	Size         int
	TotalRecords int
}

// HasPrev は前のページがあるかどうかを返す。
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext は次のページがあるかどうかを返す。
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev は前のページ番号を返す。
func (p Page) Prev() int { return p.Number - 1 }

// Next は次のページ番号を返す。
func (p Page) Next() int { return p.Number + 1 }

// Numbers は1からTotalPagesまでのページ番号を返す。
func (p Page) Numbers() []int {
	nums := make([]int, p.TotalPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}

// Paginate はrecordsをsize件ずつに分割し、page番目（1始まり）を返す。
// ページ数はceil(N/size)で、N=0でも1ページとする。
// 範囲外のページ番号は最も近い有効なページに丸める。
// sizeが1未満の場合は1として扱う。
func Paginate(records []model.Record, page, size int) Page {
	if size < 1 {
		size = 1
	}
	total := len(records)
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}

	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}

	return Page{
		Records:      records[start:end:end],
		Number:       page,
		TotalPages:   pages,
		Size:         size,
		TotalRecords: total,
	}
}
