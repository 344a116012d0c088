package cart

import "github.com/shopspring/decimal"

// カートに入れる前のメニュー情報（数量なし）。
// 価格は追加時点の値をそのまま保持する。
type Item struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
}

// カートの明細（IDごとに1行）
type LineItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Quantity    int             `json:"quantity"`
}

// Subtotal は単価×数量。
func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// State はカート全体。
// Total と ItemCount は Items から毎回計算し直す（差分更新しない）。
type State struct {
	Items     []LineItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// Empty は空のカートを返す。
func Empty() State {
	return State{Items: []LineItem{}, Total: decimal.Zero, ItemCount: 0}
}

// Recalculate は明細から合計を作り直す。
func Recalculate(items []LineItem) State {
	if items == nil {
		items = []LineItem{}
	}

	total := decimal.Zero
	count := 0
	for _, it := range items {
		total = total.Add(it.Subtotal())
		count += it.Quantity
	}

	return State{Items: items, Total: total, ItemCount: count}
}

// Clone は呼び出し側に渡す用のコピー。
func (s State) Clone() State {
	items := make([]LineItem, len(s.Items))
	copy(items, s.Items)
	return State{Items: items, Total: s.Total, ItemCount: s.ItemCount}
}

// Find はIDで明細を探す。
func (s State) Find(id string) (LineItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return LineItem{}, false
}

func (s State) IsEmpty() bool {
	return len(s.Items) == 0
}
