package cart

type ActionType string

const (
	ActionAddItem        ActionType = "ADD_ITEM"
	ActionRemoveItem     ActionType = "REMOVE_ITEM"
	ActionUpdateQuantity ActionType = "UPDATE_QUANTITY"
	ActionClearCart      ActionType = "CLEAR_CART"
)

// Known は定義済みのアクションかどうか。
func (t ActionType) Known() bool {
	switch t {
	case ActionAddItem, ActionRemoveItem, ActionUpdateQuantity, ActionClearCart:
		return true
	default:
		return false
	}
}

// Action はカートへの変更要求。
// 使うフィールドは Type ごとに違う（ADD_ITEM→Item、REMOVE_ITEM→ID、UPDATE_QUANTITY→ID+Quantity）。
type Action struct {
	Type     ActionType
	Item     Item
	ID       string
	Quantity int
}

func AddItem(item Item) Action {
	return Action{Type: ActionAddItem, Item: item}
}

func RemoveItem(id string) Action {
	return Action{Type: ActionRemoveItem, ID: id}
}

func UpdateQuantity(id string, quantity int) Action {
	return Action{Type: ActionUpdateQuantity, ID: id, Quantity: quantity}
}

func ClearCart() Action {
	return Action{Type: ActionClearCart}
}

// Reduce は (state, action) から次の state を返す純粋関数。
// エラーは返さない。知らないアクションは state をそのまま返す。
// 入力の Items は書き換えない。
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionAddItem:
		return addItem(s, a.Item)
	case ActionRemoveItem:
		return removeItem(s, a.ID)
	case ActionUpdateQuantity:
		if a.Quantity <= 0 {
			return removeItem(s, a.ID)
		}
		return updateQuantity(s, a.ID, a.Quantity)
	case ActionClearCart:
		return Empty()
	default:
		return s
	}
}

// 同じIDがあれば数量+1、無ければ末尾に数量1で追加
func addItem(s State, item Item) State {
	// IDなし・マイナス価格は受け付けない
	if item.ID == "" || item.Price.IsNegative() {
		return s
	}

	items := make([]LineItem, 0, len(s.Items)+1)
	found := false
	for _, it := range s.Items {
		if it.ID == item.ID {
			it.Quantity++
			found = true
		}
		items = append(items, it)
	}

	if !found {
		items = append(items, LineItem{
			ID:          item.ID,
			Name:        item.Name,
			Price:       item.Price,
			Image:       item.Image,
			Description: item.Description,
			Category:    item.Category,
			Quantity:    1,
		})
	}

	return Recalculate(items)
}

func removeItem(s State, id string) State {
	if _, ok := s.Find(id); !ok {
		return s
	}

	items := make([]LineItem, 0, len(s.Items))
	for _, it := range s.Items {
		if it.ID == id {
			continue
		}
		items = append(items, it)
	}
	return Recalculate(items)
}

// 無いIDは何もしない（勝手に追加しない）
func updateQuantity(s State, id string, qty int) State {
	if _, ok := s.Find(id); !ok {
		return s
	}

	items := make([]LineItem, len(s.Items))
	for i, it := range s.Items {
		if it.ID == id {
			it.Quantity = qty
		}
		items[i] = it
	}
	return Recalculate(items)
}
