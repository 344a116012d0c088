package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"restaurant/internal/cart"
	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"github.com/shopspring/decimal"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	carts     *cart.Registry
	publisher EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderUsecase(tx repo.TransactionManager, carts *cart.Registry, publisher EventPublisher, logger *slog.Logger) *OrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderUsecase{tx: tx, carts: carts, publisher: publisher, logger: logger, now: time.Now}
}

type PlaceOrderInput struct {
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	OrderType       string
	DeliveryAddress string
	Notes           string
	IdempotencyKey  string
}

type OrderItemOutput struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int64           `json:"quantity"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type OrderOutput struct {
	ID              int64             `json:"id"`
	UserID          *int64            `json:"user_id"`
	CustomerName    string            `json:"customer_name"`
	CustomerEmail   string            `json:"customer_email"`
	CustomerPhone   string            `json:"customer_phone"`
	OrderType       string            `json:"order_type"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	Status          string            `json:"status"`
	TotalPrice      decimal.Decimal   `json:"total_price"`
	CreatedAt       time.Time         `json:"created_at"`
	Items           []OrderItemOutput `json:"items"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

func validatePlaceOrder(in PlaceOrderInput) error {
	key := strings.TrimSpace(in.IdempotencyKey)
	if key == "" || len(key) > 255 {
		return NewHTTPError(http.StatusBadRequest, "invalid idempotency key")
	}
	if strings.TrimSpace(in.CustomerName) == "" {
		return NewHTTPError(http.StatusBadRequest, "customer_name required")
	}
	if !isEmail(in.CustomerEmail) {
		return NewHTTPError(http.StatusBadRequest, "invalid customer_email")
	}
	if len(in.CustomerPhone) > 30 {
		return NewHTTPError(http.StatusBadRequest, "customer_phone too long")
	}
	switch model.OrderType(in.OrderType) {
	case model.OrderTypePickup:
	case model.OrderTypeDelivery:
		if strings.TrimSpace(in.DeliveryAddress) == "" {
			return NewHTTPError(http.StatusBadRequest, "delivery_address required")
		}
	default:
		return NewHTTPError(http.StatusBadRequest, "invalid order_type")
	}
	if len(in.Notes) > 1000 {
		return NewHTTPError(http.StatusBadRequest, "notes too long")
	}
	return nil
}

// PlaceOrder はカートの中身から注文を作る。
// 同じ持ち主・同じキーなら既存の注文を返し、カートには触らない。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, owner Owner, in PlaceOrderInput) (OrderOutput, error) {
	if !owner.valid() {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := validatePlaceOrder(in); err != nil {
		return OrderOutput{}, err
	}
	key := strings.TrimSpace(in.IdempotencyKey)

	store := u.carts.Get(ctx, owner.Key)
	snapshot := store.State()

	var out OrderOutput
	created := false

	//注文処理はトランザクション
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		// 同じキーなら同じ結果
		existing, found, err := r.Orders().FindByIdempotencyKey(ctx, owner.Key, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if found {
			items, err := r.OrderItems().ListByOrderID(ctx, existing.ID)
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			out = toOrderOutput(existing, items)
			return nil
		}

		if snapshot.IsEmpty() {
			return NewHTTPError(http.StatusBadRequest, "cart empty")
		}

		// 価格はカートに入れた時点のもの。品目がまだ提供中かだけ確認する
		orderItems := make([]model.OrderItem, 0, len(snapshot.Items))
		for _, li := range snapshot.Items {
			menuItemID, err := strconv.ParseInt(li.ID, 10, 64)
			if err != nil || menuItemID <= 0 {
				return NewHTTPError(http.StatusBadRequest, "invalid cart item")
			}

			m, err := r.MenuItems().FindByID(ctx, menuItemID)
			if err == repo.ErrNotFound || (err == nil && !m.IsAvailable) {
				return NewHTTPError(http.StatusBadRequest, "item unavailable: "+li.Name)
			}
			if err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}

			orderItems = append(orderItems, model.OrderItem{
				MenuItemID:        menuItemID,
				NameSnapshot:      li.Name,
				UnitPriceSnapshot: li.Price,
				Quantity:          int64(li.Quantity),
			})
		}

		order := model.Order{
			UserID:          owner.UserID,
			OwnerKey:        owner.Key,
			CustomerName:    strings.TrimSpace(in.CustomerName),
			CustomerEmail:   strings.TrimSpace(in.CustomerEmail),
			CustomerPhone:   strings.TrimSpace(in.CustomerPhone),
			OrderType:       model.OrderType(in.OrderType),
			DeliveryAddress: strings.TrimSpace(in.DeliveryAddress),
			Notes:           in.Notes,
			Status:          model.OrderStatusPending,
			TotalPrice:      snapshot.Total,
			IdempotencyKey:  key,
		}
		if order.OrderType == model.OrderTypePickup {
			order.DeliveryAddress = ""
		}

		orderID, err := r.Orders().Create(ctx, order)
		if err == repo.ErrConflict {
			// 同時に同じキーで作られた
			return NewHTTPError(http.StatusConflict, "order with this idempotency key is being processed")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.OrderItems().CreateBulk(ctx, orderID, orderItems); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		order.ID = orderID
		order.CreatedAt = u.now()
		out = toOrderOutput(order, orderItems)
		created = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if created {
		// コミット後に1回だけ
		store.Apply(func(cur cart.State) ([]cart.Action, error) {
			return drainOrdered(cur, snapshot), nil
		})
		u.publish(ctx, newOrderEvent(EventOrderPlaced, out, u.now()))
	}
	return out, nil
}

// drainOrdered は注文した分をカートから抜くアクション。
// 注文中にカートが変わっていなければ CLEAR_CART、変わっていれば注文した数量だけ減らす
// （別タブで追加された品目は残る）。
func drainOrdered(cur cart.State, ordered cart.State) []cart.Action {
	if sameLines(cur, ordered) {
		return []cart.Action{cart.ClearCart()}
	}

	actions := make([]cart.Action, 0, len(ordered.Items))
	for _, li := range ordered.Items {
		now, ok := cur.Find(li.ID)
		if !ok {
			continue
		}
		actions = append(actions, cart.UpdateQuantity(li.ID, now.Quantity-li.Quantity))
	}
	return actions
}

func sameLines(a cart.State, b cart.State) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for _, li := range a.Items {
		other, ok := b.Find(li.ID)
		if !ok || other.Quantity != li.Quantity || !other.Price.Equal(li.Price) {
			return false
		}
	}
	return true
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page int, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs, err := withItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out = OrderListOutput{Items: outs, Total: total, Page: page, Limit: limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if o.UserID == nil || *o.UserID != userID {
			//他人の注文は「存在しない扱い」にする
			return NewHTTPError(http.StatusNotFound, "not found")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toOrderOutput(o, items)
		return nil
	})

	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 送れなくても注文は成功扱い
func (u *OrderUsecase) publish(ctx context.Context, ev OrderEvent) {
	publishOrderEvent(ctx, u.publisher, u.logger, ev)
}

func publishOrderEvent(ctx context.Context, p EventPublisher, logger *slog.Logger, ev OrderEvent) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, strconv.FormatInt(ev.OrderID, 10), ev); err != nil {
		logger.WarnContext(ctx, "order event publish failed",
			"type", ev.Type,
			"order_id", ev.OrderID,
			"error", err,
		)
	}
}

func withItems(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		items, err := r.OrderItems().ListByOrderID(ctx, o.ID)
		if err != nil {
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		outs = append(outs, toOrderOutput(o, items))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, items []model.OrderItem) OrderOutput {
	outItems := make([]OrderItemOutput, 0, len(items))
	for _, it := range items {
		outItems = append(outItems, OrderItemOutput{
			MenuItemID: it.MenuItemID,
			Name:       it.NameSnapshot,
			Price:      it.UnitPriceSnapshot,
			Quantity:   it.Quantity,
			Subtotal:   it.UnitPriceSnapshot.Mul(decimal.NewFromInt(it.Quantity)),
		})
	}

	return OrderOutput{
		ID:              o.ID,
		UserID:          o.UserID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		OrderType:       string(o.OrderType),
		DeliveryAddress: o.DeliveryAddress,
		Notes:           o.Notes,
		Status:          string(o.Status),
		TotalPrice:      o.TotalPrice,
		CreatedAt:       o.CreatedAt,
		Items:           outItems,
	}
}

func isEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 255 {
		return false
	}
	a, err := mail.ParseAddress(s)
	return err == nil && a.Address == s
}
