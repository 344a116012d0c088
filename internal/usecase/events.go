package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// EventPublisher は注文イベントの送り先（Kafka またはログ）。
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

type OrderEvent struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	OrderID        int64           `json:"order_id"`
	UserID         *int64          `json:"user_id,omitempty"`
	Status         string          `json:"status"`
	PreviousStatus string          `json:"previous_status,omitempty"`
	OrderType      string          `json:"order_type,omitempty"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	ItemCount      int64           `json:"item_count,omitempty"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func newOrderEvent(typ string, o OrderOutput, now time.Time) OrderEvent {
	var n int64
	for _, it := range o.Items {
		n += it.Quantity
	}
	return OrderEvent{
		ID:         uuid.NewString(),
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     o.Status,
		OrderType:  o.OrderType,
		TotalPrice: o.TotalPrice,
		ItemCount:  n,
		OccurredAt: now.UTC(),
	}
}
