package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
)

type AdminOrderUsecase struct {
	tx        repo.TransactionManager
	publisher EventPublisher
	logger    *slog.Logger
}

func NewAdminOrderUsecase(tx repo.TransactionManager, publisher EventPublisher, logger *slog.Logger) *AdminOrderUsecase {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminOrderUsecase{tx: tx, publisher: publisher, logger: logger}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

// 進む順番。CANCELED は終端以外からいつでも
var orderStatusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:   0,
	model.OrderStatusConfirmed: 1,
	model.OrderStatusPreparing: 2,
	model.OrderStatusReady:     3,
	model.OrderStatusCompleted: 4,
}

// CanTransition は from -> to が許されるか。同じステータスは呼び出し側で扱う。
func CanTransition(from, to model.OrderStatus) bool {
	if from.IsTerminal() || from == to {
		return false
	}
	if to == model.OrderStatusCanceled {
		return true
	}
	fr, ok1 := orderStatusRank[from]
	tr, ok2 := orderStatusRank[to]
	return ok1 && ok2 && tr > fr
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	// page/limitの最低限チェック
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	switch model.OrderType(f.OrderType) {
	case "", model.OrderTypePickup, model.OrderTypeDelivery:
	default:
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid order_type")
	}
	if len(f.Q) > 255 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be <= to")
	}

	var out OrderListOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		outs, err := withItems(ctx, r, orders)
		if err != nil {
			return err
		}
		out = OrderListOutput{Items: outs, Total: total, Page: f.Page, Limit: f.Limit}
		return nil
	})

	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

// ステータス更新。監査ログは同じトランザクションで残す
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.TrimSpace(in.Status))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var out OrderOutput
	var before model.OrderStatus
	changed := false

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if err == repo.ErrNotFound {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		items, err := r.OrderItems().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		// すでに同じなら何もしない（200）
		if o.Status == newStatus {
			out = toOrderOutput(o, items)
			return nil
		}
		// 終端ガード
		if o.Status.IsTerminal() {
			return NewHTTPError(http.StatusBadRequest, "cannot change "+strings.ToLower(string(o.Status))+" order")
		}
		if !CanTransition(o.Status, newStatus) {
			return NewHTTPError(http.StatusBadRequest, "invalid status transition")
		}

		before = o.Status
		if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
			if err == repo.ErrNotFound {
				return NewHTTPError(http.StatusNotFound, "not found")
			}
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorAdminUserID,
			Action:       model.AuditActionUpdateOrderStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   `{"status":"` + string(before) + `"}`,
			AfterJSON:    `{"status":"` + string(newStatus) + `"}`,
			CreatedAt:    time.Now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o.Status = newStatus
		out = toOrderOutput(o, items)
		changed = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	if changed {
		ev := newOrderEvent(EventOrderStatusChanged, out, time.Now())
		ev.PreviousStatus = string(before)
		publishOrderEvent(ctx, u.publisher, u.logger, ev)
	}
	return out, nil
}
