package handler_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"restaurant/internal/domain/model"
	"restaurant/internal/repository"
)

// handlerテスト用のメモリ実装。DBの代わりにルーティング〜usecaseを通しで確認する

type memDB struct {
	mu sync.Mutex

	users        map[int64]*model.User
	categories   map[int64]model.Category
	menu         map[int64]model.MenuItem
	orders       map[int64]model.Order
	orderItems   map[int64][]model.OrderItem
	audits       []model.AuditLog
	reservations map[int64]model.Reservation
	contacts     []model.ContactMessage
	nextID       int64
}

func newMemDB() *memDB {
	return &memDB{
		users:        map[int64]*model.User{},
		categories:   map[int64]model.Category{},
		menu:         map[int64]model.MenuItem{},
		orders:       map[int64]model.Order{},
		orderItems:   map[int64][]model.OrderItem{},
		reservations: map[int64]model.Reservation{},
	}
}

func (db *memDB) id() int64 {
	db.nextID++
	return db.nextID
}

// =====================
// users
// =====================

type memUsers struct{ db *memDB }

func (r memUsers) Create(ctx context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, x := range r.db.users {
		if x.Email == u.Email {
			return repository.ErrConflict
		}
	}
	u.ID = r.db.id()
	cur, ok := r.db.users[u.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *u
	cp.TokenVersion = cur.TokenVersion
	cp.CreatedAt = cur.CreatedAt
	r.db.users[u.ID] = &cp
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id int64) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, u := range r.db.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r memUsers) Update(ctx context.Context, u *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	cp := *u
	r.db.users[u.ID] = &cp
	return nil
}

func (r memUsers) IncrementTokenVersion(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.TokenVersion++
	return nil
}

// =====================
// categories / menu
// =====================

type memCategories struct{ db *memDB }

func (r memCategories) List(ctx context.Context) ([]model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]model.Category, 0, len(r.db.categories))
	for _, c := range r.db.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memCategories) FindByID(ctx context.Context, id int64) (model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	c, ok := r.db.categories[id]
	if !ok {
		return model.Category{}, repository.ErrNotFound
	}
	return c, nil
}

func (r memCategories) FindBySlug(ctx context.Context, slug string) (model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, c := range r.db.categories {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Category{}, repository.ErrNotFound
}

func (r memCategories) Create(ctx context.Context, c model.Category) (model.Category, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, x := range r.db.categories {
		if x.Slug == c.Slug || x.Name == c.Name {
			return model.Category{}, repository.ErrConflict
		}
	}
	c.ID = r.db.id()
	r.db.categories[c.ID] = c
	return c, nil
}

func (r memCategories) Update(ctx context.Context, c model.Category) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[c.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.categories[c.ID] = c
	return nil
}

func (r memCategories) Delete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.categories, id)
	return nil
}

func (r memCategories) CountMenuItems(ctx context.Context, id int64) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var n int64
	for _, m := range r.db.menu {
		if m.CategoryID == id {
			n++
		}
	}
	return n, nil
}

type memMenu struct{ db *memDB }

func (r memMenu) List(ctx context.Context, q repository.MenuListQuery) ([]model.MenuItem, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.MenuItem{}
	for _, m := range r.db.menu {
		if !q.IncludeUnavailable && !m.IsAvailable {
			continue
		}
		if q.CategoryID != nil && m.CategoryID != *q.CategoryID {
			continue
		}
		if q.Q != "" && !strings.Contains(strings.ToLower(m.Name), strings.ToLower(q.Q)) {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r memMenu) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m, ok := r.db.menu[id]
	if !ok {
		return model.MenuItem{}, repository.ErrNotFound
	}
	if c, ok := r.db.categories[m.CategoryID]; ok {
		m.Category = &c
	}
	return m, nil
}

func (r memMenu) Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	r.db.menu[m.ID] = m
	return m, nil
}

func (r memMenu) Update(ctx context.Context, m model.MenuItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.menu[m.ID]; !ok {
		return repository.ErrNotFound
	}
	r.db.menu[m.ID] = m
	return nil
}

func (r memMenu) SoftDelete(ctx context.Context, id int64) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.menu[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.db.menu, id)
	return nil
}

// =====================
// orders / tx
// =====================

type memOrders struct{ db *memDB }

func (r memOrders) FindByID(ctx context.Context, id int64) (model.Order, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return model.Order{}, repository.ErrNotFound
	}
	return o, nil
}

func (r memOrders) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	out := []model.Order{}
	for _, o := range r.db.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r memOrders) Create(ctx context.Context, o model.Order) (int64, error) {
	for _, x := range r.db.orders {
		if x.OwnerKey == o.OwnerKey && x.IdempotencyKey == o.IdempotencyKey {
			return 0, repository.ErrConflict
		}
	}
	o.ID = r.db.id()
	o.CreatedAt = time.Now()
	r.db.orders[o.ID] = o
	return o.ID, nil
}

func (r memOrders) UpdateStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	o, ok := r.db.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	r.db.orders[id] = o
	return nil
}

func (r memOrders) FindByIdempotencyKey(ctx context.Context, ownerKey string, key string) (model.Order, bool, error) {
	for _, o := range r.db.orders {
		if o.OwnerKey == ownerKey && o.IdempotencyKey == key {
			return o, true, nil
		}
	}
	return model.Order{}, false, nil
}

func (r memOrders) ListAdmin(ctx context.Context, f repository.AdminOrderListFilter) ([]model.Order, int64, error) {
	out := []model.Order{}
	q := strings.ToLower(strings.TrimSpace(f.Q))
	for _, o := range r.db.orders {
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		if f.Active && o.Status.IsTerminal() {
			continue
		}
		if f.OrderType != "" && string(o.OrderType) != f.OrderType {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(o.CustomerName), q) && !strings.Contains(strings.ToLower(o.CustomerEmail), q) {
			continue
		}
		out = append(out, o)
	}
	if f.Active {
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	} else {
		sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out, int64(len(out)), nil
}

type memOrderItems struct{ db *memDB }

func (r memOrderItems) CreateBulk(ctx context.Context, orderID int64, items []model.OrderItem) error {
	for _, it := range items {
		it.OrderID = orderID
		r.db.orderItems[orderID] = append(r.db.orderItems[orderID], it)
	}
	return nil
}

func (r memOrderItems) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderItem, error) {
	return append([]model.OrderItem(nil), r.db.orderItems[orderID]...), nil
}

// ロック中に呼ばれるので、ロックを取らない版を使う
type memTxRepos struct{ db *memDB }

func (r memTxRepos) Orders() repository.OrderRepository         { return memOrders(r) }
func (r memTxRepos) OrderItems() repository.OrderItemRepository { return memOrderItems(r) }
func (r memTxRepos) MenuItems() repository.MenuItemRepository   { return txMenu(r) }
func (r memTxRepos) AuditLogs() repository.AuditLogRepository   { return txAudit(r) }

type memTx struct{ db *memDB }

func (t memTx) WithinTx(ctx context.Context, fn func(r repository.TxRepos) error) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	return fn(memTxRepos{db: t.db})
}

type txMenu struct{ db *memDB }

func (r txMenu) List(ctx context.Context, q repository.MenuListQuery) ([]model.MenuItem, int64, error) {
	return nil, 0, nil
}

func (r txMenu) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	m, ok := r.db.menu[id]
	if !ok {
		return model.MenuItem{}, repository.ErrNotFound
	}
	return m, nil
}

func (r txMenu) Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error) { return m, nil }
func (r txMenu) Update(ctx context.Context, m model.MenuItem) error                   { return nil }
func (r txMenu) SoftDelete(ctx context.Context, id int64) error                       { return nil }

type txAudit struct{ db *memDB }

func (r txAudit) Create(ctx context.Context, l model.AuditLog) error {
	l.ID = r.db.id()
	r.db.audits = append(r.db.audits, l)
	return nil
}

func (r txAudit) List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, int64, error) {
	out := []model.AuditLog{}
	for i := len(r.db.audits) - 1; i >= 0; i-- {
		l := r.db.audits[i]
		if f.Action != "" && string(l.Action) != f.Action {
			continue
		}
		if f.ResourceType != "" && string(l.ResourceType) != f.ResourceType {
			continue
		}
		if f.ResourceID != nil && l.ResourceID != *f.ResourceID {
			continue
		}
		out = append(out, l)
	}
	return out, int64(len(out)), nil
}

// tx外から使う監査ログ
type memAudit struct{ db *memDB }

func (r memAudit) Create(ctx context.Context, l model.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return txAudit(r).Create(ctx, l)
}

func (r memAudit) List(ctx context.Context, f repository.AuditLogFilter) ([]model.AuditLog, int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	return txAudit(r).List(ctx, f)
}

// =====================
// reservations / contact
// =====================

type memReservations struct{ db *memDB }

func (r memReservations) Create(ctx context.Context, rs model.Reservation) (model.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rs.ID = r.db.id()
	r.db.reservations[rs.ID] = rs
	return rs, nil
}

func (r memReservations) FindByID(ctx context.Context, id int64) (model.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rs, ok := r.db.reservations[id]
	if !ok {
		return model.Reservation{}, repository.ErrNotFound
	}
	return rs, nil
}

func (r memReservations) List(ctx context.Context, f repository.ReservationListFilter) ([]model.Reservation, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.Reservation{}
	for _, rs := range r.db.reservations {
		if f.Status != "" && string(rs.Status) != f.Status {
			continue
		}
		out = append(out, rs)
	}
	return out, nil
}

func (r memReservations) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rs, ok := r.db.reservations[id]
	if !ok {
		return repository.ErrNotFound
	}
	rs.Status = status
	r.db.reservations[id] = rs
	return nil
}

type memContacts struct{ db *memDB }

func (r memContacts) Create(ctx context.Context, m model.ContactMessage) (model.ContactMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	r.db.contacts = append(r.db.contacts, m)
	return m, nil
}

func (r memContacts) List(ctx context.Context, limit int, offset int) ([]model.ContactMessage, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := []model.ContactMessage{}
	for i := len(r.db.contacts) - 1; i >= 0; i-- {
		out = append(out, r.db.contacts[i])
	}
	if offset >= len(out) {
		return []model.ContactMessage{}, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
