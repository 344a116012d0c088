package cart

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type registryEntry struct {
	store     *Store
	persister *Persister
	// Unix ナノ秒。r.mu の中でだけ読み書きする
	lastAccess int64
}

// Registry は持ち主（user:<id> / guest:<uuid>）ごとの Store をまとめる。
// 初回アクセス時に保存先から復元し、Persister をつなぐ。
// idleTimeout を過ぎて触られていない Store は Sweep でメモリから外す
// （保存先に残っているので、次の Get で復元される）。
type Registry struct {
	snapshots   SnapshotStore
	timeout     time.Duration
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]*registryEntry
}

func NewRegistry(snapshots SnapshotStore, persistTimeout time.Duration, logger *slog.Logger) *Registry {
	if snapshots == nil {
		snapshots = NewMemorySnapshotStore()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		snapshots: snapshots,
		timeout:   persistTimeout,
		logger:    logger,
		now:       time.Now,
		entries:   map[string]*registryEntry{},
	}
}

// WithIdleTimeout は Sweep で外すまでの放置時間を設定する（0 以下なら外さない）。
// 保存先の TTL（CART_TTL）と揃える。
func (r *Registry) WithIdleTimeout(d time.Duration) *Registry {
	r.idleTimeout = d
	return r
}

// Get は owner の Store を返す（無ければ復元して作る）。
func (r *Registry) Get(ctx context.Context, owner string) *Store {
	r.mu.Lock()
	if e, ok := r.entries[owner]; ok {
		e.lastAccess = r.now().UnixNano()
		r.mu.Unlock()
		return e.store
	}
	r.mu.Unlock()

	// 読み込みはロックの外で
	key := SnapshotKey(owner)
	initial := Rehydrate(ctx, r.snapshots, key)

	r.mu.Lock()
	defer r.mu.Unlock()

	// 先に他で作られていたらそちらを使う
	if e, ok := r.entries[owner]; ok {
		e.lastAccess = r.now().UnixNano()
		return e.store
	}

	p := NewPersister(r.snapshots, key, r.timeout, r.logger)
	st := NewStore(initial, p.Observe)
	r.entries[owner] = &registryEntry{store: st, persister: p, lastAccess: r.now().UnixNano()}

	r.logger.Debug("cart store created", "owner", owner, "items", len(initial.Items))
	return st
}

// Peek は Store を作らずに現在の state を返す。
// メモリに無ければ保存先から読むだけ（読むだけの GET /cart で Store を増やさない）。
func (r *Registry) Peek(ctx context.Context, owner string) State {
	r.mu.Lock()
	if e, ok := r.entries[owner]; ok {
		e.lastAccess = r.now().UnixNano()
		r.mu.Unlock()
		return e.store.State()
	}
	r.mu.Unlock()

	return Rehydrate(ctx, r.snapshots, SnapshotKey(owner))
}

// Len はメモリ上の Store 数。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Sweep は now 時点で idleTimeout より長く触られていない Store を外し、外した数を返す。
// 外す前に保存を待つので、直後の Get は最新の状態を復元する。
// 待っている間は Get もロックで待つ（放置された Store の保存は終わっているのが普通）。
func (r *Registry) Sweep(now time.Time) int {
	if r.idleTimeout <= 0 {
		return 0
	}
	deadline := now.Add(-r.idleTimeout).UnixNano()

	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for owner, e := range r.entries {
		if e.lastAccess > deadline {
			continue
		}
		e.persister.Wait()
		delete(r.entries, owner)
		n++
	}
	if n > 0 {
		r.logger.Debug("cart stores evicted", "count", n, "remaining", len(r.entries))
	}

	// Redis は自分で期限切れにする。メモリの保存先はここで掃除する
	if ex, ok := r.snapshots.(expiringSnapshotStore); ok {
		if removed := ex.DeleteExpired(now); removed > 0 {
			r.logger.Debug("cart snapshots expired", "count", removed)
		}
	}
	return n
}

type expiringSnapshotStore interface {
	DeleteExpired(now time.Time) int
}

// Run は ctx が終わるまで定期的に Sweep する。
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if r.idleTimeout <= 0 {
		return
	}
	if interval <= 0 {
		interval = r.idleTimeout / 4
	}
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(r.now())
		}
	}
}

// Wait は全カートの保存完了を待つ（シャットダウン時）。
func (r *Registry) Wait() {
	r.mu.Lock()
	ps := make([]*Persister, 0, len(r.entries))
	for _, e := range r.entries {
		ps = append(ps, e.persister)
	}
	r.mu.Unlock()

	for _, p := range ps {
		p.Wait()
	}
}
