package cart

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// 保存先にキーが無い
var ErrSnapshotNotFound = errors.New("cart snapshot not found")

// SnapshotStore はカートの保存先（Redisなど）。
type SnapshotStore interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}

// SnapshotKey は保存キー。
func SnapshotKey(owner string) string {
	return "cart:" + owner
}

// Encode は State 全体をJSONにする。
func Encode(s State) ([]byte, error) {
	return json.Marshal(s)
}

// Decode は保存データから State を作る。
// total / item_count は保存値を信用せず、明細から計算し直す。
func Decode(data []byte) (State, error) {
	var raw struct {
		Items []LineItem `json:"items"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Empty(), err
	}
	return Recalculate(sanitize(raw.Items)), nil
}

// 壊れた明細を落として、重複IDはまとめる
func sanitize(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))

	for _, it := range items {
		if it.ID == "" || it.Quantity < 1 || it.Price.IsNegative() {
			continue
		}
		if i, ok := index[it.ID]; ok {
			out[i].Quantity += it.Quantity
			continue
		}
		index[it.ID] = len(out)
		out = append(out, it)
	}
	return out
}

// Rehydrate は保存済みのカートを読み込む。
// 無い・読めない・壊れている場合は空のカート（エラーにはしない）。
func Rehydrate(ctx context.Context, snapshots SnapshotStore, key string) State {
	if snapshots == nil {
		return Empty()
	}

	data, err := snapshots.Load(ctx, key)
	if err != nil || len(data) == 0 {
		return Empty()
	}

	s, err := Decode(data)
	if err != nil {
		return Empty()
	}
	return s
}

// Persister はコミット後の state を裏で保存する observer。
// 失敗してもログだけ出して握りつぶす（メモリ上の state が正）。
type Persister struct {
	snapshots SnapshotStore
	key       string
	timeout   time.Duration
	logger    *slog.Logger

	mu  sync.Mutex
	seq uint64

	writeMu   sync.Mutex
	attempted uint64

	wg sync.WaitGroup
}

func NewPersister(snapshots SnapshotStore, key string, timeout time.Duration, logger *slog.Logger) *Persister {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Persister{
		snapshots: snapshots,
		key:       key,
		timeout:   timeout,
		logger:    logger,
	}
}

// Observe は Store.Subscribe に渡す。呼び出し側はブロックしない。
func (p *Persister) Observe(s State) {
	data, err := Encode(s)
	if err != nil {
		p.logger.Warn("cart snapshot encode failed", "key", p.key, "error", err)
		return
	}

	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.mu.Unlock()

	p.wg.Add(1)
	go p.write(seq, data)
}

// 古い state が新しい state を上書きしないように seq で比べる
func (p *Persister) write(seq uint64, data []byte) {
	defer p.wg.Done()

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if seq <= p.attempted {
		return
	}
	p.attempted = seq

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.snapshots.Save(ctx, p.key, data); err != nil {
		p.logger.Warn("cart snapshot save failed", "key", p.key, "error", err)
	}
}

// Wait は実行中の保存が終わるまで待つ。
func (p *Persister) Wait() {
	p.wg.Wait()
}

// MemorySnapshotStore はプロセス内の保存先（Redisが無いとき用）。
// ttl を付けると Redis と同じく期限切れのキーは無い扱いになる。
type MemorySnapshotStore struct {
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
	data map[string]memorySnapshot
}

type memorySnapshot struct {
	data    []byte
	expires time.Time // ゼロなら期限なし
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{now: time.Now, data: map[string]memorySnapshot{}}
}

// WithTTL は保存ごとに付ける期限（0 以下なら期限なし）。
func (m *MemorySnapshotStore) WithTTL(ttl time.Duration) *MemorySnapshotStore {
	m.ttl = ttl
	return m
}

func (m *MemorySnapshotStore) Load(ctx context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap, ok := m.data[key]
	if !ok || snap.expired(m.now()) {
		return nil, ErrSnapshotNotFound
	}
	out := make([]byte, len(snap.data))
	copy(out, snap.data)
	return out, nil
}

func (m *MemorySnapshotStore) Save(ctx context.Context, key string, data []byte) error {
	b := make([]byte, len(data))
	copy(b, data)

	snap := memorySnapshot{data: b}
	if m.ttl > 0 {
		snap.expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = snap
	return nil
}

// DeleteExpired は now 時点で期限切れのキーを消して、消した数を返す。
func (m *MemorySnapshotStore) DeleteExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, snap := range m.data {
		if snap.expired(now) {
			delete(m.data, key)
			n++
		}
	}
	return n
}

func (s memorySnapshot) expired(now time.Time) bool {
	return !s.expires.IsZero() && !now.Before(s.expires)
}

var _ SnapshotStore = (*MemorySnapshotStore)(nil)

