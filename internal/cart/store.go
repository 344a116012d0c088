package cart

import "sync"

// Observer はコミット後の state を受け取る。
// Dispatch のロック中に呼ばれるので、重い処理はしないこと。
type Observer func(State)

// Store はカート1つ分の state を持つ。
// 変更は Dispatch からだけ行う。
type Store struct {
	mu        sync.Mutex
	state     State
	observers []Observer
}

func NewStore(initial State, observers ...Observer) *Store {
	st := Recalculate(initial.Clone().Items)
	return &Store{
		state:     st,
		observers: append([]Observer(nil), observers...),
	}
}

// Subscribe は observer を追加する。
func (s *Store) Subscribe(o Observer) {
	if o == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Dispatch はアクションを適用して、新しい state のコピーを返す。
// state読み取り→計算→置き換え→通知 までを1回のロックで行う。
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 未知のアクションは何もしない（通知もしない）
	if !a.Type.Known() {
		return s.state.Clone()
	}

	s.state = Reduce(s.state, a)

	for _, o := range s.observers {
		o(s.state.Clone())
	}
	return s.state.Clone()
}

// Apply は現在の state を見て適用するアクションを決め、同じロックの中で適用する。
// decide がエラーを返すか、アクションが無ければ何もしない（通知もしない）。
// 確認と変更の間に他の Dispatch が割り込まない。
func (s *Store) Apply(decide func(State) ([]Action, error)) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	actions, err := decide(s.state.Clone())
	if err != nil {
		return s.state.Clone(), err
	}

	applied := false
	for _, a := range actions {
		if !a.Type.Known() {
			continue
		}
		s.state = Reduce(s.state, a)
		applied = true
	}
	if !applied {
		return s.state.Clone(), nil
	}

	for _, o := range s.observers {
		o(s.state.Clone())
	}
	return s.state.Clone(), nil
}

// State は現在の state のコピー。
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}
