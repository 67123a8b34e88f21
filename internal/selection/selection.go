// Package selection хранит выбор количеств и результат оформления
// в рамках сессии оператора.
package selection

import (
	"sync"

	"github.com/mmeshcher/ticket-backoffice/internal/model"
)

// State — отображение идентификатора товара в выбранное количество.
// Нулевое количество равнозначно отсутствию товара в выборе.
type State map[int64]int

// WithQuantity возвращает новое состояние с изменённым количеством товара.
// Количество обрезается в границы [0, limit]; нулевое количество удаляет товар.
func (s State) WithQuantity(itemID int64, quantity, limit int) State {
	if quantity < 0 {
		quantity = 0
	}
	if quantity > limit {
		quantity = limit
	}

	next := s.Clone()
	if quantity == 0 {
		delete(next, itemID)
	} else {
		next[itemID] = quantity
	}
	return next
}

// Quantity возвращает выбранное количество товара.
func (s State) Quantity(itemID int64) int {
	return s[itemID]
}

// Empty сообщает, выбран ли хотя бы один товар.
func (s State) Empty() bool {
	return len(s) == 0
}

// Clone возвращает копию состояния.
func (s State) Clone() State {
	next := make(State, len(s))
	for id, qty := range s {
		next[id] = qty
	}
	return next
}

// Session содержит состояние одной сессии оператора: выбор количеств,
// последнюю собранную отправку и результат текущей попытки оформления.
type Session struct {
	mu         sync.Mutex
	state      State
	positions  []model.OrderPosition
	comment    string
	outcome    *model.OrderOutcome
	attempt    int
	submitting bool
}

func newSession() *Session {
	return &Session{state: State{}}
}

// Quantities возвращает копию текущего выбора.
func (s *Session) Quantities() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// SetQuantity изменяет количество товара и возвращает новое состояние выбора.
func (s *Session) SetQuantity(itemID int64, quantity, limit int) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.state.WithQuantity(itemID, quantity, limit)
	return s.state.Clone()
}

// UpdateComposition запоминает последние собранные позиции заказа.
// Пока отправка в полёте, позиции попытки не подменяются.
func (s *Session) UpdateComposition(positions []model.OrderPosition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitting {
		return
	}
	s.positions = clonePositions(positions)
}

// Positions возвращает последние собранные позиции заказа.
func (s *Session) Positions() []model.OrderPosition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePositions(s.positions)
}

// BeginSubmission переводит сессию в состояние отправки и возвращает номер
// попытки и позиции к отправке. Возвращает ok=false, если отправка уже в полёте:
// повторное подтверждение не порождает второго сетевого вызова.
func (s *Session) BeginSubmission(comment string) (attempt int, positions []model.OrderPosition, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return 0, nil, false
	}

	s.submitting = true
	s.attempt++
	s.comment = comment
	s.outcome = &model.OrderOutcome{State: model.OutcomePending}

	return s.attempt, clonePositions(s.positions), true
}

// BeginRetry начинает повторную отправку после неудачи: те же позиции,
// тот же комментарий. Возвращает ok=false, если повторять нечего
// или отправка уже в полёте.
func (s *Session) BeginRetry() (attempt int, positions []model.OrderPosition, comment string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting || s.outcome == nil || s.outcome.State != model.OutcomeFailure {
		return 0, nil, "", false
	}

	s.submitting = true
	s.attempt++
	s.outcome = &model.OrderOutcome{State: model.OutcomePending}

	return s.attempt, clonePositions(s.positions), s.comment, true
}

// FinishSubmission записывает результат попытки. Результат устаревшей попытки
// (сессия ушла дальше) отбрасывается, и метод возвращает false.
func (s *Session) FinishSubmission(attempt int, outcome model.OrderOutcome) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if attempt != s.attempt {
		return false
	}

	s.submitting = false
	s.outcome = &outcome
	return true
}

// SetOutcome записывает результат без отправки: сбой предусловий
// не проходит через состояние Pending.
func (s *Session) SetOutcome(outcome model.OrderOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		return
	}
	s.outcome = &outcome
}

// Outcome возвращает результат текущей попытки, либо nil.
func (s *Session) Outcome() *model.OrderOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.outcome == nil {
		return nil
	}
	outcome := *s.outcome
	return &outcome
}

// Dismiss закрывает диалог подтверждения. После успеха выбор очищается,
// после неудачи сохраняется для повторной попытки. Результат отправки,
// оставшейся в полёте, будет отброшен.
func (s *Session) Dismiss() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.submitting {
		s.submitting = false
		s.attempt++
	}

	if s.outcome != nil && s.outcome.State == model.OutcomeSuccess {
		s.state = State{}
		s.positions = nil
		s.comment = ""
	}

	s.outcome = nil
}

func clonePositions(positions []model.OrderPosition) []model.OrderPosition {
	if positions == nil {
		return nil
	}
	next := make([]model.OrderPosition, len(positions))
	copy(next, positions)
	return next
}

// Store — потокобезопасное хранилище сессий в памяти.
// Сессии живут только в процессе и нигде не сохраняются.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore создаёт пустое хранилище сессий.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// Get возвращает сессию по идентификатору, создавая её при первом обращении.
func (st *Store) Get(id string) *Session {
	st.mu.RLock()
	sess, found := st.sessions[id]
	st.mu.RUnlock()
	if found {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if sess, found := st.sessions[id]; found {
		return sess
	}
	sess = newSession()
	st.sessions[id] = sess
	return sess
}
