package store

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/planner"
)

// Memory is a volatile Backend. Records are copied on the way in and out so
// callers never share state with the store.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]*User
	plans   map[string]*planner.Plan
	history map[string][]assessment.Result
	pending map[string]pendingEntry
	now     func() time.Time
}

type pendingEntry struct {
	p       PendingAssessment
	expires time.Time
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	m.clear()
	return m
}

func (m *Memory) clear() {
	m.users = make(map[string]*User)
	m.plans = make(map[string]*planner.Plan)
	m.history = make(map[string][]assessment.Result)
	m.pending = make(map[string]pendingEntry)
}

func (m *Memory) Users() UserRepo                       { return memUsers{m} }
func (m *Memory) Plans() PlanRepo                       { return memPlans{m} }
func (m *Memory) History() HistoryRepo                  { return memHistory{m} }
func (m *Memory) Pending(ttl time.Duration) PendingRepo { return memPending{m: m, ttl: ttl} }

// Reset drops every record.
func (m *Memory) Reset(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clear()
	return nil
}

func (m *Memory) Close() error { return nil }

// InTx stages fn's writes and applies them together only if fn succeeds.
func (m *Memory) InTx(ctx context.Context, fn func(Writes) error) error {
	tx := &memTx{}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range tx.users {
		m.users[u.ID] = u
	}
	for _, p := range tx.plans {
		m.plans[p.ID] = p
	}
	for _, res := range tx.results {
		m.history[res.UserID] = append(m.history[res.UserID], res)
	}
	return nil
}

type memTx struct {
	users   []*User
	plans   []*planner.Plan
	results []assessment.Result
}

func (tx *memTx) SaveUser(_ context.Context, u *User) error {
	tx.users = append(tx.users, u.Clone())
	return nil
}

func (tx *memTx) SavePlan(_ context.Context, p *planner.Plan) error {
	c := p.Clone()
	tx.plans = append(tx.plans, &c)
	return nil
}

func (tx *memTx) AppendResult(_ context.Context, res assessment.Result) error {
	tx.results = append(tx.results, res.Clone())
	return nil
}

type memUsers struct{ m *Memory }

func (r memUsers) Save(_ context.Context, u *User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.users[u.ID] = u.Clone()
	return nil
}

func (r memUsers) Get(_ context.Context, id string) (*User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u.Clone(), nil
}

func (r memUsers) List(context.Context) ([]*User, error) {
	r.m.mu.RLock()
	out := make([]*User, 0, len(r.m.users))
	for _, u := range r.m.users {
		out = append(out, u.Clone())
	}
	r.m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *User) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

type memPlans struct{ m *Memory }

func (r memPlans) Save(_ context.Context, p *planner.Plan) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := p.Clone()
	r.m.plans[p.ID] = &c
	return nil
}

func (r memPlans) Get(_ context.Context, id string) (*planner.Plan, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	p, ok := r.m.plans[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (r memPlans) ListByUser(_ context.Context, userID string) ([]*planner.Plan, error) {
	r.m.mu.RLock()
	var out []*planner.Plan
	for _, p := range r.m.plans {
		if p.UserID == userID {
			c := p.Clone()
			out = append(out, &c)
		}
	}
	r.m.mu.RUnlock()

	slices.SortFunc(out, func(a, b *planner.Plan) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

type memHistory struct{ m *Memory }

func (r memHistory) Append(_ context.Context, res assessment.Result) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.history[res.UserID] = append(r.m.history[res.UserID], res.Clone())
	return nil
}

func (r memHistory) List(_ context.Context, userID string) ([]assessment.Result, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	h := r.m.history[userID]
	out := make([]assessment.Result, len(h))
	for i, res := range h {
		out[i] = res.Clone()
	}
	return out, nil
}

type memPending struct {
	m   *Memory
	ttl time.Duration
}

func (r memPending) Put(_ context.Context, p *PendingAssessment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	now := r.m.now()
	for id, e := range r.m.pending {
		if !now.Before(e.expires) {
			delete(r.m.pending, id)
		}
	}

	c := *p
	c.QuestionIDs = slices.Clone(p.QuestionIDs)
	r.m.pending[p.ID] = pendingEntry{p: c, expires: now.Add(r.ttl)}
	return nil
}

func (r memPending) Get(_ context.Context, id string) (*PendingAssessment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	e, ok := r.m.pending[id]
	if !ok || !r.m.now().Before(e.expires) {
		return nil, ErrNotFound
	}
	c := e.p
	c.QuestionIDs = slices.Clone(e.p.QuestionIDs)
	return &c, nil
}

func (r memPending) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.pending, id)
	return nil
}
