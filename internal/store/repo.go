package store

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/skill"
)

// ErrNotFound is returned when a record does not exist (or has expired).
var ErrNotFound = errors.New("not found")

// User is a learner and the ratings they own.
type User struct {
	ID                            string         `json:"id"`
	Email                         string         `json:"email"`
	DisplayName                   string         `json:"displayName"`
	CreatedAt                     time.Time      `json:"createdAt"`
	LastActiveAt                  time.Time      `json:"lastActiveAt"`
	HasCompletedInitialAssessment bool           `json:"hasCompletedInitialAssessment"`
	SkillRatings                  []skill.Rating `json:"skillRatings"`
	CurrentPlanID                 string         `json:"currentLearningPlanId,omitempty"`
}

// Clone returns a deep copy of u.
func (u *User) Clone() *User {
	out := *u
	out.SkillRatings = make([]skill.Rating, len(u.SkillRatings))
	for i, r := range u.SkillRatings {
		r.History = slices.Clone(r.History)
		out.SkillRatings[i] = r
	}
	return &out
}

// PendingAssessment is an assessment handed out but not yet submitted.
// Only question ids are kept; questions are resolved from the bank on submit.
type PendingAssessment struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	QuestionIDs []string  `json:"questionIds"`
	StartedAt   time.Time `json:"startedAt"`
}

// UserRepo persists users.
type UserRepo interface {
	// Save inserts or replaces the user.
	Save(ctx context.Context, u *User) error

	// Get returns the user, or ErrNotFound.
	Get(ctx context.Context, id string) (*User, error)

	// List returns all users ordered by creation time.
	List(ctx context.Context) ([]*User, error)
}

// PlanRepo persists learning plans. Superseded plans are kept.
type PlanRepo interface {
	// Save inserts or replaces the plan.
	Save(ctx context.Context, p *planner.Plan) error

	// Get returns the plan, or ErrNotFound.
	Get(ctx context.Context, id string) (*planner.Plan, error)

	// ListByUser returns every plan the user has owned, oldest first.
	ListByUser(ctx context.Context, userID string) ([]*planner.Plan, error)
}

// HistoryRepo is the append-only assessment result log.
type HistoryRepo interface {
	// Append adds a result to the user's history.
	Append(ctx context.Context, res assessment.Result) error

	// List returns the user's results in the order they were appended.
	List(ctx context.Context, userID string) ([]assessment.Result, error)
}

// PendingRepo holds started assessments until they are submitted or expire.
type PendingRepo interface {
	Put(ctx context.Context, p *PendingAssessment) error
	Get(ctx context.Context, id string) (*PendingAssessment, error)
	Delete(ctx context.Context, id string) error
}

// Writes are the mutations that make up one learner state change.
type Writes interface {
	SaveUser(ctx context.Context, u *User) error
	SavePlan(ctx context.Context, p *planner.Plan) error
	AppendResult(ctx context.Context, res assessment.Result) error
}

// Transactor applies a group of writes atomically: if fn returns an error
// none of its writes are kept.
type Transactor interface {
	InTx(ctx context.Context, fn func(Writes) error) error
}

// Backend bundles the repositories of one storage engine.
type Backend interface {
	Transactor

	Users() UserRepo
	Plans() PlanRepo
	History() HistoryRepo

	// Pending returns a pending-assessment repo whose entries expire after ttl.
	Pending(ttl time.Duration) PendingRepo

	// Reset deletes every record.
	Reset(ctx context.Context) error

	Close() error
}

// repoWrites adapts a set of repositories to Writes.
type repoWrites struct {
	users   UserRepo
	plans   PlanRepo
	history HistoryRepo
}

// DirectWrites applies each write straight to its repository, without
// atomicity. It serves callers that have no Transactor.
func DirectWrites(users UserRepo, plans PlanRepo, history HistoryRepo) Transactor {
	return repoWrites{users: users, plans: plans, history: history}
}

func (w repoWrites) SaveUser(ctx context.Context, u *User) error { return w.users.Save(ctx, u) }

func (w repoWrites) SavePlan(ctx context.Context, p *planner.Plan) error {
	return w.plans.Save(ctx, p)
}

func (w repoWrites) AppendResult(ctx context.Context, res assessment.Result) error {
	return w.history.Append(ctx, res)
}

func (w repoWrites) InTx(_ context.Context, fn func(Writes) error) error { return fn(w) }
