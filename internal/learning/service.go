// Package learning orchestrates the assessment engine and the planner over
// the store. It is the only layer that persists results, and it serializes
// every read-modify-write of a user's state behind a per-user lock.
package learning

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/events"
	"github.com/abhisek/mixcoach/internal/metrics"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
	"github.com/abhisek/mixcoach/internal/store"
)

// Questions is the question bank surface the service reads.
type Questions interface {
	Get(id string) (questionbank.Question, bool)
	Balanced(perCategory int) []questionbank.Question
}

// Deps are the collaborators a Service is built from. Tx, Events, Metrics
// and Logger may be nil; without Tx, writes are applied one by one.
type Deps struct {
	Content     planner.ContentLookup
	Questions   Questions
	Users       store.UserRepo
	Plans       store.PlanRepo
	History     store.HistoryRepo
	Pending     store.PendingRepo
	Tx          store.Transactor
	Events      events.Publisher
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	PerCategory int
}

// Service runs the learner workflow: assessments, ratings, plans and
// progress. Writes for one user are serialized; events are published after
// the user's lock is released.
type Service struct {
	content   planner.ContentLookup
	questions Questions
	engine    *assessment.Engine
	planner   *planner.Planner

	users   store.UserRepo
	plans   store.PlanRepo
	history store.HistoryRepo
	pending store.PendingRepo
	tx      store.Transactor
	locks   *store.KeyedMutex

	events      events.Publisher
	metrics     *metrics.Metrics
	log         *zap.Logger
	perCategory int

	now   func() time.Time
	newID func() string
}

// New builds a Service from d.
func New(d Deps) *Service {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	pub := d.Events
	if pub == nil {
		pub = events.NewLogPublisher(log)
	}
	tx := d.Tx
	if tx == nil {
		tx = store.DirectWrites(d.Users, d.Plans, d.History)
	}
	per := d.PerCategory
	if per <= 0 {
		per = questionbank.DefaultPerCategory
	}
	s := &Service{
		content:     d.Content,
		questions:   d.Questions,
		engine:      assessment.NewEngine(d.Questions),
		users:       d.Users,
		plans:       d.Plans,
		history:     d.History,
		pending:     d.Pending,
		tx:          tx,
		locks:       store.NewKeyedMutex(),
		events:      pub,
		metrics:     d.Metrics,
		log:         log.Named("learning"),
		perCategory: per,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	s.planner = planner.New(d.Content, planner.WithClock(func() time.Time { return s.now() }))
	return s
}

// Planner exposes the planner so read-only callers share one instance.
func (s *Service) Planner() *planner.Planner { return s.planner }

// CreateUser registers a learner who has not yet taken the assessment.
func (s *Service) CreateUser(ctx context.Context, email, displayName string) (*store.User, error) {
	email, displayName = strings.TrimSpace(email), strings.TrimSpace(displayName)
	if email == "" || displayName == "" {
		return nil, fmt.Errorf("%w: email and displayName are required", ErrInvalidInput)
	}

	now := s.now()
	u := &store.User{
		ID:           s.newID(),
		Email:        email,
		DisplayName:  displayName,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := s.users.Save(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", u.ID))
	s.publish(ctx, events.New(events.UserCreated, u.ID, nil))
	return u, nil
}

// GetUser returns the user, or ErrUserNotFound.
func (s *Service) GetUser(ctx context.Context, id string) (*store.User, error) {
	u, err := s.users.Get(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// ListUsers returns every user, oldest first.
func (s *Service) ListUsers(ctx context.Context) ([]*store.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// StartedAssessment is what a learner receives when an assessment begins.
type StartedAssessment struct {
	ID        string
	UserID    string
	Questions []assessment.SafeQuestion
	StartedAt time.Time
}

// StartAssessment hands out a balanced question set and remembers it until
// submission or expiry.
func (s *Service) StartAssessment(ctx context.Context, userID string) (*StartedAssessment, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidInput)
	}
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u.HasCompletedInitialAssessment {
		return nil, ErrAssessmentAlreadyCompleted
	}

	gen := s.engine.Generate(s.perCategory)
	ids := make([]string, len(gen.Questions))
	for i, q := range gen.Questions {
		ids[i] = q.ID
	}
	p := &store.PendingAssessment{
		ID:          gen.ID,
		UserID:      userID,
		QuestionIDs: ids,
		StartedAt:   s.now(),
	}
	if err := s.pending.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("store pending assessment: %w", err)
	}

	s.log.Info("assessment started",
		zap.String("user_id", userID),
		zap.String("assessment_id", gen.ID),
		zap.Int("questions", len(ids)))
	s.publish(ctx, events.New(events.AssessmentStarted, userID, map[string]string{"assessmentId": gen.ID}))

	return &StartedAssessment{
		ID:        gen.ID,
		UserID:    userID,
		Questions: assessment.SafeView(gen.Questions),
		StartedAt: p.StartedAt,
	}, nil
}

// Submission is a scored assessment and the plan built from it.
type Submission struct {
	Result assessment.Result
	User   *store.User
	Plan   *planner.Plan
}

// SubmitAssessment scores a pending assessment, derives the learner's ratings
// and first plan, and persists all three.
func (s *Service) SubmitAssessment(ctx context.Context, assessmentID string, answers map[string]questionbank.Answer) (*Submission, error) {
	if assessmentID == "" || answers == nil {
		return nil, fmt.Errorf("%w: assessmentId and answers are required", ErrInvalidInput)
	}
	p, err := s.pending.Get(ctx, assessmentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrAssessmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load pending assessment: %w", err)
	}

	qs := make([]questionbank.Question, 0, len(p.QuestionIDs))
	for _, id := range p.QuestionIDs {
		q, ok := s.questions.Get(id)
		if !ok {
			s.log.Warn("pending assessment references unknown question",
				zap.String("assessment_id", assessmentID), zap.String("question_id", id))
			continue
		}
		qs = append(qs, q)
	}

	res := s.engine.Score(p.ID, p.UserID, answers, qs, p.StartedAt)
	unlock := s.locks.Lock(p.UserID)
	u, plan, ev, err := s.completeLocked(ctx, p.UserID, res)
	unlock()
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ev)

	if err := s.pending.Delete(ctx, assessmentID); err != nil {
		s.log.Warn("delete pending assessment", zap.String("assessment_id", assessmentID), zap.Error(err))
	}
	return &Submission{Result: res, User: u, Plan: plan}, nil
}

// CompleteInitialAssessment records res as the user's initial assessment:
// ratings are derived from it, a first plan is created, and the result is
// appended to the user's history.
func (s *Service) CompleteInitialAssessment(ctx context.Context, userID string, res assessment.Result) (*store.User, *planner.Plan, error) {
	unlock := s.locks.Lock(userID)
	u, plan, ev, err := s.completeLocked(ctx, userID, res)
	unlock()
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, ev)
	return u, plan, nil
}

// completeLocked persists the outcome of an initial assessment and returns
// the event to publish once the caller has released the user's lock.
func (s *Service) completeLocked(ctx context.Context, userID string, res assessment.Result) (*store.User, *planner.Plan, events.Event, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, nil, events.Event{}, err
	}
	if u.HasCompletedInitialAssessment {
		return nil, nil, events.Event{}, ErrAssessmentAlreadyCompleted
	}

	ratings := planner.RatingsFromResult(res)
	plan := s.planner.CreatePlan(userID, ratings)

	u.HasCompletedInitialAssessment = true
	u.SkillRatings = ratings
	u.CurrentPlanID = plan.ID
	u.LastActiveAt = s.now()

	err = s.tx.InTx(ctx, func(w store.Writes) error {
		if err := w.SavePlan(ctx, &plan); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		if err := w.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		if err := w.AppendResult(ctx, res); err != nil {
			return fmt.Errorf("append assessment result: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, events.Event{}, err
	}

	focus := make([]string, len(plan.FocusAreas))
	for i, c := range plan.FocusAreas {
		focus[i] = string(c)
	}
	s.metrics.ObserveAssessment(res.OverallScore)
	s.log.Info("initial assessment completed",
		zap.String("user_id", userID),
		zap.String("assessment_id", res.ID),
		zap.Float64("overall_score", res.OverallScore),
		zap.String("plan_id", plan.ID),
		zap.Int("plan_items", len(plan.Items)),
		zap.Strings("focus_areas", focus))
	ev := events.New(events.AssessmentCompleted, userID, events.AssessmentCompletedPayload{
		AssessmentID: res.ID,
		OverallScore: res.OverallScore,
		PlanID:       plan.ID,
		FocusAreas:   focus,
	})
	return u, &plan, ev, nil
}

// GetLearningPlan returns the user's current plan.
func (s *Service) GetLearningPlan(ctx context.Context, userID string) (*planner.Plan, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.currentPlan(ctx, u)
}

func (s *Service) currentPlan(ctx context.Context, u *store.User) (*planner.Plan, error) {
	if u.CurrentPlanID == "" {
		return nil, ErrPlanNotFound
	}
	p, err := s.plans.Get(ctx, u.CurrentPlanID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return p, nil
}

// ProgressUpdate is the state after a content completion was recorded.
type ProgressUpdate struct {
	User     *store.User
	Plan     *planner.Plan
	Remedial int
}

// UpdateProgress records a score (0..100) on contentID: the current plan is
// updated and the rating for the content's category adjusted.
func (s *Service) UpdateProgress(ctx context.Context, userID, contentID string, score float64) (*ProgressUpdate, error) {
	if contentID == "" {
		return nil, fmt.Errorf("%w: contentId is required", ErrInvalidInput)
	}
	if math.IsNaN(score) || score < 0 || score > 100 {
		return nil, fmt.Errorf("%w: score must be between 0 and 100", ErrInvalidInput)
	}
	content, ok := s.content.Get(contentID)
	if !ok {
		return nil, ErrContentNotFound
	}

	unlock := s.locks.Lock(userID)
	up, ev, err := s.updateProgressLocked(ctx, userID, content, score)
	unlock()
	if err != nil {
		return nil, err
	}
	s.publish(ctx, ev)
	return up, nil
}

func (s *Service) updateProgressLocked(ctx context.Context, userID string, content catalog.ContentItem, score float64) (*ProgressUpdate, events.Event, error) {
	contentID := content.ID
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, events.Event{}, err
	}
	plan, err := s.currentPlan(ctx, u)
	if err != nil {
		return nil, events.Event{}, err
	}

	updated := s.planner.UpdatePlan(*plan, u.SkillRatings, contentID, score)
	remedial := len(updated.Items) - len(plan.Items)

	var newRating float64
	if r, ok := planner.RatingFor(u.SkillRatings, content.Category); ok {
		next := s.planner.UpdateRating(r, content.Type, score, content.Difficulty)
		u.SkillRatings = planner.ReplaceRating(u.SkillRatings, next)
		newRating = next.Rating
	}
	u.LastActiveAt = s.now()

	err = s.tx.InTx(ctx, func(w store.Writes) error {
		if err := w.SavePlan(ctx, &updated); err != nil {
			return fmt.Errorf("save plan: %w", err)
		}
		if err := w.SaveUser(ctx, u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, events.Event{}, err
	}

	status := "UNPLANNED"
	if i := updated.ItemFor(contentID); i >= 0 {
		status = string(updated.Items[i].Status)
	}
	progress := planner.Progress(updated)
	s.metrics.ObserveProgress(string(content.Category), status, remedial)
	s.log.Info("progress recorded",
		zap.String("user_id", userID),
		zap.String("content_id", contentID),
		zap.Float64("score", score),
		zap.String("status", status),
		zap.Int("remedial", remedial),
		zap.Float64("rating", newRating),
		zap.Float64("progress", progress))
	ev := events.New(events.ProgressUpdated, userID, events.ProgressUpdatedPayload{
		PlanID:    updated.ID,
		ContentID: contentID,
		Score:     score,
		Category:  string(content.Category),
		NewRating: newRating,
		Progress:  progress,
	})
	return &ProgressUpdate{User: u, Plan: &updated, Remedial: remedial}, ev, nil
}

// AssessmentHistory returns the user's scored assessments, oldest first.
func (s *Service) AssessmentHistory(ctx context.Context, userID string) ([]assessment.Result, error) {
	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	h, err := s.history.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return h, nil
}

// Content returns a catalog item.
func (s *Service) Content(id string) (catalog.ContentItem, error) {
	c, ok := s.content.Get(id)
	if !ok {
		return catalog.ContentItem{}, ErrContentNotFound
	}
	return c, nil
}

// CategoryQuestions returns up to five practice questions for cat, answers
// stripped.
func (s *Service) CategoryQuestions(cat skill.Category) ([]assessment.SafeQuestion, error) {
	var out []questionbank.Question
	for _, q := range s.questions.Balanced(5) {
		if q.Category == cat {
			out = append(out, q)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, cat)
	}
	return assessment.SafeView(out), nil
}

// publish sends ev, logging rather than returning failures.
func (s *Service) publish(ctx context.Context, ev events.Event) {
	if err := s.events.Publish(ctx, ev); err != nil {
		s.metrics.EventFailed(string(ev.Type))
		s.log.Warn("publish event", zap.String("type", string(ev.Type)), zap.Error(err))
	}
}
