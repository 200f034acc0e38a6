package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/skill"
)

type userRow struct {
	ID               string `db:"id"`
	Email            string `db:"email"`
	DisplayName      string `db:"display_name"`
	CreatedAt        int64  `db:"created_at"`
	LastActiveAt     int64  `db:"last_active_at"`
	CompletedInitial bool   `db:"completed_initial"`
	SkillRatings     string `db:"skill_ratings"`
	CurrentPlanID    string `db:"current_plan_id"`
}

func (r userRow) user() (*User, error) {
	var ratings []skill.Rating
	if err := json.Unmarshal([]byte(r.SkillRatings), &ratings); err != nil {
		return nil, fmt.Errorf("decode skill ratings for %s: %w", r.ID, err)
	}
	return &User{
		ID:                            r.ID,
		Email:                         r.Email,
		DisplayName:                   r.DisplayName,
		CreatedAt:                     fromUnix(r.CreatedAt),
		LastActiveAt:                  fromUnix(r.LastActiveAt),
		HasCompletedInitialAssessment: r.CompletedInitial,
		SkillRatings:                  ratings,
		CurrentPlanID:                 r.CurrentPlanID,
	}, nil
}

type userRepo struct {
	db sqlx.ExtContext
}

func (r *userRepo) Save(ctx context.Context, u *User) error {
	ratings := u.SkillRatings
	if ratings == nil {
		ratings = []skill.Rating{}
	}
	raw, err := json.Marshal(ratings)
	if err != nil {
		return fmt.Errorf("encode skill ratings: %w", err)
	}
	row := userRow{
		ID:               u.ID,
		Email:            u.Email,
		DisplayName:      u.DisplayName,
		CreatedAt:        toUnix(u.CreatedAt),
		LastActiveAt:     toUnix(u.LastActiveAt),
		CompletedInitial: u.HasCompletedInitialAssessment,
		SkillRatings:     string(raw),
		CurrentPlanID:    u.CurrentPlanID,
	}
	_, err = sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO users (id, email, display_name, created_at, last_active_at,
			completed_initial, skill_ratings, current_plan_id)
		VALUES (:id, :email, :display_name, :created_at, :last_active_at,
			:completed_initial, :skill_ratings, :current_plan_id)
		ON CONFLICT(id) DO UPDATE SET
			email = excluded.email,
			display_name = excluded.display_name,
			last_active_at = excluded.last_active_at,
			completed_initial = excluded.completed_initial,
			skill_ratings = excluded.skill_ratings,
			current_plan_id = excluded.current_plan_id`, row)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (r *userRepo) Get(ctx context.Context, id string) (*User, error) {
	var row userRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT * FROM users WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return row.user()
}

func (r *userRepo) List(ctx context.Context) ([]*User, error) {
	var rows []userRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, "SELECT * FROM users ORDER BY created_at, id"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*User, 0, len(rows))
	for _, row := range rows {
		u, err := row.user()
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

type planRow struct {
	ID               string `db:"id"`
	UserID           string `db:"user_id"`
	CreatedAt        int64  `db:"created_at"`
	UpdatedAt        int64  `db:"updated_at"`
	FocusAreas       string `db:"focus_areas"`
	Items            string `db:"items"`
	CurrentItemIndex int    `db:"current_item_index"`
	IsActive         bool   `db:"is_active"`
}

func (r planRow) plan() (*planner.Plan, error) {
	p := &planner.Plan{
		ID:               r.ID,
		UserID:           r.UserID,
		CreatedAt:        fromUnix(r.CreatedAt),
		UpdatedAt:        fromUnix(r.UpdatedAt),
		CurrentItemIndex: r.CurrentItemIndex,
		IsActive:         r.IsActive,
	}
	if err := json.Unmarshal([]byte(r.FocusAreas), &p.FocusAreas); err != nil {
		return nil, fmt.Errorf("decode focus areas for %s: %w", r.ID, err)
	}
	if err := json.Unmarshal([]byte(r.Items), &p.Items); err != nil {
		return nil, fmt.Errorf("decode items for %s: %w", r.ID, err)
	}
	return p, nil
}

type planRepo struct {
	db sqlx.ExtContext
}

func (r *planRepo) Save(ctx context.Context, p *planner.Plan) error {
	focus, err := json.Marshal(p.FocusAreas)
	if err != nil {
		return fmt.Errorf("encode focus areas: %w", err)
	}
	items, err := json.Marshal(p.Items)
	if err != nil {
		return fmt.Errorf("encode plan items: %w", err)
	}
	row := planRow{
		ID:               p.ID,
		UserID:           p.UserID,
		CreatedAt:        toUnix(p.CreatedAt),
		UpdatedAt:        toUnix(p.UpdatedAt),
		FocusAreas:       string(focus),
		Items:            string(items),
		CurrentItemIndex: p.CurrentItemIndex,
		IsActive:         p.IsActive,
	}
	_, err = sqlx.NamedExecContext(ctx, r.db, `
		INSERT INTO learning_plans (id, user_id, created_at, updated_at,
			focus_areas, items, current_item_index, is_active)
		VALUES (:id, :user_id, :created_at, :updated_at,
			:focus_areas, :items, :current_item_index, :is_active)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			focus_areas = excluded.focus_areas,
			items = excluded.items,
			current_item_index = excluded.current_item_index,
			is_active = excluded.is_active`, row)
	if err != nil {
		return fmt.Errorf("save plan: %w", err)
	}
	return nil
}

func (r *planRepo) Get(ctx context.Context, id string) (*planner.Plan, error) {
	var row planRow
	err := sqlx.GetContext(ctx, r.db, &row, "SELECT * FROM learning_plans WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	return row.plan()
}

func (r *planRepo) ListByUser(ctx context.Context, userID string) ([]*planner.Plan, error) {
	var rows []planRow
	err := sqlx.SelectContext(ctx, r.db, &rows,
		"SELECT * FROM learning_plans WHERE user_id = ? ORDER BY created_at, id", userID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	out := make([]*planner.Plan, 0, len(rows))
	for _, row := range rows {
		p, err := row.plan()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

type historyRepo struct {
	db sqlx.ExtContext
}

func (r *historyRepo) Append(ctx context.Context, res assessment.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode assessment result: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO assessment_results (id, user_id, completed_at, overall_score, data)
		VALUES (?, ?, ?, ?, ?)`,
		res.ID, res.UserID, toUnix(res.CompletedAt), res.OverallScore, string(data))
	if err != nil {
		return fmt.Errorf("append assessment result: %w", err)
	}
	return nil
}

func (r *historyRepo) List(ctx context.Context, userID string) ([]assessment.Result, error) {
	var blobs []string
	err := sqlx.SelectContext(ctx, r.db, &blobs,
		"SELECT data FROM assessment_results WHERE user_id = ? ORDER BY seq", userID)
	if err != nil {
		return nil, fmt.Errorf("list assessment results: %w", err)
	}
	out := make([]assessment.Result, 0, len(blobs))
	for _, b := range blobs {
		var res assessment.Result
		if err := json.Unmarshal([]byte(b), &res); err != nil {
			return nil, fmt.Errorf("decode assessment result: %w", err)
		}
		out = append(out, res)
	}
	return out, nil
}

type pendingRow struct {
	ID          string `db:"id"`
	UserID      string `db:"user_id"`
	QuestionIDs string `db:"question_ids"`
	StartedAt   int64  `db:"started_at"`
	ExpiresAt   int64  `db:"expires_at"`
}

type pendingRepo struct {
	db  *sqlx.DB
	ttl time.Duration
	now func() time.Time
}

func (r *pendingRepo) Put(ctx context.Context, p *PendingAssessment) error {
	ids, err := json.Marshal(p.QuestionIDs)
	if err != nil {
		return fmt.Errorf("encode question ids: %w", err)
	}
	now := r.now()
	if _, err := r.db.ExecContext(ctx,
		"DELETE FROM pending_assessments WHERE expires_at <= ?", toUnix(now)); err != nil {
		return fmt.Errorf("expire pending assessments: %w", err)
	}
	_, err = r.db.NamedExecContext(ctx, `
		INSERT OR REPLACE INTO pending_assessments (id, user_id, question_ids, started_at, expires_at)
		VALUES (:id, :user_id, :question_ids, :started_at, :expires_at)`,
		pendingRow{
			ID:          p.ID,
			UserID:      p.UserID,
			QuestionIDs: string(ids),
			StartedAt:   toUnix(p.StartedAt),
			ExpiresAt:   toUnix(now.Add(r.ttl)),
		})
	if err != nil {
		return fmt.Errorf("save pending assessment: %w", err)
	}
	return nil
}

func (r *pendingRepo) Get(ctx context.Context, id string) (*PendingAssessment, error) {
	var row pendingRow
	err := r.db.GetContext(ctx, &row,
		"SELECT * FROM pending_assessments WHERE id = ? AND expires_at > ?", id, toUnix(r.now()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pending assessment: %w", err)
	}
	p := &PendingAssessment{ID: row.ID, UserID: row.UserID, StartedAt: fromUnix(row.StartedAt)}
	if err := json.Unmarshal([]byte(row.QuestionIDs), &p.QuestionIDs); err != nil {
		return nil, fmt.Errorf("decode question ids: %w", err)
	}
	return p, nil
}

func (r *pendingRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM pending_assessments WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete pending assessment: %w", err)
	}
	return nil
}
