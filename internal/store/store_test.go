package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err, "open test store")
	t.Cleanup(func() { s.Close() })
	return s
}

// backends returns every Backend implementation wired to clk.
func backends(t *testing.T, clk *clock) map[string]Backend {
	t.Helper()
	mem := NewMemory()
	mem.now = clk.now
	sq := openTestStore(t)
	sq.now = clk.now
	return map[string]Backend{"memory": mem, "sqlite": sq}
}

var base = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func sampleUser(id string, created time.Time) *User {
	return &User{
		ID:           id,
		Email:        id + "@example.com",
		DisplayName:  "User " + id,
		CreatedAt:    created,
		LastActiveAt: created,
	}
}

func samplePlan(id, userID string) *planner.Plan {
	score := 42.5
	done := base.Add(time.Hour)
	return &planner.Plan{
		ID:        id,
		UserID:    userID,
		CreatedAt: base,
		UpdatedAt: done,
		Items: []planner.Item{
			{ID: "i1", ContentID: "eq-lesson-basics", Order: 0, Status: skill.Completed, CompletedAt: &done, Score: &score, Attempts: 1},
			{ID: "i2", ContentID: "eq-game-surgeon", Order: 1, Status: skill.NotStarted},
		},
		FocusAreas:       []skill.Category{skill.EQSkill, skill.Compression},
		CurrentItemIndex: 1,
		IsActive:         true,
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}
	for _, tt := range tests {
		var got string
		require.NoError(t, s.DB().QueryRow("PRAGMA "+tt.pragma).Scan(&got), "PRAGMA %s", tt.pragma)
		assert.Equal(t, tt.want, got, "PRAGMA %s", tt.pragma)
	}
}

func TestUserRepo(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			users := b.Users()

			_, err := users.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			u := sampleUser("u1", base)
			require.NoError(t, users.Save(ctx, u))
			require.NoError(t, users.Save(ctx, sampleUser("u0", base.Add(-time.Minute))))

			got, err := users.Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "u1@example.com", got.Email)
			assert.True(t, got.CreatedAt.Equal(base))
			assert.False(t, got.HasCompletedInitialAssessment)
			assert.Empty(t, got.SkillRatings)

			// Update in place.
			got.HasCompletedInitialAssessment = true
			got.CurrentPlanID = "p1"
			got.SkillRatings = []skill.Rating{{
				Category:     skill.Balancing,
				Rating:       2.5,
				LastAssessed: base,
				History:      []skill.RatingEntry{{Rating: 2.5, AssessedAt: base, Source: skill.SourceInitialTest}},
			}}
			require.NoError(t, users.Save(ctx, got))

			again, err := users.Get(ctx, "u1")
			require.NoError(t, err)
			assert.True(t, again.HasCompletedInitialAssessment)
			assert.Equal(t, "p1", again.CurrentPlanID)
			require.Len(t, again.SkillRatings, 1)
			assert.Equal(t, 2.5, again.SkillRatings[0].Rating)
			assert.Equal(t, skill.SourceInitialTest, again.SkillRatings[0].History[0].Source)

			list, err := users.List(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "u0", list[0].ID)
			assert.Equal(t, "u1", list[1].ID)
		})
	}
}

func TestUserRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().Users()

	u := sampleUser("u1", base)
	u.SkillRatings = []skill.Rating{{Category: skill.EQSkill, Rating: 3}}
	require.NoError(t, repo.Save(ctx, u))

	u.SkillRatings[0].Rating = 5
	got, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.SkillRatings[0].Rating)

	got.DisplayName = "changed"
	again, _ := repo.Get(ctx, "u1")
	assert.Equal(t, "User u1", again.DisplayName)
}

func TestPlanRepo(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Users().Save(ctx, sampleUser("u1", base)))
			plans := b.Plans()

			_, err := plans.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)

			p := samplePlan("p1", "u1")
			require.NoError(t, plans.Save(ctx, p))

			got, err := plans.Get(ctx, "p1")
			require.NoError(t, err)
			assert.Equal(t, p.FocusAreas, got.FocusAreas)
			assert.Equal(t, 1, got.CurrentItemIndex)
			require.Len(t, got.Items, 2)
			assert.Equal(t, skill.Completed, got.Items[0].Status)
			require.NotNil(t, got.Items[0].Score)
			assert.Equal(t, 42.5, *got.Items[0].Score)
			assert.Nil(t, got.Items[1].CompletedAt)

			got.Items[1].Status = skill.InProgress
			got.IsActive = false
			require.NoError(t, plans.Save(ctx, got))

			later := samplePlan("p2", "u1")
			later.CreatedAt = base.Add(time.Hour)
			require.NoError(t, plans.Save(ctx, later))

			list, err := plans.ListByUser(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "p1", list[0].ID)
			assert.False(t, list[0].IsActive)
			assert.Equal(t, skill.InProgress, list[0].Items[1].Status)
			assert.Equal(t, "p2", list[1].ID)

			none, err := plans.ListByUser(ctx, "nobody")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestHistoryRepo(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Users().Save(ctx, sampleUser("u1", base)))
			hist := b.History()

			empty, err := hist.List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, empty)

			for i, id := range []string{"a1", "a2"} {
				res := assessment.Result{
					ID:           id,
					UserID:       "u1",
					StartedAt:    base,
					CompletedAt:  base.Add(time.Duration(i+1) * time.Minute),
					OverallScore: float64(50 + i*10),
					Sections: []assessment.SectionResult{{
						Category:         skill.FrequencyFinder,
						TotalQuestions:   1,
						CalculatedRating: 3,
						Answers: []assessment.UserAnswer{
							{QuestionID: "freq-1", Answer: questionbank.List("a", "b")},
						},
					}},
					Recommendations: []string{"keep going"},
				}
				require.NoError(t, hist.Append(ctx, res))
			}

			got, err := hist.List(ctx, "u1")
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "a1", got[0].ID)
			assert.Equal(t, "a2", got[1].ID)
			assert.Equal(t, 60.0, got[1].OverallScore)
			assert.Equal(t, []string{"a", "b"}, got[0].Sections[0].Answers[0].Answer.List)
		})
	}
}

func TestHistoryRepoReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemory().History()

	res := assessment.Result{
		ID:     "a1",
		UserID: "u1",
		Sections: []assessment.SectionResult{{
			Category: skill.Balancing,
			Answers: []assessment.UserAnswer{
				{QuestionID: "bal-1", Answer: questionbank.List("kick:-6", "bass:-10"), Correct: true},
			},
		}},
	}
	require.NoError(t, repo.Append(ctx, res))

	res.Sections[0].Answers[0].Correct = false
	res.Sections[0].Answers[0].Answer.List[0] = "kick:0"

	got, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Sections[0].Answers[0].Correct)
	assert.Equal(t, "kick:-6", got[0].Sections[0].Answers[0].Answer.List[0])

	got[0].Sections[0].Answers[0].Answer.List[1] = "bass:0"
	again, _ := repo.List(ctx, "u1")
	assert.Equal(t, "bass:-10", again[0].Sections[0].Answers[0].Answer.List[1])
}

func TestPendingRepoExpiry(t *testing.T) {
	clk := &clock{t: base}
	for name, b := range backends(t, clk) {
		t.Run(name, func(t *testing.T) {
			clk.t = base
			ctx := context.Background()
			pending := b.Pending(10 * time.Minute)

			p := &PendingAssessment{ID: "a1", UserID: "u1", QuestionIDs: []string{"freq-1", "eq-2"}, StartedAt: base}
			require.NoError(t, pending.Put(ctx, p))

			got, err := pending.Get(ctx, "a1")
			require.NoError(t, err)
			assert.Equal(t, []string{"freq-1", "eq-2"}, got.QuestionIDs)
			assert.Equal(t, "u1", got.UserID)

			clk.t = base.Add(10 * time.Minute)
			_, err = pending.Get(ctx, "a1")
			assert.ErrorIs(t, err, ErrNotFound, "expired entry")

			clk.t = base
			require.NoError(t, pending.Put(ctx, &PendingAssessment{ID: "a2", UserID: "u1", StartedAt: base}))
			require.NoError(t, pending.Delete(ctx, "a2"))
			_, err = pending.Get(ctx, "a2")
			assert.ErrorIs(t, err, ErrNotFound, "deleted entry")
		})
	}
}

func TestReset(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Users().Save(ctx, sampleUser("u1", base)))
			require.NoError(t, b.Plans().Save(ctx, samplePlan("p1", "u1")))
			require.NoError(t, b.History().Append(ctx, assessment.Result{ID: "a1", UserID: "u1"}))

			require.NoError(t, b.Reset(ctx))

			_, err := b.Users().Get(ctx, "u1")
			assert.ErrorIs(t, err, ErrNotFound)
			_, err = b.Plans().Get(ctx, "p1")
			assert.ErrorIs(t, err, ErrNotFound)
			hist, err := b.History().List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, hist)
		})
	}
}

func TestInTxCommits(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Users().Save(ctx, sampleUser("u1", base)))

			err := b.InTx(ctx, func(w Writes) error {
				u := sampleUser("u1", base)
				u.CurrentPlanID = "p1"
				if err := w.SavePlan(ctx, samplePlan("p1", "u1")); err != nil {
					return err
				}
				if err := w.SaveUser(ctx, u); err != nil {
					return err
				}
				return w.AppendResult(ctx, assessment.Result{ID: "a1", UserID: "u1"})
			})
			require.NoError(t, err)

			u, err := b.Users().Get(ctx, "u1")
			require.NoError(t, err)
			assert.Equal(t, "p1", u.CurrentPlanID)
			_, err = b.Plans().Get(ctx, "p1")
			assert.NoError(t, err)
			hist, err := b.History().List(ctx, "u1")
			require.NoError(t, err)
			assert.Len(t, hist, 1)
		})
	}
}

func TestInTxRollsBack(t *testing.T) {
	for name, b := range backends(t, &clock{t: base}) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, b.Users().Save(ctx, sampleUser("u1", base)))

			boom := errors.New("user write failed")
			err := b.InTx(ctx, func(w Writes) error {
				if err := w.SavePlan(ctx, samplePlan("p1", "u1")); err != nil {
					return err
				}
				if err := w.AppendResult(ctx, assessment.Result{ID: "a1", UserID: "u1"}); err != nil {
					return err
				}
				return boom
			})
			assert.ErrorIs(t, err, boom)

			_, err = b.Plans().Get(ctx, "p1")
			assert.ErrorIs(t, err, ErrNotFound, "plan should not outlive a failed transaction")
			hist, err := b.History().List(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, hist)
			u, err := b.Users().Get(ctx, "u1")
			require.NoError(t, err)
			assert.Empty(t, u.CurrentPlanID)
		})
	}
}

func TestPlanRequiresUser(t *testing.T) {
	s := openTestStore(t)
	err := s.Plans().Save(context.Background(), samplePlan("p1", "ghost"))
	assert.Error(t, err, "foreign key should reject a plan for an unknown user")
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("MIXCOACH_DB", filepath.Join(dir, "custom", "x.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "custom", "x.db"), p)
	assert.DirExists(t, filepath.Join(dir, "custom"))

	t.Setenv("MIXCOACH_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "mixcoach", "mixcoach.db"), p)
}
