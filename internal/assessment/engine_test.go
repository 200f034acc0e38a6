package assessment

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
)

func newTestEngine() *Engine {
	e := NewEngine(questionbank.Default())
	e.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return e
}

func correctAnswers(qs []questionbank.Question) map[string]questionbank.Answer {
	out := make(map[string]questionbank.Answer, len(qs))
	for _, q := range qs {
		out[q.ID] = q.Answer
	}
	return out
}

func TestGenerateUniqueIDs(t *testing.T) {
	e := newTestEngine()

	var mu sync.Mutex
	seen := make(map[string]bool)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := e.Generate(3)
			mu.Lock()
			defer mu.Unlock()
			if seen[g.ID] {
				t.Errorf("duplicate assessment ID %s", g.ID)
			}
			seen[g.ID] = true
		}()
	}
	wg.Wait()

	g := e.Generate(3)
	if len(g.Questions) != 15 {
		t.Errorf("got %d questions, want 15", len(g.Questions))
	}
}

func TestScoreAllCorrect(t *testing.T) {
	e := newTestEngine()
	g := e.Generate(3)

	res := e.Score(g.ID, "user-1", correctAnswers(g.Questions), g.Questions, time.Now())

	if res.OverallScore != 100 {
		t.Errorf("overall score = %v, want 100", res.OverallScore)
	}
	if len(res.Sections) != 5 {
		t.Fatalf("got %d sections, want 5", len(res.Sections))
	}
	for i, s := range res.Sections {
		if s.Category != skill.AllCategories()[i] {
			t.Errorf("section %d is %s, want %s", i, s.Category, skill.AllCategories()[i])
		}
		if s.CalculatedRating < 3 {
			t.Errorf("%s rating = %d, want >= 3", s.Category, s.CalculatedRating)
		}
		if s.CorrectAnswers != s.TotalQuestions {
			t.Errorf("%s correct = %d of %d", s.Category, s.CorrectAnswers, s.TotalQuestions)
		}
	}
	if res.ID != g.ID || res.UserID != "user-1" {
		t.Errorf("result identity = %s/%s", res.ID, res.UserID)
	}
	if !strings.HasPrefix(res.Recommendations[0], "Great overall performance!") {
		t.Errorf("first recommendation = %q", res.Recommendations[0])
	}
}

func TestScoreAllWrongAndMissing(t *testing.T) {
	e := newTestEngine()
	g := e.Generate(3)

	wrong := make(map[string]questionbank.Answer)
	for i, q := range g.Questions {
		if i%2 == 0 {
			continue // absent
		}
		wrong[q.ID] = questionbank.Scalar("zzz")
	}

	res := e.Score(g.ID, "user-1", wrong, g.Questions, time.Now())
	if res.OverallScore != 0 {
		t.Errorf("overall score = %v, want 0", res.OverallScore)
	}
	for _, s := range res.Sections {
		if s.CalculatedRating > 2 {
			t.Errorf("%s rating = %d, want <= 2", s.Category, s.CalculatedRating)
		}
		if s.EarnedPoints != 0 {
			t.Errorf("%s earned %d points", s.Category, s.EarnedPoints)
		}
	}
	if !strings.HasPrefix(res.Recommendations[0], "Welcome to your learning journey!") {
		t.Errorf("first recommendation = %q", res.Recommendations[0])
	}
}

func TestScorePartialSection(t *testing.T) {
	e := newTestEngine()
	bank := questionbank.Default()
	var qs []questionbank.Question
	for _, id := range []string{"eq-1", "eq-2", "eq-4"} {
		q, _ := bank.Get(id)
		qs = append(qs, q)
	}
	answers := map[string]questionbank.Answer{
		"eq-1": questionbank.Scalar("b"),
		"eq-2": questionbank.Scalar("a"),
		"eq-4": questionbank.List("freq:2150", "gain:+2.5", "q:1.3"),
	}

	res := e.Score("a-1", "u", answers, qs, time.Now())
	if len(res.Sections) != 1 {
		t.Fatalf("got %d sections, want 1", len(res.Sections))
	}
	s := res.Sections[0]
	if s.EarnedPoints != 30 || s.TotalPoints != 40 {
		t.Errorf("points = %d/%d, want 30/40", s.EarnedPoints, s.TotalPoints)
	}
	if s.PercentageScore != 75 {
		t.Errorf("percentage = %v, want 75", s.PercentageScore)
	}
	if s.CalculatedRating != 4 {
		t.Errorf("rating = %d, want 4", s.CalculatedRating)
	}
	if res.OverallScore != 75 {
		t.Errorf("overall = %v, want 75", res.OverallScore)
	}
}

func TestToleranceMatching(t *testing.T) {
	bank := questionbank.Default()
	eq4, _ := bank.Get("eq-4")
	bal3, _ := bank.Get("bal-3")
	struct3, _ := bank.Get("struct-3")

	tests := []struct {
		name string
		q    questionbank.Question
		a    questionbank.Answer
		want bool
	}{
		{"exact", eq4, questionbank.List("freq:2000", "gain:+3", "q:1.5"), true},
		{"within tolerance", eq4, questionbank.List("freq:2150", "gain:+2.5", "q:1.3"), true},
		{"at tolerance edge", eq4, questionbank.List("freq:2200", "gain:4", "q:2"), true},
		{"reordered params", eq4, questionbank.List("q:1.5", "freq:2000", "gain:3"), true},
		{"freq out of range", eq4, questionbank.List("freq:2300", "gain:+3", "q:1.5"), false},
		{"missing param", eq4, questionbank.List("freq:2000", "gain:+3"), false},
		{"extra param", eq4, questionbank.List("freq:2000", "gain:+3", "q:1.5", "pan:0"), false},
		{"garbled", eq4, questionbank.List("freq=2000", "gain:+3", "q:1.5"), false},
		{"scalar given", eq4, questionbank.Scalar("freq:2000"), false},
		{"empty list", eq4, questionbank.List(), false},
		{"scalar tolerance", bal3, questionbank.List("kick:-5", "snare:-9.5", "bass:-11", "vocals:-2"), true},
		{"scalar tolerance exceeded", bal3, questionbank.List("kick:-3", "snare:-8", "bass:-10", "vocals:-4"), false},
		{"ordering exact", struct3, questionbank.List("c", "b", "d", "a"), true},
		{"ordering swapped", struct3, questionbank.List("c", "b", "a", "d"), false},
		{"ordering short", struct3, questionbank.List("c", "b", "d"), false},
		{"ordering scalar", struct3, questionbank.Scalar("c"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isCorrect(tt.q, prepare(tt.q, tt.a, true))
			if got != tt.want {
				t.Errorf("isCorrect = %v, want %v", got, tt.want)
			}
		})
	}
}

// A scalar tolerance on a fader question covers every fader.
func TestScoreFaderMixWithSharedTolerance(t *testing.T) {
	e := newTestEngine()
	bal3, _ := questionbank.Default().Get("bal-3")
	qs := []questionbank.Question{bal3}

	tests := []struct {
		name   string
		answer questionbank.Answer
		earned int
	}{
		{"every fader within 2 dB", questionbank.List("kick:-4", "snare:-10", "bass:-8.5", "vocals:-5"), 20},
		{"one fader 2.5 dB off", questionbank.List("kick:-6", "snare:-8", "bass:-10", "vocals:-1.5"), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Score("a-1", "u", map[string]questionbank.Answer{"bal-3": tt.answer}, qs, time.Now())
			if len(res.Sections) != 1 {
				t.Fatalf("got %d sections, want 1", len(res.Sections))
			}
			if got := res.Sections[0].EarnedPoints; got != tt.earned {
				t.Errorf("earned = %d, want %d", got, tt.earned)
			}
		})
	}
}

func TestCalculateRating(t *testing.T) {
	tests := []struct {
		pct, avg float64
		want     int
	}{
		{95, 2, 5},
		{80, 2, 4},
		{65, 2, 3},
		{45, 2, 2},
		{10, 2, 1},
		{55, 3, 3},
		{49, 3, 2},
		{100, 4, 5},
		{45, 1, 1},
		{79, 1, 3},
		{70, 1, 2},
		{85, 1, 4},
		{30, 3, 1},
	}
	for _, tt := range tests {
		if got := CalculateRating(tt.pct, tt.avg); got != tt.want {
			t.Errorf("CalculateRating(%v, %v) = %d, want %d", tt.pct, tt.avg, got, tt.want)
		}
	}
}

func TestCalculateRatingMonotonic(t *testing.T) {
	for _, avg := range []float64{1, 1.5, 2, 2.5, 3, 4, 5} {
		prev := 0
		for pct := 0.0; pct <= 100; pct += 0.5 {
			r := CalculateRating(pct, avg)
			if r < prev {
				t.Errorf("avg %v: rating fell from %d to %d at %v%%", avg, prev, r, pct)
			}
			if r < 1 || r > 5 {
				t.Errorf("avg %v pct %v: rating %d out of range", avg, pct, r)
			}
			prev = r
		}
	}
}

func TestRecommendations(t *testing.T) {
	sections := []SectionResult{
		{Category: skill.FrequencyFinder, CalculatedRating: 1},
		{Category: skill.EQSkill, CalculatedRating: 3},
		{Category: skill.Balancing, CalculatedRating: 4},
		{Category: skill.Compression, CalculatedRating: 5},
		{Category: skill.SongStructure, CalculatedRating: 2},
	}
	got := Recommendations(sections)
	want := []string{
		"Solid foundation! Your personalized plan will help strengthen key areas.",
		"Focus on Frequency Finder fundamentals - start with beginner lessons and practice games.",
		"Focus on Song Structure fundamentals - start with beginner lessons and practice games.",
		"Build on your EQ Skills skills with intermediate content and targeted practice.",
		"Challenge yourself with advanced Mix Balancing techniques to reach mastery.",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d recommendations, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("recommendation %d = %q, want %q", i, got[i], want[i])
		}
	}

	if empty := Recommendations(nil); len(empty) != 1 {
		t.Errorf("no sections should still produce the overall message, got %v", empty)
	}
}

func TestSafeViewStripsAnswers(t *testing.T) {
	eq4, _ := questionbank.Default().Get("eq-4")
	sq := Safe(eq4)
	if sq.ID != "eq-4" || sq.Points != eq4.Points || sq.Prompt != eq4.Prompt {
		t.Errorf("safe view lost fields: %+v", sq)
	}

	views := SafeView(questionbank.Default().Balanced(3))
	if len(views) != 15 {
		t.Errorf("got %d safe questions, want 15", len(views))
	}
}
