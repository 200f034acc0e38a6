package assessment

import (
	"math"

	"github.com/abhisek/mixcoach/internal/questionbank"
)

// submission is a raw answer with its parameter tokens parsed up front,
// so matching compares typed values only.
type submission struct {
	present bool
	raw     questionbank.Answer
	params  questionbank.Params
}

func prepare(q questionbank.Question, a questionbank.Answer, present bool) submission {
	sub := submission{present: present && !a.Empty(), raw: a}
	if !sub.present {
		return sub
	}
	if _, ok := q.Expected(); ok && a.IsList() {
		if p, err := questionbank.ParseParams(a.List); err == nil {
			sub.params = p
		}
	}
	return sub
}

func scoreAnswer(q questionbank.Question, sub submission) UserAnswer {
	correct := isCorrect(q, sub)
	ua := UserAnswer{
		QuestionID: q.ID,
		Answer:     sub.raw,
		Correct:    correct,
	}
	if correct {
		ua.PointsEarned = q.Points
	}
	return ua
}

// isCorrect applies, in order: tolerance matching for questions that declare
// a tolerance, exact element-wise equality for list answers, and exact
// equality for scalar answers.
func isCorrect(q questionbank.Question, sub submission) bool {
	if !sub.present {
		return false
	}
	if expected, ok := q.Expected(); ok {
		return withinTolerance(expected, sub.params, *q.Tolerance)
	}
	return q.Answer.Equal(sub.raw)
}

// withinTolerance requires the submitted parameter set to match the expected
// set exactly and every value to deviate by no more than its tolerance.
func withinTolerance(expected, got questionbank.Params, tol questionbank.Tolerance) bool {
	if got == nil || len(got) != len(expected) {
		return false
	}
	for name, want := range expected {
		v, ok := got[name]
		if !ok {
			return false
		}
		if math.Abs(v-want) > tol.For(name) {
			return false
		}
	}
	return true
}
