package server

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abhisek/mixcoach/internal/assessment"
	"github.com/abhisek/mixcoach/internal/catalog"
	"github.com/abhisek/mixcoach/internal/learning"
	"github.com/abhisek/mixcoach/internal/planner"
	"github.com/abhisek/mixcoach/internal/questionbank"
	"github.com/abhisek/mixcoach/internal/skill"
)

const estimatedAssessmentTime = "15-20 minutes"

// fail writes err as {"error": msg}. Known sentinels pick the status code;
// msgs overrides the message per sentinel.
func (s *Server) fail(c *gin.Context, err error, msgs map[error]string) {
	for sentinel, msg := range msgs {
		if errors.Is(err, sentinel) {
			c.JSON(statusFor(err), gin.H{"error": msg})
			return
		}
	}
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(code, gin.H{"error": "Internal server error"})
		return
	}
	c.JSON(code, gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, learning.ErrUserNotFound),
		errors.Is(err, learning.ErrPlanNotFound),
		errors.Is(err, learning.ErrContentNotFound),
		errors.Is(err, learning.ErrAssessmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, learning.ErrInvalidInput),
		errors.Is(err, learning.ErrAssessmentAlreadyCompleted):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

// users

type createUserRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (s *Server) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and displayName are required")
		return
	}
	u, err := s.svc.CreateUser(c.Request.Context(), req.Email, req.DisplayName)
	if err != nil {
		s.fail(c, err, map[error]string{learning.ErrInvalidInput: "email and displayName are required"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":                            u.ID,
		"email":                         u.Email,
		"displayName":                   u.DisplayName,
		"hasCompletedInitialAssessment": u.HasCompletedInitialAssessment,
		"createdAt":                     u.CreatedAt,
	})
}

var userNotFound = map[error]string{learning.ErrUserNotFound: "User not found"}

func (s *Server) getUser(c *gin.Context) {
	u, err := s.svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, userNotFound)
		return
	}
	ratings := make([]gin.H, len(u.SkillRatings))
	for i, r := range u.SkillRatings {
		ratings[i] = gin.H{"category": r.Category, "rating": r.Rating, "lastAssessed": r.LastAssessed}
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                            u.ID,
		"email":                         u.Email,
		"displayName":                   u.DisplayName,
		"hasCompletedInitialAssessment": u.HasCompletedInitialAssessment,
		"skillRatings":                  ratings,
		"createdAt":                     u.CreatedAt,
		"lastActiveAt":                  u.LastActiveAt,
	})
}

func (s *Server) dashboard(c *gin.Context) {
	d, err := s.svc.Dashboard(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, userNotFound)
		return
	}

	var plan gin.H
	if p := d.CurrentPlan; p != nil {
		next := make([]gin.H, len(p.NextItems))
		for i, it := range p.NextItems {
			next[i] = gin.H{"id": it.ID, "title": it.Title, "contentType": it.Type, "difficulty": it.Difficulty}
		}
		var current gin.H
		if it := p.CurrentItem; it != nil {
			current = gin.H{
				"id":                it.ID,
				"title":             it.Title,
				"description":       it.Description,
				"contentType":       it.Type,
				"difficulty":        it.Difficulty,
				"estimatedDuration": it.EstimatedMins,
			}
		}
		plan = gin.H{
			"id":          p.ID,
			"progress":    math.Round(p.Progress),
			"currentItem": current,
			"nextItems":   next,
		}
	}

	activity := make([]gin.H, len(d.RecentActivity))
	for i, a := range d.RecentActivity {
		entry := gin.H{"date": a.Date, "activity": a.Activity}
		if a.Score != nil {
			entry["score"] = math.Round(*a.Score)
		}
		activity[i] = entry
	}

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":                            d.User.ID,
			"displayName":                   d.User.DisplayName,
			"hasCompletedInitialAssessment": d.User.HasCompletedInitialAssessment,
		},
		"skillRatings":    d.SkillRatings,
		"currentPlan":     plan,
		"recentActivity":  activity,
		"recommendations": d.Recommendations,
	})
}

func planView(p *planner.Plan) gin.H {
	items := make([]gin.H, len(p.Items))
	for i, it := range p.Items {
		items[i] = gin.H{
			"id":        it.ID,
			"contentId": it.ContentID,
			"order":     it.Order,
			"status":    it.Status,
			"score":     it.Score,
			"attempts":  it.Attempts,
		}
	}
	return gin.H{
		"id":               p.ID,
		"focusAreas":       p.FocusAreas,
		"currentItemIndex": p.CurrentItemIndex,
		"items":            items,
		"createdAt":        p.CreatedAt,
		"updatedAt":        p.UpdatedAt,
	}
}

func (s *Server) learningPlan(c *gin.Context) {
	p, err := s.svc.GetLearningPlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, map[error]string{
			learning.ErrUserNotFound: "Learning plan not found",
			learning.ErrPlanNotFound: "Learning plan not found",
		})
		return
	}
	c.JSON(http.StatusOK, planView(p))
}

type progressRequest struct {
	ContentID string   `json:"contentId"`
	Score     *float64 `json:"score"`
}

func (s *Server) updateProgress(c *gin.Context) {
	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ContentID == "" || req.Score == nil {
		badRequest(c, "contentId and score are required")
		return
	}
	up, err := s.svc.UpdateProgress(c.Request.Context(), c.Param("id"), req.ContentID, *req.Score)
	if err != nil {
		s.fail(c, err, map[error]string{
			learning.ErrUserNotFound:    "User or learning plan not found",
			learning.ErrPlanNotFound:    "User or learning plan not found",
			learning.ErrContentNotFound: "Content not found",
		})
		return
	}
	ratings := make([]gin.H, len(up.User.SkillRatings))
	for i, r := range up.User.SkillRatings {
		ratings[i] = gin.H{"category": r.Category, "rating": round1(r.Rating)}
	}
	c.JSON(http.StatusOK, gin.H{
		"success":             true,
		"updatedSkillRatings": ratings,
		"planProgress":        math.Round(planner.Progress(*up.Plan)),
		"remedialItemsAdded":  up.Remedial,
	})
}

func (s *Server) history(c *gin.Context) {
	results, err := s.svc.AssessmentHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err, userNotFound)
		return
	}
	out := make([]gin.H, len(results))
	for i, r := range results {
		sections := make([]gin.H, len(r.Sections))
		for j, sec := range r.Sections {
			sections[j] = gin.H{
				"category":        sec.Category,
				"rating":          sec.CalculatedRating,
				"percentageScore": math.Round(sec.PercentageScore),
			}
		}
		out[i] = gin.H{
			"id":           r.ID,
			"completedAt":  r.CompletedAt,
			"overallScore": math.Round(r.OverallScore),
			"sections":     sections,
		}
	}
	c.JSON(http.StatusOK, gin.H{"assessments": out})
}

// assessment

type startRequest struct {
	UserID string `json:"userId"`
}

func (s *Server) startAssessment(c *gin.Context) {
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		badRequest(c, "userId is required")
		return
	}
	a, err := s.svc.StartAssessment(c.Request.Context(), req.UserID)
	if err != nil {
		s.fail(c, err, map[error]string{
			learning.ErrUserNotFound:               "User not found",
			learning.ErrAssessmentAlreadyCompleted: "User has already completed initial assessment",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"assessmentId":   a.ID,
		"questions":      a.Questions,
		"totalQuestions": len(a.Questions),
		"estimatedTime":  estimatedAssessmentTime,
	})
}

type submitRequest struct {
	AssessmentID string                         `json:"assessmentId"`
	Answers      map[string]questionbank.Answer `json:"answers"`
}

func (s *Server) submitAssessment(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AssessmentID == "" || req.Answers == nil {
		badRequest(c, "assessmentId and answers are required")
		return
	}
	sub, err := s.svc.SubmitAssessment(c.Request.Context(), req.AssessmentID, req.Answers)
	if err != nil {
		s.fail(c, err, map[error]string{
			learning.ErrAssessmentNotFound:         "Assessment not found or expired",
			learning.ErrUserNotFound:               "User not found",
			learning.ErrAssessmentAlreadyCompleted: "User has already completed initial assessment",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"result":       resultView(sub.Result),
		"learningPlan": gin.H{"id": sub.Plan.ID, "focusAreas": sub.Plan.FocusAreas, "totalItems": len(sub.Plan.Items)},
	})
}

func resultView(r assessment.Result) gin.H {
	sections := make([]gin.H, len(r.Sections))
	for i, sec := range r.Sections {
		sections[i] = gin.H{
			"category":        sec.Category,
			"categoryName":    sec.Category.DisplayName(),
			"totalQuestions":  sec.TotalQuestions,
			"correctAnswers":  sec.CorrectAnswers,
			"percentageScore": math.Round(sec.PercentageScore),
			"rating":          sec.CalculatedRating,
		}
	}
	return gin.H{
		"id":              r.ID,
		"overallScore":    math.Round(r.OverallScore),
		"sections":        sections,
		"recommendations": r.Recommendations,
	}
}

func (s *Server) categoryQuestions(c *gin.Context) {
	cat, err := skill.ParseCategory(c.Param("category"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid category"})
		return
	}
	qs, err := s.svc.CategoryQuestions(cat)
	if err != nil {
		s.fail(c, err, map[error]string{learning.ErrInvalidInput: "Invalid category"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs})
}

// content

// listContent filters by category, type and difficulty. Unrecognized filter
// values are ignored.
func (s *Server) listContent(c *gin.Context) {
	var f catalog.Filter
	if cat, err := skill.ParseCategory(c.Query("category")); err == nil {
		f.Category = cat
	}
	if t, err := skill.ParseContentType(c.Query("type")); err == nil {
		f.Type = t
	}
	if n, err := strconv.Atoi(c.Query("difficulty")); err == nil && skill.Difficulty(n).Valid() {
		f.Difficulty = skill.Difficulty(n)
	}
	items := s.catalog.Query(f)
	if items == nil {
		items = []catalog.ContentItem{}
	}
	c.JSON(http.StatusOK, gin.H{"content": items, "total": len(items)})
}

func (s *Server) getContent(c *gin.Context) {
	it, ok := s.catalog.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Content not found"})
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *Server) contentSummary(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": s.catalog.Summary()})
}
