package learning

import "errors"

var (
	ErrUserNotFound               = errors.New("user not found")
	ErrPlanNotFound               = errors.New("learning plan not found")
	ErrContentNotFound            = errors.New("content not found")
	ErrAssessmentNotFound         = errors.New("assessment not found or expired")
	ErrAssessmentAlreadyCompleted = errors.New("user has already completed initial assessment")
	ErrInvalidInput               = errors.New("invalid input")
)
