package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateQuestion checks struct constraints plus option-id uniqueness and
// that the correct option is one of the options.
func ValidateQuestion(q Question) error {
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: question %q: %v", ErrInvalidContent, q.ID, err)
	}
	seen := make(map[string]struct{}, len(q.Options))
	correctFound := false
	for _, opt := range q.Options {
		if _, dup := seen[opt.ID]; dup {
			return fmt.Errorf("%w: question %q: duplicate option %q", ErrInvalidContent, q.ID, opt.ID)
		}
		seen[opt.ID] = struct{}{}
		if opt.ID == q.CorrectOptionID {
			correctFound = true
		}
	}
	if !correctFound {
		return fmt.Errorf("%w: question %q: correct option %q not among options", ErrInvalidContent, q.ID, q.CorrectOptionID)
	}
	return nil
}

// ValidateLevel checks level constraints that do not depend on question bodies.
func ValidateLevel(l LevelConfig) error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("%w: level %q: %v", ErrInvalidContent, l.ID, err)
	}
	if l.MinCorrectToPass > len(l.QuestionIDs) {
		return fmt.Errorf("%w: level %q: minCorrectToPass %d exceeds %d questions", ErrInvalidContent, l.ID, l.MinCorrectToPass, len(l.QuestionIDs))
	}
	for _, kind := range l.LifelinesAllowed {
		if !kind.Valid() {
			return fmt.Errorf("%w: level %q: %v %q", ErrInvalidContent, l.ID, ErrUnknownLifeline, kind)
		}
	}
	return nil
}

// ValidateLevelContent validates the level and every referenced question.
func ValidateLevelContent(c LevelContent) error {
	if err := ValidateLevel(c.Level); err != nil {
		return err
	}
	return validateQuestionSet(c.Level.ID, c.Level.QuestionIDs, c.Questions)
}

// ValidateChallengeContent validates a daily challenge and its questions.
func ValidateChallengeContent(c ChallengeContent) error {
	if err := validate.Struct(c.Challenge); err != nil {
		return fmt.Errorf("%w: challenge %q: %v", ErrInvalidContent, c.Challenge.ID, err)
	}
	if c.Challenge.Type == ChallengeSpeedRun && c.Challenge.TimeLimitSeconds <= 0 {
		return fmt.Errorf("%w: challenge %q: speed_run requires a time limit", ErrInvalidContent, c.Challenge.ID)
	}
	return validateQuestionSet(c.Challenge.ID, c.Challenge.QuestionIDs, c.Questions)
}

func validateQuestionSet(ownerID string, ids []string, questions []Question) error {
	byID := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		if err := ValidateQuestion(q); err != nil {
			return err
		}
		byID[q.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("%w: %q references %v %q", ErrInvalidContent, ownerID, ErrQuestionNotFound, id)
		}
	}
	return nil
}
