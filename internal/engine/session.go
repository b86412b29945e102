package engine

import (
	"math"
	"time"

	"quiz-hub/internal/domain"

	"github.com/google/uuid"
)

// Submission is one answer event. QuestionID, when set, must match the
// current question or the submission is ignored.
type Submission struct {
	QuestionID  string
	OptionID    string
	TimeTakenMs int64
}

// CreateSession builds a fresh attempt bound to level's question sequence.
func CreateSession(level domain.LevelConfig, bank QuestionBank, tuning domain.Tuning, now time.Time) (domain.GameSession, error) {
	if !resolvable(level.QuestionIDs, bank) {
		return domain.GameSession{}, domain.ErrInvalidLevel
	}
	return domain.GameSession{
		ID:             uuid.NewString(),
		LevelID:        level.ID,
		QuestionIDs:    append([]string(nil), level.QuestionIDs...),
		Cursor:         0,
		Score:          0,
		LivesRemaining: tuning.StartingLivesPerLevel,
		UsedLifelines:  []domain.LifelineKind{},
		Answers:        []domain.AnswerRecord{},
		CreatedAt:      now,
		Status:         domain.StatusInProgress,
	}, nil
}

func resolvable(ids []string, bank QuestionBank) bool {
	for _, id := range ids {
		if _, ok := bank.Question(id); ok {
			return true
		}
	}
	return false
}

// CurrentQuestion resolves the question under the cursor. It reports false for
// terminal sessions and unresolvable ids.
func CurrentQuestion(session domain.GameSession, bank QuestionBank) (domain.Question, bool) {
	if session.Status != domain.StatusInProgress {
		return domain.Question{}, false
	}
	if session.Cursor < 0 || session.Cursor >= len(session.QuestionIDs) {
		return domain.Question{}, false
	}
	return bank.Question(session.QuestionIDs[session.Cursor])
}

// Evaluate is the answer-evaluation primitive shared by levels and challenges.
func Evaluate(question domain.Question, optionID string) bool {
	return optionID == question.CorrectOptionID
}

// SpeedBonus returns the bonus for a correct answer taking timeTakenMs.
// Full bonus up to the threshold, linear decay to zero at twice the threshold.
func SpeedBonus(timeTakenMs int64, maxBonus int, thresholdSeconds float64) int {
	if maxBonus <= 0 || thresholdSeconds <= 0 {
		return 0
	}
	t := float64(timeTakenMs) / 1000
	T := thresholdSeconds
	switch {
	case t <= T:
		return maxBonus
	case t <= 2*T:
		return int(math.Round(math.Max(0, float64(maxBonus)*(2*T-t)/T)))
	default:
		return 0
	}
}

// SubmitAnswer applies one answer. Terminal sessions, unresolvable questions,
// stale question ids and repeat submissions return the session unchanged.
func SubmitAnswer(session domain.GameSession, level domain.LevelConfig, bank QuestionBank, tuning domain.Tuning, sub Submission, now time.Time) domain.GameSession {
	question, ok := CurrentQuestion(session, bank)
	if !ok {
		return session
	}
	if sub.QuestionID != "" && sub.QuestionID != question.ID {
		return session
	}
	if len(session.Answers) > session.Cursor {
		return session
	}

	next := session.Clone()
	correct := Evaluate(question, sub.OptionID)
	if correct {
		next.Score += level.BasePointsPerCorrect + SpeedBonus(sub.TimeTakenMs, level.MaxSpeedBonusPerQuestion, tuning.SpeedBonusThresholdSeconds)
		next.CorrectCount++
	} else {
		next.LivesRemaining = max(0, next.LivesRemaining-1)
	}
	next.Answers = append(next.Answers, domain.AnswerRecord{
		QuestionID:  question.ID,
		OptionID:    sub.OptionID,
		Correct:     correct,
		TimeTakenMs: max(0, sub.TimeTakenMs),
	})

	// a terminal session keeps its cursor on the last processed question
	last := next.Cursor >= len(next.QuestionIDs)-1
	switch {
	case next.LivesRemaining == 0:
		finish(&next, domain.StatusFailed, now)
	case last && next.CorrectCount >= level.MinCorrectToPass:
		finish(&next, domain.StatusPassed, now)
	case last:
		finish(&next, domain.StatusFailed, now)
	default:
		next.Cursor++
	}
	return next
}

// ExpireQuestion drives the time-expiry path: a guaranteed-wrong answer taking
// the full time limit, through SubmitAnswer.
func ExpireQuestion(session domain.GameSession, level domain.LevelConfig, bank QuestionBank, tuning domain.Tuning, questionID string, now time.Time) domain.GameSession {
	question, ok := CurrentQuestion(session, bank)
	if !ok {
		return session
	}
	return SubmitAnswer(session, level, bank, tuning, Submission{
		QuestionID:  questionID,
		OptionID:    forcedWrongOption(question),
		TimeTakenMs: tuning.QuestionTimeLimit(level).Milliseconds(),
	}, now)
}

func forcedWrongOption(q domain.Question) string {
	if wrong := q.WrongOptions(); len(wrong) > 0 {
		return wrong[0].ID
	}
	// no wrong option exists; any id that differs from the correct one
	return q.CorrectOptionID + "#expired"
}

func finish(s *domain.GameSession, status domain.SessionStatus, now time.Time) {
	s.Status = status
	at := now
	s.CompletedAt = &at
}
