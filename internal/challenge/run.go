package challenge

import (
	"math"
	"time"

	"quiz-hub/internal/domain"
	"quiz-hub/internal/engine"
	"quiz-hub/internal/progression"
)

// Run is one attempt at a daily challenge. It wraps a GameSession and adds
// the counters the completion predicates need.
type Run struct {
	Session       domain.GameSession   `json:"session"`
	Type          domain.ChallengeType `json:"type"`
	TimeSpentMs   int64                `json:"timeSpentMs"`
	CurrentStreak int                  `json:"currentStreak"`
	MaxStreak     int                  `json:"maxStreak"`
}

// Start builds a run over the challenge's question sequence.
func Start(challenge domain.DailyChallenge, bank engine.QuestionBank, now time.Time) (Run, error) {
	level := domain.LevelConfig{ID: challenge.ID, QuestionIDs: challenge.QuestionIDs}
	session, err := engine.CreateSession(level, bank, domain.Tuning{}, now)
	if err != nil {
		return Run{}, err
	}
	return Run{Session: session, Type: challenge.Type}, nil
}

func (r Run) clone() Run {
	r.Session = r.Session.Clone()
	return r
}

// Submit applies one answer using the engine's evaluation primitive and the
// challenge type's completion predicate.
func Submit(run Run, challenge domain.DailyChallenge, bank engine.QuestionBank, sub engine.Submission, now time.Time) Run {
	question, ok := engine.CurrentQuestion(run.Session, bank)
	if !ok {
		return run
	}
	if sub.QuestionID != "" && sub.QuestionID != question.ID {
		return run
	}
	if len(run.Session.Answers) > run.Session.Cursor {
		return run
	}

	next := run.clone()
	s := &next.Session
	correct := engine.Evaluate(question, sub.OptionID)
	spent := max(0, sub.TimeTakenMs)
	s.Answers = append(s.Answers, domain.AnswerRecord{
		QuestionID:  question.ID,
		OptionID:    sub.OptionID,
		Correct:     correct,
		TimeTakenMs: spent,
	})
	next.TimeSpentMs += spent
	if correct {
		s.CorrectCount++
		next.CurrentStreak++
		next.MaxStreak = max(next.MaxStreak, next.CurrentStreak)
	} else {
		next.CurrentStreak = 0
	}

	switch {
	case challenge.Type == domain.ChallengePerfectAccuracy && !correct:
		fail(&next, now)
		return next
	case challenge.Type == domain.ChallengeSpeedRun && next.TimeSpentMs > timeBudgetMs(challenge):
		fail(&next, now)
		return next
	}

	if s.Cursor < len(s.QuestionIDs)-1 {
		s.Cursor++
		return next
	}
	complete(&next, challenge, now)
	return next
}

// Expire handles a timer running out. For speed runs the whole run fails; for
// other types the current question is answered with a guaranteed-wrong option.
func Expire(run Run, challenge domain.DailyChallenge, bank engine.QuestionBank, tuning domain.Tuning, questionID string, now time.Time) Run {
	if run.Session.Status != domain.StatusInProgress {
		return run
	}
	if challenge.Type == domain.ChallengeSpeedRun {
		next := run.clone()
		fail(&next, now)
		return next
	}
	question, ok := engine.CurrentQuestion(run.Session, bank)
	if !ok {
		return run
	}
	wrong := question.CorrectOptionID + "#expired"
	if opts := question.WrongOptions(); len(opts) > 0 {
		wrong = opts[0].ID
	}
	return Submit(run, challenge, bank, engine.Submission{
		QuestionID:  questionID,
		OptionID:    wrong,
		TimeTakenMs: int64(tuning.QuestionTimeLimitSeconds) * 1000,
	}, now)
}

// Accuracy is correct answers over answered questions.
func (r Run) Accuracy() float64 {
	return progression.Accuracy(r.Session.CorrectCount, len(r.Session.Answers))
}

// RemainingMs is the unused speed-run budget; zero for other types.
func (r Run) RemainingMs(challenge domain.DailyChallenge) int64 {
	if challenge.Type != domain.ChallengeSpeedRun {
		return 0
	}
	return max(0, timeBudgetMs(challenge)-r.TimeSpentMs)
}

func timeBudgetMs(challenge domain.DailyChallenge) int64 {
	return int64(challenge.TimeLimitSeconds) * 1000
}

func complete(run *Run, challenge domain.DailyChallenge, now time.Time) {
	switch challenge.Type {
	case domain.ChallengeSpeedRun:
		if run.TimeSpentMs > timeBudgetMs(challenge) {
			fail(run, now)
			return
		}
		run.Session.Score = int(run.RemainingMs(challenge) / 1000)
	case domain.ChallengePerfectAccuracy:
		run.Session.Score = int(math.Round(run.Accuracy() * 100))
	case domain.ChallengeStreakMaster:
		if run.MaxStreak < challenge.Target {
			fail(run, now)
			return
		}
		run.Session.Score = run.MaxStreak
	default:
		run.Session.Score = int(math.Round(run.Accuracy() * 100))
	}
	run.Session.Status = domain.StatusPassed
	at := now
	run.Session.CompletedAt = &at
}

func fail(run *Run, now time.Time) {
	run.Session.Status = domain.StatusFailed
	run.Session.Score = 0
	at := now
	run.Session.CompletedAt = &at
}
