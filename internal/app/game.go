package app

import (
	"time"

	"quiz-hub/internal/challenge"
	"quiz-hub/internal/domain"
	"quiz-hub/internal/engine"
)

// GameKind distinguishes level attempts from daily challenge runs.
type GameKind string

const (
	KindLevel     GameKind = "level"
	KindChallenge GameKind = "challenge"
)

// Game is an active attempt plus everything needed to continue it. Content is
// carried along so any instance holding the snapshot can serve the next event.
type Game struct {
	ID            string                   `json:"id"`
	Kind          GameKind                 `json:"kind"`
	PlayerID      string                   `json:"playerId"`
	Level         *domain.LevelContent     `json:"level,omitempty"`
	Challenge     *domain.ChallengeContent `json:"challenge,omitempty"`
	Session       domain.GameSession       `json:"session"`
	Run           challenge.Run            `json:"run"`
	Scratch       engine.Scratch           `json:"scratch"`
	HeartsAtStart int                      `json:"heartsAtStart"`
	// QuestionShownAt is when the current question was presented.
	QuestionShownAt time.Time `json:"questionShownAt"`
}

// State returns the session driving this game.
func (g Game) State() domain.GameSession {
	if g.Kind == KindChallenge {
		return g.Run.Session
	}
	return g.Session
}

// Finished reports whether the game reached a terminal status.
func (g Game) Finished() bool {
	return g.State().Status.Terminal()
}

func (g Game) bank() engine.MapBank {
	switch {
	case g.Kind == KindChallenge && g.Challenge != nil:
		return engine.NewMapBank(g.Challenge.Questions)
	case g.Level != nil:
		return engine.NewMapBank(g.Level.Questions)
	}
	return engine.NewMapBank(nil)
}

// CurrentQuestion resolves the question under the cursor.
func (g Game) CurrentQuestion() (domain.Question, bool) {
	return engine.CurrentQuestion(g.State(), g.bank())
}

// TimeLimit is the countdown for the current question. Speed runs count down
// whatever is left of the run budget.
func (g Game) TimeLimit(tuning domain.Tuning) time.Duration {
	if g.Kind == KindChallenge && g.Challenge != nil {
		ch := g.Challenge.Challenge
		if ch.Type == domain.ChallengeSpeedRun {
			return time.Duration(g.Run.RemainingMs(ch)) * time.Millisecond
		}
		return time.Duration(tuning.QuestionTimeLimitSeconds) * time.Second
	}
	if g.Level != nil {
		return tuning.QuestionTimeLimit(g.Level.Level)
	}
	return time.Duration(tuning.QuestionTimeLimitSeconds) * time.Second
}

// QuestionView is the client-safe projection of the current question.
type QuestionView struct {
	GameID          string          `json:"gameId"`
	QuestionID      string          `json:"questionId"`
	Index           int             `json:"index"`
	Total           int             `json:"total"`
	Prompt          string          `json:"prompt"`
	Category        string          `json:"category,omitempty"`
	Difficulty      string          `json:"difficulty,omitempty"`
	Options         []domain.Option `json:"options"`
	HiddenOptionIDs []string        `json:"hiddenOptionIds,omitempty"`
	TimeLimitMs     int64           `json:"timeLimitMs"`
	LivesRemaining  int             `json:"livesRemaining"`
	Score           int             `json:"score"`
}

// View projects the current question without its answer. It reports false
// when there is nothing left to ask.
func (g Game) View(tuning domain.Tuning) (QuestionView, bool) {
	q, ok := g.CurrentQuestion()
	if !ok {
		return QuestionView{}, false
	}
	s := g.State()
	scratch := g.Scratch.Sync(s)
	return QuestionView{
		GameID:          g.ID,
		QuestionID:      q.ID,
		Index:           s.Cursor,
		Total:           len(s.QuestionIDs),
		Prompt:          q.Prompt,
		Category:        q.Category,
		Difficulty:      q.Difficulty,
		Options:         append([]domain.Option(nil), q.Options...),
		HiddenOptionIDs: scratch.HiddenOptionIDs,
		TimeLimitMs:     g.TimeLimit(tuning).Milliseconds(),
		LivesRemaining:  s.LivesRemaining,
		Score:           s.Score,
	}, true
}
