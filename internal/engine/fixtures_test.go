package engine

import (
	"fmt"
	"time"

	"quiz-hub/internal/domain"
)

var fixedNow = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

func testQuestions(n int) []domain.Question {
	questions := make([]domain.Question, 0, n)
	for i := 1; i <= n; i++ {
		questions = append(questions, domain.Question{
			ID:     fmt.Sprintf("q%d", i),
			Prompt: fmt.Sprintf("Question %d", i),
			Options: []domain.Option{
				{ID: "a", Text: "A"},
				{ID: "b", Text: "B"},
				{ID: "c", Text: "C"},
				{ID: "d", Text: "D"},
			},
			CorrectOptionID: "b",
		})
	}
	return questions
}

func testLevel(questions []domain.Question) domain.LevelConfig {
	ids := make([]string, 0, len(questions))
	for _, q := range questions {
		ids = append(ids, q.ID)
	}
	return domain.LevelConfig{
		ID:                       "pub-1",
		VenueID:                  "pub",
		LevelNumber:              1,
		QuestionIDs:              ids,
		MinCorrectToPass:         3,
		LifelinesAllowed:         []domain.LifelineKind{domain.LifelineAskQuizzers, domain.LifelineFiftyFifty},
		MaxLifelinesPerLevel:     2,
		BasePointsPerCorrect:     100,
		MaxSpeedBonusPerQuestion: 50,
	}
}

// seqRand replays values modulo n so tests control every draw.
type seqRand struct {
	values []int
	next   int
}

func (r *seqRand) Intn(n int) int {
	if len(r.values) == 0 {
		return 0
	}
	v := r.values[r.next%len(r.values)]
	r.next++
	if v < 0 {
		v = -v
	}
	return v % n
}
