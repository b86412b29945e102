package engine

import "quiz-hub/internal/domain"

// QuestionBank resolves question ids to immutable content.
type QuestionBank interface {
	Question(id string) (domain.Question, bool)
}

// MapBank is a QuestionBank backed by a map.
type MapBank map[string]domain.Question

// NewMapBank indexes questions by id.
func NewMapBank(questions []domain.Question) MapBank {
	bank := make(MapBank, len(questions))
	for _, q := range questions {
		bank[q.ID] = q
	}
	return bank
}

func (b MapBank) Question(id string) (domain.Question, bool) {
	q, ok := b[id]
	return q, ok
}

// RandSource is the randomness capability used by lifelines. *rand.Rand satisfies it.
type RandSource interface {
	Intn(n int) int
}

// uniform returns an integer in [lo, hi].
func uniform(rnd RandSource, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rnd.Intn(hi-lo+1)
}
