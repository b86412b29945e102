package engine

import "quiz-hub/internal/domain"

// Scratch is caller-owned, per-question presentation state. It is never part of
// GameSession and resets whenever the cursor moves.
type Scratch struct {
	QuestionIndex   int                          `json:"questionIndex"`
	Used            map[domain.LifelineKind]bool `json:"used,omitempty"`
	HiddenOptionIDs []string                     `json:"hiddenOptionIds,omitempty"`
	Poll            map[string]int               `json:"poll,omitempty"`
}

// NewScratch returns empty scratch for the question at index.
func NewScratch(index int) Scratch {
	return Scratch{QuestionIndex: index}
}

// Sync returns s, or fresh scratch if session's cursor has moved on.
func (s Scratch) Sync(session domain.GameSession) Scratch {
	if s.QuestionIndex != session.Cursor {
		return NewScratch(session.Cursor)
	}
	return s
}

// UsedThisQuestion reports whether kind was applied to the current question.
func (s Scratch) UsedThisQuestion(kind domain.LifelineKind) bool {
	return s.Used[kind]
}

func (s Scratch) markUsed(kind domain.LifelineKind) Scratch {
	used := make(map[domain.LifelineKind]bool, len(s.Used)+1)
	for k, v := range s.Used {
		used[k] = v
	}
	used[kind] = true
	s.Used = used
	return s
}
