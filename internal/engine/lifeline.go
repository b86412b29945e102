package engine

import "quiz-hub/internal/domain"

// UseLifeline records kind as consumed for this attempt. It is a no-op when the
// level does not allow kind, kind was already used, or the per-level quota is spent.
func UseLifeline(session domain.GameSession, level domain.LevelConfig, kind domain.LifelineKind) domain.GameSession {
	if session.Status != domain.StatusInProgress {
		return session
	}
	if !level.AllowsLifeline(kind) || session.UsedLifeline(kind) {
		return session
	}
	if len(session.UsedLifelines) >= level.MaxLifelinesPerLevel {
		return session
	}
	next := session.Clone()
	next.UsedLifelines = append(next.UsedLifelines, kind)
	return next
}

// GenerateAudiencePoll returns an optionID -> percentage distribution summing to 100.
// It is a display aid only.
func GenerateAudiencePoll(question domain.Question, rnd RandSource) map[string]int {
	poll := make(map[string]int, len(question.Options))
	wrong := question.WrongOptions()
	if len(wrong) == 0 {
		poll[question.CorrectOptionID] = 100
		return poll
	}

	correct := 50 + uniform(rnd, 0, 20)
	poll[question.CorrectOptionID] = correct
	remaining := 100 - correct
	for i, opt := range wrong[:len(wrong)-1] {
		optionsLeft := len(wrong) - i
		share := remaining/optionsLeft + uniform(rnd, -5, 5)
		share = min(max(share, 0), remaining)
		poll[opt.ID] = share
		remaining -= share
	}
	poll[wrong[len(wrong)-1].ID] = max(remaining, 0)
	return poll
}

// SelectFiftyFifty picks two wrong options to hide. It returns nil when fewer
// than two wrong options exist.
func SelectFiftyFifty(question domain.Question, rnd RandSource) []string {
	wrong := question.WrongOptions()
	if len(wrong) < 2 {
		return nil
	}
	first := rnd.Intn(len(wrong))
	second := rnd.Intn(len(wrong) - 1)
	if second >= first {
		second++
	}
	return []string{wrong[first].ID, wrong[second].ID}
}

// suggestFriend answers with the correct option four times out of five.
func suggestFriend(question domain.Question, rnd RandSource) string {
	wrong := question.WrongOptions()
	if len(wrong) == 0 || rnd.Intn(5) > 0 {
		return question.CorrectOptionID
	}
	return wrong[rnd.Intn(len(wrong))].ID
}

// LifelineEffect is what a successfully applied lifeline reveals.
type LifelineEffect struct {
	Kind            domain.LifelineKind `json:"kind"`
	Poll            map[string]int      `json:"poll,omitempty"`
	HiddenOptionIDs []string            `json:"hiddenOptionIds,omitempty"`
	SuggestedOption string              `json:"suggestedOption,omitempty"`
}

// ApplyLifeline consumes kind for the current question and computes its effect.
// The returned bool is false when nothing was applied; session and scratch are
// then returned unchanged.
func ApplyLifeline(session domain.GameSession, level domain.LevelConfig, bank QuestionBank, scratch Scratch, kind domain.LifelineKind, rnd RandSource) (domain.GameSession, Scratch, LifelineEffect, bool) {
	question, ok := CurrentQuestion(session, bank)
	if !ok {
		return session, scratch, LifelineEffect{}, false
	}
	scratch = scratch.Sync(session)
	if scratch.UsedThisQuestion(kind) {
		return session, scratch, LifelineEffect{}, false
	}
	next := UseLifeline(session, level, kind)
	if len(next.UsedLifelines) == len(session.UsedLifelines) {
		return session, scratch, LifelineEffect{}, false
	}

	effect := LifelineEffect{Kind: kind}
	switch kind {
	case domain.LifelineAskQuizzers:
		effect.Poll = GenerateAudiencePoll(question, rnd)
		scratch.Poll = effect.Poll
	case domain.LifelineFiftyFifty:
		effect.HiddenOptionIDs = SelectFiftyFifty(question, rnd)
		scratch.HiddenOptionIDs = effect.HiddenOptionIDs
	case domain.LifelineCallFriend:
		effect.SuggestedOption = suggestFriend(question, rnd)
	}
	scratch = scratch.markUsed(kind)
	return next, scratch, effect, true
}
