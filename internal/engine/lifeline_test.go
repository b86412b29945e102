package engine

import (
	"math/rand"
	"testing"

	"quiz-hub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUseLifelineSingleUse(t *testing.T) {
	session, level, _ := newTestSession(t, 5)

	once := UseLifeline(session, level, domain.LifelineFiftyFifty)
	twice := UseLifeline(once, level, domain.LifelineFiftyFifty)

	assert.Equal(t, []domain.LifelineKind{domain.LifelineFiftyFifty}, twice.UsedLifelines)
	assert.Equal(t, once, twice)
	assert.Empty(t, session.UsedLifelines, "input must not be mutated")
}

func TestUseLifelineGating(t *testing.T) {
	session, level, _ := newTestSession(t, 5)

	notAllowed := UseLifeline(session, level, domain.LifelineCallFriend)
	assert.Empty(t, notAllowed.UsedLifelines)

	level.MaxLifelinesPerLevel = 1
	session = UseLifeline(session, level, domain.LifelineAskQuizzers)
	session = UseLifeline(session, level, domain.LifelineFiftyFifty)
	assert.Equal(t, []domain.LifelineKind{domain.LifelineAskQuizzers}, session.UsedLifelines)
}

func TestAudiencePollSumsTo100(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 100; trial++ {
		n := 2 + trial%5
		q := testQuestions(1)[0]
		q.Options = q.Options[:0]
		for i := 0; i < n; i++ {
			q.Options = append(q.Options, domain.Option{ID: string(rune('a' + i))})
		}
		q.CorrectOptionID = "a"

		poll := GenerateAudiencePoll(q, rnd)
		sum := 0
		for _, pct := range poll {
			assert.GreaterOrEqual(t, pct, 0)
			sum += pct
		}
		require.Equal(t, 100, sum, "trial %d", trial)
		assert.GreaterOrEqual(t, poll["a"], 50)
		assert.LessOrEqual(t, poll["a"], 70)
	}
}

func TestAudiencePollDeterministic(t *testing.T) {
	q := testQuestions(1)[0] // options a,b,c,d; b correct

	// correct: 50+10; a: 40/3=13 + (7-5)=15; c: 25/2=12 + (0-5)=7; d gets 18
	poll := GenerateAudiencePoll(q, &seqRand{values: []int{10, 7, 0}})
	assert.Equal(t, map[string]int{"b": 60, "a": 15, "c": 7, "d": 18}, poll)
}

func TestSelectFiftyFifty(t *testing.T) {
	q := testQuestions(1)[0]

	hidden := SelectFiftyFifty(q, &seqRand{values: []int{2, 2}})
	require.Len(t, hidden, 2)
	assert.NotContains(t, hidden, "b")
	assert.NotEqual(t, hidden[0], hidden[1])

	q.Options = q.Options[:2]
	assert.Nil(t, SelectFiftyFifty(q, &seqRand{}))
}

func TestApplyLifelineResetsPerQuestion(t *testing.T) {
	session, level, bank := newTestSession(t, 5)
	rnd := &seqRand{values: []int{1, 2, 3}}
	scratch := NewScratch(session.Cursor)

	session, scratch, effect, ok := ApplyLifeline(session, level, bank, scratch, domain.LifelineFiftyFifty, rnd)
	require.True(t, ok)
	assert.Len(t, effect.HiddenOptionIDs, 2)
	assert.True(t, scratch.UsedThisQuestion(domain.LifelineFiftyFifty))
	assert.Equal(t, effect.HiddenOptionIDs, scratch.HiddenOptionIDs)

	session = answer(session, level, bank, "b", 1000)
	scratch = scratch.Sync(session)
	assert.Equal(t, 1, scratch.QuestionIndex)
	assert.False(t, scratch.UsedThisQuestion(domain.LifelineFiftyFifty))
	assert.Empty(t, scratch.HiddenOptionIDs)

	// per-attempt quota still blocks a second fifty-fifty
	_, _, _, ok = ApplyLifeline(session, level, bank, scratch, domain.LifelineFiftyFifty, rnd)
	assert.False(t, ok)

	_, scratch, effect, ok = ApplyLifeline(session, level, bank, scratch, domain.LifelineAskQuizzers, rnd)
	require.True(t, ok)
	assert.Len(t, effect.Poll, 4)
	assert.Equal(t, effect.Poll, scratch.Poll)
}
