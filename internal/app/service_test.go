package app_test

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"quiz-hub/internal/app"
	"quiz-hub/internal/domain"
	"quiz-hub/internal/engine"
	"quiz-hub/internal/infra/memory"
	"quiz-hub/internal/progression"
)

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type harness struct {
	svc      *app.GameService
	games    *memory.GameStore
	profiles *memory.ProfileStore
	clock    *testClock
}

func testPack() domain.ContentPack {
	var questions []domain.Question
	for i := 1; i <= 10; i++ {
		questions = append(questions, domain.Question{
			ID:     fmt.Sprintf("q%d", i),
			Prompt: fmt.Sprintf("Question %d", i),
			Options: []domain.Option{
				{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"}, {ID: "d", Text: "D"},
			},
			CorrectOptionID: "b",
		})
	}
	level := func(id string, n int, qids ...string) domain.LevelConfig {
		return domain.LevelConfig{
			ID:                       id,
			VenueID:                  "pub",
			LevelNumber:              n,
			QuestionIDs:              qids,
			MinCorrectToPass:         3,
			LifelinesAllowed:         []domain.LifelineKind{domain.LifelineAskQuizzers, domain.LifelineFiftyFifty},
			MaxLifelinesPerLevel:     2,
			BasePointsPerCorrect:     100,
			MaxSpeedBonusPerQuestion: 50,
		}
	}
	return domain.ContentPack{
		Questions: questions,
		Venues:    []domain.Venue{{ID: "pub", Name: "The Local", LevelIDs: []string{"pub-1", "pub-2"}}},
		Levels: []domain.LevelConfig{
			level("pub-1", 1, "q1", "q2", "q3", "q4", "q5"),
			level("pub-2", 2, "q6", "q7", "q8", "q9", "q10"),
		},
		Challenges: []domain.DailyChallenge{{
			ID:          "daily-1",
			Date:        "2024-05-10",
			Type:        domain.ChallengePerfectAccuracy,
			QuestionIDs: []string{"q1", "q2", "q3"},
			Reward:      domain.ChallengeReward{XP: 50, Coins: 20, Hearts: 1},
		}},
	}
}

func newHarness(t *testing.T, profiles app.ProfileStore, opts ...app.Option) *harness {
	t.Helper()
	loader, err := memory.NewStaticContentLoader(testPack())
	if err != nil {
		t.Fatalf("load pack: %v", err)
	}

	h := &harness{
		games:    memory.NewGameStore(),
		profiles: memory.NewProfileStore(),
		clock:    &testClock{now: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)},
	}
	if profiles == nil {
		profiles = h.profiles
	}
	opts = append([]app.Option{app.WithClock(h.clock.Now)}, opts...)
	h.svc = app.NewGameService(memory.NewContentRepository(loader, time.Minute), h.games, profiles, opts...)
	return h
}

func (h *harness) start(t *testing.T, playerID, levelID string) app.StartResult {
	t.Helper()
	res, err := h.svc.StartLevel(context.Background(), playerID, levelID)
	if err != nil {
		t.Fatalf("start %s: %v", levelID, err)
	}
	return res
}

// answerAll answers the current question with each option in turn, waiting
// out the feedback delay before every answer.
func (h *harness) answerAll(t *testing.T, gameID string, options ...string) app.AnswerResult {
	t.Helper()
	var res app.AnswerResult
	for _, opt := range options {
		h.clock.Advance(h.svc.Tuning().AnswerFeedbackDelay)
		game, err := h.games.GetGame(context.Background(), gameID)
		if err != nil {
			t.Fatalf("get game: %v", err)
		}
		q, ok := game.CurrentQuestion()
		if !ok {
			t.Fatalf("game %s has no current question", gameID)
		}
		res, err = h.svc.Answer(context.Background(), gameID, engine.Submission{QuestionID: q.ID, OptionID: opt})
		if err != nil {
			t.Fatalf("answer %s: %v", q.ID, err)
		}
		if !res.Accepted {
			t.Fatalf("answer to %s was not accepted", q.ID)
		}
	}
	return res
}

func (h *harness) profile(t *testing.T, playerID string) domain.PlayerProfile {
	t.Helper()
	profile, err := h.profiles.GetProfile(context.Background(), playerID)
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	return profile
}

func hasWarning(notes []domain.Notification) bool {
	for _, n := range notes {
		if n.Severity == domain.SeverityWarning {
			return true
		}
	}
	return false
}

func TestStartLevelAndPass(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	start := h.start(t, "p1", "pub-1")
	q := start.Question
	if q.QuestionID != "q1" || q.Total != 5 || q.TimeLimitMs != 15000 || q.LivesRemaining != 3 {
		t.Fatalf("unexpected first question %+v", q)
	}

	res := h.answerAll(t, start.Game.ID, "b", "b", "b", "b", "b")
	if res.Session.Status != domain.StatusPassed {
		t.Fatalf("expected passed, got %s", res.Session.Status)
	}
	if res.Outcome == nil || !res.Outcome.Summary.FirstCompletion {
		t.Fatalf("expected first completion outcome, got %+v", res.Outcome)
	}
	if res.Next != nil {
		t.Fatalf("expected no next question, got %+v", res.Next)
	}

	profile := h.profile(t, "p1")
	if profile.Level != 2 || profile.XP != 100 || profile.Stats.Wins != 1 {
		t.Fatalf("unexpected profile level=%d xp=%d wins=%d", profile.Level, profile.XP, profile.Stats.Wins)
	}
	if !profile.Achievements[progression.AchFirstWin].Unlocked {
		t.Fatalf("expected %s unlocked", progression.AchFirstWin)
	}

	progress, err := h.profiles.GetProgress(ctx, "p1")
	if err != nil {
		t.Fatalf("get progress: %v", err)
	}
	if !progress.Completed("pub-1") {
		t.Fatalf("expected pub-1 completed, got %+v", progress)
	}

	// the next level in the venue is now open
	if _, err := h.svc.StartLevel(ctx, "p1", "pub-2"); err != nil {
		t.Fatalf("start pub-2: %v", err)
	}
}

func TestAnswerIgnoresDuplicateAndStale(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start := h.start(t, "p1", "pub-1")

	first, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q1", OptionID: "a"})
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if !first.Accepted || first.Correct || first.CorrectOptionID != "b" {
		t.Fatalf("unexpected first result %+v", first)
	}
	if first.Next == nil || first.Next.QuestionID != "q2" {
		t.Fatalf("expected q2 next, got %+v", first.Next)
	}

	h.clock.Advance(h.svc.Tuning().AnswerFeedbackDelay)
	again, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q1", OptionID: "b"})
	if err != nil {
		t.Fatalf("answer again: %v", err)
	}
	if again.Accepted {
		t.Fatal("expected stale answer to be ignored")
	}
	if !reflect.DeepEqual(first.Session, again.Session) {
		t.Fatalf("stale answer changed the session: %+v", again.Session)
	}
}

func TestAnswerBeforeQuestionShownIsIgnored(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start := h.start(t, "p1", "pub-1")
	delay := h.svc.Tuning().AnswerFeedbackDelay

	first, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q1", OptionID: "b"})
	if err != nil || !first.Accepted {
		t.Fatalf("answer q1: %+v %v", first, err)
	}

	// q2 is still hidden behind the feedback for q1
	h.clock.Advance(delay / 2)
	early, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q2", OptionID: "b"})
	if err != nil {
		t.Fatalf("early answer: %v", err)
	}
	if early.Accepted || early.Session.Cursor != 1 || len(early.Session.Answers) != 1 {
		t.Fatalf("expected early answer to be ignored, got %+v", early)
	}
	expired, err := h.svc.Expire(ctx, start.Game.ID, "q2")
	if err != nil {
		t.Fatalf("early expire: %v", err)
	}
	if expired.Accepted {
		t.Fatal("expected expiry before the question is shown to be ignored")
	}

	h.clock.Advance(delay/2 + 2*time.Second)
	res, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q2", OptionID: "b"})
	if err != nil || !res.Accepted {
		t.Fatalf("answer q2: %+v %v", res, err)
	}
	if took := res.Session.Answers[1].TimeTakenMs; took != 2000 {
		t.Fatalf("expected 2000ms measured from when q2 was shown, got %d", took)
	}
}

func TestStartLevelGating(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	if _, err := h.svc.StartLevel(ctx, "p1", "pub-2"); !errors.Is(err, domain.ErrLevelLocked) {
		t.Fatalf("expected level locked, got %v", err)
	}

	profile := domain.NewPlayerProfile("p2", domain.DefaultTuning(), h.clock.now)
	profile.Hearts.Current = 0
	if err := h.profiles.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	if _, err := h.svc.StartLevel(ctx, "p2", "pub-1"); !errors.Is(err, domain.ErrNoHearts) {
		t.Fatalf("expected no hearts, got %v", err)
	}

	// one regen interval later a heart is back
	h.clock.Advance(31 * time.Minute)
	if _, err := h.svc.StartLevel(ctx, "p2", "pub-1"); err != nil {
		t.Fatalf("start after regen: %v", err)
	}

	if _, err := h.svc.StartLevel(ctx, "p1", "nope"); !errors.Is(err, domain.ErrLevelNotFound) {
		t.Fatalf("expected level not found, got %v", err)
	}
}

func TestFailedLevelCostsHeart(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start := h.start(t, "p1", "pub-1")

	res := h.answerAll(t, start.Game.ID, "a", "a", "a")
	if res.Session.Status != domain.StatusFailed {
		t.Fatalf("expected failed, got %s", res.Session.Status)
	}
	if res.Profile == nil || res.Profile.Hearts.Current != 4 {
		t.Fatalf("expected one heart spent, got %+v", res.Profile)
	}

	h.clock.Advance(h.svc.Tuning().AnswerFeedbackDelay)
	late, err := h.svc.Answer(ctx, start.Game.ID, engine.Submission{QuestionID: "q4", OptionID: "b"})
	if err != nil {
		t.Fatalf("late answer: %v", err)
	}
	if late.Accepted {
		t.Fatal("expected answer after the end to be ignored")
	}
}

func TestExpireFiresOncePerQuestion(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start := h.start(t, "p1", "pub-1")

	res, err := h.svc.Expire(ctx, start.Game.ID, "q1")
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if !res.Accepted || !res.Expired || res.Correct || res.Session.LivesRemaining != 2 {
		t.Fatalf("unexpected expiry result %+v", res)
	}

	res, err = h.svc.Expire(ctx, start.Game.ID, "q1")
	if err != nil {
		t.Fatalf("expire again: %v", err)
	}
	if res.Accepted || len(res.Session.Answers) != 1 {
		t.Fatalf("expected second expiry to be ignored, got %+v", res)
	}
}

func TestUseLifelineSpendsInventory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start := h.start(t, "p1", "pub-1")

	res, err := h.svc.UseLifeline(ctx, start.Game.ID, domain.LifelineFiftyFifty)
	if err != nil {
		t.Fatalf("use lifeline: %v", err)
	}
	if !res.Applied || res.Remaining != 0 || len(res.Effect.HiddenOptionIDs) != 2 {
		t.Fatalf("unexpected lifeline result %+v", res)
	}
	for _, id := range res.Effect.HiddenOptionIDs {
		if id == "b" {
			t.Fatal("fifty-fifty hid the correct option")
		}
	}

	if _, err := h.svc.UseLifeline(ctx, start.Game.ID, domain.LifelineFiftyFifty); !errors.Is(err, domain.ErrNoLifelinesOwned) {
		t.Fatalf("expected no lifelines owned, got %v", err)
	}
	if _, err := h.svc.UseLifeline(ctx, start.Game.ID, "teleport"); !errors.Is(err, domain.ErrUnknownLifeline) {
		t.Fatalf("expected unknown lifeline, got %v", err)
	}

	game, err := h.games.GetGame(ctx, start.Game.ID)
	if err != nil {
		t.Fatalf("get game: %v", err)
	}
	view, ok := game.View(h.svc.Tuning())
	if !ok || !reflect.DeepEqual(view.HiddenOptionIDs, res.Effect.HiddenOptionIDs) {
		t.Fatalf("expected view to hide %v, got %+v", res.Effect.HiddenOptionIDs, view)
	}

	if n := h.profile(t, "p1").Lifelines[domain.LifelineFiftyFifty]; n != 0 {
		t.Fatalf("expected fifty-fifty spent, got %d", n)
	}
}

func TestUseLifelineEvaluatesAchievements(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	profile := domain.NewPlayerProfile("p1", domain.DefaultTuning(), h.clock.now)
	profile.Coins = 600
	if err := h.profiles.SaveProfile(ctx, profile); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	start := h.start(t, "p1", "pub-1")

	res, err := h.svc.UseLifeline(ctx, start.Game.ID, domain.LifelineFiftyFifty)
	if err != nil {
		t.Fatalf("use lifeline: %v", err)
	}
	var unlocked bool
	for _, n := range res.Notifications {
		unlocked = unlocked || strings.Contains(n.Message, "Coin Collector")
	}
	if !unlocked {
		t.Fatalf("expected coin collector notification, got %+v", res.Notifications)
	}
	if !h.profile(t, "p1").Achievements[progression.AchCoinCollector].Unlocked {
		t.Fatalf("expected %s stored as unlocked", progression.AchCoinCollector)
	}
}

type failingProfiles struct {
	*memory.ProfileStore
}

func (f failingProfiles) SaveProfile(context.Context, domain.PlayerProfile) error {
	return errors.New("disk on fire")
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	h := newHarness(t, failingProfiles{memory.NewProfileStore()})

	start := h.start(t, "p1", "pub-1")
	if len(start.Notifications) == 0 || start.Notifications[0].Severity != domain.SeverityWarning {
		t.Fatalf("expected a persistence warning on start, got %+v", start.Notifications)
	}

	res := h.answerAll(t, start.Game.ID, "b", "b", "b", "b", "b")
	if res.Outcome == nil || res.Profile == nil || res.Profile.Level != 2 {
		t.Fatalf("expected outcome with level 2 profile, got %+v %+v", res.Outcome, res.Profile)
	}
	if !hasWarning(res.Notifications) {
		t.Fatalf("expected a persistence warning, got %+v", res.Notifications)
	}
}

func TestPlayerSurfacesPersistenceWarnings(t *testing.T) {
	h := newHarness(t, failingProfiles{memory.NewProfileStore()})

	view, err := h.svc.Player(context.Background(), "p1")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if view.Profile.PlayerID != "p1" {
		t.Fatalf("unexpected profile %+v", view.Profile)
	}
	if !hasWarning(view.Notifications) {
		t.Fatalf("expected a persistence warning, got %+v", view.Notifications)
	}
}

func TestChallengeFailureLocksOut(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	start, err := h.svc.StartChallenge(ctx, "p1", "daily-1")
	if err != nil {
		t.Fatalf("start challenge: %v", err)
	}
	res := h.answerAll(t, start.Game.ID, "b", "c")
	if res.ChallengeResult == nil || res.ChallengeResult.Status != domain.StatusFailed {
		t.Fatalf("expected failed challenge, got %+v", res.ChallengeResult)
	}
	if len(res.Session.Answers) != 2 {
		t.Fatalf("expected the run to stop at the miss, got %d answers", len(res.Session.Answers))
	}

	if _, err := h.svc.StartChallenge(ctx, "p1", "daily-1"); !errors.Is(err, domain.ErrChallengeLocked) {
		t.Fatalf("expected challenge locked, got %v", err)
	}

	h.clock.Advance(25 * time.Hour)
	start, err = h.svc.StartChallenge(ctx, "p1", "daily-1")
	if err != nil {
		t.Fatalf("restart challenge: %v", err)
	}
	res = h.answerAll(t, start.Game.ID, "b", "b", "b")
	if res.ChallengeResult == nil || res.ChallengeResult.Status != domain.StatusPassed || res.ChallengeResult.XPEarned != 50 {
		t.Fatalf("expected passed challenge worth 50xp, got %+v", res.ChallengeResult)
	}

	if _, err := h.svc.StartChallenge(ctx, "p1", "daily-1"); !errors.Is(err, domain.ErrChallengeCompleted) {
		t.Fatalf("expected challenge completed, got %v", err)
	}
}

func TestChallengeRejectsLifelines(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)
	start, err := h.svc.StartChallenge(ctx, "p1", "daily-1")
	if err != nil {
		t.Fatalf("start challenge: %v", err)
	}

	res, err := h.svc.UseLifeline(ctx, start.Game.ID, domain.LifelineAskQuizzers)
	if err != nil {
		t.Fatalf("use lifeline: %v", err)
	}
	if res.Applied {
		t.Fatal("expected lifeline to be refused in a challenge")
	}
}

func TestPurchaseAndStreakReward(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil)

	change, err := h.svc.Purchase(ctx, "p1", "fifty_fifty")
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if change.Profile.Coins != 25 || change.Profile.Lifelines[domain.LifelineFiftyFifty] != 2 {
		t.Fatalf("unexpected profile after purchase %+v", change.Profile)
	}

	if _, err := h.svc.Purchase(ctx, "p1", "heart_refill"); !errors.Is(err, domain.ErrInsufficientCoins) {
		t.Fatalf("expected insufficient coins, got %v", err)
	}
	if _, err := h.svc.ClaimStreakReward(ctx, "p1", "streak_3"); !errors.Is(err, domain.ErrStreakRewardUnavailable) {
		t.Fatalf("expected reward unavailable, got %v", err)
	}

	view, err := h.svc.Player(ctx, "p1")
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if view.Profile.Coins != 25 || view.NextHeartAt != nil || len(view.Notifications) != 0 {
		t.Fatalf("unexpected player view %+v", view)
	}
}
