package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"quiz-hub/internal/challenge"
	"quiz-hub/internal/domain"
	"quiz-hub/internal/engine"
	"quiz-hub/internal/metrics"
	"quiz-hub/internal/progression"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// GameService contains the game use cases. It loads snapshots, drives the
// pure core, and persists what comes back.
type GameService struct {
	content  ContentRepository
	games    GameStore
	profiles ProfileStore

	tuning        domain.Tuning
	achievements  *progression.Evaluator
	catalog       progression.Catalog
	streakRewards []progression.StreakReward

	log     *zap.Logger
	metrics *metrics.Metrics
	rnd     engine.RandSource
	now     func() time.Time

	gameLocks   *keyedMutex
	playerLocks *keyedMutex
}

// Option configures a GameService.
type Option func(*GameService)

func WithTuning(t domain.Tuning) Option {
	return func(s *GameService) { s.tuning = t }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *GameService) { s.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *GameService) { s.metrics = m }
}

// WithClock is mostly for tests that need deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *GameService) { s.now = now }
}

func WithRand(r engine.RandSource) Option {
	return func(s *GameService) { s.rnd = r }
}

func WithAchievements(e *progression.Evaluator) Option {
	return func(s *GameService) { s.achievements = e }
}

func WithCatalog(c progression.Catalog) Option {
	return func(s *GameService) { s.catalog = c }
}

func WithStreakRewards(r []progression.StreakReward) Option {
	return func(s *GameService) { s.streakRewards = r }
}

// globalRand uses the goroutine-safe top-level math/rand source.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

func NewGameService(content ContentRepository, games GameStore, profiles ProfileStore, opts ...Option) *GameService {
	s := &GameService{
		content:       content,
		games:         games,
		profiles:      profiles,
		tuning:        domain.DefaultTuning(),
		achievements:  progression.NewEvaluator(progression.DefaultAchievements()),
		catalog:       progression.DefaultCatalog(),
		streakRewards: progression.DefaultStreakRewards(),
		log:           zap.NewNop(),
		rnd:           globalRand{},
		now:           time.Now,
		gameLocks:     newKeyedMutex(),
		playerLocks:   newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tuning = s.tuning.WithDefaults()
	if s.metrics == nil {
		s.metrics = metrics.New(prometheus.NewRegistry())
	}
	return s
}

// Tuning returns the effective policy constants.
func (s *GameService) Tuning() domain.Tuning {
	return s.tuning
}

// StartResult is a freshly started game and its first question.
type StartResult struct {
	Game          Game                  `json:"-"`
	Question      QuestionView          `json:"question"`
	Profile       domain.PlayerProfile  `json:"profile"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// LevelOutcome is the resolved reward of a finished level.
type LevelOutcome struct {
	Summary  domain.RewardSummary  `json:"summary"`
	Progress domain.PlayerProgress `json:"progress"`
}

// AnswerResult reports what one answer (or expiry) did to a game.
type AnswerResult struct {
	Accepted        bool                  `json:"accepted"`
	Correct         bool                  `json:"correct"`
	Expired         bool                  `json:"expired,omitempty"`
	CorrectOptionID string                `json:"correctOptionId,omitempty"`
	PointsAwarded   int                   `json:"pointsAwarded"`
	Session         domain.GameSession    `json:"session"`
	Game            Game                  `json:"-"`
	Next            *QuestionView         `json:"next,omitempty"`
	Outcome         *LevelOutcome         `json:"outcome,omitempty"`
	ChallengeResult *challenge.Result     `json:"challengeResult,omitempty"`
	Profile         *domain.PlayerProfile `json:"profile,omitempty"`
	Notifications   []domain.Notification `json:"notifications,omitempty"`
}

// LifelineResult reports a lifeline request.
type LifelineResult struct {
	Applied       bool                  `json:"applied"`
	Effect        engine.LifelineEffect `json:"effect"`
	Remaining     int                   `json:"remaining"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// StartLevel begins an attempt at levelID for playerID. The player needs a
// heart and, past the first level of a venue, the previous level completed.
func (s *GameService) StartLevel(ctx context.Context, playerID, levelID string) (StartResult, error) {
	content, err := s.content.GetLevel(ctx, levelID)
	if err != nil {
		return StartResult{}, err
	}

	unlock := s.playerLocks.lock(playerID)
	defer unlock()

	now := s.now()
	profile, err := s.loadProfile(ctx, playerID, now)
	if err != nil {
		return StartResult{}, err
	}
	if profile.Hearts.Current <= 0 {
		return StartResult{}, domain.ErrNoHearts
	}
	progress, err := s.profiles.GetProgress(ctx, playerID)
	if err != nil {
		return StartResult{}, fmt.Errorf("load progress: %w", err)
	}
	if err := s.checkUnlocked(ctx, content.Level, progress); err != nil {
		return StartResult{}, err
	}

	session, err := engine.CreateSession(content.Level, engine.NewMapBank(content.Questions), s.tuning, now)
	if err != nil {
		return StartResult{}, fmt.Errorf("level %s: %w", levelID, err)
	}
	game := Game{
		ID:              session.ID,
		Kind:            KindLevel,
		PlayerID:        playerID,
		Level:           &content,
		Session:         session,
		Scratch:         engine.NewScratch(0),
		HeartsAtStart:   profile.Hearts.Current,
		QuestionShownAt: now,
	}
	return s.begin(ctx, game, profile)
}

// StartChallenge begins a run of challengeID unless it is completed or locked.
func (s *GameService) StartChallenge(ctx context.Context, playerID, challengeID string) (StartResult, error) {
	content, err := s.content.GetChallenge(ctx, challengeID)
	if err != nil {
		return StartResult{}, err
	}

	unlock := s.playerLocks.lock(playerID)
	defer unlock()

	now := s.now()
	profile, err := s.loadProfile(ctx, playerID, now)
	if err != nil {
		return StartResult{}, err
	}
	if err := challenge.CanAttempt(profile, challengeID, now); err != nil {
		return StartResult{}, err
	}

	run, err := challenge.Start(content.Challenge, engine.NewMapBank(content.Questions), now)
	if err != nil {
		return StartResult{}, fmt.Errorf("challenge %s: %w", challengeID, err)
	}
	game := Game{
		ID:              run.Session.ID,
		Kind:            KindChallenge,
		PlayerID:        playerID,
		Challenge:       &content,
		Run:             run,
		Scratch:         engine.NewScratch(0),
		HeartsAtStart:   profile.Hearts.Current,
		QuestionShownAt: now,
	}
	return s.begin(ctx, game, profile)
}

func (s *GameService) begin(ctx context.Context, game Game, profile domain.PlayerProfile) (StartResult, error) {
	if err := s.games.SaveGame(ctx, game); err != nil {
		return StartResult{}, fmt.Errorf("save game: %w", err)
	}
	s.metrics.GamesStarted.WithLabelValues(string(game.Kind)).Inc()
	s.log.Info("game started",
		zap.String("player_id", game.PlayerID),
		zap.String("session_id", game.ID),
		zap.String("kind", string(game.Kind)),
		zap.String("content_id", game.State().LevelID),
	)

	res := StartResult{Game: game, Profile: profile}
	if view, ok := game.View(s.tuning); ok {
		res.Question = view
	}
	res.Notifications = s.saveProfile(ctx, profile, game.ID)
	return res, nil
}

func (s *GameService) checkUnlocked(ctx context.Context, level domain.LevelConfig, progress domain.PlayerProgress) error {
	if level.LevelNumber <= 1 {
		return nil
	}
	venue, err := s.content.GetVenue(ctx, level.VenueID)
	if err != nil {
		return err
	}
	for i, id := range venue.LevelIDs {
		if id != level.ID {
			continue
		}
		if i > 0 && !progress.Completed(venue.LevelIDs[i-1]) {
			return domain.ErrLevelLocked
		}
		return nil
	}
	return nil
}

// Answer applies sub to the game. Time taken is measured server-side from when
// the question was shown. Stale or duplicate submissions are not accepted and
// leave the game unchanged.
func (s *GameService) Answer(ctx context.Context, gameID string, sub engine.Submission) (AnswerResult, error) {
	unlock := s.gameLocks.lock(gameID)
	defer unlock()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return AnswerResult{}, err
	}
	now := s.now()
	// the next question is hidden during answer feedback
	if now.Before(game.QuestionShownAt) {
		return AnswerResult{Session: game.State(), Game: game}, nil
	}
	if !game.QuestionShownAt.IsZero() {
		sub.TimeTakenMs = max(0, now.Sub(game.QuestionShownAt).Milliseconds())
	}
	return s.advance(ctx, game, false, func(g Game) Game {
		if g.Kind == KindChallenge {
			g.Run = challenge.Submit(g.Run, g.Challenge.Challenge, g.bank(), sub, now)
		} else {
			g.Session = engine.SubmitAnswer(g.Session, g.Level.Level, g.bank(), s.tuning, sub, now)
		}
		return g
	})
}

// Expire is the countdown's entry point. questionID must still be current.
func (s *GameService) Expire(ctx context.Context, gameID, questionID string) (AnswerResult, error) {
	unlock := s.gameLocks.lock(gameID)
	defer unlock()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return AnswerResult{}, err
	}
	now := s.now()
	if q, ok := game.CurrentQuestion(); !ok || q.ID != questionID || now.Before(game.QuestionShownAt) {
		return AnswerResult{Session: game.State(), Game: game}, nil
	}
	return s.advance(ctx, game, true, func(g Game) Game {
		if g.Kind == KindChallenge {
			g.Run = challenge.Expire(g.Run, g.Challenge.Challenge, g.bank(), s.tuning, questionID, now)
		} else {
			g.Session = engine.ExpireQuestion(g.Session, g.Level.Level, g.bank(), s.tuning, questionID, now)
		}
		return g
	})
}

func (s *GameService) advance(ctx context.Context, game Game, expired bool, apply func(Game) Game) (AnswerResult, error) {
	before := game.State()
	next := apply(game)
	after := next.State()
	if len(after.Answers) == len(before.Answers) && after.Status == before.Status {
		return AnswerResult{Session: before, Game: game}, nil
	}

	now := s.now()
	res := AnswerResult{
		Accepted:      true,
		Expired:       expired,
		Session:       after,
		PointsAwarded: after.Score - before.Score,
	}
	if len(after.Answers) > len(before.Answers) {
		last := after.Answers[len(after.Answers)-1]
		res.Correct = last.Correct
		if q, ok := game.bank().Question(last.QuestionID); ok {
			res.CorrectOptionID = q.CorrectOptionID
		}
		s.metrics.Answers.WithLabelValues(strconv.FormatBool(last.Correct)).Inc()
		s.metrics.AnswerTime.Observe(float64(last.TimeTakenMs) / 1000)
	}
	next.Scratch = next.Scratch.Sync(after)
	if after.Cursor != before.Cursor {
		next.QuestionShownAt = now.Add(s.tuning.AnswerFeedbackDelay)
	}
	res.Game = next

	if err := s.games.SaveGame(ctx, next); err != nil {
		res.Notifications = append(res.Notifications, s.persistFailed("game", next.PlayerID, next.ID, err))
	}
	if !next.Finished() {
		if view, ok := next.View(s.tuning); ok {
			res.Next = &view
		}
		return res, nil
	}

	s.metrics.GamesFinished.WithLabelValues(string(next.Kind), string(after.Status)).Inc()
	s.log.Info("game finished",
		zap.String("player_id", next.PlayerID),
		zap.String("session_id", next.ID),
		zap.String("status", string(after.Status)),
		zap.Int("score", after.Score),
		zap.Int("correct", after.CorrectCount),
	)

	unlock := s.playerLocks.lock(next.PlayerID)
	defer unlock()
	var err error
	if next.Kind == KindChallenge {
		err = s.finishChallenge(ctx, next, &res)
	} else {
		err = s.finishLevel(ctx, next, &res)
	}
	if err != nil {
		s.log.Error("resolve game failed",
			zap.String("player_id", next.PlayerID),
			zap.String("session_id", next.ID),
			zap.Error(err),
		)
		return res, err
	}
	return res, nil
}

func (s *GameService) finishLevel(ctx context.Context, game Game, res *AnswerResult) error {
	now := s.now()
	profile, err := s.loadProfile(ctx, game.PlayerID, now)
	if err != nil {
		return err
	}
	progress, err := s.profiles.GetProgress(ctx, game.PlayerID)
	if err != nil {
		return fmt.Errorf("load progress: %w", err)
	}
	level := game.Level.Level
	out, err := progression.ResolveOutcome(game.Session, level, profile, progress, s.tuning, now)
	if err != nil {
		return err
	}

	var venueLevels []string
	if venue, err := s.content.GetVenue(ctx, level.VenueID); err == nil {
		venueLevels = venue.LevelIDs
	} else {
		s.log.Warn("venue lookup failed", zap.String("venue_id", level.VenueID), zap.Error(err))
	}
	next, notes := s.achievements.EvaluateSession(out.Profile, progression.SessionFacts{
		Session:       game.Session,
		Level:         level,
		HeartsAtStart: game.HeartsAtStart,
		VenueLevelIDs: venueLevels,
		Progress:      out.Progress,
	}, now)
	s.metrics.AchievementUnlocks.Add(float64(countUnlocks(notes)))

	res.Outcome = &LevelOutcome{Summary: out.Summary, Progress: out.Progress}
	res.Profile = &next
	res.Notifications = append(res.Notifications, notes...)
	res.Notifications = append(res.Notifications, s.saveProfile(ctx, next, game.ID)...)
	if err := s.profiles.SaveProgress(ctx, out.Progress); err != nil {
		res.Notifications = append(res.Notifications, s.persistFailed("progress", game.PlayerID, game.ID, err))
	}

	s.log.Info("level resolved",
		zap.String("player_id", game.PlayerID),
		zap.String("session_id", game.ID),
		zap.String("level_id", level.ID),
		zap.String("result", string(out.Summary.Result)),
		zap.Int("xp_earned", out.Summary.XPEarned),
		zap.Int("coins_earned", out.Summary.CoinsEarned),
		zap.Int("levels_gained", out.Summary.LevelsGained),
	)
	return nil
}

func (s *GameService) finishChallenge(ctx context.Context, game Game, res *AnswerResult) error {
	now := s.now()
	profile, err := s.loadProfile(ctx, game.PlayerID, now)
	if err != nil {
		return err
	}
	ch := game.Challenge.Challenge
	out, err := challenge.Resolve(game.Run, ch, profile, s.tuning, s.achievements, now)
	if err != nil {
		return err
	}
	s.metrics.ChallengeResults.WithLabelValues(string(ch.Type), string(out.Result.Status)).Inc()
	s.metrics.AchievementUnlocks.Add(float64(countUnlocks(out.Notifications)))

	res.ChallengeResult = &out.Result
	res.Profile = &out.Profile
	res.Notifications = append(res.Notifications, out.Notifications...)
	res.Notifications = append(res.Notifications, s.saveProfile(ctx, out.Profile, game.ID)...)

	s.log.Info("challenge resolved",
		zap.String("player_id", game.PlayerID),
		zap.String("session_id", game.ID),
		zap.String("challenge_id", ch.ID),
		zap.String("status", string(out.Result.Status)),
		zap.Int("score", out.Result.Score),
	)
	return nil
}

// UseLifeline applies kind to the current question of a level game and spends
// one from the player's inventory. Lifelines the level or the attempt does not
// permit are not applied and cost nothing.
func (s *GameService) UseLifeline(ctx context.Context, gameID string, kind domain.LifelineKind) (LifelineResult, error) {
	if !kind.Valid() {
		return LifelineResult{}, fmt.Errorf("%w: %s", domain.ErrUnknownLifeline, kind)
	}

	unlock := s.gameLocks.lock(gameID)
	defer unlock()

	game, err := s.loadGame(ctx, gameID)
	if err != nil {
		return LifelineResult{}, err
	}
	if game.Kind != KindLevel || game.Finished() {
		return LifelineResult{}, nil
	}

	unlockPlayer := s.playerLocks.lock(game.PlayerID)
	defer unlockPlayer()

	now := s.now()
	profile, err := s.loadProfile(ctx, game.PlayerID, now)
	if err != nil {
		return LifelineResult{}, err
	}
	if profile.Lifelines[kind] <= 0 {
		return LifelineResult{}, domain.ErrNoLifelinesOwned
	}

	session, scratch, effect, ok := engine.ApplyLifeline(game.Session, game.Level.Level, game.bank(), game.Scratch, kind, s.rnd)
	if !ok {
		return LifelineResult{Remaining: profile.Lifelines[kind]}, nil
	}
	game.Session, game.Scratch = session, scratch
	next := profile.Clone()
	next.Lifelines[kind]--
	next, notes := s.achievements.EvaluateProfile(next, now)
	s.metrics.AchievementUnlocks.Add(float64(countUnlocks(notes)))

	res := LifelineResult{Applied: true, Effect: effect, Remaining: next.Lifelines[kind], Notifications: notes}
	s.metrics.LifelinesUsed.WithLabelValues(string(kind)).Inc()
	if err := s.games.SaveGame(ctx, game); err != nil {
		res.Notifications = append(res.Notifications, s.persistFailed("game", game.PlayerID, game.ID, err))
	}
	res.Notifications = append(res.Notifications, s.saveProfile(ctx, next, game.ID)...)
	return res, nil
}

// Abandon drops an unfinished game, e.g. when its connection goes away.
func (s *GameService) Abandon(ctx context.Context, gameID string) error {
	unlock := s.gameLocks.lock(gameID)
	defer unlock()
	return s.games.DeleteGame(ctx, gameID)
}

func (s *GameService) loadGame(ctx context.Context, gameID string) (Game, error) {
	game, err := s.games.GetGame(ctx, gameID)
	if err != nil {
		return Game{}, err
	}
	switch {
	case game.Kind == KindChallenge && game.Challenge == nil,
		game.Kind != KindChallenge && game.Level == nil:
		return Game{}, fmt.Errorf("game %s: %w", gameID, domain.ErrInvalidContent)
	}
	return game, nil
}

// loadProfile returns the stored profile, or a fresh one for new players, with
// hearts regenerated up to now.
func (s *GameService) loadProfile(ctx context.Context, playerID string, now time.Time) (domain.PlayerProfile, error) {
	profile, err := s.profiles.GetProfile(ctx, playerID)
	switch {
	case errors.Is(err, domain.ErrProfileNotFound):
		profile = domain.NewPlayerProfile(playerID, s.tuning, now)
	case err != nil:
		return domain.PlayerProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return progression.RegenerateHearts(profile, now, s.tuning.HeartRegenInterval), nil
}

func (s *GameService) saveProfile(ctx context.Context, profile domain.PlayerProfile, sessionID string) []domain.Notification {
	if err := s.profiles.SaveProfile(ctx, profile); err != nil {
		return []domain.Notification{s.persistFailed("profile", profile.PlayerID, sessionID, err)}
	}
	return nil
}

func (s *GameService) persistFailed(entity, playerID, sessionID string, err error) domain.Notification {
	s.metrics.PersistenceErrors.WithLabelValues(entity).Inc()
	s.log.Error("persist failed",
		zap.String("entity", entity),
		zap.String("player_id", playerID),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
	return domain.Notification{
		Message:  "Your progress could not be saved. It will be saved with your next change.",
		Severity: domain.SeverityWarning,
		Duration: 4 * time.Second,
	}
}

func countUnlocks(notes []domain.Notification) int {
	n := 0
	for _, note := range notes {
		if strings.HasPrefix(note.Message, "Achievement unlocked") {
			n++
		}
	}
	return n
}
