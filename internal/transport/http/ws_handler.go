package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"quiz-hub/internal/app"
	"quiz-hub/internal/challenge"
	"quiz-hub/internal/domain"
	"quiz-hub/internal/engine"
	"quiz-hub/internal/metrics"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.GameService
	log      *zap.Logger
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
	// TickInterval is the countdown resolution.
	TickInterval time.Duration
}

func NewWSHandler(service *app.GameService, logger *zap.Logger, m *metrics.Metrics) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     logger,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		TickInterval: time.Second,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startLevelPayload struct {
	LevelID string `json:"levelId"`
}

type startChallengePayload struct {
	ChallengeID string `json:"challengeId"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	OptionID   string `json:"optionId"`
}

type lifelinePayload struct {
	Kind domain.LifelineKind `json:"kind"`
}

type purchasePayload struct {
	ItemID string `json:"itemId"`
}

type streakRewardPayload struct {
	RewardID string `json:"rewardId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type tickPayload struct {
	QuestionID  string `json:"questionId"`
	RemainingMs int64  `json:"remainingMs"`
}

type answerResult struct {
	QuestionID      string               `json:"questionId"`
	Correct         bool                 `json:"correct"`
	Expired         bool                 `json:"expired"`
	CorrectOptionID string               `json:"correctOptionId,omitempty"`
	PointsAwarded   int                  `json:"pointsAwarded"`
	Score           int                  `json:"score"`
	LivesRemaining  int                  `json:"livesRemaining"`
	Status          domain.SessionStatus `json:"status"`
}

type outcomePayload struct {
	Summary  domain.RewardSummary  `json:"summary"`
	Progress domain.PlayerProgress `json:"progress"`
	Profile  *domain.PlayerProfile `json:"profile,omitempty"`
}

type challengeResultPayload struct {
	Result  challenge.Result      `json:"result"`
	Profile *domain.PlayerProfile `json:"profile,omitempty"`
}

// ServeWS upgrades HTTP requests to websockets and drives one player's games.
// The server owns the per-question countdown.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
		defer h.metrics.ActiveConnections.Dec()
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("ws write error", zap.String("player_id", playerID), zap.Error(err))
				return
			}
		}
	}()

	inbound := make(chan inboundMessage)
	readerDone := make(chan struct{})
	quit := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			var msg inboundMessage
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			select {
			case inbound <- msg:
			case <-quit:
				return
			}
		}
	}()

	s := &wsSession{
		h:          h,
		ctx:        r.Context(),
		playerID:   playerID,
		send:       send,
		writerDone: writerDone,
		timer:      app.NewQuestionTimer(h.TickInterval),
	}
	s.sendProfile()

loop:
	for {
		select {
		case msg := <-inbound:
			s.handle(msg)
		case ev := <-s.timer.C():
			s.onTimer(ev)
		case <-s.revealC:
			s.reveal()
		case <-readerDone:
			break loop
		case <-writerDone:
			break loop
		}
	}

	close(quit)
	s.abandon()
	close(send)
	<-writerDone
}

// wsSession is the per-connection event loop state. All methods run on the
// loop goroutine.
type wsSession struct {
	h          *WSHandler
	ctx        context.Context
	playerID   string
	send       chan outboundMessage[any]
	writerDone chan struct{}
	timer      *app.QuestionTimer

	gameID     string
	questionID string
	timerSeq   uint64

	// the next question, held back until the feedback delay has passed
	held        *app.QuestionView
	heldGame    app.Game
	revealTimer *time.Timer
	revealC     <-chan time.Time
}

func (s *wsSession) emit(typ string, payload any) {
	select {
	case s.send <- outboundMessage[any]{Type: typ, Payload: payload}:
	case <-s.writerDone:
	}
}

func (s *wsSession) fail(err error) {
	s.emit("error", errorPayload{Code: errorCode(err), Message: err.Error()})
}

func (s *wsSession) notify(notes []domain.Notification) {
	for _, n := range notes {
		s.emit("notification", n)
	}
}

func (s *wsSession) handle(msg inboundMessage) {
	switch msg.Type {
	case "startLevel":
		var p startLevelPayload
		if !s.decode(msg, &p) {
			return
		}
		res, err := s.h.service.StartLevel(s.ctx, s.playerID, p.LevelID)
		if err != nil {
			s.fail(err)
			return
		}
		s.begin(res)
	case "startChallenge":
		var p startChallengePayload
		if !s.decode(msg, &p) {
			return
		}
		res, err := s.h.service.StartChallenge(s.ctx, s.playerID, p.ChallengeID)
		if err != nil {
			s.fail(err)
			return
		}
		s.begin(res)
	case "answer", "challengeAnswer":
		var p answerPayload
		if !s.decode(msg, &p) || !s.requireGame() {
			return
		}
		res, err := s.h.service.Answer(s.ctx, s.gameID, engine.Submission{QuestionID: p.QuestionID, OptionID: p.OptionID})
		s.afterAnswer(res, err)
	case "lifeline":
		var p lifelinePayload
		if !s.decode(msg, &p) || !s.requireGame() {
			return
		}
		res, err := s.h.service.UseLifeline(s.ctx, s.gameID, p.Kind)
		if err != nil {
			s.fail(err)
			return
		}
		s.emit("lifeline", res)
		s.notify(res.Notifications)
	case "profile":
		s.sendProfile()
	case "purchase":
		var p purchasePayload
		if !s.decode(msg, &p) {
			return
		}
		change, err := s.h.service.Purchase(s.ctx, s.playerID, p.ItemID)
		s.afterProfileChange(change, err)
	case "claimStreakReward":
		var p streakRewardPayload
		if !s.decode(msg, &p) {
			return
		}
		change, err := s.h.service.ClaimStreakReward(s.ctx, s.playerID, p.RewardID)
		s.afterProfileChange(change, err)
	default:
		s.emit("error", errorPayload{Code: "unsupported", Message: "unsupported message type"})
	}
}

func (s *wsSession) decode(msg inboundMessage, out any) bool {
	if len(msg.Payload) == 0 {
		return true
	}
	if err := json.Unmarshal(msg.Payload, out); err != nil {
		s.emit("error", errorPayload{Code: "bad_payload", Message: "invalid " + msg.Type + " payload"})
		return false
	}
	return true
}

func (s *wsSession) requireGame() bool {
	if s.gameID == "" {
		s.emit("error", errorPayload{Code: "no_game", Message: "no active game"})
		return false
	}
	return true
}

func (s *wsSession) begin(res app.StartResult) {
	s.abandon()
	s.gameID = res.Game.ID
	s.notify(res.Notifications)
	s.present(res.Game, res.Question)
}

// present sends the question and starts its countdown once the game shows it.
func (s *wsSession) present(game app.Game, view app.QuestionView) {
	s.cancelReveal()
	if wait := time.Until(game.QuestionShownAt); wait > 0 {
		s.held, s.heldGame = &view, game
		s.revealTimer = time.NewTimer(wait)
		s.revealC = s.revealTimer.C
		return
	}
	s.emit("question", view)
	s.questionID = view.QuestionID
	s.timerSeq = s.timer.Start(game.TimeLimit(s.h.service.Tuning()))
}

func (s *wsSession) reveal() {
	view, game := s.held, s.heldGame
	s.cancelReveal()
	if view == nil || s.gameID == "" {
		return
	}
	s.present(game, *view)
}

func (s *wsSession) cancelReveal() {
	if s.revealTimer != nil {
		s.revealTimer.Stop()
	}
	s.held, s.heldGame = nil, app.Game{}
	s.revealTimer, s.revealC = nil, nil
}

func (s *wsSession) onTimer(ev app.TimerEvent) {
	if ev.Seq != s.timerSeq || s.gameID == "" {
		return
	}
	if !ev.Expired {
		s.emit("tick", tickPayload{QuestionID: s.questionID, RemainingMs: ev.Remaining.Milliseconds()})
		return
	}
	res, err := s.h.service.Expire(s.ctx, s.gameID, s.questionID)
	s.afterAnswer(res, err)
}

func (s *wsSession) afterAnswer(res app.AnswerResult, err error) {
	if res.Accepted {
		s.timer.Stop()
		s.timerSeq = 0
		var questionID string
		if n := len(res.Session.Answers); n > 0 {
			questionID = res.Session.Answers[n-1].QuestionID
		}
		s.emit("answerResult", answerResult{
			QuestionID:      questionID,
			Correct:         res.Correct,
			Expired:         res.Expired,
			CorrectOptionID: res.CorrectOptionID,
			PointsAwarded:   res.PointsAwarded,
			Score:           res.Session.Score,
			LivesRemaining:  res.Session.LivesRemaining,
			Status:          res.Session.Status,
		})
		s.notify(res.Notifications)
	}
	if err != nil {
		s.fail(err)
	}
	if !res.Accepted {
		return
	}

	switch {
	case res.Next != nil:
		s.present(res.Game, *res.Next)
	case res.Outcome != nil:
		s.emit("outcome", outcomePayload{Summary: res.Outcome.Summary, Progress: res.Outcome.Progress, Profile: res.Profile})
	case res.ChallengeResult != nil:
		s.emit("challengeResult", challengeResultPayload{Result: *res.ChallengeResult, Profile: res.Profile})
	}
	if res.Game.Finished() {
		s.gameID, s.questionID = "", ""
	}
}

func (s *wsSession) afterProfileChange(change app.ProfileChange, err error) {
	if err != nil {
		s.fail(err)
		return
	}
	s.emit("profile", change.Profile)
	s.notify(change.Notifications)
}

func (s *wsSession) sendProfile() {
	view, err := s.h.service.Player(s.ctx, s.playerID)
	if err != nil {
		s.fail(err)
		return
	}
	s.emit("profile", view)
	s.notify(view.Notifications)
}

// abandon drops the unfinished game, if any, when the player leaves it.
func (s *wsSession) abandon() {
	s.timer.Stop()
	s.timerSeq = 0
	s.cancelReveal()
	if s.gameID == "" {
		return
	}
	// the request context may already be cancelled on disconnect
	if err := s.h.service.Abandon(context.Background(), s.gameID); err != nil {
		s.h.log.Warn("abandon game failed", zap.String("player_id", s.playerID), zap.String("session_id", s.gameID), zap.Error(err))
	}
	s.gameID, s.questionID = "", ""
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoHearts):
		return "no_hearts"
	case errors.Is(err, domain.ErrLevelLocked):
		return "level_locked"
	case errors.Is(err, domain.ErrLevelNotFound),
		errors.Is(err, domain.ErrChallengeNotFound),
		errors.Is(err, domain.ErrVenueNotFound),
		errors.Is(err, domain.ErrGameNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrChallengeLocked):
		return "challenge_locked"
	case errors.Is(err, domain.ErrChallengeCompleted):
		return "challenge_completed"
	case errors.Is(err, domain.ErrInsufficientCoins):
		return "insufficient_coins"
	case errors.Is(err, domain.ErrHeartsFull):
		return "hearts_full"
	case errors.Is(err, domain.ErrUnknownLifeline),
		errors.Is(err, domain.ErrUnknownShopItem):
		return "unknown_item"
	case errors.Is(err, domain.ErrNoLifelinesOwned):
		return "no_lifelines"
	case errors.Is(err, domain.ErrStreakRewardClaimed):
		return "reward_claimed"
	case errors.Is(err, domain.ErrStreakRewardUnavailable):
		return "reward_unavailable"
	case errors.Is(err, domain.ErrInvalidLevel),
		errors.Is(err, domain.ErrInvalidContent):
		return "invalid_content"
	}
	return "internal"
}
