package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-hub/internal/app"
	"quiz-hub/internal/domain"
	"quiz-hub/internal/infra/memory"
	"quiz-hub/internal/metrics"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newServer(t *testing.T, feedbackDelay time.Duration) (*httptest.Server, *metrics.Metrics, *memory.GameStore) {
	t.Helper()
	loader, err := memory.NewStaticContentLoader(samplePack())
	if err != nil {
		t.Fatalf("loader: %v", err)
	}
	tuning := domain.DefaultTuning()
	tuning.QuestionTimeLimitSeconds = 1
	tuning.AnswerFeedbackDelay = feedbackDelay

	m := metrics.New(prometheus.NewRegistry())
	games := memory.NewGameStore()
	service := app.NewGameService(
		memory.NewContentRepository(loader, time.Minute),
		games,
		memory.NewProfileStore(),
		app.WithTuning(tuning),
		app.WithMetrics(m),
	)
	handler := NewWSHandler(service, nil, m)
	handler.TickInterval = 100 * time.Millisecond

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", handler.ServeWS)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, m, games
}

func dial(t *testing.T, server *httptest.Server, playerID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?playerId=" + playerID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readUntil skips messages until one of type expect arrives and returns the
// skipped types alongside it.
func readUntil(t *testing.T, conn *websocket.Conn, expect string, out any) []string {
	t.Helper()
	var skipped []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read waiting for %s (skipped %v): %v", expect, skipped, err)
		}
		if msg.Type == "error" && expect != "error" {
			t.Fatalf("unexpected error message: %s", msg.Payload)
		}
		if msg.Type != expect {
			skipped = append(skipped, msg.Type)
			continue
		}
		if out != nil {
			if err := json.Unmarshal(msg.Payload, out); err != nil {
				t.Fatalf("decode %s: %v", expect, err)
			}
		}
		return skipped
	}
}

func TestWebSocketLevelFlow(t *testing.T) {
	server, m, _ := newServer(t, 0)
	conn := dial(t, server, "p1")

	readUntil(t, conn, "profile", nil)
	if got := testutil.ToFloat64(m.ActiveConnections); got != 1 {
		t.Fatalf("active connections = %v, want 1", got)
	}

	send(t, conn, "startLevel", map[string]string{"levelId": "bar-1"})
	for i := 0; i < 3; i++ {
		var q app.QuestionView
		readUntil(t, conn, "question", &q)
		if q.Index != i || q.Total != 3 {
			t.Fatalf("question %d: got index %d of %d", i, q.Index, q.Total)
		}
		if len(q.Options) != 3 {
			t.Fatalf("options leaked or missing: %+v", q.Options)
		}
		send(t, conn, "answer", map[string]string{"questionId": q.QuestionID, "optionId": "a"})

		var res answerResult
		readUntil(t, conn, "answerResult", &res)
		if !res.Correct || res.QuestionID != q.QuestionID {
			t.Fatalf("unexpected answer result: %+v", res)
		}
	}

	var outcome outcomePayload
	readUntil(t, conn, "outcome", &outcome)
	if outcome.Summary.Result != domain.StatusPassed {
		t.Fatalf("expected passed outcome, got %+v", outcome.Summary)
	}
	if !outcome.Progress.Completed("bar-1") {
		t.Fatalf("expected bar-1 completed in progress")
	}
	if outcome.Profile == nil || outcome.Profile.Stats.Wins != 1 {
		t.Fatalf("expected profile with one win, got %+v", outcome.Profile)
	}

	// the game is over so answers are rejected
	send(t, conn, "answer", map[string]string{"questionId": "q1", "optionId": "a"})
	var errMsg errorPayload
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "no_game" {
		t.Fatalf("error code = %q, want no_game", errMsg.Code)
	}
}

func TestWebSocketExpiryAdvancesOnce(t *testing.T) {
	server, _, _ := newServer(t, 0)
	conn := dial(t, server, "p1")
	readUntil(t, conn, "profile", nil)

	send(t, conn, "startLevel", map[string]string{"levelId": "bar-1"})
	var first app.QuestionView
	readUntil(t, conn, "question", &first)

	var tick tickPayload
	readUntil(t, conn, "tick", &tick)
	if tick.QuestionID != first.QuestionID || tick.RemainingMs <= 0 {
		t.Fatalf("unexpected tick: %+v", tick)
	}

	var res answerResult
	readUntil(t, conn, "answerResult", &res)
	if !res.Expired || res.Correct || res.QuestionID != first.QuestionID {
		t.Fatalf("expected expiry of %s, got %+v", first.QuestionID, res)
	}
	if res.LivesRemaining != 2 {
		t.Fatalf("lives remaining = %d, want 2", res.LivesRemaining)
	}

	var second app.QuestionView
	skipped := readUntil(t, conn, "question", &second)
	for _, typ := range skipped {
		if typ == "answerResult" {
			t.Fatalf("question expired more than once: %v", skipped)
		}
	}
	if second.Index != 1 {
		t.Fatalf("expected second question, got index %d", second.Index)
	}
}

func TestWebSocketRejectsLockedLevel(t *testing.T) {
	server, _, _ := newServer(t, 0)
	conn := dial(t, server, "p1")
	readUntil(t, conn, "profile", nil)

	send(t, conn, "startLevel", map[string]string{"levelId": "bar-2"})
	var errMsg errorPayload
	readUntil(t, conn, "error", &errMsg)
	if errMsg.Code != "level_locked" {
		t.Fatalf("error code = %q, want level_locked", errMsg.Code)
	}
}

func TestWebSocketDisconnectAbandonsGame(t *testing.T) {
	server, m, games := newServer(t, 0)
	conn := dial(t, server, "p1")
	readUntil(t, conn, "profile", nil)

	send(t, conn, "startLevel", map[string]string{"levelId": "bar-1"})
	readUntil(t, conn, "question", nil)
	if games.Len() != 1 {
		t.Fatalf("expected one active game, got %d", games.Len())
	}

	conn.Close()
	deadline := time.Now().Add(5 * time.Second)
	for games.Len() != 0 || testutil.ToFloat64(m.ActiveConnections) != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("game not abandoned: games=%d connections=%v", games.Len(), testutil.ToFloat64(m.ActiveConnections))
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestWebSocketRequiresPlayer(t *testing.T) {
	server, _, _ := newServer(t, 0)
	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func samplePack() domain.ContentPack {
	var questions []domain.Question
	for i := 1; i <= 6; i++ {
		questions = append(questions, domain.Question{
			ID:     fmt.Sprintf("q%d", i),
			Prompt: fmt.Sprintf("Question %d", i),
			Options: []domain.Option{
				{ID: "a", Text: "A"}, {ID: "b", Text: "B"}, {ID: "c", Text: "C"},
			},
			CorrectOptionID: "a",
		})
	}
	level := func(id string, n int, qids ...string) domain.LevelConfig {
		return domain.LevelConfig{
			ID:                       id,
			VenueID:                  "bar",
			LevelNumber:              n,
			QuestionIDs:              qids,
			MinCorrectToPass:         2,
			BasePointsPerCorrect:     100,
			MaxSpeedBonusPerQuestion: 50,
		}
	}
	return domain.ContentPack{
		Questions: questions,
		Venues:    []domain.Venue{{ID: "bar", Name: "Corner Bar", LevelIDs: []string{"bar-1", "bar-2"}}},
		Levels: []domain.LevelConfig{
			level("bar-1", 1, "q1", "q2", "q3"),
			level("bar-2", 2, "q4", "q5", "q6"),
		},
	}
}

func TestWebSocketHoldsNextQuestionDuringFeedback(t *testing.T) {
	const delay = 300 * time.Millisecond
	server, _, _ := newServer(t, delay)
	conn := dial(t, server, "p1")
	readUntil(t, conn, "profile", nil)

	send(t, conn, "startLevel", map[string]string{"levelId": "bar-1"})
	var first app.QuestionView
	readUntil(t, conn, "question", &first)
	send(t, conn, "answer", map[string]string{"questionId": first.QuestionID, "optionId": "a"})
	readUntil(t, conn, "answerResult", nil)
	answered := time.Now()

	var second app.QuestionView
	skipped := readUntil(t, conn, "question", &second)
	if waited := time.Since(answered); waited < delay-50*time.Millisecond {
		t.Fatalf("next question sent after %v, want at least %v", waited, delay)
	}
	for _, typ := range skipped {
		if typ == "tick" {
			t.Fatalf("countdown ran while the question was held: %v", skipped)
		}
	}
	if second.Index != 1 {
		t.Fatalf("expected second question, got index %d", second.Index)
	}

	send(t, conn, "answer", map[string]string{"questionId": second.QuestionID, "optionId": "a"})
	var res answerResult
	readUntil(t, conn, "answerResult", &res)
	if res.QuestionID != second.QuestionID || !res.Correct {
		t.Fatalf("expected %s accepted once shown, got %+v", second.QuestionID, res)
	}
}
