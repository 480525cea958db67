package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"innerlog/internal/analysis"
	"innerlog/internal/auth"
	"innerlog/internal/chat"
	"innerlog/internal/journal"
	"innerlog/internal/storage"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	authSvc, err := auth.NewWithRepo(nil, []string{"tok1=1", "tok2=2"})
	if err != nil {
		t.Fatalf("auth.NewWithRepo: %v", err)
	}

	analyzer := analysis.NewRuleBased(analysis.DefaultLexicon())
	journalSvc := journal.NewService(store, analyzer)
	engine := chat.NewEngine(chat.NewRuleBased(), store, 10)

	return NewApp(journalSvc, engine, authSvc).Router()
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestAuthRequired(t *testing.T) {
	r := newTestRouter(t)

	if w := do(t, r, http.MethodGet, "/api/journal", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/journal", "bogus", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d, want 401", w.Code)
	}
	if w := do(t, r, http.MethodGet, "/api/journal", "tok1", nil); w.Code != http.StatusOK {
		t.Fatalf("valid token: got %d, want 200", w.Code)
	}
}

func TestJournalCreateListDelete(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/journal", "tok1", map[string]string{
		"content": "I had a wonderful day with my family, feeling great!",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", w.Code, w.Body.String())
	}
	created := decode(t, w)
	id, _ := created["id"].(string)
	if id == "" {
		t.Fatalf("no id in response: %v", created)
	}
	if created["mood_score"].(float64) < 7 {
		t.Fatalf("expected high mood score: %v", created)
	}

	w = do(t, r, http.MethodGet, "/api/journal", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list: got %d", w.Code)
	}
	entries := decode(t, w)["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	// The other user must not see or delete it.
	w = do(t, r, http.MethodGet, "/api/journal", "tok2", nil)
	if got := decode(t, w)["entries"].([]any); len(got) != 0 {
		t.Fatalf("owner isolation leaked %d entries", len(got))
	}
	if w = do(t, r, http.MethodDelete, "/api/journal/"+id, "tok2", nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign delete: got %d, want 404", w.Code)
	}
	if w = do(t, r, http.MethodDelete, "/api/journal/"+id, "tok1", nil); w.Code != http.StatusOK {
		t.Fatalf("delete: got %d", w.Code)
	}
}

func TestJournalGetByIDAndAnalysis(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/journal", "tok1", map[string]string{
		"content": "stressed about a deadline at work",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d: %s", w.Code, w.Body.String())
	}
	id := decode(t, w)["id"].(string)

	w = do(t, r, http.MethodGet, "/api/journal/"+id, "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: got %d: %s", w.Code, w.Body.String())
	}
	if got := decode(t, w)["content"].(string); got != "stressed about a deadline at work" {
		t.Fatalf("unexpected content: %q", got)
	}
	if w = do(t, r, http.MethodGet, "/api/journal/"+id, "tok2", nil); w.Code != http.StatusNotFound {
		t.Fatalf("foreign get: got %d, want 404", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/journal/analysis/"+id, "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("analysis: got %d: %s", w.Code, w.Body.String())
	}
	res := decode(t, w)
	if _, ok := res["mood_score"]; !ok {
		t.Fatalf("missing mood_score: %v", res)
	}
	if w = do(t, r, http.MethodGet, "/api/journal/analysis/nope", "tok1", nil); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id analysis: got %d, want 404", w.Code)
	}

	// Static journal routes still resolve alongside the id parameter.
	if w = do(t, r, http.MethodGet, "/api/journal/themes", "tok1", nil); w.Code != http.StatusOK {
		t.Fatalf("themes: got %d", w.Code)
	}
	if w = do(t, r, http.MethodGet, "/api/journal/weekly-summary", "tok1", nil); w.Code != http.StatusOK {
		t.Fatalf("weekly-summary: got %d", w.Code)
	}
}

func TestInsightsPatterns(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/insights/patterns", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("patterns empty: got %d", w.Code)
	}
	empty := decode(t, w)["patterns"].(map[string]any)
	if msg, _ := empty["message"].(string); msg == "" {
		t.Fatalf("expected a message with no data: %v", empty)
	}

	w = do(t, r, http.MethodPost, "/api/journal", "tok1", map[string]string{
		"content": "stressed about a deadline at work",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: got %d", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/insights/patterns", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("patterns: got %d", w.Code)
	}
	body := decode(t, w)
	p := body["patterns"].(map[string]any)
	if p["total_entries"].(float64) != 1 {
		t.Fatalf("unexpected pattern analysis: %v", p)
	}
	if themes := p["recurring_themes"].([]any); len(themes) == 0 {
		t.Fatalf("expected recurring themes: %v", p)
	}
}

func TestJournalEmptyContentRejected(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/journal", "tok1", map[string]string{"content": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}

func TestAnalyzeTextDoesNotPersist(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/journal/analyze", "tok1", map[string]string{
		"content": "feeling anxious about a deadline at work",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("analyze: got %d: %s", w.Code, w.Body.String())
	}
	res := decode(t, w)
	if _, ok := res["mood_score"]; !ok {
		t.Fatalf("missing mood_score: %v", res)
	}

	w = do(t, r, http.MethodGet, "/api/journal", "tok1", nil)
	if entries := decode(t, w)["entries"].([]any); len(entries) != 0 {
		t.Fatalf("analyze persisted an entry: %d", len(entries))
	}
}

func TestConversationFlow(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/conversation/start", "tok1", map[string]string{
		"conversation_type": "cbt",
		"theme":             "work stress",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("start: got %d: %s", w.Code, w.Body.String())
	}
	started := decode(t, w)
	sessionID, _ := started["session_id"].(string)
	if sessionID == "" {
		t.Fatalf("no session_id: %v", started)
	}
	if msg, _ := started["message"].(string); msg == "" {
		t.Fatal("empty opening message")
	}

	w = do(t, r, http.MethodPost, "/api/conversation/message", "tok1", map[string]string{
		"session_id": sessionID,
		"message":    "I feel overwhelmed",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("message: got %d: %s", w.Code, w.Body.String())
	}
	turn := decode(t, w)
	if reply, _ := turn["response"].(string); reply == "" {
		t.Fatalf("empty reply: %v", turn)
	}
	if turn["sequence_no"].(float64) != 1 {
		t.Fatalf("unexpected sequence: %v", turn["sequence_no"])
	}

	// The session shows up in the owner's active list and nobody else's.
	w = do(t, r, http.MethodGet, "/api/conversation/active", "tok1", nil)
	if sessions := decode(t, w)["sessions"].([]any); len(sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(sessions))
	}
	w = do(t, r, http.MethodGet, "/api/conversation/active", "tok2", nil)
	if sessions := decode(t, w)["sessions"].([]any); len(sessions) != 0 {
		t.Fatalf("active sessions leaked across owners: %d", len(sessions))
	}

	// History is persisted and owner scoped.
	w = do(t, r, http.MethodGet, "/api/conversation/history?session_id="+sessionID, "tok1", nil)
	if history := decode(t, w)["history"].([]any); len(history) != 1 {
		t.Fatalf("expected 1 turn in history, got %d", len(history))
	}
	w = do(t, r, http.MethodGet, "/api/conversation/history?session_id="+sessionID, "tok2", nil)
	if history := decode(t, w)["history"].([]any); len(history) != 0 {
		t.Fatalf("history leaked across owners: %d", len(history))
	}

	// Foreign end looks like an unknown session.
	w = do(t, r, http.MethodPost, "/api/conversation/end", "tok2", map[string]string{"session_id": sessionID})
	if w.Code != http.StatusNotFound {
		t.Fatalf("foreign end: got %d, want 404", w.Code)
	}
	w = do(t, r, http.MethodPost, "/api/conversation/end", "tok1", map[string]string{"session_id": sessionID})
	if w.Code != http.StatusOK {
		t.Fatalf("end: got %d", w.Code)
	}

	// Posting into an ended session conflicts.
	w = do(t, r, http.MethodPost, "/api/conversation/message", "tok1", map[string]string{
		"session_id": sessionID,
		"message":    "one more thing",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("post after end: got %d, want 409", w.Code)
	}
}

func TestStartConversationUnknownType(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/conversation/start", "tok1", map[string]string{
		"conversation_type": "hypnosis",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}

func TestCatalogsAndSuggestions(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/api/conversation/types", "tok1", nil)
	if types := decode(t, w)["types"].([]any); len(types) != 3 {
		t.Fatalf("expected 3 conversation types, got %d", len(types))
	}
	w = do(t, r, http.MethodGet, "/api/conversation/themes", "tok1", nil)
	if themes := decode(t, w)["themes"].([]any); len(themes) == 0 {
		t.Fatal("expected theme catalog")
	}
	w = do(t, r, http.MethodGet, "/api/conversation/suggestions", "tok1", nil)
	if sugg := decode(t, w)["suggestions"].([]any); len(sugg) == 0 {
		t.Fatal("expected default suggestions with no journal history")
	}
}

func TestInsightsEndpoints(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/insights/mood", "tok1", map[string]any{
		"mood_score": 7, "energy_level": 6, "stress_level": 3, "notes": "fine",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("mood create: got %d: %s", w.Code, w.Body.String())
	}
	w = do(t, r, http.MethodPost, "/api/insights/mood", "tok1", map[string]any{
		"mood_score": 0, "energy_level": 6, "stress_level": 3,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid mood: got %d, want 400", w.Code)
	}

	w = do(t, r, http.MethodPost, "/api/insights/habits", "tok1", map[string]any{
		"habit_name": "sleep", "habit_value": 7.5, "habit_unit": "hours",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("habit create: got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, r, http.MethodGet, "/api/insights/stats", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("stats: got %d", w.Code)
	}
	stats := decode(t, w)
	if stats["total_mood_entries"].(float64) != 1 || stats["total_habit_entries"].(float64) != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	w = do(t, r, http.MethodGet, "/api/insights/mood-analysis?period=week", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("mood-analysis: got %d", w.Code)
	}
	if trend, _ := decode(t, w)["trend"].(string); trend == "" {
		t.Fatal("missing trend")
	}
	w = do(t, r, http.MethodGet, "/api/insights/mood-analysis?period=year", "tok1", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad period: got %d, want 400", w.Code)
	}

	w = do(t, r, http.MethodGet, "/api/insights/habit-correlations?habit=sleep", "tok1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("habit-correlations: got %d", w.Code)
	}
	if corr, ok := decode(t, w)["correlation"]; !ok || corr != nil {
		t.Fatalf("single day should give null correlation, got %v", corr)
	}
}
