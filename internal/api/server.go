// Package api exposes the HTTP gateway. Every route sits behind bearer-token
// authentication and is scoped to the resolved owner.
package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"innerlog/internal/auth"
	"innerlog/internal/chat"
	"innerlog/internal/domain"
	"innerlog/internal/insights"
	"innerlog/internal/journal"
)

const ownerKey = "owner_id"

type App struct {
	journal *journal.Service
	engine  *chat.Engine
	auth    *auth.Service
}

func NewApp(journalSvc *journal.Service, engine *chat.Engine, authSvc *auth.Service) *App {
	return &App{journal: journalSvc, engine: engine, auth: authSvc}
}

func (a *App) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api", a.requireAuth)

	api.POST("/journal", a.createJournalEntry)
	api.GET("/journal", a.listJournalEntries)
	api.GET("/journal/:id", a.getJournalEntry)
	api.DELETE("/journal/:id", a.deleteJournalEntry)
	api.POST("/journal/analyze", a.analyzeText)
	api.GET("/journal/analysis/:id", a.getJournalAnalysis)
	api.GET("/journal/themes", a.recurringThemes)
	api.GET("/journal/weekly-summary", a.weeklySummary)

	api.POST("/conversation/start", a.startConversation)
	api.POST("/conversation/message", a.postMessage)
	api.POST("/conversation/end", a.endConversation)
	api.GET("/conversation/history", a.conversationHistory)
	api.GET("/conversation/active", a.activeSessions)
	api.GET("/conversation/suggestions", a.suggestions)
	api.GET("/conversation/types", a.conversationTypes)
	api.GET("/conversation/themes", a.conversationThemes)

	api.POST("/insights/mood", a.createMoodEntry)
	api.GET("/insights/mood", a.listMoodEntries)
	api.POST("/insights/habits", a.createHabitEntry)
	api.GET("/insights/habits", a.listHabitEntries)
	api.GET("/insights/stats", a.stats)
	api.GET("/insights/patterns", a.patterns)
	api.GET("/insights/mood-analysis", a.moodAnalysis)
	api.GET("/insights/habit-correlations", a.habitCorrelation)

	return r
}

func (a *App) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}
	user, ok := a.auth.Resolve(token)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown token"})
		return
	}
	c.Set(ownerKey, user.ID)
	c.Next()
}

func owner(c *gin.Context) int64 {
	return c.GetInt64(ownerKey)
}

// writeError maps domain errors onto HTTP statuses. Anything unrecognized is
// logged and reported as a 500 without leaking internals.
func writeError(c *gin.Context, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": ve.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrSessionEnded):
		c.JSON(http.StatusConflict, gin.H{"error": "session already ended"})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func pagination(c *gin.Context) (skip, limit int) {
	skip, _ = strconv.Atoi(c.DefaultQuery("skip", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return skip, limit
}

type contentRequest struct {
	Content string `json:"content"`
}

func (a *App) createJournalEntry(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := a.journal.CreateEntry(c.Request.Context(), owner(c), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (a *App) listJournalEntries(c *gin.Context) {
	skip, limit := pagination(c)
	entries, err := a.journal.Entries(owner(c), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "skip": skip, "limit": limit})
}

func (a *App) getJournalEntry(c *gin.Context) {
	entry, err := a.journal.Entry(owner(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (a *App) getJournalAnalysis(c *gin.Context) {
	res, err := a.journal.EntryAnalysis(c.Request.Context(), owner(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *App) deleteJournalEntry(c *gin.Context) {
	if err := a.journal.DeleteEntry(owner(c), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "entry deleted"})
}

func (a *App) analyzeText(c *gin.Context) {
	var req contentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	res, err := a.journal.AnalyzeText(c.Request.Context(), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *App) recurringThemes(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if limit <= 0 {
		limit = 5
	}
	themes, err := a.journal.RecurringThemes(owner(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if themes == nil {
		themes = []insights.TagCount{}
	}
	c.JSON(http.StatusOK, gin.H{"themes": themes})
}

func (a *App) weeklySummary(c *gin.Context) {
	summary, err := a.journal.WeeklySummary(owner(c), time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

type startConversationRequest struct {
	ConversationType string `json:"conversation_type"`
	Theme            string `json:"theme"`
}

func (a *App) startConversation(c *gin.Context) {
	var req startConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.ConversationType == "" {
		req.ConversationType = string(domain.ConversationGeneral)
	}
	sess, opening, err := a.engine.Start(owner(c), domain.ConversationType(req.ConversationType), req.Theme)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session_id":        sess.ID,
		"conversation_type": sess.Type,
		"theme":             sess.Theme,
		"status":            sess.Status,
		"message":           opening,
		"created_at":        sess.CreatedAt,
	})
}

// conversation_type and theme are accepted for contract compatibility; the
// session's own state is authoritative once started.
type postMessageRequest struct {
	SessionID        string `json:"session_id"`
	Message          string `json:"message"`
	ConversationType string `json:"conversation_type"`
	Theme            string `json:"theme"`
}

func (a *App) postMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	turn, err := a.engine.PostMessage(c.Request.Context(), owner(c), req.SessionID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, turn)
}

type endConversationRequest struct {
	SessionID string `json:"session_id"`
}

func (a *App) endConversation(c *gin.Context) {
	var req endConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := a.engine.End(owner(c), req.SessionID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "conversation ended"})
}

func (a *App) conversationHistory(c *gin.Context) {
	skip, limit := pagination(c)
	turns, err := a.journal.Turns(owner(c), c.Query("session_id"), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if turns == nil {
		turns = []domain.ConversationTurn{}
	}
	c.JSON(http.StatusOK, gin.H{"history": turns, "skip": skip, "limit": limit})
}

func (a *App) activeSessions(c *gin.Context) {
	sessions := a.engine.ActiveSessions(owner(c))
	if sessions == nil {
		sessions = []domain.ConversationSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (a *App) suggestions(c *gin.Context) {
	topics, err := a.journal.SuggestTopics(owner(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"suggestions": topics})
}

func (a *App) conversationTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"types": chat.ConversationTypes()})
}

func (a *App) conversationThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"themes": chat.ConversationThemes()})
}

type moodEntryRequest struct {
	MoodScore   int    `json:"mood_score"`
	MoodLabel   string `json:"mood_label"`
	EnergyLevel int    `json:"energy_level"`
	StressLevel int    `json:"stress_level"`
	Notes       string `json:"notes"`
}

func (a *App) createMoodEntry(c *gin.Context) {
	var req moodEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := a.journal.CreateMoodEntry(owner(c), req.MoodScore, req.MoodLabel, req.EnergyLevel, req.StressLevel, req.Notes)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (a *App) listMoodEntries(c *gin.Context) {
	skip, limit := pagination(c)
	entries, err := a.journal.MoodEntries(owner(c), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.MoodEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "skip": skip, "limit": limit})
}

type habitEntryRequest struct {
	HabitName  string  `json:"habit_name"`
	HabitValue float64 `json:"habit_value"`
	HabitUnit  string  `json:"habit_unit"`
}

func (a *App) createHabitEntry(c *gin.Context) {
	var req habitEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := a.journal.CreateHabitEntry(owner(c), req.HabitName, req.HabitValue, req.HabitUnit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (a *App) listHabitEntries(c *gin.Context) {
	skip, limit := pagination(c)
	entries, err := a.journal.HabitEntries(owner(c), skip, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	if entries == nil {
		entries = []domain.HabitEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "skip": skip, "limit": limit})
}

func (a *App) stats(c *gin.Context) {
	stats, err := a.journal.Stats(owner(c), time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (a *App) patterns(c *gin.Context) {
	p, err := a.journal.Patterns(owner(c), time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": p, "total_journal_entries": p.TotalEntries})
}

func (a *App) moodAnalysis(c *gin.Context) {
	period := insights.Period(c.DefaultQuery("period", "week"))
	trend, err := a.journal.MoodTrend(owner(c), period, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"period": period, "trend": trend})
}

func (a *App) habitCorrelation(c *gin.Context) {
	habit := c.Query("habit")
	corr, err := a.journal.HabitCorrelation(owner(c), habit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"habit": habit, "correlation": corr})
}
