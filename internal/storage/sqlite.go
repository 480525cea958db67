package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"innerlog/internal/domain"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("sqlite pragma %q: %w", p, err)
		}
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			content TEXT NOT NULL,
			mood_score INTEGER NOT NULL,
			mood_label TEXT NOT NULL,
			themes TEXT NOT NULL DEFAULT '[]',
			triggers TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_owner_created ON journal_entries(owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS mood_entries (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			mood_score INTEGER NOT NULL,
			mood_label TEXT NOT NULL,
			energy_level INTEGER NOT NULL,
			stress_level INTEGER NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mood_owner_created ON mood_entries(owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS habit_entries (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			habit_name TEXT NOT NULL,
			habit_value REAL NOT NULL,
			habit_unit TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_habit_owner_created ON habit_entries(owner_id, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS conversation_sessions (
			id TEXT PRIMARY KEY,
			owner_id INTEGER NOT NULL,
			conversation_type TEXT NOT NULL,
			theme TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			created_at TEXT NOT NULL,
			ended_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS conversation_turns (
			session_id TEXT NOT NULL REFERENCES conversation_sessions(id),
			sequence_no INTEGER NOT NULL,
			user_text TEXT NOT NULL,
			reply_text TEXT NOT NULL,
			source TEXT NOT NULL,
			conversation_type TEXT NOT NULL,
			theme TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			PRIMARY KEY (session_id, sequence_no)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJournalEntry(e domain.JournalEntry) error {
	themes, err := json.Marshal(e.Themes)
	if err != nil {
		return fmt.Errorf("marshal themes: %w", err)
	}
	triggers, err := json.Marshal(e.Triggers)
	if err != nil {
		return fmt.Errorf("marshal triggers: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO journal_entries (id, owner_id, content, mood_score, mood_label, themes, triggers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.Content, e.MoodScore, e.MoodLabel, string(themes), string(triggers), fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) JournalEntry(owner int64, id string) (domain.JournalEntry, error) {
	row := s.db.QueryRow(
		`SELECT id, owner_id, content, mood_score, mood_label, themes, triggers, created_at
		 FROM journal_entries WHERE owner_id = ? AND id = ?`,
		owner, id,
	)

	var e domain.JournalEntry
	var themes, triggers, created string
	err := row.Scan(&e.ID, &e.OwnerID, &e.Content, &e.MoodScore, &e.MoodLabel, &themes, &triggers, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.JournalEntry{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("query journal entry: %w", err)
	}
	if err := json.Unmarshal([]byte(themes), &e.Themes); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("unmarshal themes: %w", err)
	}
	if err := json.Unmarshal([]byte(triggers), &e.Triggers); err != nil {
		return domain.JournalEntry{}, fmt.Errorf("unmarshal triggers: %w", err)
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return domain.JournalEntry{}, err
	}
	return e, nil
}

func (s *SQLiteStore) JournalEntries(owner int64, skip, limit int) ([]domain.JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, content, mood_score, mood_label, themes, triggers, created_at
		 FROM journal_entries WHERE owner_id = ?
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		owner, normLimit(limit), maxInt(skip, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("query journal entries: %w", err)
	}
	defer rows.Close()

	var out []domain.JournalEntry
	for rows.Next() {
		var e domain.JournalEntry
		var themes, triggers, created string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.Content, &e.MoodScore, &e.MoodLabel, &themes, &triggers, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		if err := json.Unmarshal([]byte(themes), &e.Themes); err != nil {
			return nil, fmt.Errorf("unmarshal themes: %w", err)
		}
		if err := json.Unmarshal([]byte(triggers), &e.Triggers); err != nil {
			return nil, fmt.Errorf("unmarshal triggers: %w", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteJournalEntry(owner int64, id string) error {
	res, err := s.db.Exec(`DELETE FROM journal_entries WHERE owner_id = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journal entry: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) CreateMoodEntry(e domain.MoodEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO mood_entries (id, owner_id, mood_score, mood_label, energy_level, stress_level, notes, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.MoodScore, e.MoodLabel, e.EnergyLevel, e.StressLevel, e.Notes, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert mood entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MoodEntries(owner int64, skip, limit int) ([]domain.MoodEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, mood_score, mood_label, energy_level, stress_level, notes, created_at
		 FROM mood_entries WHERE owner_id = ?
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		owner, normLimit(limit), maxInt(skip, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("query mood entries: %w", err)
	}
	defer rows.Close()

	var out []domain.MoodEntry
	for rows.Next() {
		var e domain.MoodEntry
		var created string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.MoodScore, &e.MoodLabel, &e.EnergyLevel, &e.StressLevel, &e.Notes, &created); err != nil {
			return nil, fmt.Errorf("scan mood entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) CreateHabitEntry(e domain.HabitEntry) error {
	_, err := s.db.Exec(
		`INSERT INTO habit_entries (id, owner_id, habit_name, habit_value, habit_unit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.OwnerID, e.HabitName, e.HabitValue, e.HabitUnit, fmtTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert habit entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HabitEntries(owner int64, skip, limit int) ([]domain.HabitEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, owner_id, habit_name, habit_value, habit_unit, created_at
		 FROM habit_entries WHERE owner_id = ?
		 ORDER BY created_at DESC, id LIMIT ? OFFSET ?`,
		owner, normLimit(limit), maxInt(skip, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("query habit entries: %w", err)
	}
	defer rows.Close()

	var out []domain.HabitEntry
	for rows.Next() {
		var e domain.HabitEntry
		var created string
		if err := rows.Scan(&e.ID, &e.OwnerID, &e.HabitName, &e.HabitValue, &e.HabitUnit, &created); err != nil {
			return nil, fmt.Errorf("scan habit entry: %w", err)
		}
		if e.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveSession(sess domain.ConversationSession) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_sessions (id, owner_id, conversation_type, theme, status, created_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, NULL)`,
		sess.ID, sess.OwnerID, string(sess.Type), sess.Theme, string(sess.Status), fmtTime(sess.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) UpdateSession(sess domain.ConversationSession) error {
	var endedAt any
	if sess.EndedAt != nil {
		endedAt = fmtTime(*sess.EndedAt)
	}
	_, err := s.db.Exec(
		`UPDATE conversation_sessions SET status = ?, ended_at = ? WHERE id = ?`,
		string(sess.Status), endedAt, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AppendTurn(t domain.ConversationTurn) error {
	_, err := s.db.Exec(
		`INSERT INTO conversation_turns (session_id, sequence_no, user_text, reply_text, source, conversation_type, theme, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.SequenceNo, t.UserText, t.ReplyText, string(t.Source), string(t.Type), t.Theme, fmtTime(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert turn: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Turns(owner int64, sessionID string, skip, limit int) ([]domain.ConversationTurn, error) {
	query := `SELECT t.session_id, t.sequence_no, t.user_text, t.reply_text, t.source, t.conversation_type, t.theme, t.created_at
		 FROM conversation_turns t
		 JOIN conversation_sessions s ON s.id = t.session_id
		 WHERE s.owner_id = ?`
	args := []any{owner}
	if sessionID != "" {
		query += ` AND t.session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY t.created_at DESC, t.sequence_no DESC LIMIT ? OFFSET ?`
	args = append(args, normLimit(limit), maxInt(skip, 0))

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query turns: %w", err)
	}
	defer rows.Close()

	var out []domain.ConversationTurn
	for rows.Next() {
		var t domain.ConversationTurn
		var source, ctype, created string
		if err := rows.Scan(&t.SessionID, &t.SequenceNo, &t.UserText, &t.ReplyText, &source, &ctype, &t.Theme, &created); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		t.Source = domain.TurnSource(source)
		t.Type = domain.ConversationType(ctype)
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// timeLayout is fixed-width: RFC3339Nano drops trailing zeros, so a
// whole-second timestamp would sort lexicographically after a fractional
// one in the same second and break ORDER BY created_at.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func fmtTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

// normLimit treats limit <= 0 as "no limit".
func normLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}

func maxInt(v, floor int) int {
	if v < floor {
		return floor
	}
	return v
}
