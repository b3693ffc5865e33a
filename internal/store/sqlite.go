// Package store provides SQLite persistence for profiles, conversations
// and mood logs.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/spillmate/support-platform/internal/model"
)

// SQLiteStore wraps the relational store. Conversations keep their
// messages serialized as a JSON text column alongside the row.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens the database and ensures the schema exists.
func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err = s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS profiles (
        id TEXT PRIMARY KEY,
        email TEXT NOT NULL,
        role TEXT NOT NULL DEFAULT 'free_user'
            CHECK (role IN ('free_user', 'premium_user', 'admin')),
        display_name TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS conversations (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        title TEXT NOT NULL,
        messages TEXT NOT NULL DEFAULT '[]',
        mood_before INTEGER,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES profiles (id)
    );

    CREATE TABLE IF NOT EXISTS mood_logs (
        id TEXT PRIMARY KEY,
        user_id TEXT NOT NULL,
        mood_rating INTEGER NOT NULL CHECK (mood_rating BETWEEN 1 AND 8),
        notes TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
        FOREIGN KEY (user_id) REFERENCES profiles (id)
    );

    CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations (user_id, created_at);
    CREATE INDEX IF NOT EXISTS idx_mood_logs_user ON mood_logs (user_id, created_at);
    `
	_, err := s.db.Exec(schema)
	return err
}

// Profile methods

// GetProfile returns a profile by user id, or nil when absent.
func (s *SQLiteStore) GetProfile(userID string) (*model.Profile, error) {
	var p model.Profile
	var displayName sql.NullString
	err := s.db.QueryRow(
		"SELECT id, email, role, display_name, created_at, updated_at FROM profiles WHERE id = ?",
		userID,
	).Scan(&p.ID, &p.Email, &p.Role, &displayName, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if displayName.Valid {
		p.DisplayName = displayName.String
	}
	return &p, nil
}

// CreateProfile inserts a new profile row.
func (s *SQLiteStore) CreateProfile(id, email string, role model.ProfileRole, displayName string) (*model.Profile, error) {
	now := time.Now()
	_, err := s.db.Exec(
		"INSERT INTO profiles (id, email, role, display_name, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, email, role, nullable(displayName), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return s.GetProfile(id)
}

// UpdateProfileRole changes a user's subscription role.
func (s *SQLiteStore) UpdateProfileRole(userID string, role model.ProfileRole) error {
	res, err := s.db.Exec(
		"UPDATE profiles SET role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		role, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile role: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("profile %s not found", userID)
	}
	return nil
}

// Conversation methods

// CreateConversation inserts an empty conversation row.
func (s *SQLiteStore) CreateConversation(userID, title string, moodBefore *int) (*model.Conversation, error) {
	conv := &model.Conversation{
		ID:         uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Messages:   []model.Message{},
		MoodBefore: moodBefore,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	stmt, err := s.db.Prepare(
		"INSERT INTO conversations (id, user_id, title, messages, mood_before, created_at, updated_at) VALUES (?, ?, ?, '[]', ?, ?, ?)",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare conversation insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.Exec(conv.ID, userID, title, moodBefore, conv.CreatedAt, conv.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to execute conversation insert: %w", err)
	}
	return conv, nil
}

// GetConversation returns one conversation owned by the user, or nil
// when absent.
func (s *SQLiteStore) GetConversation(conversationID, userID string) (*model.Conversation, error) {
	row := s.db.QueryRow(
		"SELECT id, user_id, title, messages, mood_before, created_at, updated_at FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID,
	)
	conv, err := scanConversation(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}
	return conv, nil
}

// ListConversations returns a user's conversations, newest first, with
// messages parsed from the stored JSON text.
func (s *SQLiteStore) ListConversations(userID string) ([]model.Conversation, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, title, messages, mood_before, created_at, updated_at FROM conversations WHERE user_id = ? ORDER BY created_at DESC",
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation row: %w", err)
		}
		conversations = append(conversations, *conv)
	}
	return conversations, rows.Err()
}

// UpdateConversationMessages replaces the serialized message list.
func (s *SQLiteStore) UpdateConversationMessages(conversationID string, messages []model.Message) error {
	data, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE conversations SET messages = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		string(data), conversationID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation messages: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	return nil
}

// UpdateConversationTitle sets a generated title on a conversation.
func (s *SQLiteStore) UpdateConversationTitle(conversationID, userID, title string) error {
	res, err := s.db.Exec(
		"UPDATE conversations SET title = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ?",
		title, conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update conversation title: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation not found or not owned by user, title not updated")
	}
	return nil
}

// DeleteConversation removes a conversation owned by the user.
func (s *SQLiteStore) DeleteConversation(conversationID, userID string) error {
	res, err := s.db.Exec(
		"DELETE FROM conversations WHERE id = ? AND user_id = ?",
		conversationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return fmt.Errorf("conversation %s not found", conversationID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var conv model.Conversation
	var messagesJSON string
	var moodBefore sql.NullInt64
	if err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &messagesJSON, &moodBefore, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
		return nil, err
	}
	if moodBefore.Valid {
		v := int(moodBefore.Int64)
		conv.MoodBefore = &v
	}
	conv.Messages = []model.Message{}
	if messagesJSON != "" {
		if err := json.Unmarshal([]byte(messagesJSON), &conv.Messages); err != nil {
			return nil, fmt.Errorf("failed to parse stored messages for conversation %s: %w", conv.ID, err)
		}
	}
	return &conv, nil
}

// Mood methods

// LogMood appends a mood entry. Entries are append-only; no update or
// delete path exists.
func (s *SQLiteStore) LogMood(userID string, rating int, notes string) (*model.MoodEntry, error) {
	if err := model.ValidateMoodRating(rating); err != nil {
		return nil, err
	}

	entry := &model.MoodEntry{
		ID:         uuid.NewString(),
		UserID:     userID,
		MoodRating: rating,
		Notes:      notes,
		CreatedAt:  time.Now(),
	}
	_, err := s.db.Exec(
		"INSERT INTO mood_logs (id, user_id, mood_rating, notes, created_at) VALUES (?, ?, ?, ?, ?)",
		entry.ID, userID, rating, nullable(notes), entry.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert mood entry: %w", err)
	}
	return entry, nil
}

// GetMoodEntries returns the user's most recent entries, newest first.
func (s *SQLiteStore) GetMoodEntries(userID string, limit int) ([]model.MoodEntry, error) {
	rows, err := s.db.Query(
		"SELECT id, user_id, mood_rating, notes, created_at FROM mood_logs WHERE user_id = ? ORDER BY created_at DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()

	var entries []model.MoodEntry
	for rows.Next() {
		var e model.MoodEntry
		var notes sql.NullString
		if err := rows.Scan(&e.ID, &e.UserID, &e.MoodRating, &notes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan mood row: %w", err)
		}
		if notes.Valid {
			e.Notes = notes.String
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Admin aggregates

// Stats computes the platform-wide counters for the admin dashboard.
func (s *SQLiteStore) Stats() (totalUsers, totalConversations int, averageMood float64, err error) {
	if err = s.db.QueryRow("SELECT COUNT(*) FROM profiles").Scan(&totalUsers); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	if err = s.db.QueryRow("SELECT COUNT(*) FROM conversations").Scan(&totalConversations); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	var avg sql.NullFloat64
	if err = s.db.QueryRow("SELECT AVG(mood_rating) FROM mood_logs").Scan(&avg); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to average mood: %w", err)
	}
	if avg.Valid {
		averageMood = avg.Float64
	}
	return totalUsers, totalConversations, averageMood, nil
}

// ListUsersWithCounts returns every profile joined with its
// conversation count, newest profiles first.
func (s *SQLiteStore) ListUsersWithCounts() ([]model.AdminUser, error) {
	rows, err := s.db.Query(`
        SELECT p.id, p.email, p.role, p.display_name, p.created_at, p.updated_at, COUNT(c.id)
        FROM profiles p
        LEFT JOIN conversations c ON p.id = c.user_id
        GROUP BY p.id
        ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []model.AdminUser
	for rows.Next() {
		var u model.AdminUser
		var displayName sql.NullString
		if err := rows.Scan(&u.ID, &u.Email, &u.Role, &displayName, &u.CreatedAt, &u.UpdatedAt, &u.ConversationCount); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		if displayName.Valid {
			u.DisplayName = displayName.String
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
