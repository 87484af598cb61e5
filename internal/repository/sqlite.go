package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/YinChingZ/LawAI/internal/domain"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
			conversation_id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			user_id TEXT,
			guest_id TEXT,
			time TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_conversations_user_title ON conversations(user_id, title)`,
		`CREATE TABLE IF NOT EXISTS messages (
			conversation_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			ts INTEGER NOT NULL,
			PRIMARY KEY (conversation_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_role_ts ON messages(role, ts)`,
		`CREATE TABLE IF NOT EXISTS usage_logs (
			log_id TEXT PRIMARY KEY,
			user_id TEXT,
			is_guest INTEGER NOT NULL DEFAULT 0,
			ts INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_usage_logs_ts ON usage_logs(ts)`,
		`CREATE TABLE IF NOT EXISTS accounts (
			account_id TEXT PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			name TEXT,
			password_hash TEXT NOT NULL,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_accounts_name ON accounts(name)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation inserts a conversation together with its messages.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (conversation_id, title, user_id, guest_id, time, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, conv.Title, nullString(conv.UserID), nullString(conv.GuestID), conv.Time, time.Now().UnixMilli()); err != nil {
		return err
	}
	if err := insertMessages(ctx, tx, conv.ID, conv.Messages); err != nil {
		return err
	}
	return tx.Commit()
}

// GetConversation retrieves a conversation by ID.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var userID, guestID sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT conversation_id, title, user_id, guest_id, time FROM conversations WHERE conversation_id = ?`,
		id).Scan(&conv.ID, &conv.Title, &userID, &guestID, &conv.Time)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv.UserID = userID.String
	conv.GuestID = guestID.String

	conv.Messages, err = s.getMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindPendingConversation finds the owner's two-message conversation with the given title.
func (s *SQLiteStore) FindPendingConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT c.conversation_id FROM conversations c
		 WHERE c.user_id = ? AND c.title = ?
		   AND (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.conversation_id) = 2
		 ORDER BY c.created_at DESC LIMIT 1`,
		userID, title).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetConversation(ctx, id)
}

// ListConversations lists a user's conversations, most recent first.
func (s *SQLiteStore) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT conversation_id, title, user_id, guest_id, time FROM conversations WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var uid, gid sql.NullString
		if err := rows.Scan(&conv.ID, &conv.Title, &uid, &gid, &conv.Time); err != nil {
			rows.Close()
			return nil, err
		}
		conv.UserID = uid.String
		conv.GuestID = gid.String
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range convs {
		convs[i].Messages, err = s.getMessages(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// SaveConversation replaces the stored messages and display time of a conversation.
func (s *SQLiteStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET title = ?, time = ? WHERE conversation_id = ?`,
		conv.Title, conv.Time, conv.ID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrConversationNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, conv.ID); err != nil {
		return err
	}
	if err := insertMessages(ctx, tx, conv.ID, conv.Messages); err != nil {
		return err
	}
	return tx.Commit()
}

// DeleteConversation removes a conversation and its messages.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// CountUserMessages counts user messages in [from, until).
func (s *SQLiteStore) CountUserMessages(ctx context.Context, from, until time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE role = ? AND ts >= ?`
	args := []interface{}{string(domain.RoleUser), from.UnixMilli()}
	if !until.IsZero() {
		query += ` AND ts < ?`
		args = append(args, until.UnixMilli())
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateUsageLog appends a usage log entry.
func (s *SQLiteStore) CreateUsageLog(ctx context.Context, entry *domain.UsageLogEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO usage_logs (log_id, user_id, is_guest, ts) VALUES (?, ?, ?, ?)`,
		entry.ID, nullString(entry.ActorID), entry.IsGuest, entry.Timestamp.UnixMilli())
	return err
}

// CountUsageLogsSince counts usage log entries at or after since.
func (s *SQLiteStore) CountUsageLogsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM usage_logs WHERE ts >= ?`, since.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

// FirstUsageLogTime returns the earliest usage log timestamp.
func (s *SQLiteStore) FirstUsageLogTime(ctx context.Context) (time.Time, bool, error) {
	var ts sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(ts) FROM usage_logs`).Scan(&ts); err != nil {
		return time.Time{}, false, err
	}
	if !ts.Valid {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ts.Int64), true, nil
}

// CreateAccount registers a new account.
func (s *SQLiteStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (account_id, username, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		account.ID, account.Username, account.Name, account.PasswordHash, account.CreatedAt.UnixMilli())
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return domain.ErrAccountExists
	}
	return err
}

// GetAccount retrieves an account by username or display name.
func (s *SQLiteStore) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	var account domain.Account
	var displayName sql.NullString
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT account_id, username, name, password_hash, created_at FROM accounts
		 WHERE username = ? OR name = ? ORDER BY username = ? DESC LIMIT 1`,
		name, name, name).Scan(&account.ID, &account.Username, &displayName, &account.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account.Name = displayName.String
	account.CreatedAt = time.UnixMilli(createdAt)
	return &account, nil
}

func (s *SQLiteStore) getMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, content, ts FROM messages WHERE conversation_id = ? ORDER BY seq ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var ts int64
		if err := rows.Scan(&msg.Role, &msg.Content, &ts); err != nil {
			return nil, err
		}
		msg.Timestamp = time.UnixMilli(ts)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func insertMessages(ctx context.Context, tx *sql.Tx, conversationID string, messages []domain.Message) error {
	for i, msg := range messages {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, seq, role, content, ts) VALUES (?, ?, ?, ?, ?)`,
			conversationID, i, string(msg.Role), msg.Content, msg.Timestamp.UnixMilli()); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
