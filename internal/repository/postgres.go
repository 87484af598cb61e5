package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YinChingZ/LawAI/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// Ensure PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)

// NewPostgresStore connects to PostgreSQL and applies the embedded migrations.
func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	if err := runPostgresMigrations(connString); err != nil {
		return nil, err
	}

	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pool config: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute
	config.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

func runPostgresMigrations(connString string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(connString))
	if err != nil {
		return fmt.Errorf("failed to create migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// migrateURL rewrites a postgres URL to the scheme registered by the pgx/v5 migrate driver.
func migrateURL(connString string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(connString, prefix) {
			return "pgx5://" + strings.TrimPrefix(connString, prefix)
		}
	}
	return connString
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// CreateConversation inserts a conversation together with its messages.
func (s *PostgresStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO conversations (conversation_id, title, user_id, guest_id, time, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
			conv.ID, conv.Title, nullable(conv.UserID), nullable(conv.GuestID), conv.Time, time.Now()); err != nil {
			return err
		}
		return insertPgMessages(ctx, tx, conv.ID, conv.Messages)
	})
}

// GetConversation retrieves a conversation by ID.
func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	var userID, guestID *string
	err := s.pool.QueryRow(ctx,
		`SELECT conversation_id, title, user_id, guest_id, time FROM conversations WHERE conversation_id = $1`,
		id).Scan(&conv.ID, &conv.Title, &userID, &guestID, &conv.Time)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	conv.UserID = deref(userID)
	conv.GuestID = deref(guestID)

	conv.Messages, err = s.getMessages(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindPendingConversation finds the owner's two-message conversation with the given title.
func (s *PostgresStore) FindPendingConversation(ctx context.Context, userID, title string) (*domain.Conversation, error) {
	var id string
	err := s.pool.QueryRow(ctx,
		`SELECT c.conversation_id FROM conversations c
		 WHERE c.user_id = $1 AND c.title = $2
		   AND (SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.conversation_id) = 2
		 ORDER BY c.created_at DESC LIMIT 1`,
		userID, title).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s.GetConversation(ctx, id)
}

// ListConversations lists a user's conversations, most recent first.
func (s *PostgresStore) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT conversation_id, title, user_id, guest_id, time FROM conversations WHERE user_id = $1 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		var uid, gid *string
		if err := rows.Scan(&conv.ID, &conv.Title, &uid, &gid, &conv.Time); err != nil {
			return nil, err
		}
		conv.UserID = deref(uid)
		conv.GuestID = deref(gid)
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range convs {
		convs[i].Messages, err = s.getMessages(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// SaveConversation replaces the stored messages and display time of a conversation.
func (s *PostgresStore) SaveConversation(ctx context.Context, conv *domain.Conversation) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE conversations SET title = $1, time = $2 WHERE conversation_id = $3`,
			conv.Title, conv.Time, conv.ID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrConversationNotFound
		}
		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE conversation_id = $1`, conv.ID); err != nil {
			return err
		}
		return insertPgMessages(ctx, tx, conv.ID, conv.Messages)
	})
}

// DeleteConversation removes a conversation; messages cascade.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM conversations WHERE conversation_id = $1`, id)
	return err
}

// CountUserMessages counts user messages in [from, until).
func (s *PostgresStore) CountUserMessages(ctx context.Context, from, until time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM messages WHERE role = $1 AND ts >= $2`
	args := []any{string(domain.RoleUser), from}
	if !until.IsZero() {
		query += ` AND ts < $3`
		args = append(args, until)
	}

	var n int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CreateUsageLog appends a usage log entry.
func (s *PostgresStore) CreateUsageLog(ctx context.Context, entry *domain.UsageLogEntry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO usage_logs (log_id, user_id, is_guest, ts) VALUES ($1, $2, $3, $4)`,
		entry.ID, nullable(entry.ActorID), entry.IsGuest, entry.Timestamp)
	return err
}

// CountUsageLogsSince counts usage log entries at or after since.
func (s *PostgresStore) CountUsageLogsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM usage_logs WHERE ts >= $1`, since).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// FirstUsageLogTime returns the earliest usage log timestamp.
func (s *PostgresStore) FirstUsageLogTime(ctx context.Context) (time.Time, bool, error) {
	var ts *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT MIN(ts) FROM usage_logs`).Scan(&ts); err != nil {
		return time.Time{}, false, err
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return *ts, true, nil
}

// CreateAccount registers a new account.
func (s *PostgresStore) CreateAccount(ctx context.Context, account *domain.Account) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO accounts (account_id, username, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		account.ID, account.Username, account.Name, account.PasswordHash, account.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrAccountExists
	}
	return err
}

// GetAccount retrieves an account by username or display name.
func (s *PostgresStore) GetAccount(ctx context.Context, name string) (*domain.Account, error) {
	var account domain.Account
	var displayName *string
	err := s.pool.QueryRow(ctx,
		`SELECT account_id, username, name, password_hash, created_at FROM accounts
		 WHERE username = $1 OR name = $1 ORDER BY (username = $1) DESC LIMIT 1`,
		name).Scan(&account.ID, &account.Username, &displayName, &account.PasswordHash, &account.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	account.Name = deref(displayName)
	return &account, nil
}

func (s *PostgresStore) getMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT role, content, ts FROM messages WHERE conversation_id = $1 ORDER BY seq ASC`,
		conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var msg domain.Message
		var role string
		if err := rows.Scan(&role, &msg.Content, &msg.Timestamp); err != nil {
			return nil, err
		}
		msg.Role = domain.Role(role)
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func insertPgMessages(ctx context.Context, tx pgx.Tx, conversationID string, messages []domain.Message) error {
	batch := &pgx.Batch{}
	for i, msg := range messages {
		batch.Queue(`INSERT INTO messages (conversation_id, seq, role, content, ts) VALUES ($1, $2, $3, $4, $5)`,
			conversationID, i, string(msg.Role), msg.Content, msg.Timestamp)
	}
	return tx.SendBatch(ctx, batch).Close()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
