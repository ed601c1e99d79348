package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rtchat/server/internal/models"
)

// Postgres implements Store on a pgx connection pool. See schema.sql for
// the expected tables and the unordered-pair unique index on connections.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const userColumns = `id, username, first_name, last_name, thumbnail, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Thumbnail, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) CreateUser(ctx context.Context, params NewUser) (*models.User, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO users (username, first_name, last_name, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		RETURNING `+userColumns,
		params.Username, params.FirstName, params.LastName, params.PasswordHash)

	u, err := scanUser(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return nil, ErrUsernameTaken
	}
	return u, err
}

func (p *Postgres) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

// CredentialsByUsername also loads the password hash; it backs sign-in.
func (p *Postgres) CredentialsByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := p.pool.QueryRow(ctx, `
		SELECT id, username, first_name, last_name, password_hash, thumbnail, created_at, updated_at
		FROM users WHERE username = $1`, username).
		Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName, &u.Password, &u.Thumbnail, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func (p *Postgres) UserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *Postgres) SearchUsers(ctx context.Context, viewerID, prefix string) ([]SearchResult, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT u.id, u.username, u.first_name, u.last_name, u.thumbnail, u.created_at, u.updated_at,
			EXISTS(SELECT 1 FROM connections c WHERE c.sender_id = $1 AND c.receiver_id = u.id AND NOT c.accepted),
			EXISTS(SELECT 1 FROM connections c WHERE c.sender_id = u.id AND c.receiver_id = $1 AND NOT c.accepted),
			EXISTS(SELECT 1 FROM connections c WHERE c.accepted
				AND ((c.sender_id = $1 AND c.receiver_id = u.id) OR (c.sender_id = u.id AND c.receiver_id = $1)))
		FROM users u
		WHERE u.id <> $1
			AND (u.username ILIKE $2 OR u.first_name ILIKE $2 OR u.last_name ILIKE $2)
		ORDER BY u.username
	`, viewerID, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(
			&r.User.ID, &r.User.Username, &r.User.FirstName, &r.User.LastName,
			&r.User.Thumbnail, &r.User.CreatedAt, &r.User.UpdatedAt,
			&r.SentPending, &r.ReceivedPending, &r.Connected,
		); err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (p *Postgres) SetThumbnail(ctx context.Context, userID, thumbnail string) (*models.User, error) {
	return scanUser(p.pool.QueryRow(ctx, `
		UPDATE users SET thumbnail = $1, updated_at = now()
		WHERE id = $2
		RETURNING `+userColumns, thumbnail, userID))
}

const connectionSelect = `
	SELECT c.id, c.accepted, c.created_at, c.updated_at,
		s.id, s.username, s.first_name, s.last_name, s.thumbnail, s.created_at, s.updated_at,
		r.id, r.username, r.first_name, r.last_name, r.thumbnail, r.created_at, r.updated_at
	FROM connections c
	JOIN users s ON s.id = c.sender_id
	JOIN users r ON r.id = c.receiver_id`

func scanConnection(row pgx.Row) (*models.Connection, error) {
	var c models.Connection
	err := row.Scan(
		&c.ID, &c.Accepted, &c.CreatedAt, &c.UpdatedAt,
		&c.Sender.ID, &c.Sender.Username, &c.Sender.FirstName, &c.Sender.LastName,
		&c.Sender.Thumbnail, &c.Sender.CreatedAt, &c.Sender.UpdatedAt,
		&c.Receiver.ID, &c.Receiver.Username, &c.Receiver.FirstName, &c.Receiver.LastName,
		&c.Receiver.Thumbnail, &c.Receiver.CreatedAt, &c.Receiver.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan connection: %w", err)
	}
	return &c, nil
}

func (p *Postgres) GetOrCreateConnection(ctx context.Context, senderID, receiverID string) (*models.Connection, error) {
	// Single statement so concurrent proposals from both sides resolve to
	// one row. The no-op DO UPDATE makes RETURNING yield the existing row
	// on conflict without changing it.
	var id string
	err := p.pool.QueryRow(ctx, `
		INSERT INTO connections (sender_id, receiver_id, accepted, created_at, updated_at)
		VALUES ($1, $2, false, now(), now())
		ON CONFLICT ((LEAST(sender_id, receiver_id)), (GREATEST(sender_id, receiver_id)))
		DO UPDATE SET updated_at = connections.updated_at
		RETURNING id
	`, senderID, receiverID).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("get or create connection: %w", err)
	}
	return p.ConnectionByID(ctx, id)
}

func (p *Postgres) ConnectionByID(ctx context.Context, id string) (*models.Connection, error) {
	return scanConnection(p.pool.QueryRow(ctx, connectionSelect+` WHERE c.id = $1`, id))
}

func (p *Postgres) PendingFor(ctx context.Context, receiverID string) ([]models.Connection, error) {
	rows, err := p.pool.Query(ctx, connectionSelect+`
		WHERE c.receiver_id = $1 AND NOT c.accepted
		ORDER BY c.created_at DESC`, receiverID)
	if err != nil {
		return nil, fmt.Errorf("pending connections: %w", err)
	}
	defer rows.Close()

	var pending []models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		pending = append(pending, *c)
	}
	return pending, rows.Err()
}

func (p *Postgres) AcceptConnection(ctx context.Context, senderID, receiverID string) (*models.Connection, error) {
	var id string
	err := p.pool.QueryRow(ctx, `
		UPDATE connections SET accepted = true, updated_at = now()
		WHERE sender_id = $1 AND receiver_id = $2
		RETURNING id
	`, senderID, receiverID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("accept connection: %w", err)
	}
	return p.ConnectionByID(ctx, id)
}

func (p *Postgres) FriendsOf(ctx context.Context, userID string) ([]FriendEntry, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT c.id, c.accepted, c.created_at, c.updated_at,
			s.id, s.username, s.first_name, s.last_name, s.thumbnail, s.created_at, s.updated_at,
			r.id, r.username, r.first_name, r.last_name, r.thumbnail, r.created_at, r.updated_at,
			m.id, m.user_id, m.text, m.created_at
		FROM connections c
		JOIN users s ON s.id = c.sender_id
		JOIN users r ON r.id = c.receiver_id
		LEFT JOIN LATERAL (
			SELECT id, user_id, text, created_at
			FROM messages
			WHERE connection_id = c.id
			ORDER BY created_at DESC
			LIMIT 1
		) m ON true
		WHERE c.accepted AND (c.sender_id = $1 OR c.receiver_id = $1)
		ORDER BY COALESCE(m.created_at, c.updated_at) DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("friends: %w", err)
	}
	defer rows.Close()

	var entries []FriendEntry
	for rows.Next() {
		var e FriendEntry
		var msgID, msgUserID, msgText *string
		var msgCreated *time.Time
		c := &e.Connection
		if err := rows.Scan(
			&c.ID, &c.Accepted, &c.CreatedAt, &c.UpdatedAt,
			&c.Sender.ID, &c.Sender.Username, &c.Sender.FirstName, &c.Sender.LastName,
			&c.Sender.Thumbnail, &c.Sender.CreatedAt, &c.Sender.UpdatedAt,
			&c.Receiver.ID, &c.Receiver.Username, &c.Receiver.FirstName, &c.Receiver.LastName,
			&c.Receiver.Thumbnail, &c.Receiver.CreatedAt, &c.Receiver.UpdatedAt,
			&msgID, &msgUserID, &msgText, &msgCreated,
		); err != nil {
			return nil, fmt.Errorf("scan friend row: %w", err)
		}
		if msgID != nil {
			e.LastMessage = &models.Message{
				ID:           *msgID,
				ConnectionID: c.ID,
				UserID:       *msgUserID,
				Text:         *msgText,
				CreatedAt:    *msgCreated,
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (p *Postgres) CreateMessage(ctx context.Context, connectionID, authorID, text string) (*models.Message, error) {
	var m models.Message
	err := p.pool.QueryRow(ctx, `
		INSERT INTO messages (connection_id, user_id, text, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, connection_id, user_id, text, created_at
	`, connectionID, authorID, text).
		Scan(&m.ID, &m.ConnectionID, &m.UserID, &m.Text, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

func (p *Postgres) MessagesPage(ctx context.Context, connectionID string, page, size int) ([]models.Message, bool, error) {
	// One extra row to learn whether another page exists.
	rows, err := p.pool.Query(ctx, `
		SELECT id, connection_id, user_id, text, created_at
		FROM messages
		WHERE connection_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, connectionID, size+1, page*size)
	if err != nil {
		return nil, false, fmt.Errorf("message page: %w", err)
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConnectionID, &m.UserID, &m.Text, &m.CreatedAt); err != nil {
			return nil, false, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	more := len(messages) > size
	if more {
		messages = messages[:size]
	}
	return messages, more, nil
}
