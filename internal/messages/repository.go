package messages

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/campushive/backend/internal/models"
)

// Repository handles message persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a messages repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new message.
func (r *Repository) Create(ctx context.Context, m *models.Message) error {
	const query = `INSERT INTO messages (id, sender_id, recipient_id, content)
		VALUES (gen_random_uuid(), $1, $2, $3)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, m.SenderID, m.RecipientID, m.Content).
		Scan(&m.ID, &m.CreatedAt)
}

// Thread returns the messages between two users, oldest first.
func (r *Repository) Thread(ctx context.Context, userID, peerID uuid.UUID, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}
	const query = `SELECT id, sender_id, recipient_id, content, read_at, created_at FROM messages
		WHERE (sender_id = $1 AND recipient_id = $2) OR (sender_id = $2 AND recipient_id = $1)
		ORDER BY created_at DESC LIMIT $3`
	rows, err := r.pool.Query(ctx, query, userID, peerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.RecipientID, &m.Content, &m.ReadAt, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Query walks the index newest-first; callers want chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Conversations lists the caller's conversation partners with the latest
// message and unread count, most recent first.
func (r *Repository) Conversations(ctx context.Context, userID uuid.UUID) ([]models.Conversation, error) {
	const query = `
		SELECT DISTINCT ON (peer_id) peer_id, u.full_name, m.content, m.created_at,
			(SELECT COUNT(*)::INT FROM messages
				WHERE recipient_id = $1 AND sender_id = peer_id AND read_at IS NULL)
		FROM (
			SELECT *, CASE WHEN sender_id = $1 THEN recipient_id ELSE sender_id END AS peer_id
			FROM messages WHERE sender_id = $1 OR recipient_id = $1
		) m
		JOIN users u ON u.id = m.peer_id
		ORDER BY peer_id, m.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	convos := make([]models.Conversation, 0)
	for rows.Next() {
		var c models.Conversation
		if err := rows.Scan(&c.PeerID, &c.PeerName, &c.LastMessage, &c.LastAt, &c.UnreadCount); err != nil {
			return nil, err
		}
		convos = append(convos, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// DISTINCT ON forces peer_id ordering; re-sort by recency here.
	sort.Slice(convos, func(i, j int) bool { return convos[i].LastAt.After(convos[j].LastAt) })
	return convos, nil
}

// MarkThreadRead marks every unread message from peer to user as read and
// returns how many rows changed.
func (r *Repository) MarkThreadRead(ctx context.Context, userID, peerID uuid.UUID) (int64, error) {
	const query = `UPDATE messages SET read_at = NOW()
		WHERE recipient_id = $1 AND sender_id = $2 AND read_at IS NULL`
	tag, err := r.pool.Exec(ctx, query, userID, peerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UnreadCount returns the caller's total unread messages.
func (r *Repository) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	const query = `SELECT COUNT(*)::INT FROM messages WHERE recipient_id = $1 AND read_at IS NULL`
	var n int
	err := r.pool.QueryRow(ctx, query, userID).Scan(&n)
	return n, err
}
