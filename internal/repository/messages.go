package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/sudo-init-do/distal/internal/apperr"
	"github.com/sudo-init-do/distal/internal/db"
	"github.com/sudo-init-do/distal/internal/models"
)

const messageSelect = `
	SELECT m.id, m.content, m.sender_id, s.name, m.receiver_id, r.name, m.job_id, m.read, m.created_at
	FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id`

type pgMessages struct {
	db querier
}

func scanMessage(row interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	err := row.Scan(&m.ID, &m.Content, &m.SenderID, &m.SenderName, &m.ReceiverID, &m.ReceiverName,
		&m.JobID, &m.Read, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *pgMessages) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO messages (id, content, sender_id, receiver_id, job_id)
		VALUES ($1, $2, $3, $4, $5)
	`, m.ID, m.Content, m.SenderID, m.ReceiverID, m.JobID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, apperr.Validation("Receiver or job does not exist")
		}
		return nil, internalErr(err, "create message")
	}
	return r.Get(ctx, m.ID)
}

func (r *pgMessages) Get(ctx context.Context, id string) (*models.Message, error) {
	if !validID(id) {
		return nil, apperr.NotFoundOrUnauthorized("Message")
	}
	m, err := scanMessage(r.db.QueryRow(ctx, messageSelect+` WHERE m.id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundOrUnauthorized("Message")
		}
		return nil, internalErr(err, "get message")
	}
	return m, nil
}

func (r *pgMessages) Conversation(ctx context.Context, a, b string) ([]models.Message, error) {
	out := []models.Message{}
	if !validID(a) || !validID(b) {
		return out, nil
	}
	rows, err := r.db.Query(ctx, messageSelect+`
		WHERE (m.sender_id = $1 AND m.receiver_id = $2)
		   OR (m.sender_id = $2 AND m.receiver_id = $1)
		ORDER BY m.created_at ASC, m.id ASC
	`, a, b)
	if err != nil {
		return nil, internalErr(err, "get conversation")
	}
	defer rows.Close()

	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, internalErr(err, "scan message")
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *pgMessages) Contacts(ctx context.Context, viewer string) ([]models.Contact, error) {
	rows, err := r.db.Query(ctx, `
		WITH pairs AS (
			SELECT CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS other_id,
			       id, content, created_at
			FROM messages
			WHERE sender_id = $1 OR receiver_id = $1
		), latest AS (
			SELECT DISTINCT ON (other_id) other_id, content, created_at
			FROM pairs
			ORDER BY other_id, created_at DESC, id DESC
		)
		SELECT l.other_id, u.name, u.email, l.content, l.created_at,
		       (SELECT COUNT(*) FROM messages m
		        WHERE m.sender_id = l.other_id AND m.receiver_id = $1 AND m.read = FALSE)
		FROM latest l
		JOIN users u ON u.id = l.other_id
		ORDER BY l.created_at DESC, l.other_id
	`, viewer)
	if err != nil {
		return nil, internalErr(err, "list contacts")
	}
	defer rows.Close()

	out := []models.Contact{}
	for rows.Next() {
		var c models.Contact
		if err := rows.Scan(&c.UserID, &c.Name, &c.Email, &c.LastMessage, &c.LastMessageTime, &c.UnreadCount); err != nil {
			return nil, internalErr(err, "scan contact")
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *pgMessages) MarkRead(ctx context.Context, receiverID, senderID string) (int64, error) {
	if !validID(senderID) {
		return 0, nil
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE messages SET read = TRUE
		WHERE sender_id = $1 AND receiver_id = $2 AND read = FALSE
	`, senderID, receiverID)
	if err != nil {
		return 0, internalErr(err, "mark read")
	}
	return tag.RowsAffected(), nil
}
