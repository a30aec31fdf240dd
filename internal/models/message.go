package models

import "time"

type Message struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	SenderID     string    `json:"sender_id"`
	SenderName   string    `json:"sender_name,omitempty"`
	ReceiverID   string    `json:"receiver_id"`
	ReceiverName string    `json:"receiver_name,omitempty"`
	JobID        *string   `json:"job_id"`
	Read         bool      `json:"read"`
	CreatedAt    time.Time `json:"created_at"`
}

// Contact is one correspondent with the latest message exchanged and the unread count.
type Contact struct {
	UserID          string    `json:"user_id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int       `json:"unread_count"`
}
