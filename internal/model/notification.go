package model

import "time"

type NotificationType string

const (
	NotificationSwapRequest   NotificationType = "swap_request"
	NotificationSwapApproved  NotificationType = "swap_approved"
	NotificationSwapRejected  NotificationType = "swap_rejected"
	NotificationSwapCancelled NotificationType = "swap_cancelled"
)

type Notification struct {
	ID            int64            `json:"id"`
	UserID        int64            `json:"user_id"`
	Type          NotificationType `json:"type"`
	Title         string           `json:"title"`
	Message       string           `json:"message"`
	IsRead        bool             `json:"is_read"`
	RelatedSwapID *int64           `json:"related_swap_id,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
}
