package model

import "time"

type SwapStatus string

const (
	SwapStatusPending   SwapStatus = "pending"   // Ожидает решения владельца целевого слота
	SwapStatusApproved  SwapStatus = "approved"  // Обмен выполнен
	SwapStatusRejected  SwapStatus = "rejected"  // Отклонён целевым пользователем
	SwapStatusCancelled SwapStatus = "cancelled" // Отменён инициатором или каскадом
)

// IsTerminal сообщает является ли статус конечным
func (s SwapStatus) IsTerminal() bool {
	return s == SwapStatusApproved || s == SwapStatusRejected || s == SwapStatusCancelled
}

// ValidSwapStatus проверяет что строка является известным статусом перехода
func ValidSwapStatus(s string) bool {
	switch SwapStatus(s) {
	case SwapStatusApproved, SwapStatusRejected, SwapStatusCancelled:
		return true
	}
	return false
}

// MaxSwapMessageLen максимальная длина сопроводительного сообщения
const MaxSwapMessageLen = 500

type SwapRequest struct {
	ID              int64      `json:"id"`
	RequesterID     int64      `json:"requester_id"`
	RequesterSlotID int64      `json:"requester_slot_id"`
	TargetUserID    int64      `json:"target_user_id"`
	TargetSlotID    int64      `json:"target_slot_id"`
	Message         string     `json:"message,omitempty"`
	Status          SwapStatus `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Дополнительные поля для удобства (не из БД)
	Requester     *User     `json:"requester,omitempty"`
	TargetUser    *User     `json:"target_user,omitempty"`
	RequesterSlot *TimeSlot `json:"requester_slot,omitempty"`
	TargetSlot    *TimeSlot `json:"target_slot,omitempty"`
}
