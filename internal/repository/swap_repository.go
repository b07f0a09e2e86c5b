package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SwapDirection направление выборки заявок относительно пользователя
type SwapDirection string

const (
	SwapDirectionIncoming SwapDirection = "incoming"
	SwapDirectionOutgoing SwapDirection = "outgoing"
	SwapDirectionAll      SwapDirection = "all"
)

type SwapRepository struct {
	*base.Repository
}

func NewSwapRepository(pool *pgxpool.Pool) *SwapRepository {
	return &SwapRepository{Repository: base.NewRepository(pool)}
}

// Create создаёт новую заявку на обмен в статусе pending
func (r *SwapRepository) Create(ctx context.Context, swap *model.SwapRequest) error {
	query := `
		INSERT INTO swap_requests (requester_id, requester_slot_id, target_user_id, target_slot_id, message, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		swap.RequesterID,
		swap.RequesterSlotID,
		swap.TargetUserID,
		swap.TargetSlotID,
		swap.Message,
		swap.Status,
	).Scan(&swap.ID, &swap.CreatedAt, &swap.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create swap request: %w", err)
	}

	return nil
}

// GetByID получает заявку по ID
func (r *SwapRepository) GetByID(ctx context.Context, id int64) (*model.SwapRequest, error) {
	query := `
		SELECT id, requester_id, requester_slot_id, target_user_id, target_slot_id, message, status, created_at, updated_at
		FROM swap_requests
		WHERE id = $1
	`

	var swap model.SwapRequest
	err := r.QueryRow(ctx, query, id).Scan(
		&swap.ID,
		&swap.RequesterID,
		&swap.RequesterSlotID,
		&swap.TargetUserID,
		&swap.TargetSlotID,
		&swap.Message,
		&swap.Status,
		&swap.CreatedAt,
		&swap.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get swap request by id: %w", err)
	}

	return &swap, nil
}

// HasPendingPair проверяет есть ли pending заявка для точно такой же пары слотов
func (r *SwapRepository) HasPendingPair(ctx context.Context, requesterSlotID, targetSlotID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM swap_requests
			WHERE requester_slot_id = $1 AND target_slot_id = $2 AND status = 'pending'
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, requesterSlotID, targetSlotID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check pending swap pair: %w", err)
	}

	return exists, nil
}

// UpdateStatus переводит заявку в новый статус
func (r *SwapRepository) UpdateStatus(ctx context.Context, id int64, status model.SwapStatus) error {
	query := `
		UPDATE swap_requests
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("update swap status: %w", err)
	}

	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// CancelPendingBySlots отменяет все pending заявки, ссылающиеся на любой из двух слотов
// (кроме заявки excludeID), и возвращает отменённые заявки для рассылки уведомлений
func (r *SwapRepository) CancelPendingBySlots(ctx context.Context, slotA, slotB, excludeID int64) ([]*model.SwapRequest, error) {
	query := `
		UPDATE swap_requests
		SET status = 'cancelled', updated_at = NOW()
		WHERE (requester_slot_id IN ($1, $2) OR target_slot_id IN ($1, $2))
		  AND status = 'pending'
		  AND id != $3
		RETURNING id, requester_id, requester_slot_id, target_user_id, target_slot_id, message, status, created_at, updated_at
	`

	rows, err := r.Query(ctx, query, slotA, slotB, excludeID)
	if err != nil {
		return nil, fmt.Errorf("cancel pending swaps by slots: %w", err)
	}
	defer rows.Close()

	var cancelled []*model.SwapRequest
	for rows.Next() {
		var swap model.SwapRequest
		err := rows.Scan(
			&swap.ID,
			&swap.RequesterID,
			&swap.RequesterSlotID,
			&swap.TargetUserID,
			&swap.TargetSlotID,
			&swap.Message,
			&swap.Status,
			&swap.CreatedAt,
			&swap.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cancelled swap: %w", err)
		}
		cancelled = append(cancelled, &swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cancel pending swaps by slots: %w", err)
	}

	return cancelled, nil
}

// GetByUserID получает заявки пользователя с данными контрагентов и слотов
func (r *SwapRepository) GetByUserID(ctx context.Context, userID int64, direction SwapDirection) ([]*model.SwapRequest, error) {
	query := `
		SELECT
			sr.id, sr.requester_id, sr.requester_slot_id, sr.target_user_id, sr.target_slot_id,
			sr.message, sr.status, sr.created_at, sr.updated_at,
			requester.id, requester.email, requester.first_name, requester.last_name, requester.created_at,
			target_user.id, target_user.email, target_user.first_name, target_user.last_name, target_user.created_at,
			req_slot.id, req_slot.user_id, req_slot.title, req_slot.description, req_slot.start_time, req_slot.end_time,
			req_slot.available_for_swap, req_slot.created_at, req_slot.updated_at,
			target_slot.id, target_slot.user_id, target_slot.title, target_slot.description, target_slot.start_time, target_slot.end_time,
			target_slot.available_for_swap, target_slot.created_at, target_slot.updated_at
		FROM swap_requests sr
		JOIN users requester ON sr.requester_id = requester.id
		JOIN users target_user ON sr.target_user_id = target_user.id
		JOIN time_slots req_slot ON sr.requester_slot_id = req_slot.id
		JOIN time_slots target_slot ON sr.target_slot_id = target_slot.id
		WHERE
	`

	var params []any
	switch direction {
	case SwapDirectionIncoming:
		query += ` sr.target_user_id = $1`
		params = []any{userID}
	case SwapDirectionOutgoing:
		query += ` sr.requester_id = $1`
		params = []any{userID}
	default:
		query += ` (sr.requester_id = $1 OR sr.target_user_id = $1)`
		params = []any{userID}
	}

	query += ` ORDER BY sr.created_at DESC`

	rows, err := r.Query(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("get swap requests by user: %w", err)
	}
	defer rows.Close()

	var swaps []*model.SwapRequest
	for rows.Next() {
		var (
			swap       model.SwapRequest
			requester  model.User
			targetUser model.User
			reqSlot    model.TimeSlot
			targetSlot model.TimeSlot
		)
		err := rows.Scan(
			&swap.ID, &swap.RequesterID, &swap.RequesterSlotID, &swap.TargetUserID, &swap.TargetSlotID,
			&swap.Message, &swap.Status, &swap.CreatedAt, &swap.UpdatedAt,
			&requester.ID, &requester.Email, &requester.FirstName, &requester.LastName, &requester.CreatedAt,
			&targetUser.ID, &targetUser.Email, &targetUser.FirstName, &targetUser.LastName, &targetUser.CreatedAt,
			&reqSlot.ID, &reqSlot.UserID, &reqSlot.Title, &reqSlot.Description, &reqSlot.StartTime, &reqSlot.EndTime,
			&reqSlot.AvailableForSwap, &reqSlot.CreatedAt, &reqSlot.UpdatedAt,
			&targetSlot.ID, &targetSlot.UserID, &targetSlot.Title, &targetSlot.Description, &targetSlot.StartTime, &targetSlot.EndTime,
			&targetSlot.AvailableForSwap, &targetSlot.CreatedAt, &targetSlot.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap request: %w", err)
		}

		swap.Requester = &requester
		swap.TargetUser = &targetUser
		swap.RequesterSlot = &reqSlot
		swap.TargetSlot = &targetSlot
		swaps = append(swaps, &swap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get swap requests by user: %w", err)
	}

	return swaps, nil
}
