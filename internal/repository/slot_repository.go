package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	*base.Repository
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{Repository: base.NewRepository(pool)}
}

const slotColumns = `id, user_id, title, description, start_time, end_time, available_for_swap, created_at, updated_at`

func scanSlot(row interface{ Scan(...any) error }) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := row.Scan(
		&slot.ID,
		&slot.UserID,
		&slot.Title,
		&slot.Description,
		&slot.StartTime,
		&slot.EndTime,
		&slot.AvailableForSwap,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// GetByID получает слот по ID
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetByIDForUpdate получает слот по ID с блокировкой строки до конца транзакции
func (r *SlotRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 FOR UPDATE`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot for update: %w", err)
	}

	return slot, nil
}

// GetAvailableByID получает слот по ID если он открыт для обмена
func (r *SlotRepository) GetAvailableByID(ctx context.Context, id int64) (*model.TimeSlot, error) {
	query := `SELECT ` + slotColumns + ` FROM time_slots WHERE id = $1 AND available_for_swap = true`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get available slot: %w", err)
	}

	return slot, nil
}

// SetWindow обновляет временное окно слота
func (r *SlotRepository) SetWindow(ctx context.Context, id int64, start, end time.Time) error {
	query := `
		UPDATE time_slots
		SET start_time = $1, end_time = $2, updated_at = NOW()
		WHERE id = $3
	`

	affected, err := r.ExecAffected(ctx, query, start, end, id)
	if err != nil {
		return fmt.Errorf("set slot window: %w", err)
	}

	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// SetAvailability обновляет флаг доступности слота для обмена
func (r *SlotRepository) SetAvailability(ctx context.Context, id int64, available bool) error {
	query := `
		UPDATE time_slots
		SET available_for_swap = $1, updated_at = NOW()
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, available, id)
	if err != nil {
		return fmt.Errorf("set slot availability: %w", err)
	}

	if affected == 0 {
		return model.ErrNotFound
	}

	return nil
}

// HasOverlap проверяет есть ли у пользователя другой слот,
// пересекающийся с заданным окном (исключая перечисленные слоты)
func (r *SlotRepository) HasOverlap(ctx context.Context, userID int64, start, end time.Time, excludeIDs ...int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM time_slots
			WHERE user_id = $1
			  AND id != ALL($2::bigint[])
			  AND start_time < $4
			  AND $3 < end_time
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, userID, excludeIDs, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}

	return exists, nil
}
