package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository"
	"go.uber.org/zap"
)

// SlotStore контракт хранилища слотов, нужный движку обмена
type SlotStore interface {
	GetByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.TimeSlot, error)
	GetAvailableByID(ctx context.Context, id int64) (*model.TimeSlot, error)
	SetWindow(ctx context.Context, id int64, start, end time.Time) error
	SetAvailability(ctx context.Context, id int64, available bool) error
	HasOverlap(ctx context.Context, userID int64, start, end time.Time, excludeIDs ...int64) (bool, error)
}

// SwapStore контракт хранилища заявок на обмен
type SwapStore interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, swap *model.SwapRequest) error
	GetByID(ctx context.Context, id int64) (*model.SwapRequest, error)
	HasPendingPair(ctx context.Context, requesterSlotID, targetSlotID int64) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status model.SwapStatus) error
	CancelPendingBySlots(ctx context.Context, slotA, slotB, excludeID int64) ([]*model.SwapRequest, error)
	GetByUserID(ctx context.Context, userID int64, direction repository.SwapDirection) ([]*model.SwapRequest, error)
}

// Notifier создаёт и доставляет уведомления
type Notifier interface {
	Record(ctx context.Context, userID int64, typ model.NotificationType, title, message string, relatedSwapID *int64) (*model.Notification, error)
	Push(n *model.Notification) bool
}

// SwapService машина состояний заявки на обмен:
// pending -> approved | rejected | cancelled, все конечные.
type SwapService struct {
	swaps    SwapStore
	slots    SlotStore
	notifier Notifier
	logger   *zap.Logger
}

func NewSwapService(swaps SwapStore, slots SlotStore, notifier Notifier, logger *zap.Logger) *SwapService {
	return &SwapService{
		swaps:    swaps,
		slots:    slots,
		notifier: notifier,
		logger:   logger,
	}
}

// Propose создаёт заявку на обмен слотами.
// Слот инициатора должен принадлежать ему и быть открыт для обмена,
// целевой слот должен существовать, быть открыт и принадлежать другому
// пользователю; для пары слотов не должно быть другой pending заявки.
func (s *SwapService) Propose(ctx context.Context, requesterID, requesterSlotID, targetSlotID int64, message string) (*model.SwapRequest, error) {
	requesterSlot, err := s.slots.GetByID(ctx, requesterSlotID)
	if err != nil {
		return nil, fmt.Errorf("get requester slot: %w", err)
	}

	if requesterSlot == nil || requesterSlot.UserID != requesterID || !requesterSlot.AvailableForSwap {
		return nil, model.ErrInvalidSlot
	}

	targetSlot, err := s.slots.GetAvailableByID(ctx, targetSlotID)
	if err != nil {
		return nil, fmt.Errorf("get target slot: %w", err)
	}

	if targetSlot == nil {
		return nil, model.ErrInvalidSlot
	}

	if targetSlot.UserID == requesterID {
		return nil, model.ErrSelfSwap
	}

	exists, err := s.swaps.HasPendingPair(ctx, requesterSlotID, targetSlotID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate swap: %w", err)
	}

	if exists {
		return nil, model.ErrDuplicatePending
	}

	swap := &model.SwapRequest{
		RequesterID:     requesterID,
		RequesterSlotID: requesterSlotID,
		TargetUserID:    targetSlot.UserID,
		TargetSlotID:    targetSlotID,
		Message:         message,
		Status:          model.SwapStatusPending,
	}

	if err := s.swaps.Create(ctx, swap); err != nil {
		return nil, fmt.Errorf("create swap request: %w", err)
	}

	s.logger.Info("Swap request created",
		zap.Int64("swap_id", swap.ID),
		zap.Int64("requester_id", requesterID),
		zap.Int64("requester_slot_id", requesterSlotID),
		zap.Int64("target_user_id", targetSlot.UserID),
		zap.Int64("target_slot_id", targetSlotID),
	)

	n, err := s.notifier.Record(ctx, targetSlot.UserID, model.NotificationSwapRequest,
		"New Swap Request",
		fmt.Sprintf("You have a new swap request for your %q slot", targetSlot.Title),
		&swap.ID,
	)
	if err != nil {
		return nil, err
	}
	s.notifier.Push(n)

	return swap, nil
}

// Transition переводит pending заявку в конечный статус.
// cancelled может выполнить только инициатор, approved/rejected только
// владелец целевого слота. approved запускает транзакцию обмена.
func (s *SwapService) Transition(ctx context.Context, swapID, actorID int64, newStatus model.SwapStatus) error {
	if !newStatus.IsTerminal() {
		return model.ErrInvalidState
	}

	swap, err := s.swaps.GetByID(ctx, swapID)
	if err != nil {
		return fmt.Errorf("get swap request: %w", err)
	}

	if swap == nil {
		return model.ErrNotFound
	}

	if newStatus == model.SwapStatusCancelled && swap.RequesterID != actorID {
		return model.ErrForbidden
	}

	if (newStatus == model.SwapStatusApproved || newStatus == model.SwapStatusRejected) && swap.TargetUserID != actorID {
		return model.ErrForbidden
	}

	if swap.Status != model.SwapStatusPending {
		return model.ErrInvalidState
	}

	var cascade []*model.Notification

	if newStatus == model.SwapStatusApproved {
		cascade, err = s.approve(ctx, swap)
		if err != nil {
			return err
		}
	} else {
		if err := s.swaps.UpdateStatus(ctx, swapID, newStatus); err != nil {
			return fmt.Errorf("update swap status: %w", err)
		}
	}

	s.logger.Info("Swap request transitioned",
		zap.Int64("swap_id", swapID),
		zap.Int64("actor_id", actorID),
		zap.String("status", string(newStatus)),
	)

	// Уведомляем контрагента: при отмене — целевого пользователя,
	// иначе инициатора
	recipientID := swap.RequesterID
	if newStatus == model.SwapStatusCancelled {
		recipientID = swap.TargetUserID
	}

	n, err := s.notifier.Record(ctx, recipientID, notificationTypeFor(newStatus),
		notificationTitleFor(newStatus),
		fmt.Sprintf("Your swap request has been %s", newStatus),
		&swap.ID,
	)
	if err != nil {
		return err
	}
	s.notifier.Push(n)

	for _, cn := range cascade {
		s.notifier.Push(cn)
	}

	return nil
}

// approve выполняет атомарный обмен окнами двух слотов.
// Всё внутри одной транзакции: повторное чтение слотов с блокировкой,
// проверка доступности и пересечений, обмен окон, снятие флагов
// доступности, перевод заявки в approved и каскадная отмена остальных
// pending заявок на эти слоты вместе с записями их уведомлений.
func (s *SwapService) approve(ctx context.Context, swap *model.SwapRequest) ([]*model.Notification, error) {
	var cascade []*model.Notification

	err := s.swaps.WithTx(ctx, func(ctx context.Context) error {
		// Блокируем строки в порядке возрастания ID чтобы два
		// встречных approve не взяли их крест-накрест
		firstID, secondID := swap.RequesterSlotID, swap.TargetSlotID
		if secondID < firstID {
			firstID, secondID = secondID, firstID
		}

		first, err := s.slots.GetByIDForUpdate(ctx, firstID)
		if err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}
		second, err := s.slots.GetByIDForUpdate(ctx, secondID)
		if err != nil {
			return fmt.Errorf("lock slot: %w", err)
		}

		if first == nil || second == nil {
			return model.ErrStaleSlots
		}

		requesterSlot, targetSlot := first, second
		if requesterSlot.ID != swap.RequesterSlotID {
			requesterSlot, targetSlot = second, first
		}

		if !requesterSlot.AvailableForSwap || !targetSlot.AvailableForSwap {
			return model.ErrStaleSlots
		}

		// Новое окно не должно пересечь другие слоты владельца
		overlap, err := s.slots.HasOverlap(ctx, requesterSlot.UserID,
			targetSlot.StartTime, targetSlot.EndTime, requesterSlot.ID, targetSlot.ID)
		if err != nil {
			return fmt.Errorf("check requester overlap: %w", err)
		}
		if !overlap {
			overlap, err = s.slots.HasOverlap(ctx, targetSlot.UserID,
				requesterSlot.StartTime, requesterSlot.EndTime, requesterSlot.ID, targetSlot.ID)
			if err != nil {
				return fmt.Errorf("check target overlap: %w", err)
			}
		}
		if overlap {
			return model.ErrStaleSlots
		}

		// Меняются только окна; названия, описания и владельцы остаются
		if err := s.slots.SetWindow(ctx, requesterSlot.ID, targetSlot.StartTime, targetSlot.EndTime); err != nil {
			return err
		}
		if err := s.slots.SetWindow(ctx, targetSlot.ID, requesterSlot.StartTime, requesterSlot.EndTime); err != nil {
			return err
		}

		if err := s.slots.SetAvailability(ctx, requesterSlot.ID, false); err != nil {
			return err
		}
		if err := s.slots.SetAvailability(ctx, targetSlot.ID, false); err != nil {
			return err
		}

		if err := s.swaps.UpdateStatus(ctx, swap.ID, model.SwapStatusApproved); err != nil {
			return err
		}

		// Каскад: остальные pending заявки на эти слоты больше невозможны
		cancelled, err := s.swaps.CancelPendingBySlots(ctx, swap.RequesterSlotID, swap.TargetSlotID, swap.ID)
		if err != nil {
			return err
		}

		for _, c := range cancelled {
			n, err := s.notifier.Record(ctx, c.RequesterID, model.NotificationSwapCancelled,
				"Swap Request Cancelled",
				"Your swap request was cancelled because one of the slots is no longer available",
				&c.ID,
			)
			if err != nil {
				return err
			}
			cascade = append(cascade, n)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, model.ErrStaleSlots) {
			return nil, model.ErrStaleSlots
		}
		s.logger.Error("Swap transaction failed",
			zap.Int64("swap_id", swap.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", model.ErrTransactionFailed, err)
	}

	s.logger.Info("Slots exchanged",
		zap.Int64("swap_id", swap.ID),
		zap.Int64("requester_slot_id", swap.RequesterSlotID),
		zap.Int64("target_slot_id", swap.TargetSlotID),
		zap.Int("cascade_cancelled", len(cascade)),
	)

	return cascade, nil
}

// List возвращает заявки пользователя в заданном направлении (новые сверху)
func (s *SwapService) List(ctx context.Context, userID int64, direction repository.SwapDirection) ([]*model.SwapRequest, error) {
	return s.swaps.GetByUserID(ctx, userID, direction)
}

func notificationTypeFor(status model.SwapStatus) model.NotificationType {
	switch status {
	case model.SwapStatusApproved:
		return model.NotificationSwapApproved
	case model.SwapStatusRejected:
		return model.NotificationSwapRejected
	default:
		return model.NotificationSwapCancelled
	}
}

func notificationTitleFor(status model.SwapStatus) string {
	switch status {
	case model.SwapStatusApproved:
		return "Swap Request Approved"
	case model.SwapStatusRejected:
		return "Swap Request Rejected"
	default:
		return "Swap Request Cancelled"
	}
}
