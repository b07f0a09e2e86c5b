package model

import "errors"

// Доменные ошибки движка обмена слотами
var (
	ErrInvalidSlot          = errors.New("slot does not exist or is not available for swap")
	ErrSelfSwap             = errors.New("cannot swap with your own slots")
	ErrDuplicatePending     = errors.New("swap request already exists for these slots")
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("can only update pending swap requests")
	ErrForbidden            = errors.New("no permission to perform this action")
	ErrStaleSlots           = errors.New("one or both slots are no longer available for swapping")
	ErrTransactionFailed    = errors.New("swap transaction failed")
	ErrAuthenticationFailed = errors.New("authentication failed")
)
