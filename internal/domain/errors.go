package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded = errors.New("not enough stock")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrDuplicateBrand   = errors.New("brand already exists")
	ErrNoOwner          = errors.New("no operator identity")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCheckoutInFlight = errors.New("checkout already in progress")
	ErrCheckoutFailed   = errors.New("checkout failed")
	ErrItemChanged      = errors.New("item changed while it was being edited")
)

// CapacityError reports a cart or checkout request above the known stock of an item.
type CapacityError struct {
	ItemID    string
	Name      string
	Available int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("not enough stock for %s: only %d available", e.Name, e.Available)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }
