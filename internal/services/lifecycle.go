package services

import (
	"fmt"

	"cafeorders/internal/domain"
)

// transitions lists the statuses reachable from each non-terminal status.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusPending:   {domain.StatusConfirmed, domain.StatusCancelled},
	domain.StatusConfirmed: {domain.StatusCompleted, domain.StatusCancelled},
}

// CanTransition reports whether from -> to is an edge of the status machine.
func CanTransition(from, to domain.OrderStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a status update request against the current
// status. A request that keeps a non-terminal status is accepted so callers
// can change only the payment status.
func CheckTransition(from, to domain.OrderStatus) error {
	if !to.Valid() {
		return domain.Invalid("status", fmt.Sprintf("unknown status %q", to))
	}
	if from.Terminal() {
		return fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, from)
	}
	if from == to || CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
}

// CheckInitialStatus validates caller-supplied values for a new order.
func CheckInitialStatus(status domain.OrderStatus, pay domain.PaymentStatus) error {
	if status != domain.StatusPending && status != domain.StatusConfirmed {
		return domain.Invalid("status", "new orders start pending or confirmed")
	}
	if !pay.Valid() {
		return domain.Invalid("paymentStatus", fmt.Sprintf("unknown payment status %q", pay))
	}
	return nil
}
