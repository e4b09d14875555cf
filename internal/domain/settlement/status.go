package settlement

// Status is the settlement workflow state
type Status string

const (
	StatusPendingReceipt     Status = "pending_receipt"
	StatusReceiptSubmitted   Status = "receipt_submitted"
	StatusApprovedForPayment Status = "approved_for_payment"
	StatusPaid               Status = "paid"
	StatusRejected           Status = "rejected"
)

// IsValid returns true if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPendingReceipt, StatusReceiptSubmitted, StatusApprovedForPayment, StatusPaid, StatusRejected:
		return true
	}
	return false
}

// IsTerminal returns true if no further transitions are allowed
func (s Status) IsTerminal() bool {
	return s == StatusPaid
}

// CanTransitionTo reports whether a transition to target is allowed.
// A rejected settlement can only return to pending receipt.
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPendingReceipt:
		return target == StatusReceiptSubmitted
	case StatusReceiptSubmitted:
		return target == StatusApprovedForPayment || target == StatusRejected
	case StatusApprovedForPayment:
		return target == StatusPaid || target == StatusRejected
	case StatusRejected:
		return target == StatusPendingReceipt
	default:
		return false
	}
}

// AllowedTransitions lists the statuses reachable from s
func (s Status) AllowedTransitions() []Status {
	switch s {
	case StatusPendingReceipt:
		return []Status{StatusReceiptSubmitted}
	case StatusReceiptSubmitted:
		return []Status{StatusApprovedForPayment, StatusRejected}
	case StatusApprovedForPayment:
		return []Status{StatusPaid, StatusRejected}
	case StatusRejected:
		return []Status{StatusPendingReceipt}
	default:
		return nil
	}
}
