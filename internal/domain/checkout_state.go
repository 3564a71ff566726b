package domain

type CheckoutState string

const (
	CheckoutStateValidating CheckoutState = "VALIDATING"
	CheckoutStateEmptyCart  CheckoutState = "EMPTY_CART"
	CheckoutStateCommitted  CheckoutState = "COMMITTED"
	CheckoutStateAborted    CheckoutState = "ABORTED"
)

func (s CheckoutState) IsTerminal() bool {
	return s == CheckoutStateEmptyCart || s == CheckoutStateCommitted || s == CheckoutStateAborted
}

// String representation (for logging)
func (s CheckoutState) String() string {
	return string(s)
}

var allowedTransitions = map[CheckoutState][]CheckoutState{
	CheckoutStateValidating: {CheckoutStateEmptyCart, CheckoutStateCommitted, CheckoutStateAborted},
}

func CanTransitionTo(from, to CheckoutState) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
