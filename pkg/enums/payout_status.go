package enums

import "fmt"

// PayoutStatus tracks a payout request against a seller's payout method.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusPaid    PayoutStatus = "paid_out"
	PayoutStatusFailed  PayoutStatus = "failed"
)

var validPayoutStatuses = []PayoutStatus{
	PayoutStatusPending,
	PayoutStatusPaid,
	PayoutStatusFailed,
}

// IsValid reports whether the value is a known PayoutStatus.
func (p PayoutStatus) IsValid() bool {
	for _, candidate := range validPayoutStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePayoutStatus converts raw input into a PayoutStatus.
func ParsePayoutStatus(value string) (PayoutStatus, error) {
	for _, candidate := range validPayoutStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payout status %q", value)
}
