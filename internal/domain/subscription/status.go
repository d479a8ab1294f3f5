package subscription

import "time"

// Provider-side subscription statuses as delivered by the billing provider.
const (
	ProviderActive            = "active"
	ProviderTrialing          = "trialing"
	ProviderPastDue           = "past_due"
	ProviderCanceled          = "canceled"
	ProviderIncomplete        = "incomplete"
	ProviderIncompleteExpired = "incomplete_expired"
	ProviderUnpaid            = "unpaid"
)

// DeriveStatus projects a provider status onto the local status enum.
// An "active" subscription whose trial end is still ahead of now is
// reported as trialing; a trial end exactly at now counts as elapsed.
func DeriveStatus(providerStatus string, trialEnd *time.Time, now time.Time) Status {
	switch providerStatus {
	case ProviderActive:
		if trialEnd != nil && trialEnd.After(now) {
			return StatusTrialing
		}
		return StatusActive
	case ProviderTrialing:
		return StatusTrialing
	case ProviderPastDue:
		return StatusPastDue
	case ProviderCanceled:
		return StatusCancelled
	case ProviderIncomplete, ProviderIncompleteExpired, ProviderUnpaid:
		return StatusInactive
	default:
		return StatusInactive
	}
}

// UnixTime converts a provider unix timestamp to an absolute time; zero means unset.
func UnixTime(sec int64) *time.Time {
	if sec <= 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}

// DaysRemaining is the ceiling of the whole days left until end.
func DaysRemaining(end, now time.Time) int {
	const day = int64(24 * time.Hour / time.Millisecond)
	diff := end.Sub(now).Milliseconds()
	days := diff / day
	if diff%day > 0 {
		days++
	}
	return int(days)
}
