package enums

import "fmt"

// BookingStatus is the lifecycle state of a reservation.
type BookingStatus string

const (
	BookingStatusPending    BookingStatus = "pending"
	BookingStatusConfirmed  BookingStatus = "confirmed"
	BookingStatusCheckedIn  BookingStatus = "checked_in"
	BookingStatusCheckedOut BookingStatus = "checked_out"
	BookingStatusCancelled  BookingStatus = "cancelled"
	BookingStatusNoShow     BookingStatus = "no_show"
)

var validBookingStatuses = []BookingStatus{
	BookingStatusPending,
	BookingStatusConfirmed,
	BookingStatusCheckedIn,
	BookingStatusCheckedOut,
	BookingStatusCancelled,
	BookingStatusNoShow,
}

// IsValid reports whether the value matches the canonical booking_status enum.
func (s BookingStatus) IsValid() bool {
	for _, candidate := range validBookingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// HoldsInventory is the single authoritative definition of which booking
// states keep rooms deducted from the ledger. Every deduct/restore decision
// goes through this predicate instead of ad-hoc status lists.
func (s BookingStatus) HoldsInventory() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCheckedIn:
		return true
	default:
		return false
	}
}

// ParseBookingStatus converts raw input into BookingStatus.
func ParseBookingStatus(value string) (BookingStatus, error) {
	for _, candidate := range validBookingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid booking status %q", value)
}

// BookingSource distinguishes direct bookings from channel-pulled ones.
type BookingSource string

const (
	BookingSourceDirect  BookingSource = "direct"
	BookingSourceChannel BookingSource = "channel"
)

// IsValid reports whether the value matches the canonical booking_source enum.
func (s BookingSource) IsValid() bool {
	return s == BookingSourceDirect || s == BookingSourceChannel
}
