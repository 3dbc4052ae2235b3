package enums

import "fmt"

// SyncDirection tells whether data moved toward the channel or from it.
type SyncDirection string

const (
	SyncDirectionPush SyncDirection = "push"
	SyncDirectionPull SyncDirection = "pull"
)

var validSyncDirections = []SyncDirection{
	SyncDirectionPush,
	SyncDirectionPull,
}

// IsValid reports whether the value matches the canonical sync_direction enum.
func (d SyncDirection) IsValid() bool {
	for _, candidate := range validSyncDirections {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseSyncDirection converts raw input into SyncDirection.
func ParseSyncDirection(value string) (SyncDirection, error) {
	for _, candidate := range validSyncDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync direction %q", value)
}

// SyncType identifies which dataset a sync attempt carried.
type SyncType string

const (
	SyncTypeAvailability SyncType = "availability"
	SyncTypeRates        SyncType = "rates"
	SyncTypeReservations SyncType = "reservations"
)

var validSyncTypes = []SyncType{
	SyncTypeAvailability,
	SyncTypeRates,
	SyncTypeReservations,
}

// IsValid reports whether the value matches the canonical sync_type enum.
func (t SyncType) IsValid() bool {
	for _, candidate := range validSyncTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseSyncType converts raw input into SyncType.
func ParseSyncType(value string) (SyncType, error) {
	for _, candidate := range validSyncTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync type %q", value)
}

// SyncStatus is the lifecycle of a single sync attempt.
type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusPartial SyncStatus = "partial"
	SyncStatusFailed  SyncStatus = "failed"
)

var validSyncStatuses = []SyncStatus{
	SyncStatusPending,
	SyncStatusSuccess,
	SyncStatusPartial,
	SyncStatusFailed,
}

// IsValid reports whether the value matches the canonical sync_status enum.
func (s SyncStatus) IsValid() bool {
	for _, candidate := range validSyncStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt reached a final state.
func (s SyncStatus) IsTerminal() bool {
	return s == SyncStatusSuccess || s == SyncStatusPartial || s == SyncStatusFailed
}

// ParseSyncStatus converts raw input into SyncStatus.
func ParseSyncStatus(value string) (SyncStatus, error) {
	for _, candidate := range validSyncStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sync status %q", value)
}
