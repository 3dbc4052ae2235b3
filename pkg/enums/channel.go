package enums

import "fmt"

// MappingStatus is the health of a channel mapping.
type MappingStatus string

const (
	MappingStatusActive   MappingStatus = "active"
	MappingStatusInactive MappingStatus = "inactive"
	MappingStatusError    MappingStatus = "error"
)

var validMappingStatuses = []MappingStatus{
	MappingStatusActive,
	MappingStatusInactive,
	MappingStatusError,
}

// IsValid reports whether the value matches the canonical mapping_status enum.
func (s MappingStatus) IsValid() bool {
	for _, candidate := range validMappingStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseMappingStatus converts raw input into MappingStatus.
func ParseMappingStatus(value string) (MappingStatus, error) {
	for _, candidate := range validMappingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mapping status %q", value)
}
