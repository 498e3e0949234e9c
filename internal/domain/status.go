package domain

import "strings"

// ListingStatus represents the sale status of a listing on a given day.
type ListingStatus string

const (
	StatusForSale       ListingStatus = "FOR_SALE"
	StatusPending       ListingStatus = "PENDING"
	StatusUnderContract ListingStatus = "UNDER_CONTRACT"
	StatusSold          ListingStatus = "SOLD"
	StatusUnknown       ListingStatus = "UNKNOWN"
)

// String returns the string representation of ListingStatus.
func (s ListingStatus) String() string {
	return string(s)
}

// IsValid checks if the status is a valid value.
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusForSale, StatusPending, StatusUnderContract, StatusSold, StatusUnknown:
		return true
	}
	return false
}

// IsExit reports whether the status counts as an exit from active inventory
// for survival analysis (PENDING or SOLD).
func (s ListingStatus) IsExit() bool {
	return s == StatusPending || s == StatusSold
}

// ParseStatus maps free-text status from scraped sources to a ListingStatus.
// Unrecognized text maps to StatusUnknown; it never fails.
func ParseStatus(raw string) ListingStatus {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(raw), " ", "_")) {
	case "FOR_SALE", "FOR-SALE", "ACTIVE", "LISTED":
		return StatusForSale
	case "PENDING", "SALE_PENDING", "PENDING_SALE":
		return StatusPending
	case "UNDER_CONTRACT", "CONTINGENT":
		return StatusUnderContract
	case "SOLD", "CLOSED":
		return StatusSold
	default:
		return StatusUnknown
	}
}
