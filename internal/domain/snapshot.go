package domain

import "time"

// DateFormat is the canonical calendar-date layout used throughout storage.
const DateFormat = "2006-01-02"

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the whole-day delta between two calendar dates.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}

// Snapshot represents one observed state of a property on one calendar day.
// Corresponds to the snapshots table; unique on (property_id, snapshot_date).
type Snapshot struct {
	PropertyID   string    // 16-hex-char content hash of the normalized address
	SnapshotDate time.Time // calendar day (UTC midnight)

	Address           string
	AddressNormalized string
	City              string
	State             string
	Zip               string
	Market            string // market slug, e.g. "phoenix-az"

	ListPrice *float64 // nil when the source had no price
	Status    ListingStatus
	Beds      *int
	Baths     *float64
	Sqft      *int

	FirstSeenDate time.Time // earliest snapshot date for this property; never regresses
	DaysOnMarket  int       // snapshot_date - first_seen_date

	PreviousPrice  *float64 // list price of the most recent prior snapshot
	PriceChange    *float64 // list_price - previous_price, nil when either side is nil
	PriceCutsCount int      // cumulative count of negative price changes

	Source     string
	URL        string
	IngestedAt time.Time
}

// Transition represents a detected status change between two consecutive
// snapshots of the same property. Rows are append-only.
type Transition struct {
	PropertyID            string
	TransitionDate        time.Time // calendar day the new status was observed
	FromStatus            ListingStatus
	ToStatus              ListingStatus
	DaysInPreviousStatus  int // transition_date - date of the from_status snapshot
	ListPriceAtTransition *float64
	Market                string
}

// InventoryStats summarizes active inventory on a given day. Snapshots without
// a price are counted but excluded from the price aggregates.
type InventoryStats struct {
	Date           time.Time
	TotalTracked   int
	ActiveCount    int
	ByStatus       map[ListingStatus]int
	ByMarket       map[string]int // FOR_SALE counts per market
	AvgPrice       *float64       // over FOR_SALE rows with a price
	TotalValue     *float64
	AvgDaysOnMkt   *float64
	WithPriceCuts  int // FOR_SALE rows with price_cuts_count > 0
	TotalPriceCuts int
}
