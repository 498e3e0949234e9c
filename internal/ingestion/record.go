// Package ingestion turns raw listing records into daily snapshot rows,
// deriving price history fields and status transitions along the way.
package ingestion

import (
	"strings"

	"listing-lab/internal/domain"
)

// Record is a raw listing observation as delivered by a scraper or feed.
// Status is free text and is mapped onto the canonical statuses during upsert.
type Record struct {
	Address string   `json:"address"`
	City    string   `json:"city"`
	State   string   `json:"state"`
	Zip     string   `json:"zip"`
	Market  string   `json:"market"`
	Status  string   `json:"status"`
	Price   *float64 `json:"price"`
	Beds    *int     `json:"beds"`
	Baths   *float64 `json:"baths"`
	Sqft    *int     `json:"sqft"`
	URL     string   `json:"url"`
	Source  string   `json:"source"`
}

// Validate reports whether the record carries enough to identify a property.
// A blank address still hashes to a stable id from the remaining location
// fields, so only records with no identifying text at all are rejected.
func (r *Record) Validate() error {
	if strings.TrimSpace(r.Address) == "" &&
		strings.TrimSpace(r.Zip) == "" &&
		strings.TrimSpace(r.City) == "" &&
		strings.TrimSpace(r.State) == "" {
		return ErrEmptyRecord
	}
	return nil
}

// normalizedMarket falls back to the city when the feed didn't tag a market.
func (r *Record) normalizedMarket() string {
	if m := strings.TrimSpace(r.Market); m != "" {
		return strings.ToLower(m)
	}
	return strings.ToLower(strings.TrimSpace(r.City))
}

// parsedStatus maps the record's free-text status onto a canonical status.
func (r *Record) parsedStatus() domain.ListingStatus {
	return domain.ParseStatus(r.Status)
}
