package domain

import "time"

// CatalogEvent announces a change to the stored catalog.
type CatalogEvent struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"` // "upserted"
	Names     []string  `json:"names"`
	Count     int       `json:"count"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogStats summarises the stored catalog.
type CatalogStats struct {
	Total          int        `json:"total"`
	WithRedshift   int        `json:"with_redshift"`
	WithPhotometry int        `json:"with_photometry"`
	WithSpectra    int        `json:"with_spectra"`
	LastUpdated    *time.Time `json:"last_updated,omitempty"`
}
