package domain

import "time"

// HistoryWindow is how long an identical search by the same user is suppressed.
const HistoryWindow = 300 * time.Second

// CitySearch is a search history entry for a catalog city.
type CitySearch struct {
	UserID      int64
	CityID      int64
	RequestedAt time.Time
}

// CoordinatesSearch is a search history entry for a raw coordinate lookup,
// together with the place the provider resolved it to.
type CoordinatesSearch struct {
	UserID      int64
	Coordinates Coordinates
	Place       string
	Region      string
	Country     string
	RequestedAt time.Time
}
