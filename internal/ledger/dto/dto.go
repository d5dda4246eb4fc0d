package dto

import "time"

type EntryFilters struct {
	Type     string
	Subtype  string
	Code     string // matches any line item code
	ActorID  string
	Since    *time.Time
	Until    *time.Time
	Page     int
	PageSize int
}
