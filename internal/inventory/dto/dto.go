package dto

type InventoryFilters struct {
	Code     string
	Search   string // matches name, case-insensitive substring
	Category string
	Location string
	Status   string
	Page     int
	PageSize int
}
