package catalog

import "context"

// Item is the last-known descriptive attribute set for an item code. It is
// advisory: entry forms pre-fill from it, but quantity checks never read it.
type Item struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Unit         string `json:"unit"`
	Category     string `json:"category"`
	LastLocation string `json:"last_location"`
}

type Repository interface {
	// Get reads through to the inventory store on a miss.
	Get(ctx context.Context, code string) (*Item, error)
	Upsert(ctx context.Context, item Item) error
	// Rebuild reloads the cache from active inventory and returns the number
	// of cached codes.
	Rebuild(ctx context.Context) (int, error)
}
