package dto

// One tagged input type per transaction type, each with its own required
// fields. The engine validates these before any mutation.

type ImportLine struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Unit     string `json:"unit"`
	Category string `json:"category"`
	Location string `json:"location"`
}

type ImportInput struct {
	Supplier string       `json:"supplier"`
	Lines    []ImportLine `json:"lines"`
}

type ExportLine struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	Location string `json:"location"`
}

type ExportInput struct {
	Recipient string       `json:"recipient"`
	Lines     []ExportLine `json:"lines"`
}

type TransferLine struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
}

type TransferInput struct {
	FromLocation string         `json:"from_location"`
	ToLocation   string         `json:"to_location"`
	Lines        []TransferLine `json:"lines"`
}

type AdjustLine struct {
	Code     string `json:"code"`
	Delta    int    `json:"delta"`
	Location string `json:"location"`
	// Optional metadata for increments that create a record.
	Name     string `json:"name,omitempty"`
	Unit     string `json:"unit,omitempty"`
	Category string `json:"category,omitempty"`
}

type AdjustInput struct {
	Reason string       `json:"reason"`
	Lines  []AdjustLine `json:"lines"`
}
