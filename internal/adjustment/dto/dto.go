package dto

type CreateRequestInput struct {
	ItemCode         string `json:"item_code"`
	Location         string `json:"location"`
	ProposedQuantity int    `json:"proposed_quantity"`
	Reason           string `json:"reason"`
}

type RequestFilters struct {
	Status   string
	Code     string
	Page     int
	PageSize int
}
