package model

import "time"

type AdjustmentStatus string

const (
	AdjustmentPending  AdjustmentStatus = "pending"
	AdjustmentApproved AdjustmentStatus = "approved"
	AdjustmentRejected AdjustmentStatus = "rejected"
)

// AdjustmentRequest is an out-of-band quantity correction awaiting a second
// approver. Only approval produces a ledger entry and an inventory mutation;
// a request reaches a terminal status exactly once.
type AdjustmentRequest struct {
	ID               string           `db:"id" json:"id"`
	ItemCode         string           `db:"item_code" json:"item_code"`
	Location         string           `db:"location" json:"location"`
	ProposedQuantity int              `db:"proposed_quantity" json:"proposed_quantity"`
	Reason           string           `db:"reason" json:"reason"`
	Status           AdjustmentStatus `db:"status" json:"status"`
	RequestedByID    string           `db:"requested_by_id" json:"requested_by_id"`
	RequestedByName  string           `db:"requested_by_name" json:"requested_by_name"`
	ResolvedByID     *string          `db:"resolved_by_id" json:"resolved_by_id,omitempty"`
	ResolvedByName   *string          `db:"resolved_by_name" json:"resolved_by_name,omitempty"`
	ResolvedAt       *time.Time       `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}
