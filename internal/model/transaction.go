package model

import "time"

type TransactionType string

const (
	TransactionImport   TransactionType = "import"
	TransactionExport   TransactionType = "export"
	TransactionTransfer TransactionType = "transfer"
	TransactionAdjust   TransactionType = "adjust"
)

type AdjustSubtype string

const (
	AdjustDirect    AdjustSubtype = "direct"
	AdjustRequested AdjustSubtype = "requested"
)

type QCStatus string

const (
	QCPending  QCStatus = "pending"
	QCPassed   QCStatus = "passed"
	QCFailed   QCStatus = "failed"
	QCReplaced QCStatus = "replaced"
)

// Terminal reports whether no further QC transition is possible from s.
// failed is not terminal: it can still move to replaced.
func (s QCStatus) Terminal() bool {
	return s == QCPassed || s == QCReplaced
}

// LineItem is one (item, quantity, location) unit within a transaction entry.
// Quantity is signed for adjust lines and strictly positive otherwise.
// QCStatus and QCBy are set only on import lines.
type LineItem struct {
	ID         string    `db:"id" json:"id"`
	EntryID    string    `db:"entry_id" json:"-"`
	Position   int       `db:"position" json:"-"`
	Code       string    `db:"code" json:"code"`
	Name       string    `db:"name" json:"name"`
	Quantity   int       `db:"quantity" json:"quantity"`
	Unit       string    `db:"unit" json:"unit"`
	Category   string    `db:"category" json:"category"`
	Location   string    `db:"location" json:"location"`
	ToLocation *string   `db:"to_location" json:"to_location,omitempty"`
	QCStatus   *QCStatus `db:"qc_status" json:"qc_status,omitempty"`
	QCBy       *string   `db:"qc_by" json:"qc_by,omitempty"`
}

// TransactionEntry is one immutable record of a stock-affecting event. The
// only permitted post-commit mutation is the QC status of its own import
// lines; quantities never change once committed.
//
// Per-type metadata is stored flat on the row and surfaced through the typed
// Meta accessors below, one variant per transaction type.
type TransactionEntry struct {
	ID        string          `db:"id" json:"id"`
	Type      TransactionType `db:"type" json:"type"`
	Subtype   *AdjustSubtype  `db:"subtype" json:"subtype,omitempty"`
	ActorID   string          `db:"actor_id" json:"actor_id"`
	ActorName string          `db:"actor_name" json:"actor_name"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`

	Supplier     *string `db:"supplier" json:"supplier,omitempty"`
	Recipient    *string `db:"recipient" json:"recipient,omitempty"`
	FromLocation *string `db:"from_location" json:"from_location,omitempty"`
	ToLocation   *string `db:"to_location" json:"to_location,omitempty"`
	Reason       *string `db:"reason" json:"reason,omitempty"`

	// requested adjustments only
	PreviousQuantity *int    `db:"previous_quantity" json:"previous_quantity,omitempty"`
	NewQuantity      *int    `db:"new_quantity" json:"new_quantity,omitempty"`
	RequestedByID    *string `db:"requested_by_id" json:"requested_by_id,omitempty"`
	RequestedByName  *string `db:"requested_by_name" json:"requested_by_name,omitempty"`

	Items []LineItem `db:"-" json:"items"`
}

type ImportMeta struct {
	Supplier string `json:"supplier"`
}

type ExportMeta struct {
	Recipient string `json:"recipient"`
}

type TransferMeta struct {
	FromLocation string `json:"from_location"`
	ToLocation   string `json:"to_location"`
}

type AdjustMeta struct {
	Subtype          AdjustSubtype `json:"subtype"`
	Reason           string        `json:"reason"`
	PreviousQuantity *int          `json:"previous_quantity,omitempty"`
	NewQuantity      *int          `json:"new_quantity,omitempty"`
	RequestedByID    string        `json:"requested_by_id,omitempty"`
	RequestedByName  string        `json:"requested_by_name,omitempty"`
}

func (e *TransactionEntry) ImportMeta() (ImportMeta, bool) {
	if e.Type != TransactionImport || e.Supplier == nil {
		return ImportMeta{}, false
	}
	return ImportMeta{Supplier: *e.Supplier}, true
}

func (e *TransactionEntry) ExportMeta() (ExportMeta, bool) {
	if e.Type != TransactionExport || e.Recipient == nil {
		return ExportMeta{}, false
	}
	return ExportMeta{Recipient: *e.Recipient}, true
}

func (e *TransactionEntry) TransferMeta() (TransferMeta, bool) {
	if e.Type != TransactionTransfer || e.FromLocation == nil || e.ToLocation == nil {
		return TransferMeta{}, false
	}
	return TransferMeta{FromLocation: *e.FromLocation, ToLocation: *e.ToLocation}, true
}

func (e *TransactionEntry) AdjustMeta() (AdjustMeta, bool) {
	if e.Type != TransactionAdjust || e.Subtype == nil || e.Reason == nil {
		return AdjustMeta{}, false
	}
	m := AdjustMeta{
		Subtype:          *e.Subtype,
		Reason:           *e.Reason,
		PreviousQuantity: e.PreviousQuantity,
		NewQuantity:      e.NewQuantity,
	}
	if e.RequestedByID != nil {
		m.RequestedByID = *e.RequestedByID
	}
	if e.RequestedByName != nil {
		m.RequestedByName = *e.RequestedByName
	}
	return m, true
}

// FullyResolved reports whether every import line reached a terminal QC
// status. Always false for non-import entries.
func (e *TransactionEntry) FullyResolved() bool {
	if e.Type != TransactionImport {
		return false
	}
	for _, it := range e.Items {
		if it.QCStatus == nil || !it.QCStatus.Terminal() {
			return false
		}
	}
	return true
}

// OutstandingRisk reports whether any import line is failed and not yet
// replaced.
func (e *TransactionEntry) OutstandingRisk() bool {
	if e.Type != TransactionImport {
		return false
	}
	for _, it := range e.Items {
		if it.QCStatus != nil && *it.QCStatus == QCFailed {
			return true
		}
	}
	return false
}
