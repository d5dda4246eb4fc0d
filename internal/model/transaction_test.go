package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func qc(s QCStatus) *QCStatus { return &s }

func TestQCStatusTerminal(t *testing.T) {
	assert.False(t, QCPending.Terminal())
	assert.False(t, QCFailed.Terminal())
	assert.True(t, QCPassed.Terminal())
	assert.True(t, QCReplaced.Terminal())
}

func TestFullyResolved(t *testing.T) {
	entry := &TransactionEntry{
		Type: TransactionImport,
		Items: []LineItem{
			{Code: "SP-01", QCStatus: qc(QCPassed)},
			{Code: "SP-02", QCStatus: qc(QCFailed)},
		},
	}
	assert.False(t, entry.FullyResolved())
	assert.True(t, entry.OutstandingRisk())

	entry.Items[1].QCStatus = qc(QCReplaced)
	assert.True(t, entry.FullyResolved())
	assert.False(t, entry.OutstandingRisk())
}

func TestResolutionFlagsOnNonImport(t *testing.T) {
	entry := &TransactionEntry{Type: TransactionExport}
	assert.False(t, entry.FullyResolved())
	assert.False(t, entry.OutstandingRisk())
}

func TestMetaAccessors(t *testing.T) {
	supplier := "Acme Supply"
	imp := &TransactionEntry{Type: TransactionImport, Supplier: &supplier}
	meta, ok := imp.ImportMeta()
	assert.True(t, ok)
	assert.Equal(t, "Acme Supply", meta.Supplier)

	// Accessors for other variants refuse the wrong type.
	_, ok = imp.ExportMeta()
	assert.False(t, ok)
	_, ok = imp.TransferMeta()
	assert.False(t, ok)
	_, ok = imp.AdjustMeta()
	assert.False(t, ok)

	subtype := AdjustRequested
	reason := "cycle count"
	prev, newQ := 5, 9
	adj := &TransactionEntry{
		Type:             TransactionAdjust,
		Subtype:          &subtype,
		Reason:           &reason,
		PreviousQuantity: &prev,
		NewQuantity:      &newQ,
	}
	am, ok := adj.AdjustMeta()
	assert.True(t, ok)
	assert.Equal(t, AdjustRequested, am.Subtype)
	assert.Equal(t, 5, *am.PreviousQuantity)
	assert.Equal(t, 9, *am.NewQuantity)
}
