package auth

import (
	"fmt"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
)

// Operation identifies a mutating engine operation for authorization.
type Operation string

const (
	OpCommitImport      Operation = "ledger.commit_import"
	OpCommitExport      Operation = "ledger.commit_export"
	OpCommitTransfer    Operation = "ledger.commit_transfer"
	OpCommitAdjust      Operation = "ledger.commit_adjust"
	OpResolveQC         Operation = "ledger.resolve_qc"
	OpCreateAdjustment  Operation = "adjustment.create"
	OpResolveAdjustment Operation = "adjustment.resolve"
	OpArchiveInventory  Operation = "inventory.archive"
)

// minRole is the single authorization table consulted by every mutating
// operation. Roles are linearly ranked; an operation admits its minimum role
// and everything above it, except resolve-adjustment which is super_admin
// only by construction (it is the top rank).
var minRole = map[Operation]Role{
	OpCommitImport:      RoleStaff,
	OpCommitExport:      RoleStaff,
	OpCommitTransfer:    RoleStaff,
	OpCommitAdjust:      RoleAdmin,
	OpResolveQC:         RoleQC,
	OpCreateAdjustment:  RoleAdmin,
	OpResolveAdjustment: RoleSuperAdmin,
	OpArchiveInventory:  RoleAdmin,
}

// Authorize rejects with Forbidden when role is insufficient for op.
func Authorize(op Operation, role Role) error {
	min, ok := minRole[op]
	if !ok {
		return fmt.Errorf("%w: unknown operation %s", apperr.ErrForbidden, op)
	}
	if !role.Valid() || !role.AtLeast(min) {
		return fmt.Errorf("%w: role %q may not perform %s", apperr.ErrForbidden, role, op)
	}
	return nil
}
