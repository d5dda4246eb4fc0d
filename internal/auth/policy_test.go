package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
)

func TestAuthorize(t *testing.T) {
	cases := []struct {
		op      Operation
		role    Role
		allowed bool
	}{
		{OpCommitImport, RoleStaff, true},
		{OpCommitExport, RoleStaff, true},
		{OpCommitTransfer, RoleStaff, true},
		{OpCommitAdjust, RoleStaff, false},
		{OpCommitAdjust, RoleAdmin, true},
		{OpResolveQC, RoleStaff, false},
		{OpResolveQC, RoleQC, true},
		{OpResolveQC, RoleSuperAdmin, true},
		{OpCreateAdjustment, RoleQC, false},
		{OpCreateAdjustment, RoleAdmin, true},
		{OpResolveAdjustment, RoleAdmin, false},
		{OpResolveAdjustment, RoleSuperAdmin, true},
		{OpArchiveInventory, RoleStaff, false},
		{OpArchiveInventory, RoleAdmin, true},
	}

	for _, tc := range cases {
		err := Authorize(tc.op, tc.role)
		if tc.allowed {
			assert.NoError(t, err, "%s as %s", tc.op, tc.role)
		} else {
			assert.ErrorIs(t, err, apperr.ErrForbidden, "%s as %s", tc.op, tc.role)
		}
	}
}

func TestAuthorize_UnknownInputs(t *testing.T) {
	assert.ErrorIs(t, Authorize(Operation("nope"), RoleSuperAdmin), apperr.ErrForbidden)
	assert.ErrorIs(t, Authorize(OpCommitImport, Role("intern")), apperr.ErrForbidden)
}

func TestRoleRanking(t *testing.T) {
	assert.True(t, RoleSuperAdmin.AtLeast(RoleStaff))
	assert.True(t, RoleQC.AtLeast(RoleQC))
	assert.False(t, RoleStaff.AtLeast(RoleQC))
	assert.False(t, Role("intern").Valid())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Middleware())
	router.GET("/whoami", func(c *gin.Context) {
		actor := ActorFromContext(c)
		c.JSON(http.StatusOK, actor)
	})

	t.Run("valid headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Actor-Id", "u-1")
		req.Header.Set("X-Actor-Name", "Dina")
		req.Header.Set("X-Actor-Role", "qc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"u-1"`)
	})

	t.Run("missing identity", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("X-Actor-Id", "u-1")
		req.Header.Set("X-Actor-Role", "intern")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
