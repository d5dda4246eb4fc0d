package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/httputil"
	"github.com/ardhix/warehouse-ledger/internal/inventory"
	"github.com/ardhix/warehouse-ledger/internal/inventory/dto"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger *zap.Logger
}

func NewInventoryHandler(uc inventory.UseCase, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: log}
}

func (h *InventoryHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/inventory", h.List)
	rg.GET("/inventory/:code", h.GetByCode)
	rg.POST("/inventory/:code/:location/archive", h.Archive)
	rg.POST("/inventory/:code/:location/unarchive", h.Unarchive)
}

func (h *InventoryHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := &dto.InventoryFilters{
		Code:     c.Query("code"),
		Search:   c.Query("search"),
		Category: c.Query("category"),
		Location: c.Query("location"),
		Status:   c.Query("status"),
		Page:     page,
		PageSize: pageSize,
	}

	items, total, err := h.uc.List(c.Request.Context(), filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}

	httputil.Success(c, "inventory", gin.H{"items": items, "total": total})
}

func (h *InventoryHandler) GetByCode(c *gin.Context) {
	recs, err := h.uc.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "inventory records", recs)
}

func (h *InventoryHandler) Archive(c *gin.Context) {
	actor := auth.ActorFromContext(c)
	rec, err := h.uc.Archive(c.Request.Context(), actor, c.Param("code"), c.Param("location"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "inventory archived", rec)
}

func (h *InventoryHandler) Unarchive(c *gin.Context) {
	actor := auth.ActorFromContext(c)
	rec, err := h.uc.Unarchive(c.Request.Context(), actor, c.Param("code"), c.Param("location"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "inventory unarchived", rec)
}
