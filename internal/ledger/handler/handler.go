package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/httputil"
	"github.com/ardhix/warehouse-ledger/internal/ledger"
	"github.com/ardhix/warehouse-ledger/internal/ledger/dto"
)

type LedgerHandler struct {
	uc     ledger.UseCase
	logger *zap.Logger
}

func NewLedgerHandler(uc ledger.UseCase, log *zap.Logger) *LedgerHandler {
	return &LedgerHandler{uc: uc, logger: log}
}

func (h *LedgerHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/transactions", h.List)
	rg.GET("/transactions/:id", h.Get)
	rg.POST("/transactions/import", h.CommitImport)
	rg.POST("/transactions/export", h.CommitExport)
	rg.POST("/transactions/transfer", h.CommitTransfer)
	rg.POST("/transactions/adjust", h.CommitAdjust)
	rg.POST("/transactions/:id/lines/:lineID/pass", h.PassLine)
	rg.POST("/transactions/:id/lines/:lineID/fail", h.FailLine)
	rg.POST("/transactions/:id/lines/:lineID/replace", h.MarkReplaced)
}

func (h *LedgerHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filters := &dto.EntryFilters{
		Type:     c.Query("type"),
		Subtype:  c.Query("subtype"),
		Code:     c.Query("code"),
		ActorID:  c.Query("actor_id"),
		Page:     page,
		PageSize: pageSize,
	}
	if v := c.Query("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Fail(c, apperr.Validation("since", "must be RFC3339"))
			return
		}
		filters.Since = &t
	}
	if v := c.Query("until"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			httputil.Fail(c, apperr.Validation("until", "must be RFC3339"))
			return
		}
		filters.Until = &t
	}

	entries, total, err := h.uc.ListEntries(c.Request.Context(), filters)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "transactions", gin.H{"items": entries, "total": total})
}

func (h *LedgerHandler) Get(c *gin.Context) {
	entry, err := h.uc.GetEntry(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "transaction", entry)
}

func (h *LedgerHandler) CommitImport(c *gin.Context) {
	var input dto.ImportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.Fail(c, apperr.Validation("body", err.Error()))
		return
	}
	entry, err := h.uc.CommitImport(c.Request.Context(), auth.ActorFromContext(c), &input)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "import committed", entry)
}

func (h *LedgerHandler) CommitExport(c *gin.Context) {
	var input dto.ExportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.Fail(c, apperr.Validation("body", err.Error()))
		return
	}
	entry, err := h.uc.CommitExport(c.Request.Context(), auth.ActorFromContext(c), &input)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "export committed", entry)
}

func (h *LedgerHandler) CommitTransfer(c *gin.Context) {
	var input dto.TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.Fail(c, apperr.Validation("body", err.Error()))
		return
	}
	entry, err := h.uc.CommitTransfer(c.Request.Context(), auth.ActorFromContext(c), &input)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "transfer committed", entry)
}

func (h *LedgerHandler) CommitAdjust(c *gin.Context) {
	var input dto.AdjustInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.Fail(c, apperr.Validation("body", err.Error()))
		return
	}
	entry, err := h.uc.CommitAdjust(c.Request.Context(), auth.ActorFromContext(c), &input)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment committed", entry)
}

func (h *LedgerHandler) PassLine(c *gin.Context) {
	entry, err := h.uc.PassLine(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), c.Param("lineID"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "line passed", entry)
}

func (h *LedgerHandler) FailLine(c *gin.Context) {
	entry, err := h.uc.FailLine(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), c.Param("lineID"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "line failed", entry)
}

func (h *LedgerHandler) MarkReplaced(c *gin.Context) {
	entry, err := h.uc.MarkLineReplaced(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"), c.Param("lineID"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "line marked replaced", entry)
}
