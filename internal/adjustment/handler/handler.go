package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/adjustment"
	"github.com/ardhix/warehouse-ledger/internal/adjustment/dto"
	"github.com/ardhix/warehouse-ledger/internal/apperr"
	"github.com/ardhix/warehouse-ledger/internal/auth"
	"github.com/ardhix/warehouse-ledger/internal/httputil"
)

type AdjustmentHandler struct {
	uc     adjustment.UseCase
	logger *zap.Logger
}

func NewAdjustmentHandler(uc adjustment.UseCase, log *zap.Logger) *AdjustmentHandler {
	return &AdjustmentHandler{uc: uc, logger: log}
}

func (h *AdjustmentHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/adjustments", h.List)
	rg.GET("/adjustments/:id", h.Get)
	rg.POST("/adjustments", h.Create)
	rg.POST("/adjustments/:id/approve", h.Approve)
	rg.POST("/adjustments/:id/reject", h.Reject)
}

func (h *AdjustmentHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	reqs, total, err := h.uc.ListRequests(c.Request.Context(), &dto.RequestFilters{
		Status:   c.Query("status"),
		Code:     c.Query("code"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment requests", gin.H{"items": reqs, "total": total})
}

func (h *AdjustmentHandler) Get(c *gin.Context) {
	req, err := h.uc.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment request", req)
}

func (h *AdjustmentHandler) Create(c *gin.Context) {
	var input dto.CreateRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httputil.Fail(c, apperr.Validation("body", err.Error()))
		return
	}
	req, err := h.uc.CreateRequest(c.Request.Context(), auth.ActorFromContext(c), &input)
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment requested", req)
}

func (h *AdjustmentHandler) Approve(c *gin.Context) {
	req, entry, err := h.uc.Approve(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment approved", gin.H{"request": req, "entry": entry})
}

func (h *AdjustmentHandler) Reject(c *gin.Context) {
	req, err := h.uc.Reject(c.Request.Context(), auth.ActorFromContext(c), c.Param("id"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "adjustment rejected", req)
}
