package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ardhix/warehouse-ledger/internal/catalog"
	"github.com/ardhix/warehouse-ledger/internal/httputil"
)

type CatalogHandler struct {
	repo   catalog.Repository
	logger *zap.Logger
}

func NewCatalogHandler(repo catalog.Repository, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{repo: repo, logger: log}
}

func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/catalog/:code", h.Get)
	rg.POST("/catalog/rebuild", h.Rebuild)
}

func (h *CatalogHandler) Get(c *gin.Context) {
	item, err := h.repo.Get(c.Request.Context(), c.Param("code"))
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "catalog item", item)
}

func (h *CatalogHandler) Rebuild(c *gin.Context) {
	n, err := h.repo.Rebuild(c.Request.Context())
	if err != nil {
		httputil.Fail(c, err)
		return
	}
	httputil.Success(c, "catalog rebuilt", gin.H{"codes": n})
}
