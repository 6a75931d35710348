package handlers

import (
	"net/http"

	"loadline/middleware"
	"loadline/models"
	"loadline/services/catalog"
	"loadline/services/rules"

	"github.com/gin-gonic/gin"
)

// AdminHandler covers company configuration: dispatch rules and the
// distributor catalog.
type AdminHandler struct {
	Rules   rules.Service
	Catalog catalog.Service
}

func NewAdminHandler(rulesSvc rules.Service, catalogSvc catalog.Service) *AdminHandler {
	return &AdminHandler{Rules: rulesSvc, Catalog: catalogSvc}
}

// GetRulesHandler handles GET /api/admin/rules.
func (h *AdminHandler) GetRulesHandler(c *gin.Context) {
	_, _, _, company := middleware.Actor(c)
	r, err := h.Rules.Resolve(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// UpdateRulesHandler handles PUT /api/admin/rules.
func (h *AdminHandler) UpdateRulesHandler(c *gin.Context) {
	var input models.DispatchRules
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	_, _, _, company := middleware.Actor(c)
	input.CompanyCode = company
	if err := h.Rules.Update(c.Request.Context(), &input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, input)
}

// OpenNightSlotsHandler handles POST /api/admin/rules/open-night.
func (h *AdminHandler) OpenNightSlotsHandler(c *gin.Context) {
	_, _, _, company := middleware.Actor(c)
	r, err := h.Rules.OpenNightSlots(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// ListDistributorsHandler handles GET /api/admin/distributors.
func (h *AdminHandler) ListDistributorsHandler(c *gin.Context) {
	_, _, _, company := middleware.Actor(c)
	ds, err := h.Catalog.ListDistributors(c.Request.Context(), company)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"distributors": ds})
}

// UpsertDistributorHandler handles PUT /api/admin/distributors.
func (h *AdminHandler) UpsertDistributorHandler(c *gin.Context) {
	var input models.Distributor
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": err.Error()})
		return
	}

	_, _, _, company := middleware.Actor(c)
	input.CompanyCode = company
	if err := h.Catalog.UpsertDistributor(c.Request.Context(), &input); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, input)
}
