package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/andresuchdata/procurement-risk/internal/domain"
	"github.com/andresuchdata/procurement-risk/internal/service"
)

type ProcurementHandler struct {
	service *service.ProcurementService
}

func NewProcurementHandler(service *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{service: service}
}

type forecastRequest struct {
	ProductID uuid.UUID `json:"productId"`
	Months    int       `json:"months"`
}

func (h *ProcurementHandler) GetStockoutRisks(c *gin.Context) {
	report, err := h.service.GetStockoutRisks(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to calculate stockout risks")
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ProcurementHandler) GetAlerts(c *gin.Context) {
	alerts, err := h.service.GetAlerts(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to fetch procurement alerts")
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *ProcurementHandler) GetSupplierPerformance(c *gin.Context) {
	perf, err := h.service.GetSupplierPerformance(c.Request.Context(), c.Query("supplier"))
	if err != nil {
		writeError(c, err, "failed to fetch supplier performance")
		return
	}
	c.JSON(http.StatusOK, perf)
}

func (h *ProcurementHandler) ListPurchaseOrders(c *gin.Context) {
	filter := domain.PurchaseOrderFilter{
		Status:   domain.POStatus(strings.TrimSpace(c.Query("status"))),
		Supplier: strings.TrimSpace(c.Query("supplier")),
	}

	var err error
	if filter.Limit, err = queryInt(c, "limit", 50); err != nil {
		writeError(c, err, "invalid query")
		return
	}
	if filter.Offset, err = queryInt(c, "offset", 0); err != nil {
		writeError(c, err, "invalid query")
		return
	}
	if raw := strings.TrimSpace(c.Query("productId")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(c, fmt.Errorf("%w: productId must be a UUID", domain.ErrValidation), "invalid query")
			return
		}
		filter.ProductID = &id
	}

	list, err := h.service.ListPurchaseOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err, "failed to list purchase orders")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ProcurementHandler) GetPurchaseOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	po, err := h.service.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch purchase order")
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *ProcurementHandler) CreatePurchaseOrder(c *gin.Context) {
	var req service.CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err), "invalid request body")
		return
	}

	po, err := h.service.CreatePurchaseOrder(c.Request.Context(), req)
	if err != nil {
		writeError(c, err, "failed to create purchase order")
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *ProcurementHandler) UpdatePurchaseOrderStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req service.UpdatePurchaseOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err), "invalid request body")
		return
	}

	po, err := h.service.UpdatePurchaseOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		writeError(c, err, "failed to update purchase order status")
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *ProcurementHandler) UpdateProcurementSettings(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var settings domain.ProcurementSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err), "invalid request body")
		return
	}

	product, err := h.service.UpdateProcurementSettings(c.Request.Context(), id, settings)
	if err != nil {
		writeError(c, err, "failed to update procurement settings")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *ProcurementHandler) GetConsumptionHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	months, err := queryInt(c, "months", 0)
	if err != nil {
		writeError(c, err, "invalid query")
		return
	}

	history, err := h.service.GetConsumptionHistory(c.Request.Context(), id, months)
	if err != nil {
		writeError(c, err, "failed to fetch consumption history")
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *ProcurementHandler) GetStockMovements(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	ledger, err := h.service.GetStockLedger(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "failed to fetch stock movements")
		return
	}
	c.JSON(http.StatusOK, ledger)
}

func (h *ProcurementHandler) RefreshReorderPoints(c *gin.Context) {
	updated, err := h.service.RefreshReorderPoints(c.Request.Context())
	if err != nil {
		writeError(c, err, "failed to refresh reorder points")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

func (h *ProcurementHandler) GenerateForecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: %v", domain.ErrValidation, err), "invalid request body")
		return
	}
	if req.ProductID == uuid.Nil {
		writeError(c, fmt.Errorf("%w: productId is required", domain.ErrValidation), "invalid request body")
		return
	}

	forecasts, err := h.service.GenerateForecast(c.Request.Context(), req.ProductID, req.Months)
	if err != nil {
		writeError(c, err, "failed to generate forecast")
		return
	}
	c.JSON(http.StatusOK, domain.ForecastResult{ProductID: req.ProductID, Success: true, Forecasts: forecasts})
}

func (h *ProcurementHandler) GenerateAllForecasts(c *gin.Context) {
	months, err := queryInt(c, "months", 0)
	if err != nil {
		writeError(c, err, "invalid query")
		return
	}

	batch, err := h.service.GenerateAllForecasts(c.Request.Context(), months)
	if err != nil {
		writeError(c, err, "failed to generate forecasts")
		return
	}
	c.JSON(http.StatusOK, batch)
}

// writeError maps domain errors onto HTTP status codes.
func writeError(c *gin.Context, err error, message string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition):
		status = http.StatusConflict
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		writeError(c, fmt.Errorf("%w: id must be a UUID", domain.ErrValidation), "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, key)
	}
	return v, nil
}
