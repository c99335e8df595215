package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fulfillment-engine/internal/repository/cache"
	"fulfillment-engine/internal/service"

	"github.com/gin-gonic/gin"
)

// GetOrderByNumber returns the cached projection of an order, holds and
// submission history included.
func (h *Handler) GetOrderByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		newErrorResponse(c, http.StatusBadRequest, "invalid order number")
		return
	}

	proj, err := h.svc.GetCachedProjection(number)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			newErrorResponse(c, http.StatusNotFound, "not found")
			return
		}
		if val, ok := err.(cache.ErrorHandler); ok {
			newErrorResponse(c, val.StatusCode, err.Error())
			return
		}
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, proj)
}

// GetDbOrderByNumber reads the order straight from postgres, bypassing the
// projection cache.
func (h *Handler) GetDbOrderByNumber(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing order number")
		return
	}

	order, err := h.svc.GetDbOrder(number)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			newErrorResponse(c, http.StatusNotFound, "order not found")
			return
		}
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, order)
}

type getSubmissionsResponse struct {
	Data interface{} `json:"data"`
}

// GetSubmissions returns the append-only distributor attempt log for an order.
func (h *Handler) GetSubmissions(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing order number")
		return
	}

	subs, err := h.svc.GetSubmissions(number)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			newErrorResponse(c, http.StatusNotFound, "order not found")
			return
		}
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, getSubmissionsResponse{Data: subs})
}

// ClearHold releases a compliance hold and re-runs reconciliation for the
// order, so released items get classified and submitted.
func (h *Handler) ClearHold(c *gin.Context) {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		newErrorResponse(c, http.StatusBadRequest, "missing order number")
		return
	}

	holdID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || holdID == 0 {
		newErrorResponse(c, http.StatusBadRequest, "invalid hold id")
		return
	}

	proj, err := h.svc.ClearHold(c.Request.Context(), number, uint(holdID))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			newErrorResponse(c, http.StatusNotFound, "order not found")
			return
		}
		if errors.Is(err, service.ErrEscalated) {
			newErrorResponse(c, http.StatusBadGateway, err.Error())
			return
		}
		newErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, proj)
}

// GetAllOrders returns every cached projection.
func (h *Handler) GetAllOrders(c *gin.Context) {
	projections, err := h.svc.GetAllCachedProjections()
	if err != nil {
		if val, ok := err.(cache.ErrorHandler); ok {
			newErrorResponse(c, val.StatusCode, err.Error())
			return
		} else {
			newErrorResponse(c, http.StatusInternalServerError, err.Error())
			return
		}
	}
	c.JSON(http.StatusOK, getAllOrdersResponse{
		Data: projections,
	})
}
