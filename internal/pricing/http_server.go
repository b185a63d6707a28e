package pricing

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPServer pricing-service 的 REST 处理器。
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) Register(r *gin.Engine) {
	r.GET("/price", h.GetPrice)
	r.GET("/price/list", h.GetPrices)
	r.POST("/price", h.SetPrice)
	r.DELETE("/price", h.DeletePrice)
}

func (h *HTTPServer) GetPrice(c *gin.Context) {
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetPrice(c.Request.Context(), vehicleID)
	if errors.Is(err, ErrPriceNotFound) {
		c.String(http.StatusNotFound, "Price Not Found")
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get price"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *HTTPServer) GetPrices(c *gin.Context) {
	raw := c.Query("vehicleList")
	if strings.TrimSpace(raw) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicleList is required"})
		return
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicleList"})
			return
		}
		ids = append(ids, id)
	}

	prices, err := h.svc.GetPrices(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list prices"})
		return
	}
	c.JSON(http.StatusOK, prices)
}

// setPriceRequest currency / price 均可缺省：currency 默认 USD，
// price 缺省时由服务端随机定价。
type setPriceRequest struct {
	VehicleID int64    `json:"vehicleId"`
	Currency  string   `json:"currency"`
	Price     *float64 `json:"price"`
}

func (h *HTTPServer) SetPrice(c *gin.Context) {
	var req setPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.svc.SetPrice(c.Request.Context(), req.VehicleID, req.Currency, req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *HTTPServer) DeletePrice(c *gin.Context) {
	vehicleID, ok := parseVehicleID(c)
	if !ok {
		return
	}
	// 契约要求字符串状态，而不是 JSON
	c.String(http.StatusOK, h.svc.DeletePrice(c.Request.Context(), vehicleID))
}

func parseVehicleID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("vehicleId"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid vehicleId"})
		return 0, false
	}
	return id, true
}
