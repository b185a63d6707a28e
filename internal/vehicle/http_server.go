package vehicle

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type carService interface {
	List(ctx context.Context) ([]Car, error)
	Get(ctx context.Context, id int64) (*Car, error)
	Save(ctx context.Context, car *Car, price *PriceUpdate) (*Car, error)
	Delete(ctx context.Context, id int64) (string, error)
}

// HTTPServer vehicles-api 的 REST 处理器。
type HTTPServer struct {
	svc carService
}

func NewHTTPServer(svc carService) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) Register(r *gin.Engine) {
	r.GET("/cars", h.ListCars)
	r.GET("/cars/:id", h.GetCar)
	r.POST("/cars", h.CreateCar)
	r.PUT("/cars/:id", h.UpdateCar)
	r.DELETE("/cars/:id", h.DeleteCar)
}

// carRequest 创建/更新车辆的请求体。price 可选：带了就推一条新报价。
type carRequest struct {
	Condition Condition    `json:"condition"`
	Details   Details      `json:"details"`
	Location  *Location    `json:"location"`
	Price     *PriceUpdate `json:"price"`
}

func (req *carRequest) validate() string {
	if !req.Condition.Valid() {
		return "condition must be NEW or USED"
	}
	if req.Location == nil {
		return "location is required"
	}
	if req.Price != nil && req.Price.Amount != nil && *req.Price.Amount < 0 {
		return "price amount must be non-negative"
	}
	return ""
}

func (h *HTTPServer) ListCars(c *gin.Context) {
	cars, err := h.svc.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list cars"})
		return
	}
	c.JSON(http.StatusOK, cars)
}

func (h *HTTPServer) GetCar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	car, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, ErrCarNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "car not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get car"})
		return
	}
	c.JSON(http.StatusOK, car)
}

func (h *HTTPServer) CreateCar(c *gin.Context) {
	req, ok := bindCarRequest(c)
	if !ok {
		return
	}

	car := &Car{
		Condition: req.Condition,
		Details:   req.Details,
		Location:  *req.Location,
	}
	saved, err := h.svc.Save(c.Request.Context(), car, req.Price)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save car"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *HTTPServer) UpdateCar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	req, ok := bindCarRequest(c)
	if !ok {
		return
	}

	car := &Car{
		ID:        id,
		Condition: req.Condition,
		Details:   req.Details,
		Location:  *req.Location,
	}
	saved, err := h.svc.Save(c.Request.Context(), car, req.Price)
	if errors.Is(err, ErrCarNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "car not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save car"})
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (h *HTTPServer) DeleteCar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	status, err := h.svc.Delete(c.Request.Context(), id)
	if errors.Is(err, ErrCarNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "car not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete car"})
		return
	}
	// 与 pricing 服务的 delete 契约对齐：状态用字符串表达
	c.String(http.StatusOK, status)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid car id"})
		return 0, false
	}
	return id, true
}

func bindCarRequest(c *gin.Context) (*carRequest, bool) {
	var req carRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return nil, false
	}
	if msg := req.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return nil, false
	}
	return &req, true
}
