package maps

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPServer maps-service 的 REST 处理器。
// 同一路径按参数区分单条与批量：
// - GET /geocode?lat=..&lon=..          单条解析
// - GET /geocode?locations=a:b,c:d,...  批量解析，按传入键原样回包
type HTTPServer struct {
	repo AddressRepository
}

func NewHTTPServer(repo AddressRepository) *HTTPServer {
	return &HTTPServer{repo: repo}
}

func (h *HTTPServer) Register(r *gin.Engine) {
	r.GET("/geocode", h.Geocode)
}

func (h *HTTPServer) Geocode(c *gin.Context) {
	if locations := c.Query("locations"); locations != "" {
		h.geocodeBatch(c, locations)
		return
	}

	if _, err := strconv.ParseFloat(c.Query("lat"), 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lat"})
		return
	}
	if _, err := strconv.ParseFloat(c.Query("lon"), 64); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lon"})
		return
	}

	c.JSON(http.StatusOK, h.repo.GetRandom())
}

// geocodeBatch 对每个坐标键返回一条地址；重复键只出现一次。
func (h *HTTPServer) geocodeBatch(c *gin.Context, locations string) {
	result := make(map[string]Address)
	for _, key := range strings.Split(locations, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, ok := result[key]; !ok {
			result[key] = h.repo.GetRandom()
		}
	}
	c.JSON(http.StatusOK, result)
}
