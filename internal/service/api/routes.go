package api

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes API 라우트를 등록합니다.
//
//   - GET /health: 서비스 상태 확인
//   - GET /api/v1/prices: 집계 스냅샷
//   - GET /api/v1/prices/:skuId/history: 상품별 가격 이력
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/health", h.HealthCheckHandler)

	v1 := e.Group("/api/v1")
	v1.GET("/prices", h.PricesHandler)
	v1.GET("/prices/:skuId/history", h.HistoryHandler)
}
