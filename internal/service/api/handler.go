package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/pkg/version"
	"github.com/darkkaiser/pricewatch/internal/store"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/labstack/echo/v4"
)

const componentHandler = "api.handler"

// HealthResponse 헬스체크 응답 본문입니다.
type HealthResponse struct {
	// Status 전체 상태: healthy
	Status string `json:"status"`

	// Uptime 서버 가동 시간(초)
	Uptime int64 `json:"uptime"`

	Version string `json:"version"`
}

// Handler 집계 스냅샷과 가격 이력을 조회하는 읽기 전용 핸들러입니다.
type Handler struct {
	source store.Source

	// products 조회를 허용하는 상품 ID (설정에 등록된 상품만 응답)
	products map[string]struct{}

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(source store.Source, productIDs []string, buildInfo version.Info) *Handler {
	if source == nil {
		panic("store.Source는 필수입니다")
	}

	products := make(map[string]struct{}, len(productIDs))
	for _, id := range productIDs {
		products[id] = struct{}{}
	}

	return &Handler{
		source:          source,
		products:        products,
		buildInfo:       buildInfo,
		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler GET /health
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Uptime:  int64(time.Since(h.serverStartTime).Seconds()),
		Version: h.buildInfo.Version,
	})
}

// PricesHandler GET /api/v1/prices
//
// 마지막으로 기록된 집계 스냅샷을 그대로 반환합니다.
func (h *Handler) PricesHandler(c echo.Context) error {
	data, err := h.source.Fetch(c.Request().Context(), store.SnapshotName)
	if err != nil {
		return h.fetchError(err, store.SnapshotName, "집계 스냅샷이 아직 생성되지 않았습니다.")
	}

	if !json.Valid(data) {
		applog.WithComponentAndFields(componentHandler, applog.Fields{
			"name": store.SnapshotName,
		}).Error("집계 스냅샷이 올바른 JSON 형식이 아닙니다")
		return echo.NewHTTPError(http.StatusInternalServerError, "집계 스냅샷을 해석할 수 없습니다.")
	}

	return c.JSONBlob(http.StatusOK, data)
}

// HistoryHandler GET /api/v1/prices/:skuId/history
//
// 상품의 가격 이력을 현재 형식({meta, history})으로 반환합니다. 초기 형식(배열)으로 저장된 이력도 변환하여 응답합니다.
func (h *Handler) HistoryHandler(c echo.Context) error {
	skuID := c.Param("skuId")
	if _, ok := h.products[skuID]; !ok {
		return echo.NewHTTPError(http.StatusNotFound, "등록되지 않은 상품입니다.")
	}

	name := store.HistoryName(skuID)
	data, err := h.source.Fetch(c.Request().Context(), name)
	if err != nil {
		return h.fetchError(err, name, "가격 이력이 아직 생성되지 않았습니다.")
	}

	doc, err := history.Parse(data)
	if err != nil {
		applog.WithComponentAndFields(componentHandler, applog.Fields{
			"name":  name,
			"error": err,
		}).Error("가격 이력을 해석할 수 없습니다")
		return echo.NewHTTPError(http.StatusInternalServerError, "가격 이력을 해석할 수 없습니다.")
	}

	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) fetchError(err error, name, notFoundMessage string) error {
	if store.IsNotFound(err) {
		return echo.NewHTTPError(http.StatusNotFound, notFoundMessage)
	}

	applog.WithComponentAndFields(componentHandler, applog.Fields{
		"name":  name,
		"error": err,
	}).Error("저장소 조회에 실패했습니다")

	return echo.NewHTTPError(http.StatusServiceUnavailable, "저장소를 조회할 수 없습니다.")
}
