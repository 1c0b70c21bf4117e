package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	defaultReadTimeout       = 10 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second

	// defaultRequestTimeout 각 HTTP 요청의 최대 처리 시간입니다. 원격 저장소 조회가 이 시간을 넘으면 503을 반환합니다.
	defaultRequestTimeout = 20 * time.Second
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정을 정의합니다.
type HTTPServerConfig struct {
	// Debug Echo 프레임워크의 디버그 모드 활성화 여부
	Debug bool

	// AllowOrigins CORS에서 허용할 Origin 목록
	AllowOrigins []string

	// RequestTimeout 각 HTTP 요청의 최대 처리 시간 (기본값: 20초)
	RequestTimeout time.Duration
}

// NewHTTPServer 미들웨어가 설정된 Echo 인스턴스를 생성합니다. 라우트는 RegisterRoutes로 별도 등록합니다.
//
// 미들웨어 적용 순서:
//
//  1. PanicRecovery - 핸들러의 panic을 복구하고 스택 트레이스를 로깅
//  2. RequestID - 요청마다 X-Request-ID 부여 (로깅보다 먼저 적용)
//  3. Server 헤더 제거
//  4. HTTPLogger - 요청/응답 로깅 (Timeout으로 인한 503도 기록되도록 Timeout 이전에 위치)
//  5. ContextTimeout - 요청 컨텍스트에 처리 제한 시간을 설정 (초과 시 503)
//  6. CORS - 읽기 전용 API이므로 GET/HEAD만 허용
//  7. Secure - 보안 헤더
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true
	e.Logger = newEchoLogger()

	e.Server.ReadTimeout = defaultReadTimeout
	e.Server.ReadHeaderTimeout = defaultReadHeaderTimeout
	e.Server.WriteTimeout = defaultWriteTimeout
	e.Server.IdleTimeout = defaultIdleTimeout

	e.HTTPErrorHandler = errorHandler

	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	e.Use(panicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(httpLogger())
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodHead},
	}))
	e.Use(middleware.Secure())

	return e
}
