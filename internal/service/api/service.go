// Package api 집계 스냅샷과 가격 이력을 조회하는 읽기 전용 HTTP API 서비스를 제공합니다.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/pkg/version"
	"github.com/darkkaiser/pricewatch/internal/service/notification"
	"github.com/darkkaiser/pricewatch/internal/store"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/labstack/echo/v4"
)

const componentService = "api.service"

// shutdownTimeout Graceful Shutdown 시 최대 대기 시간
const shutdownTimeout = 5 * time.Second

// Service API 서버의 생명주기를 관리하는 서비스입니다.
//
// Start()는 즉시 반환되며 서버는 고루틴에서 실행됩니다. serviceStopCtx가 취소되면 Graceful Shutdown을 수행합니다.
type Service struct {
	appConfig *config.AppConfig

	source   store.Source
	notifier notification.Notifier

	buildInfo version.Info

	// address 서버가 바인딩할 주소 (기본값: ":listen_port")
	address string

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, source store.Source, notifier notification.Notifier, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if source == nil {
		panic("store.Source는 필수입니다")
	}
	if notifier == nil {
		panic("Notifier는 필수입니다")
	}

	return &Service{
		appConfig: appConfig,
		source:    source,
		notifier:  notifier,
		buildInfo: buildInfo,
		address:   fmt.Sprintf(":%d", appConfig.API.ListenPort),
	}
}

// Start API 서비스를 시작합니다. 이미 실행 중이면 serviceStopWG.Done()을 호출하고 nil을 반환합니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(componentService).Info("서비스 시작 진입: API 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(componentService).Warn("API 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	s.running = true

	e := s.setupServer()
	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	go func() {
		defer serviceStopWG.Done()
		s.waitForShutdown(serviceStopCtx, e, httpServerDone)
	}()

	applog.WithComponentAndFields(componentService, applog.Fields{
		"address": s.address,
	}).Info("서비스 시작 완료: API 서비스가 정상적으로 초기화되었습니다")

	return nil
}

func (s *Service) setupServer() *echo.Echo {
	productIDs := make([]string, 0, len(s.appConfig.Products))
	for _, p := range s.appConfig.Products {
		productIDs = append(productIDs, p.ID)
	}

	e := NewHTTPServer(HTTPServerConfig{
		Debug:        s.appConfig.Debug,
		AllowOrigins: s.appConfig.API.AllowOrigins,
	})
	RegisterRoutes(e, NewHandler(s.source, productIDs, s.buildInfo))

	return e
}

func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	err := e.Start(s.address)
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(componentService).Info("HTTP 서버가 종료되었습니다")
		return
	}

	message := "HTTP 서버 실행 중 치명적인 오류가 발생했습니다"
	applog.WithComponentAndFields(componentService, applog.Fields{
		"address": s.address,
		"error":   err,
	}).Error(message)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if notifyErr := s.notifier.Notify(ctx, fmt.Sprintf("⚠️ %s\n\n%v", message, err)); notifyErr != nil {
		applog.WithComponentAndFields(componentService, applog.Fields{
			"error": notifyErr,
		}).Warn("HTTP 서버 오류 알림 전송에 실패했습니다")
	}
}

func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(componentService).Info("종료 절차 진입: API 서비스 중지 시그널을 수신했습니다")
	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 종료된 경우
		applog.WithComponent(componentService).Error("HTTP 서버가 예기치 않게 종료되었습니다")
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(componentService, applog.Fields{
			"error": err,
		}).Error("HTTP 서버 종료 중 오류가 발생했습니다")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(componentService).Info("API 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}
