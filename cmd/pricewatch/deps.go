package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/service/notification"
	"github.com/darkkaiser/pricewatch/internal/service/pipeline"
	"github.com/darkkaiser/pricewatch/internal/store"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
)

// stores 하위 명령이 사용하는 저장소 묶음입니다.
type stores struct {
	inbox  *store.FileStore
	data   *store.FileStore
	public *store.FileStore

	// prior 이전 실행 결과 (공개 미러 → 로컬 데이터 디렉토리)
	prior store.Source

	// writer 로컬 데이터 디렉토리와 공개 디렉토리에 동시 기록
	writer store.Writer
}

func openStores(appConfig *config.AppConfig) (*stores, error) {
	inbox, err := store.NewFileStore(appConfig.Storage.InboxDir)
	if err != nil {
		return nil, err
	}
	data, err := store.NewFileStore(appConfig.Storage.DataDir)
	if err != nil {
		return nil, err
	}
	public, err := store.NewFileStore(appConfig.Storage.PublicDir)
	if err != nil {
		return nil, err
	}

	var remote store.Source
	if appConfig.Mirror.BaseURL != "" {
		remote = store.NewRemoteSource(appConfig.Mirror.BaseURL, appConfig.Mirror.TimeoutDuration(), appConfig.Mirror.RequestsPerSecond)
	}

	return &stores{
		inbox:  inbox,
		data:   data,
		public: public,
		prior:  store.NewFallbackSource(remote, data),
		writer: store.NewMirrorWriter(data, public),
	}, nil
}

// batch 배치를 실행하고 결과를 알립니다.
type batch struct {
	runner   *pipeline.Runner
	reporter *notification.Reporter
}

func newBatch(appConfig *config.AppConfig) (*batch, error) {
	s, err := openStores(appConfig)
	if err != nil {
		return nil, err
	}

	notifier, err := notification.New(appConfig)
	if err != nil {
		return nil, err
	}

	return &batch{
		runner:   pipeline.NewRunner(appConfig, s.inbox, s.prior, s.writer),
		reporter: notification.NewReporter(notifier, appConfig.Notifier),
	}, nil
}

// run 배치를 한 번 실행합니다. 알림 전송 실패는 기록만 하고, 배치가 결과를 기록하지 못한 경우에만 에러를 반환합니다.
func (b *batch) run(ctx context.Context, opts pipeline.Options) error {
	report, runErr := b.runner.Run(ctx, opts)

	if err := b.reporter.Report(ctx, report, runErr); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("실행 결과 알림 전송에 실패했습니다")
	}

	if runErr != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": runErr,
		}).Error("배치 실행에 실패했습니다")
		return runErr
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"today":   report.Today,
		"elapsed": report.Elapsed().String(),
	}).Info("배치 실행 결과를 정리했습니다")

	if report.Failed() {
		applog.WithComponentAndFields(component, applog.Fields{
			"source_status":    report.SourceStatus,
			"preserved":        report.Preserved,
			"history_failures": len(report.HistoryFailures()),
		}).Warn("일부 마켓플레이스 또는 가격 이력 갱신에 실패했습니다")
	}

	return nil
}

// service 종료 컨텍스트가 취소될 때까지 백그라운드에서 동작하는 서비스입니다.
type service interface {
	Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error
}

// runServices 서비스를 순서대로 시작한 뒤 종료 시그널(또는 ctx 취소)을 받을 때까지 대기합니다.
// 서비스 하나라도 시작에 실패하면 이미 시작된 서비스를 종료하고 에러를 반환합니다.
func runServices(ctx context.Context, services ...service) error {
	serviceStopCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	serviceStopWG := &sync.WaitGroup{}

	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			return fmt.Errorf("서비스 초기화 실패: %w", err)
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(termC)

	applog.WithComponent(component).Info("서비스 가동 완료")

	select {
	case sig := <-termC:
		applog.WithComponentAndFields(component, applog.Fields{
			"signal": sig.String(),
		}).Info("종료 시그널을 수신했습니다")
	case <-ctx.Done():
	}

	cancel()
	serviceStopWG.Wait()

	return nil
}
