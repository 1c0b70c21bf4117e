// Package scheduler 설정된 Cron 스케줄에 맞춰 가격 수집 배치를 주기적으로 실행합니다.
package scheduler

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/darkkaiser/pricewatch/pkg/cronx"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// Job 스케줄에 따라 실행되는 작업입니다.
type Job func(ctx context.Context)

// Scheduler 하나의 작업을 Cron 스케줄에 맞춰 실행하는 서비스입니다.
//
// 이전 실행이 끝나지 않았으면 다음 실행을 건너뛰므로 작업은 동시에 두 번 이상 실행되지 않습니다.
type Scheduler struct {
	timeSpec string
	job      Job

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(timeSpec string, job Job) *Scheduler {
	if job == nil {
		panic("Job은 필수입니다")
	}

	return &Scheduler{
		timeSpec: timeSpec,
		job:      job,
	}
}

// Start 작업을 Cron 엔진에 등록하고 스케줄러를 시작합니다.
//
// serviceStopCtx가 취소되면 스케줄러를 중지하고, 실행 중인 작업이 끝난 뒤 serviceStopWG.Done()을 호출합니다.
// 시작에 실패하거나 이미 실행 중이면 즉시 serviceStopWG.Done()을 호출합니다.
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.job == nil {
		serviceStopWG.Done()
		return ErrJobNotInitialized
	}

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: 작업 밖(체인 내부)에서 발생한 panic을 복구
	// - SkipIfStillRunning: 이전 실행이 끝나지 않았으면 다음 실행을 건너뜀
	logger := cron.VerbosePrintfLogger(applog.StandardLogger())
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(logger),
		cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		),
	)

	// 작업 실행은 서비스 종료 신호와 분리한다. 종료 시 cron.Stop()이 실행 중인 작업의 완료를 기다린다.
	jobCtx := context.WithoutCancel(serviceStopCtx)
	if _, err := c.AddFunc(s.timeSpec, func() { s.runJob(jobCtx) }); err != nil {
		serviceStopWG.Done()
		return newErrInvalidCronSpec(s.timeSpec, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.timeSpec,
		"next_run":  c.Entries()[0].Next,
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 중지하고, 실행 중인 작업이 끝날 때까지 기다립니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")

	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

// runJob 예약된 작업을 실행합니다.
//
// SkipIfStillRunning은 작업이 정상 반환될 때만 실행 토큰을 돌려받으므로, panic은 작업 안에서 복구해야
// 이후 스케줄이 계속 실행됩니다.
func (s *Scheduler) runJob(ctx context.Context) {
	logger := applog.WithComponentAndFields(component, applog.Fields{
		"time_spec": s.timeSpec,
	})

	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(applog.Fields{
				"panic": r,
				"stack": string(debug.Stack()),
			}).Error("예약된 배치 실행 중 panic이 발생했습니다")
		}
	}()

	logger.Info("예약된 배치 실행을 시작합니다")

	s.job(ctx)
}
