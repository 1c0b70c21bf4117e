package main

import (
	"fmt"
	"io"
	"os"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/pkg/version"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/spf13/cobra"
)

const component = "main"

const (
	banner = `
                   _                             _         _
  _ __   _ __  (_)  ___   ___ __      __  __ _ | |_   ___ | |__
 | '_ \ | '__| | | / __| / _ \\ \ /\ / / / _' || __| / __|| '_ \
 | |_) || |    | || (__ |  __/ \ V  V / | (_| || |_ | (__ | | | |
 | .__/ |_|    |_| \___| \___|  \_/\_/   \__,_| \__| \___||_| |_|
 |_|                                                      %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

// setupLogging 테스트에서 로그 파일이 생성되지 않도록 교체할 수 있습니다.
var setupLogging = func(appConfig *config.AppConfig) (io.Closer, error) {
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	closer, err := applog.Setup(logOpts)
	if err != nil {
		return nil, err
	}

	applog.SetDebugMode(appConfig.Debug)

	return closer, nil
}

// app 모든 하위 명령이 공유하는 실행 상태입니다.
type app struct {
	configFile string

	appConfig *config.AppConfig
	logCloser io.Closer
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute 명령을 실행하고 프로세스 종료 코드를 반환합니다.
// 환경설정 오류와 배치의 치명적인 실패는 1을 반환합니다.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	defer a.close()

	rootCmd := newRootCommand(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		// 로거 초기화 전일 수 있으므로 표준 에러에 출력
		fmt.Fprintf(stderr, "[FATAL] %v\n", err)
		return 1
	}

	return 0
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "마켓플레이스 판매 정보를 모아 상품별 최저 실질 구매가와 가격 이력을 관리합니다",
		Long: `외부 수집기가 남긴 마켓플레이스별 판매 정보 스냅샷을 이전 실행 결과와 병합하여
상품별 최저 실질 구매가 집계 스냅샷과 가격 이력을 갱신합니다.`,
		Version: version.Get().String(),

		SilenceUsage:  true,
		SilenceErrors: true,

		// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
		// 2. 로그 시스템 초기화
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", config.DefaultFilename, "설정 파일 경로")

	rootCmd.AddCommand(
		newRunCommand(a),
		newServeCommand(a),
		newScheduleCommand(a),
		newExportCommand(a),
	)

	return rootCmd
}

func (a *app) init() error {
	appConfig, err := config.LoadWithFile(a.configFile)
	if err != nil {
		return fmt.Errorf("환경설정 로드 실패: %w", err)
	}
	a.appConfig = appConfig

	closer, err := setupLogging(appConfig)
	if err != nil {
		return fmt.Errorf("로그 시스템 초기화 실패: %w", err)
	}
	a.logCloser = closer

	fields := applog.Fields(version.Get().Fields())
	fields["config"] = a.configFile
	fields["env"] = map[bool]string{true: "development", false: "production"}[appConfig.Debug]
	applog.WithComponentAndFields(component, fields).Info("애플리케이션 초기화 완료")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent(component).Warn(warning)
	}

	return nil
}

func (a *app) close() {
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

func printBanner(w io.Writer) {
	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Fprintf(w, banner, version.Version())
}
