package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/darkkaiser/pricewatch/internal/service/pipeline"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	var opts pipeline.Options

	cmd := &cobra.Command{
		Use:   "run",
		Short: "배치를 한 번 실행합니다",
		Long: `마켓플레이스 스냅샷을 읽어 집계 스냅샷과 상품별 가격 이력을 갱신한 뒤 종료합니다.
모든 마켓플레이스가 실패하면 이전 집계 결과를 유지합니다.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Today != "" {
				if _, err := time.Parse(time.DateOnly, opts.Today); err != nil {
					return fmt.Errorf("--today 값은 YYYY-MM-DD 형식이어야 합니다: '%s'", opts.Today)
				}
			}

			b, err := newBatch(a.appConfig)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return b.run(ctx, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "결과를 기록하지 않고 실행합니다")
	cmd.Flags().StringVar(&opts.Today, "today", "", "가격 이력에 기록할 날짜 (YYYY-MM-DD, 기본값: 설정된 시간대의 오늘)")

	return cmd
}
