package main

import (
	"context"

	"github.com/darkkaiser/pricewatch/internal/service/pipeline"
	"github.com/darkkaiser/pricewatch/internal/service/scheduler"
	"github.com/spf13/cobra"
)

func newScheduleCommand(a *app) *cobra.Command {
	var withAPI bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "scheduler.time_spec 주기에 따라 배치를 반복 실행합니다",
		Long: `종료 시그널을 받을 때까지 배치를 주기적으로 실행합니다.
이전 실행이 끝나지 않았으면 이번 주기는 건너뜁니다.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printBanner(cmd.OutOrStdout())

			b, err := newBatch(a.appConfig)
			if err != nil {
				return err
			}

			services := []service{
				scheduler.NewService(a.appConfig.Scheduler.TimeSpec, func(ctx context.Context) {
					// 실패는 batch.run 내부에서 기록되고 알림으로 전송됩니다.
					_ = b.run(ctx, pipeline.Options{})
				}),
			}

			if withAPI {
				apiService, err := newAPIService(a)
				if err != nil {
					return err
				}
				services = append(services, apiService)
			}

			return runServices(cmd.Context(), services...)
		},
	}

	cmd.Flags().BoolVar(&withAPI, "serve", false, "조회 API 서버를 함께 실행합니다")

	return cmd
}
