package main

import (
	"github.com/darkkaiser/pricewatch/internal/pkg/version"
	"github.com/darkkaiser/pricewatch/internal/service/api"
	"github.com/darkkaiser/pricewatch/internal/service/notification"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "집계 스냅샷과 가격 이력을 조회하는 API 서버를 실행합니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printBanner(cmd.OutOrStdout())

			apiService, err := newAPIService(a)
			if err != nil {
				return err
			}

			return runServices(cmd.Context(), apiService)
		},
	}
}

func newAPIService(a *app) (*api.Service, error) {
	s, err := openStores(a.appConfig)
	if err != nil {
		return nil, err
	}

	notifier, err := notification.New(a.appConfig)
	if err != nil {
		return nil, err
	}

	// 공개 디렉토리를 우선 조회하고, 없으면 로컬 데이터 디렉토리를 조회합니다.
	source := store.NewFallbackSource(s.public, s.data)

	return api.NewService(a.appConfig, source, notifier, version.Get()), nil
}
