package main

import (
	"context"
	"fmt"
	"os"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/report"
	"github.com/darkkaiser/pricewatch/internal/store"
	applog "github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/spf13/cobra"
)

func newExportCommand(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "설정된 상품의 가격 이력을 엑셀 파일(xlsx)로 내보냅니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openStores(a.appConfig)
			if err != nil {
				return err
			}

			docs, err := loadHistories(cmd.Context(), a.appConfig, s.prior)
			if err != nil {
				return err
			}

			if err := writeWorkbookFile(out, docs); err != nil {
				return err
			}

			applog.WithComponentAndFields(component, applog.Fields{
				"out":      out,
				"products": len(docs),
			}).Info("가격 이력을 내보냈습니다")
			fmt.Fprintf(cmd.OutOrStdout(), "%s (상품 %d개)\n", out, len(docs))

			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "출력 파일 경로 (.xlsx)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// loadHistories 설정된 상품 순서대로 가격 이력을 읽습니다.
// 이력이 없거나 해석할 수 없는 상품은 빈 이력으로 내보냅니다.
func loadHistories(ctx context.Context, appConfig *config.AppConfig, source store.Source) ([]report.ProductHistory, error) {
	docs := make([]report.ProductHistory, 0, len(appConfig.Products))
	for _, p := range appConfig.Products {
		doc := report.ProductHistory{SkuID: p.ID}

		data, err := source.Fetch(ctx, store.HistoryName(p.ID))
		switch {
		case err == nil:
			parsed, parseErr := history.Parse(data)
			if parseErr != nil {
				applog.WithComponentAndFields(component, applog.Fields{
					"sku_id": p.ID,
					"error":  parseErr,
				}).Warn("가격 이력을 해석할 수 없어 빈 이력으로 내보냅니다")
				break
			}
			doc.Document = parsed

		case store.IsNotFound(err):
			// 아직 가격 이력이 없는 상품

		default:
			return nil, err
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

func writeWorkbookFile(path string, docs []report.ProductHistory) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("출력 파일을 생성할 수 없습니다: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return report.WriteHistoryWorkbook(f, docs)
}
