package pipeline

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

// fixedNow 2024-05-10 12:00 (Asia/Tokyo)
var fixedNow = time.Date(2024, 5, 10, 3, 0, 0, 0, time.UTC)

const today = "2024-05-10"

func newTestConfig() *config.AppConfig {
	return &config.AppConfig{
		TimeZone: "Asia/Tokyo",
		Marketplaces: []config.MarketplaceConfig{
			{ID: "rakuten", SnapshotFile: "rakuten.json"},
			{ID: "yahoo", SnapshotFile: "yahoo.json"},
		},
		Products: []config.ProductConfig{
			{ID: "p1"},
		},
		History: config.HistoryConfig{
			Retention:     30,
			CleanOutliers: true,
			IQRMultiplier: 1.5,
			MedianRatio:   4,
			PriceCeiling:  5_000_000,
		},
		Run: config.RunConfig{Workers: 2},
	}
}

type fixture struct {
	inbox  *storetest.MemoryStore
	store  *storetest.MemoryStore
	runner *Runner
}

func newFixture(cfg *config.AppConfig) *fixture {
	f := &fixture{
		inbox: storetest.NewMemoryStore(),
		store: storetest.NewMemoryStore(),
	}
	f.runner = NewRunner(cfg, f.inbox, f.store, f.store)
	f.runner.clock = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) snapshot(t *testing.T) pricing.Snapshot {
	t.Helper()

	data, ok := f.store.Get(store.SnapshotName)
	require.True(t, ok, "집계 스냅샷이 기록되지 않았습니다")

	var s pricing.Snapshot
	require.NoError(t, json.Unmarshal(data, &s))
	return s
}

func (f *fixture) historyDoc(t *testing.T, skuID string) history.Document {
	t.Helper()

	data, ok := f.store.Get(store.HistoryName(skuID))
	require.True(t, ok, "가격 이력이 기록되지 않았습니다: %s", skuID)

	doc, err := history.Parse(data)
	require.NoError(t, err)
	return doc
}
