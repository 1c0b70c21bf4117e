package pipeline

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/darkkaiser/pricewatch/internal/history"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rakutenOK = `{
	"items": [{"skuId": "p1", "list": [{"shopId": "x", "shopName": "X", "price": 1000, "pointRate": 10}]}],
	"sourceStatus": {"rakuten": "ok"}
}`

func TestRunner_Run_OneSourceFails(t *testing.T) {
	f := newFixture(newTestConfig())
	f.inbox.Put("rakuten.json", rakutenOK)

	report, err := f.runner.Run(context.Background(), Options{})
	require.NoError(t, err)

	expectedStatus := map[string]pricing.SourceStatus{"rakuten": pricing.StatusOK, "yahoo": pricing.StatusFail}
	assert.Equal(t, expectedStatus, report.SourceStatus)
	assert.Equal(t, today, report.Today)
	assert.False(t, report.Preserved)
	assert.True(t, report.SnapshotWritten)
	assert.True(t, report.Failed())

	snapshot := f.snapshot(t)
	assert.Equal(t, "2024-05-10T03:00:00.000Z", snapshot.UpdatedAt)
	assert.Equal(t, expectedStatus, snapshot.SourceStatus)
	require.NotNil(t, snapshot.Meta)
	assert.Equal(t, "effectivePrice", snapshot.Meta.ValueType)
	assert.Equal(t, "Asia/Tokyo", snapshot.Meta.TZ)

	require.Len(t, snapshot.Items, 1)
	item := snapshot.Items[0]
	require.Len(t, item.List, 1)
	require.NotNil(t, item.List[0].EffectivePrice)
	assert.EqualValues(t, 900, *item.List[0].EffectivePrice)
	require.NotNil(t, item.BestPriceEffective)
	assert.EqualValues(t, 900, *item.BestPriceEffective)
	require.NotNil(t, item.BestShop)
	assert.Equal(t, "X", *item.BestShop)

	assert.Equal(t, []history.Entry{{Date: today, Price: 900}}, f.historyDoc(t, "p1").History)
	require.Len(t, report.History, 1)
	assert.True(t, report.History[0].Written)
	assert.NoError(t, report.HistoryErr)
}

const priorSnapshotJSON = `{
	"updatedAt": "2024-05-09T03:00:00.000Z",
	"items": [{"skuId": "p1", "bestPrice": 500, "bestPriceEffective": 500, "bestShop": "x",
		"list": [{"shopId": "x", "shopName": "x", "price": 500, "effectivePrice": 500}]}],
	"sourceStatus": {"rakuten": "ok", "yahoo": "ok"},
	"meta": {"valueType": "effectivePrice", "tz": "Asia/Tokyo", "version": "v0.9.0"}
}`

func TestRunner_Run_AllSourcesFail(t *testing.T) {
	t.Run("이전 스냅샷을 sourceStatus만 바꿔 유지", func(t *testing.T) {
		f := newFixture(newTestConfig())
		f.inbox.Put("rakuten.json", `{"items": [`)
		f.inbox.Put("yahoo.json", `{"items": [], "sourceStatus": {"yahoo": "fail"}}`)
		f.store.Put(store.SnapshotName, priorSnapshotJSON)

		report, err := f.runner.Run(context.Background(), Options{})
		require.NoError(t, err)

		assert.True(t, report.Preserved)
		assert.True(t, report.Failed())
		assert.Equal(t, []string{store.SnapshotName}, f.store.Writes(), "가격 이력은 기록하지 않아야 합니다")
		assert.Equal(t, []string{store.SnapshotName}, f.store.Fetches(), "가격 이력은 조회하지도 않아야 합니다")
		assert.Empty(t, report.History)

		data, _ := f.store.Get(store.SnapshotName)
		var written, prior map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(data, &written))
		require.NoError(t, json.Unmarshal([]byte(priorSnapshotJSON), &prior))

		assert.JSONEq(t, string(prior["items"]), string(written["items"]))
		assert.JSONEq(t, string(prior["updatedAt"]), string(written["updatedAt"]))
		assert.JSONEq(t, string(prior["meta"]), string(written["meta"]))
		assert.JSONEq(t, `{"rakuten": "fail", "yahoo": "fail"}`, string(written["sourceStatus"]))
	})

	t.Run("이전 스냅샷이 없으면 빈 스냅샷 기록", func(t *testing.T) {
		f := newFixture(newTestConfig())

		report, err := f.runner.Run(context.Background(), Options{})
		require.NoError(t, err)

		assert.True(t, report.Preserved)
		snapshot := f.snapshot(t)
		assert.Empty(t, snapshot.Items)
		assert.Equal(t, map[string]pricing.SourceStatus{"rakuten": pricing.StatusFail, "yahoo": pricing.StatusFail}, snapshot.SourceStatus)
		assert.Equal(t, []string{store.SnapshotName}, f.store.Writes())
	})

	t.Run("이전 스냅샷을 읽을 수 없으면 아무것도 기록하지 않음", func(t *testing.T) {
		f := newFixture(newTestConfig())
		f.store.FailFetch(store.SnapshotName, storetest.ErrInjected)

		report, err := f.runner.Run(context.Background(), Options{})

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPriorSnapshotUnavailable)
		assert.ErrorIs(t, err, storetest.ErrInjected)
		assert.True(t, report.Preserved)
		assert.Empty(t, f.store.Writes())
	})

	t.Run("해석할 수 없는 이전 스냅샷도 덮어쓰지 않음", func(t *testing.T) {
		f := newFixture(newTestConfig())
		f.store.Put(store.SnapshotName, `{"items": {`)

		_, err := f.runner.Run(context.Background(), Options{})

		assert.ErrorIs(t, err, ErrPriorSnapshotUnavailable)
		assert.Empty(t, f.store.Writes())
	})
}

func TestRunner_Run_MergesWithPriorSnapshot(t *testing.T) {
	cfg := newTestConfig()
	cfg.Products = append(cfg.Products, newTestConfig().Products[0])
	cfg.Products[1].ID = "p2"

	f := newFixture(cfg)
	f.inbox.Put("rakuten.json", rakutenOK)
	f.inbox.Put("yahoo.json", `{
		"items": [{"skuId": "p1", "list": [{"seller": {"id": "y", "name": "Y"}, "price": 950}]}],
		"sourceStatus": {"yahoo": "partial"}
	}`)
	f.store.Put(store.SnapshotName, `{
		"items": [
			{"skuId": "p1", "bestPriceEffective": 950, "list": [
				{"shopId": "x", "shopName": "X", "price": 950, "effectivePrice": 950},
				{"shopId": "z", "shopName": "Z", "price": 1200, "effectivePrice": 1200}
			]},
			{"skuId": "p2", "bestPriceEffective": 3000, "list": [{"shopId": "x", "price": 3000, "effectivePrice": 3000}]}
		]
	}`)

	report, err := f.runner.Run(context.Background(), Options{Today: "2024-05-11"})
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.Equal(t, "2024-05-11", report.Today)

	snapshot := f.snapshot(t)
	require.Len(t, snapshot.Items, 2)

	p1 := snapshot.Items[0]
	assert.Equal(t, "p1", p1.SkuID)
	require.Len(t, p1.List, 3, "today 정보는 같은 상점의 이전 정보를 대체하고, 다른 상점의 이전 정보는 유지됩니다")
	assert.Equal(t, []string{"X", "Y", "Z"}, []string{p1.List[0].ShopName, p1.List[1].ShopName, p1.List[2].ShopName})
	assert.EqualValues(t, 900, *p1.BestPriceEffective)

	// 수집 결과가 없는 상품은 이전 정보를 그대로 유지한다.
	p2 := snapshot.Items[1]
	assert.Equal(t, "p2", p2.SkuID)
	require.Len(t, p2.List, 1)
	assert.EqualValues(t, 3000, *p2.BestPriceEffective)

	assert.Equal(t, []PriceChange{{SkuID: "p1", Previous: 950, Current: 900, Shop: "X"}}, report.PriceChanges)
	assert.True(t, report.PriceChanges[0].Drop())

	assert.Equal(t, []history.Entry{{Date: "2024-05-11", Price: 3000}}, f.historyDoc(t, "p2").History)
}

func TestRunner_Run_OfferPreparation(t *testing.T) {
	cfg := newTestConfig()
	cfg.Marketplaces[0].Data = map[string]any{"default_point_rate": 5, "strip_html_titles": true}
	cfg.Products[0].Filters = []string{"1tb"}
	cfg.Products[0].ExcludeAccessories = true

	f := newFixture(cfg)
	f.inbox.Put("rakuten.json", `{"items": [{"skuId": "p1", "list": [
		{"shopId": "a", "title": "<b>SSD</b> 1TB", "price": 1000},
		{"shopId": "b", "title": "SSD 1TB 専用ケース", "price": 100},
		{"shopId": "c", "title": "SSD 2TB", "price": 500},
		{"shopId": "d", "title": "SSD 1TB", "price": 1000, "pointRate": 0}
	]}]}`)

	report, err := f.runner.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, pricing.StatusOK, report.SourceStatus["rakuten"], "상태 기록이 없으면 ok로 간주합니다")

	item := f.snapshot(t).Items[0]
	require.Len(t, item.List, 2)

	first := item.List[0]
	assert.Equal(t, "SSD 1TB", first.Title)
	require.NotNil(t, first.PointRate)
	assert.EqualValues(t, 5, *first.PointRate)
	assert.EqualValues(t, 950, *first.EffectivePrice)

	second := item.List[1]
	assert.Equal(t, "d", second.ShopID)
	assert.EqualValues(t, 0, *second.PointRate, "명시된 포인트 적립률은 기본값으로 바꾸지 않습니다")
	assert.EqualValues(t, 1000, *second.EffectivePrice)
}

func TestRunner_Run_DisabledSource(t *testing.T) {
	cfg := newTestConfig()
	cfg.Marketplaces[1].CredentialEnv = "PW_TEST_YAHOO_CLIENT_ID"
	t.Setenv("PW_TEST_YAHOO_CLIENT_ID", "")

	f := newFixture(cfg)
	f.inbox.Put("rakuten.json", rakutenOK)
	f.inbox.Put("yahoo.json", `{"items": [{"skuId": "p1", "list": [{"shopId": "y", "price": 1}]}]}`)

	report, err := f.runner.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, pricing.StatusDisabled, report.SourceStatus["yahoo"])
	assert.False(t, report.Failed(), "disabled는 실패로 보지 않습니다")
	assert.Len(t, f.snapshot(t).Items[0].List, 1, "disabled 마켓플레이스의 판매 정보는 집계하지 않습니다")
	assert.Equal(t, 0, report.Sources[1].Offers)
	assert.Equal(t, 1, report.Sources[0].Offers)
}

func TestRunner_Run_HistoryFailureIsIsolated(t *testing.T) {
	cfg := newTestConfig()
	cfg.Products = append(cfg.Products, newTestConfig().Products[0])
	cfg.Products[1].ID = "p2"

	f := newFixture(cfg)
	f.inbox.Put("rakuten.json", `{"items": [
		{"skuId": "p1", "list": [{"shopId": "x", "price": 1000}]},
		{"skuId": "p2", "list": [{"shopId": "x", "price": 2000}]}
	]}`)
	f.store.FailWrite(store.HistoryName("p1"), storetest.ErrInjected)

	report, err := f.runner.Run(context.Background(), Options{})
	require.NoError(t, err, "가격 이력 갱신 실패는 배치 전체를 실패시키지 않습니다")

	assert.ErrorIs(t, report.HistoryErr, storetest.ErrInjected)
	assert.Len(t, report.HistoryFailures(), 1)
	assert.True(t, report.Failed())

	require.Len(t, report.History, 2)
	assert.False(t, report.History[0].Written)
	assert.True(t, report.History[1].Written)
	assert.Equal(t, []history.Entry{{Date: today, Price: 2000}}, f.historyDoc(t, "p2").History)
}

func TestRunner_Run_DryRun(t *testing.T) {
	f := newFixture(newTestConfig())
	f.inbox.Put("rakuten.json", rakutenOK)
	f.store.Put(store.SnapshotName, priorSnapshotJSON)

	report, err := f.runner.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.False(t, report.SnapshotWritten)
	assert.Empty(t, f.store.Writes())
	require.Len(t, report.History, 1)
	assert.True(t, report.History[0].Changed)
	assert.False(t, report.History[0].Written)
}

func TestRunner_Run_SnapshotWriteFailure(t *testing.T) {
	f := newFixture(newTestConfig())
	f.inbox.Put("rakuten.json", rakutenOK)
	f.store.FailWrite(store.SnapshotName, storetest.ErrInjected)

	report, err := f.runner.Run(context.Background(), Options{})

	assert.ErrorIs(t, err, storetest.ErrInjected)
	assert.False(t, report.SnapshotWritten)
	assert.Empty(t, report.History, "집계 스냅샷을 기록하지 못하면 가격 이력도 갱신하지 않습니다")
}

func TestNewRunner_NilConfigPanics(t *testing.T) {
	assert.Panics(t, func() { NewRunner(nil, nil, nil, nil) })
}
