package history

import (
	"math"
	"slices"
)

// OutlierConfig 이상치 판정에 사용하는 상수입니다.
type OutlierConfig struct {
	IQRMultiplier float64 // 사분위 범위 배수 (k)
	MedianRatio   float64 // 중앙값 기준 허용 배율
	PriceCeiling  float64 // 상한의 절대 최댓값
}

// DefaultOutlierConfig 기본 이상치 판정 상수를 반환합니다.
func DefaultOutlierConfig() OutlierConfig {
	return OutlierConfig{
		IQRMultiplier: 1.5,
		MedianRatio:   4,
		PriceCeiling:  5_000_000,
	}
}

// OutlierResult 이상치 제거 결과입니다.
type OutlierResult struct {
	History []Entry
	Removed []Entry
}

// FilterOutliers 사분위 범위(IQR)를 기준으로 가격 이력의 이상치를 제거합니다.
//
// 기본 범위는 [Q1 - k*IQR, Q3 + k*IQR]이며, 이력이 짧아 IQR이 지나치게 좁아지는 것을 막기 위해
// 중앙값이 양수이면 [median/ratio, median*ratio]까지 범위를 넓힙니다.
// 중앙값이 양수가 아니면 양수 가격만으로 IQR을 다시 계산하여 상한을 넓힙니다.
// 하한은 0 이상, 상한은 PriceCeiling 이하로 제한합니다.
//
// 유효한(유한한) 가격이 1개 이하이면 입력을 그대로 반환합니다.
func FilterOutliers(entries []Entry, cfg OutlierConfig) OutlierResult {
	var prices []float64
	for _, e := range entries {
		if isFinite(e.Price) {
			prices = append(prices, e.Price)
		}
	}

	if len(prices) <= 1 {
		return OutlierResult{History: entries, Removed: []Entry{}}
	}

	lower, upper := bounds(prices, cfg)

	result := OutlierResult{
		History: make([]Entry, 0, len(entries)),
		Removed: []Entry{},
	}
	for _, e := range entries {
		if !isFinite(e.Price) || e.Price < lower || e.Price > upper {
			result.Removed = append(result.Removed, e)
			continue
		}
		result.History = append(result.History, e)
	}

	return result
}

func bounds(prices []float64, cfg OutlierConfig) (lower, upper float64) {
	sorted := slices.Sorted(slices.Values(prices))
	k := cfg.IQRMultiplier

	q1, median, q3 := quantile(sorted, 0.25), quantile(sorted, 0.5), quantile(sorted, 0.75)
	iqr := q3 - q1
	lower, upper = q1-k*iqr, q3+k*iqr

	if isFinite(median) && median > 0 {
		lower = math.Min(lower, median/cfg.MedianRatio)
		upper = math.Max(upper, median*cfg.MedianRatio)
	} else if positives := positiveOnly(sorted); len(positives) > 0 {
		pq1, pq3 := quantile(positives, 0.25), quantile(positives, 0.75)
		upper = max(upper, pq3+k*(pq3-pq1), cfg.MedianRatio*positives[0])
	}

	lower = math.Max(lower, 0)
	upper = math.Min(upper, cfg.PriceCeiling)

	return lower, upper
}

// quantile 정렬된 값에 대해 선형 보간 분위수를 계산합니다. (위치 = q * (n-1))
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}

	pos := q * float64(len(sorted)-1)
	lo, hi := int(math.Floor(pos)), int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}

	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

func positiveOnly(sorted []float64) []float64 {
	i, _ := slices.BinarySearch(sorted, 0)
	for i < len(sorted) && sorted[i] <= 0 {
		i++
	}
	return sorted[i:]
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
