package notification

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/darkkaiser/pricewatch/internal/config"
	"github.com/darkkaiser/pricewatch/internal/service/pipeline"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/darkkaiser/pricewatch/pkg/strutil"
)

// Reporter 배치 실행 결과를 요약하여 Notifier로 전송합니다.
type Reporter struct {
	notifier            Notifier
	notifyOnFailureOnly bool
}

// NewReporter 새로운 Reporter를 생성합니다.
func NewReporter(notifier Notifier, c config.NotifierConfig) *Reporter {
	if notifier == nil {
		panic("Notifier는 필수입니다")
	}

	return &Reporter{
		notifier:            notifier,
		notifyOnFailureOnly: c.NotifyOnFailureOnly,
	}
}

// Report 실행 결과를 알립니다. runErr은 Runner.Run이 반환한 에러이며 report는 nil일 수 있습니다.
//
// notify_on_failure_only가 설정되어 있으면 실패가 없는 실행 결과는 전송하지 않습니다.
func (r *Reporter) Report(ctx context.Context, report *pipeline.Report, runErr error) error {
	failed := runErr != nil || (report != nil && report.Failed())
	if r.notifyOnFailureOnly && !failed {
		log.WithComponent(component).Debug("실패가 없어 실행 결과를 알리지 않습니다 (notify_on_failure_only)")
		return nil
	}

	return r.notifier.Notify(ctx, BuildSummary(report, runErr))
}

// BuildSummary 실행 결과를 텔레그램 HTML 서식의 요약 메시지로 변환합니다.
//
// 마켓플레이스별 상태와 판매 정보 개수, 상품 수, 최저 실질 구매가 하락 내역, 가격 이력 갱신 실패를 포함합니다.
func BuildSummary(report *pipeline.Report, runErr error) string {
	var sb strings.Builder

	failed := runErr != nil || (report != nil && report.Failed())
	if failed {
		sb.WriteString("⚠️ ")
	}
	sb.WriteString("<b>[가격 수집 결과]</b>")

	if report == nil {
		fmt.Fprintf(&sb, "\n\n배치를 실행하지 못했습니다.\n%s", html.EscapeString(runErr.Error()))
		return sb.String()
	}

	fmt.Fprintf(&sb, " %s", report.Today)
	if report.DryRun {
		sb.WriteString(" (dry-run)")
	}

	sb.WriteString("\n\n<b>마켓플레이스</b>")
	for _, s := range report.Sources {
		name := s.Key
		if s.Title != "" {
			name = fmt.Sprintf("%s(%s)", s.Title, s.Key)
		}
		fmt.Fprintf(&sb, "\n• %s: %s", html.EscapeString(name), s.Status)
		if s.Status.Contributes() {
			fmt.Fprintf(&sb, " (%s건)", strutil.FormatCommas(s.Offers))
		}
	}

	if report.Preserved {
		sb.WriteString("\n\n수집에 성공한 마켓플레이스가 없어 이전 집계 결과를 유지했습니다.")
	} else {
		fmt.Fprintf(&sb, "\n\n상품 %s개, 가격 이력 %s개 갱신", strutil.FormatCommas(len(report.Items)), strutil.FormatCommas(writtenCount(report)))
	}

	var drops []pipeline.PriceChange
	for _, c := range report.PriceChanges {
		if c.Drop() {
			drops = append(drops, c)
		}
	}
	if len(drops) > 0 {
		sb.WriteString("\n\n<b>가격 하락</b>")
		for _, c := range drops {
			fmt.Fprintf(&sb, "\n• %s: %s원 → %s원", html.EscapeString(c.SkuID), strutil.FormatCommas(c.Previous), strutil.FormatCommas(c.Current))
			if c.Shop != "" {
				fmt.Fprintf(&sb, " (%s)", html.EscapeString(c.Shop))
			}
		}
	}

	if failures := report.HistoryFailures(); len(failures) > 0 {
		fmt.Fprintf(&sb, "\n\n<b>가격 이력 갱신 실패 %d건</b>", len(failures))
		for _, err := range failures {
			fmt.Fprintf(&sb, "\n• %s", html.EscapeString(err.Error()))
		}
	}

	if runErr != nil {
		fmt.Fprintf(&sb, "\n\n<b>오류</b>\n%s", html.EscapeString(runErr.Error()))
	}

	return sb.String()
}

func writtenCount(report *pipeline.Report) int {
	n := 0
	for _, h := range report.History {
		if h.Written {
			n++
		}
	}
	return n
}
