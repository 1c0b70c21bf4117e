package pipeline

import (
	"context"
	"encoding/json"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/darkkaiser/pricewatch/internal/pricing"
	"github.com/darkkaiser/pricewatch/internal/store"
	"github.com/darkkaiser/pricewatch/pkg/log"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.uber.org/multierr"
)

const componentSnapshot = "pipeline.snapshot"

// timestampLayout 집계 스냅샷의 updatedAt 형식입니다. (UTC, 밀리초)
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// priorSnapshot 이전 실행의 집계 스냅샷입니다. raw는 재기록 시 항목을 그대로 보존하기 위해 유지합니다.
type priorSnapshot struct {
	parsed *pricing.Snapshot
	raw    []byte
}

func (p *priorSnapshot) item(skuID string) *pricing.FinalizedItem {
	if p == nil {
		return nil
	}
	return p.parsed.Item(skuID)
}

// loadPriorSnapshot 이전 집계 스냅샷을 읽습니다.
// 스냅샷이 없으면 (nil, nil)을, 읽거나 해석할 수 없으면 (nil, err)를 반환합니다.
func (r *Runner) loadPriorSnapshot(ctx context.Context) (*priorSnapshot, error) {
	data, err := r.prior.Fetch(ctx, store.SnapshotName)
	if err != nil {
		if store.IsNotFound(err) {
			log.WithComponent(componentSnapshot).Info("이전 집계 스냅샷이 없습니다 (최초 실행)")
			return nil, nil
		}
		return nil, err
	}

	var parsed pricing.Snapshot
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ParsingFailed, "이전 집계 스냅샷을 해석할 수 없습니다")
	}

	return &priorSnapshot{parsed: &parsed, raw: data}, nil
}

// preserve 집계에 참여하는 마켓플레이스가 하나도 없을 때 호출됩니다.
//
// 이전 집계 스냅샷이 있으면 sourceStatus만 교체하여 다시 기록하고, 나머지 항목은 원문 그대로 유지합니다.
// 이전 스냅샷이 없으면 빈 스냅샷을 기록하며, 이전 스냅샷을 읽을 수 없었다면 아무것도 기록하지 않습니다.
func (r *Runner) preserve(ctx context.Context, report *Report, prior *priorSnapshot, priorErr error, meta *pricing.SnapshotMeta) error {
	logger := log.WithComponentAndFields(componentSnapshot, log.Fields{
		"source_status": report.SourceStatus,
		"dry_run":       report.DryRun,
	})

	report.Preserved = true

	if priorErr != nil {
		logger.WithError(priorErr).Error("수집에 성공한 마켓플레이스가 없고 이전 집계 스냅샷도 읽을 수 없어 기록을 건너뜁니다")
		return multierr.Combine(ErrPriorSnapshotUnavailable, priorErr)
	}

	var data []byte
	if prior != nil {
		report.Items = prior.parsed.Items

		var fields map[string]json.RawMessage
		if err := json.Unmarshal(prior.raw, &fields); err != nil {
			return multierr.Combine(ErrPriorSnapshotUnavailable, apperrors.Wrap(err, apperrors.ParsingFailed, "이전 집계 스냅샷을 해석할 수 없습니다"))
		}

		status, err := json.Marshal(report.SourceStatus)
		if err != nil {
			return newErrSnapshotEncodeFailed(err)
		}
		fields["sourceStatus"] = status

		if data, err = marshalIndent(fields); err != nil {
			return newErrSnapshotEncodeFailed(err)
		}

		logger.WithField("items", len(prior.parsed.Items)).Warn("수집에 성공한 마켓플레이스가 없어 이전 집계 스냅샷을 유지합니다")
	} else {
		var err error
		if data, err = marshalIndent(pricing.Snapshot{
			UpdatedAt:    report.StartedAt.UTC().Format(timestampLayout),
			Items:        []pricing.FinalizedItem{},
			SourceStatus: report.SourceStatus,
			Meta:         meta,
		}); err != nil {
			return newErrSnapshotEncodeFailed(err)
		}

		logger.Warn("수집에 성공한 마켓플레이스가 없고 이전 집계 스냅샷도 없어 빈 스냅샷을 기록합니다")
	}

	return r.writeSnapshot(ctx, report, data)
}

// publish 새 집계 스냅샷을 기록합니다. dry-run이면 이전 스냅샷과의 차이만 로그로 남깁니다.
func (r *Runner) publish(ctx context.Context, report *Report, snapshot *pricing.Snapshot, prior *priorSnapshot) error {
	if report.DryRun {
		var before []pricing.FinalizedItem
		if prior != nil {
			before = prior.parsed.Items
		}
		if diff := cmp.Diff(before, snapshot.Items, cmpopts.EquateEmpty(), cmpopts.IgnoreUnexported(pricing.Offer{})); diff != "" {
			log.WithComponentAndFields(componentSnapshot, log.Fields{
				"diff": diff,
			}).Info("[dry-run] 집계 스냅샷 변경 예정")
		}
	}

	data, err := marshalIndent(snapshot)
	if err != nil {
		return newErrSnapshotEncodeFailed(err)
	}

	return r.writeSnapshot(ctx, report, data)
}

func (r *Runner) writeSnapshot(ctx context.Context, report *Report, data []byte) error {
	if report.DryRun {
		return nil
	}

	if err := r.writer.Write(ctx, store.SnapshotName, data); err != nil {
		return newErrSnapshotWriteFailed(err)
	}
	report.SnapshotWritten = true

	return nil
}

func marshalIndent(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
