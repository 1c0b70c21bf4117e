package pipeline

import (
	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
)

var (
	// ErrPriorSnapshotUnavailable 모든 마켓플레이스가 실패했는데 이전 집계 스냅샷도 읽을 수 없는 경우입니다.
	// 이전 결과를 빈 데이터로 덮어쓰지 않기 위해 아무것도 기록하지 않습니다.
	ErrPriorSnapshotUnavailable = apperrors.New(apperrors.Unavailable, "수집에 성공한 마켓플레이스가 없고 이전 집계 스냅샷도 읽을 수 없어 결과를 기록하지 않았습니다")
)

// newErrSnapshotWriteFailed 집계 스냅샷 기록 실패 에러를 생성합니다.
func newErrSnapshotWriteFailed(err error) error {
	return apperrors.Wrap(err, apperrors.System, "집계 스냅샷 기록 실패")
}

// newErrSnapshotEncodeFailed 집계 스냅샷 직렬화 실패 에러를 생성합니다.
func newErrSnapshotEncodeFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "집계 스냅샷 직렬화 실패")
}
