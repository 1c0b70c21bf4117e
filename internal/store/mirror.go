package store

import (
	"context"

	"go.uber.org/multierr"
)

// MirrorWriter 같은 데이터를 여러 위치에 동일한 이름으로 기록합니다. (원본 데이터 디렉토리 + 공개 디렉토리)
//
// 한 위치에서 실패해도 나머지 위치에는 계속 기록하며, 발생한 에러를 모두 모아 반환합니다.
type MirrorWriter struct {
	targets []Writer
}

var _ Writer = (*MirrorWriter)(nil)

// NewMirrorWriter nil이 아닌 Writer들로 MirrorWriter를 생성합니다.
func NewMirrorWriter(targets ...Writer) *MirrorWriter {
	mw := &MirrorWriter{}
	for _, t := range targets {
		if t != nil {
			mw.targets = append(mw.targets, t)
		}
	}
	return mw
}

func (m *MirrorWriter) Write(ctx context.Context, name string, data []byte) error {
	var errs error
	for _, t := range m.targets {
		errs = multierr.Append(errs, t.Write(ctx, name, data))
	}
	return errs
}
