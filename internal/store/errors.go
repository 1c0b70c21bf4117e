package store

import (
	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
)

// ErrPathTraversalDetected 저장소 루트를 벗어나는 경로 접근이 감지되었을 때 반환하는 에러입니다.
var ErrPathTraversalDetected = apperrors.New(apperrors.InvalidInput, "보안 정책 위반: 저장소 밖의 경로에 접근할 수 없습니다")

// IsNotFound 에러가 데이터 부재를 나타내는지 확인합니다.
func IsNotFound(err error) bool {
	return apperrors.Is(err, apperrors.NotFound)
}

// NewErrNotFound 이름에 해당하는 데이터가 없을 때 반환하는 에러를 생성합니다.
func NewErrNotFound(name string) error {
	return apperrors.Newf(apperrors.NotFound, "저장된 데이터가 없습니다 (%s)", name)
}

// NewErrDirectoryAccessFailed 저장소 디렉토리를 생성하거나 접근할 수 없을 때 반환하는 에러를 생성합니다.
func NewErrDirectoryAccessFailed(err error, dir string) error {
	return apperrors.Wrapf(err, apperrors.System, "저장소 초기화 실패: 디렉토리 접근 불가 (%s)", dir)
}

// NewErrPathResolutionFailed 파일 경로를 해석할 수 없을 때 반환하는 에러를 생성합니다.
func NewErrPathResolutionFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "보안 검증 실패: 파일 경로를 해석할 수 없습니다")
}

// NewErrReadFailed 파일을 읽는 데 실패했을 때 반환하는 에러를 생성합니다.
func NewErrReadFailed(err error, name string) error {
	return apperrors.Wrapf(err, apperrors.System, "데이터 조회 실패: 파일을 읽을 수 없습니다 (%s)", name)
}

// NewErrWriteFailed 원자적 쓰기 과정 중 한 단계가 실패했을 때 반환하는 에러를 생성합니다.
func NewErrWriteFailed(err error, step string) error {
	return apperrors.Wrapf(err, apperrors.System, "데이터 저장 실패: %s 중 오류가 발생했습니다", step)
}

// NewErrRemoteUnavailable 원격 미러 조회가 실패했을 때 반환하는 에러를 생성합니다.
func NewErrRemoteUnavailable(err error, url string) error {
	return apperrors.Wrapf(err, apperrors.Unavailable, "원격 미러 조회 실패 (%s)", url)
}

// NewErrRemoteStatus 원격 미러가 예상하지 못한 상태 코드를 반환했을 때의 에러를 생성합니다.
func NewErrRemoteStatus(status int, url string) error {
	return apperrors.Newf(apperrors.Unavailable, "원격 미러 응답 오류: HTTP %d (%s)", status, url)
}
