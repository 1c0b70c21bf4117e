// Package errors 에러에 분류(Kind)를 붙여 호출자가 원인 계층에 따라 분기할 수 있게 합니다.
//
//	if err := src.Fetch(ctx, name); errors.Is(err, errors.NotFound) {
//	    // 이전 데이터 없음
//	}
//
// 감쌀 때는 원인이 발생한 계층의 분류를 고릅니다. 입력 데이터는 InvalidInput/ParsingFailed,
// 디스크와 네트워크는 System/Unavailable 입니다.
package errors

import (
	"errors"
	"fmt"
)

// AppError 분류와 메시지, 원인 에러를 함께 담는 에러입니다.
type AppError struct {
	kind  Kind
	msg   string
	cause error
}

func (e *AppError) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("[%s] %s", e.kind, e.msg)
	}
	return fmt.Sprintf("[%s] %s: %v", e.kind, e.msg, e.cause)
}

func (e *AppError) Unwrap() error { return e.cause }

// Kind 에러의 분류를 반환합니다.
func (e *AppError) Kind() Kind { return e.kind }

// New 원인 없는 에러를 생성합니다.
func New(kind Kind, msg string) error {
	return &AppError{kind: kind, msg: msg}
}

// Newf New의 포맷 문자열 버전입니다.
func Newf(kind Kind, format string, args ...any) error {
	return New(kind, fmt.Sprintf(format, args...))
}

// Wrap err에 분류와 메시지를 덧붙입니다. err이 nil이면 nil입니다.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &AppError{kind: kind, msg: msg, cause: err}
}

// Wrapf Wrap의 포맷 문자열 버전입니다.
func Wrapf(err error, kind Kind, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return Wrap(err, kind, fmt.Sprintf(format, args...))
}

// Is 에러 체인 안의 AppError 중 하나라도 kind 분류이면 true를 반환합니다.
// fmt.Errorf("%w")로 감싼 중간 계층도 건너뛰며 찾습니다.
func Is(err error, kind Kind) bool {
	var appErr *AppError
	for errors.As(err, &appErr) {
		if appErr.kind == kind {
			return true
		}
		err = appErr.cause
	}
	return false
}
