package errors

// Kind 에러 분류입니다.
type Kind uint8

const (
	// Internal 프로그램 내부 오류
	Internal Kind = iota + 1
	// System 디스크, 프로세스 등 실행 환경 오류
	System
	// InvalidInput 설정이나 입력 데이터 검증 실패
	InvalidInput
	// NotFound 이전 스냅샷, 가격 이력처럼 아직 만들어지지 않은 데이터
	NotFound
	// ParsingFailed JSON 등 형식 해석 실패
	ParsingFailed
	// Unavailable 원격 미러 등 외부 대상에 일시적으로 접근할 수 없음
	Unavailable
)

func (k Kind) String() string {
	switch k {
	case Internal:
		return "Internal"
	case System:
		return "System"
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case ParsingFailed:
		return "ParsingFailed"
	case Unavailable:
		return "Unavailable"
	}
	return "Unknown"
}
