// Package strutil 문자열 처리를 위한 유틸리티 함수들을 제공합니다.
package strutil

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// NormalizeSpaces 문자열의 앞뒤 공백을 제거하고 연속된 공백을 하나로 축약합니다.
// 예: "  hello   world  " -> "hello world"
func NormalizeSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripHTML HTML 마크업을 제거하고 엔티티를 디코딩한 텍스트를 반환합니다.
// 예: "<b>SSD</b> 1TB &amp; 케이스" -> "SSD 1TB & 케이스"
//
// 마크업이 없는 문자열은 그대로(공백만 정규화하여) 반환합니다.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return NormalizeSpaces(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return NormalizeSpaces(s)
	}

	return NormalizeSpaces(doc.Text())
}

// Integer 모든 정수 타입을 포괄하는 제네릭 인터페이스
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// FormatCommas 숫자를 천 단위 구분 기호(,)가 포함된 문자열로 변환합니다.
// 예: 1234567 -> "1,234,567"
func FormatCommas[T Integer](num T) string {
	var str string
	if num < 0 {
		str = strconv.FormatInt(int64(num), 10)
	} else {
		str = strconv.FormatUint(uint64(num), 10)
	}

	sign := ""
	if strings.HasPrefix(str, "-") {
		sign, str = "-", str[1:]
	}
	if len(str) <= 3 {
		return sign + str
	}

	var b strings.Builder
	b.Grow(len(sign) + len(str) + (len(str)-1)/3)
	b.WriteString(sign)

	head := len(str) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(str[:head])
	for i := head; i < len(str); i += 3 {
		b.WriteByte(',')
		b.WriteString(str[i : i+3])
	}

	return b.String()
}

// SplitAndTrim 구분자로 분리한 뒤 각 항목의 공백을 제거하고 빈 항목을 제외합니다. 결과가 없으면 nil을 반환합니다.
func SplitAndTrim(s, sep string) []string {
	var result []string
	for _, token := range strings.Split(s, sep) {
		if token = strings.TrimSpace(token); token != "" {
			result = append(result, token)
		}
	}
	return result
}
