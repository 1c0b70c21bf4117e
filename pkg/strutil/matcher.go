package strutil

import "strings"

// KeywordMatcher 대소문자를 구분하지 않는 키워드 매칭기입니다.
//
// 포함 키워드 그룹은 모두 만족해야 하며(AND), 각 그룹 내부는 하나만 만족하면 됩니다(OR).
// 제외 키워드는 하나라도 포함되면 매칭에 실패합니다.
//
//	m := strutil.NewKeywordMatcher([]string{"1TB", "NVMe"}, []string{"case"}).WithAnyOf([]string{"Samsung", "WD"})
type KeywordMatcher struct {
	groups   [][]string
	excluded []string
}

// NewKeywordMatcher 포함 키워드(각각 AND, "a|b" 형식은 OR 그룹)와 제외 키워드로 매칭기를 생성합니다.
func NewKeywordMatcher(included, excluded []string) *KeywordMatcher {
	m := &KeywordMatcher{}
	for _, k := range included {
		if group := lowerAll(SplitAndTrim(k, "|")); len(group) > 0 {
			m.groups = append(m.groups, group)
		}
	}
	for _, k := range excluded {
		if k = strings.TrimSpace(k); k != "" {
			m.excluded = append(m.excluded, strings.ToLower(k))
		}
	}
	return m
}

// WithAnyOf 하나 이상 포함되어야 하는 키워드 그룹을 추가합니다. 빈 목록은 무시됩니다.
func (m *KeywordMatcher) WithAnyOf(keywords []string) *KeywordMatcher {
	var group []string
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			group = append(group, strings.ToLower(k))
		}
	}
	if len(group) > 0 {
		m.groups = append(m.groups, group)
	}
	return m
}

// Match 문자열이 모든 조건을 만족하는지 검사합니다.
func (m *KeywordMatcher) Match(s string) bool {
	s = strings.ToLower(s)

	for _, k := range m.excluded {
		if strings.Contains(s, k) {
			return false
		}
	}

	for _, group := range m.groups {
		matched := false
		for _, k := range group {
			if strings.Contains(s, k) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func lowerAll(ss []string) []string {
	for i, s := range ss {
		ss[i] = strings.ToLower(s)
	}
	return ss
}
