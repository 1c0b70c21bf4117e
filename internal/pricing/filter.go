package pricing

import (
	"regexp"
	"slices"
	"strings"

	"github.com/darkkaiser/pricewatch/pkg/strutil"
	"golang.org/x/text/unicode/norm"
)

// accessoryPattern 본품이 아닌 주변 기기를 나타내는 단어들입니다.
var accessoryPattern = regexp.MustCompile(`(?i)(アダプタ|アダプター|adapter|変換|ケース|case|カバー|cover|ヒートシンク|heatsink|ステッカー|sticker|延長|ケーブル|cable|リーダー|reader|フィルム|film)`)

// FilterRule 상품별 판매 정보 선별 조건입니다.
type FilterRule struct {
	Filters            []string // 제목에 모두 포함되어야 하는 키워드
	BrandHints         []string // 제목에 하나 이상 포함되어야 하는 키워드
	ExcludeAccessories bool     // 주변 기기 제목 제외
}

// OfferFilter 제목을 기준으로 상품과 무관한 판매 정보를 걸러냅니다.
type OfferFilter struct {
	matcher            *strutil.KeywordMatcher
	excludeAccessories bool
}

// NewOfferFilter 규칙으로부터 필터를 생성합니다. 키워드 비교는 NFKC 정규화 후 대소문자 구분 없이 수행됩니다.
func NewOfferFilter(rule FilterRule) *OfferFilter {
	return &OfferFilter{
		matcher:            strutil.NewKeywordMatcher(foldAll(rule.Filters), nil).WithAnyOf(foldAll(rule.BrandHints)),
		excludeAccessories: rule.ExcludeAccessories,
	}
}

// Accept 판매 정보가 조건을 만족하는지 검사합니다.
func (f *OfferFilter) Accept(o Offer) bool {
	title := FoldTitle(o.Title)
	if f.excludeAccessories && accessoryPattern.MatchString(title) {
		return false
	}
	return f.matcher.Match(title)
}

// FoldTitle 비교용 제목을 반환합니다. (NFKC 정규화, 소문자, 공백 정리)
func FoldTitle(title string) string {
	title = norm.NFKC.String(title)
	title = strings.ReplaceAll(title, "　", " ")
	return strutil.NormalizeSpaces(strings.ToLower(title))
}

func foldAll(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = FoldTitle(k); k != "" {
			out = append(out, k)
		}
	}
	return out
}

var (
	nonTokenPattern = regexp.MustCompile(`[^a-z0-9-]+`)
	tokenPatterns   = []*regexp.Regexp{
		regexp.MustCompile(`^\d+(?:gb|tb|g|t)$`),
		regexp.MustCompile(`^uhs-i{1,3}$`),
		regexp.MustCompile(`^class\d+$`),
		regexp.MustCompile(`^u\d$`),
		regexp.MustCompile(`^v\d+$`),
		regexp.MustCompile(`[a-z]+\d+[a-z0-9-]*`),
		regexp.MustCompile(`\d+[a-z][a-z0-9-]*`),
	}
)

// NormalizeTitle 제목에서 용량, 규격, 모델명 등 식별에 의미 있는 토큰만 추출해 정렬된 문자열로 반환합니다.
// 예: "SanDisk Extreme 128GB microSDXC UHS-I U3 V30" -> "128gb u3 uhs-i v30"
func NormalizeTitle(title string) string {
	folded := nonTokenPattern.ReplaceAllString(FoldTitle(title), " ")

	var tokens []string
	for _, t := range strings.Fields(folded) {
		for _, p := range tokenPatterns {
			if p.MatchString(t) {
				tokens = append(tokens, t)
				break
			}
		}
	}
	slices.Sort(tokens)

	return strings.Join(tokens, " ")
}
