package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfferFilter_Accept(t *testing.T) {
	t.Parallel()

	f := NewOfferFilter(FilterRule{
		Filters:            []string{"1TB", "990 PRO"},
		BrandHints:         []string{"Samsung", "サムスン"},
		ExcludeAccessories: true,
	})

	tests := []struct {
		title string
		want  bool
	}{
		{"Samsung 990 PRO 1TB NVMe", true},
		{"ＳＡＭＳＵＮＧ　９９０ ＰＲＯ　１ＴＢ", true}, // 전각 문자는 NFKC로 정규화
		{"サムスン 990 PRO 1TB 国内正規品", true},
		{"Samsung 990 PRO 2TB", false},
		{"Crucial T500 1TB 990 PRO 互換", false},
		{"Samsung 990 PRO 1TB 専用ヒートシンク", false},
		{"Samsung 990 PRO 1TB Case", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Accept(Offer{Title: tt.title}))
		})
	}
}

func TestOfferFilter_EmptyRuleAcceptsAll(t *testing.T) {
	t.Parallel()

	f := NewOfferFilter(FilterRule{})

	assert.True(t, f.Accept(Offer{Title: "USB cable"}))
	assert.True(t, f.Accept(Offer{}))
}

func TestNormalizeTitle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "128gb u3 uhs-i v30", NormalizeTitle("SanDisk Extreme 128GB microSDXC UHS-I U3 V30"))
	assert.Equal(t, "1tb 990pro", NormalizeTitle("Samsung ９９０PRO 1TB"))
	assert.Equal(t, "", NormalizeTitle("ケース"))
}
