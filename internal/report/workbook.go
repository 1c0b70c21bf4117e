// Package report 상품별 가격 이력을 엑셀 통합 문서(xlsx)로 내보냅니다.
package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/darkkaiser/pricewatch/internal/history"
	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const (
	// maxSheetNameLength 엑셀 시트 이름의 최대 길이(문자 수)입니다.
	maxSheetNameLength = 31

	defaultSheetName = "Sheet1"
)

// invalidSheetNameChars 엑셀 시트 이름에 사용할 수 없는 문자입니다.
const invalidSheetNameChars = `[]:*?/\`

// ProductHistory 시트 하나로 내보낼 상품의 가격 이력입니다.
type ProductHistory struct {
	SkuID    string
	Document history.Document
}

// WriteHistoryWorkbook 상품마다 시트를 하나씩 만들어 가격 이력을 기록한 통합 문서를 w에 씁니다.
//
// 시트는 docs 순서대로 생성되며, 첫 행은 머리글(date, price)이고 이후 행은 문서에 저장된 순서를 따릅니다.
// 내보낼 상품이 없으면 빈 시트 하나만 있는 통합 문서를 씁니다.
func WriteHistoryWorkbook(w io.Writer, docs []ProductHistory) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = apperrors.Wrap(closeErr, apperrors.System, "통합 문서 리소스 정리에 실패했습니다")
		}
	}()

	used := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		sheet := uniqueSheetName(SanitizeSheetName(doc.SkuID), used)

		if i == 0 {
			if err := f.SetSheetName(defaultSheetName, sheet); err != nil {
				return apperrors.Wrapf(err, apperrors.Internal, "시트 이름을 변경할 수 없습니다: '%s'", sheet)
			}
		} else if _, err := f.NewSheet(sheet); err != nil {
			return apperrors.Wrapf(err, apperrors.Internal, "시트를 생성할 수 없습니다: '%s'", sheet)
		}

		if err := writeRows(f, sheet, doc.Document.History); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return apperrors.Wrap(err, apperrors.System, "통합 문서를 기록할 수 없습니다")
	}

	return nil
}

func writeRows(f *excelize.File, sheet string, entries []history.Entry) error {
	if err := f.SetSheetRow(sheet, "A1", &[]any{"date", "price"}); err != nil {
		return apperrors.Wrapf(err, apperrors.Internal, "머리글을 기록할 수 없습니다: '%s'", sheet)
	}

	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.Wrap(err, apperrors.Internal, "셀 좌표를 계산할 수 없습니다")
		}
		if err := f.SetSheetRow(sheet, cell, &[]any{e.Date, e.Price}); err != nil {
			return apperrors.Wrapf(err, apperrors.Internal, "가격 이력 행을 기록할 수 없습니다: '%s' (%s)", sheet, e.Date)
		}
	}

	return nil
}

// SanitizeSheetName 엑셀이 허용하지 않는 문자를 '_'로 바꾸고 31자로 자릅니다.
// 양 끝의 작은따옴표는 제거하며, 결과가 비어 있으면 "Sheet"를 반환합니다.
func SanitizeSheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetNameChars, r) {
			return '_'
		}
		return r
	}, name)
	name = strings.Trim(strings.TrimSpace(name), "'")

	name = truncate(name, maxSheetNameLength)
	if name == "" {
		return "Sheet"
	}
	return name
}

// uniqueSheetName 엑셀은 시트 이름을 대소문자 구분 없이 비교하므로, 이미 사용된 이름이면 "~N" 접미사를 붙입니다.
func uniqueSheetName(name string, used map[string]struct{}) string {
	candidate := name
	for n := 2; ; n++ {
		key := strings.ToLower(candidate)
		if _, exists := used[key]; !exists {
			used[key] = struct{}{}
			return candidate
		}

		suffix := fmt.Sprintf("~%d", n)
		candidate = truncate(name, maxSheetNameLength-len(suffix)) + suffix
	}
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
