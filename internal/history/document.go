// Package history 상품별 가격 이력 문서의 해석, 이상치 제거, 압축(병합/정렬/보관 기간 적용)을 담당합니다.
package history

import (
	"encoding/json"

	apperrors "github.com/darkkaiser/pricewatch/internal/pkg/errors"
	"github.com/tidwall/gjson"
)

// Entry 하루치 가격 기록입니다. Date는 고정 시간대 기준의 "YYYY-MM-DD" 문자열입니다.
type Entry struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

// Meta 이력에 저장된 가격의 의미(ValueType)와 정제 여부를 기록합니다.
type Meta struct {
	ValueType string `json:"valueType,omitempty"`
	TZ        string `json:"tz,omitempty"`
	Cleaned   bool   `json:"cleaned,omitempty"`
}

// Document 가격 이력 문서입니다. History는 날짜 내림차순입니다.
type Document struct {
	Meta    Meta    `json:"meta"`
	History []Entry `json:"history"`
}

// Parse 가격 이력 파일을 Document로 변환합니다.
//
// 두 가지 형식을 모두 지원합니다.
//
//	[{"date":"2024-05-01","price":900}, ...]                  // 초기 형식 (배열)
//	{"meta":{"valueType":"effectivePrice"},"history":[...]}   // 현재 형식
//
// date가 문자열이 아니거나 price가 숫자가 아닌 행은 버립니다.
func Parse(data []byte) (Document, error) {
	if !gjson.ValidBytes(data) {
		return Document{}, apperrors.New(apperrors.ParsingFailed, "가격 이력이 올바른 JSON 형식이 아닙니다")
	}

	root := gjson.ParseBytes(data)

	var doc Document
	switch {
	case root.IsArray():
		doc.History = parseRows(root)

	case root.IsObject():
		if meta := root.Get("meta"); meta.IsObject() {
			doc.Meta = Meta{
				ValueType: meta.Get("valueType").String(),
				TZ:        meta.Get("tz").String(),
				Cleaned:   meta.Get("cleaned").Bool(),
			}
		}
		doc.History = parseRows(root.Get("history"))

	default:
		return Document{}, apperrors.Newf(apperrors.ParsingFailed, "지원하지 않는 가격 이력 형식입니다 (%s)", root.Type)
	}

	return doc, nil
}

func parseRows(arr gjson.Result) []Entry {
	rows := make([]Entry, 0)
	if !arr.IsArray() {
		return rows
	}

	arr.ForEach(func(_, row gjson.Result) bool {
		date, price := row.Get("date"), row.Get("price")
		if row.IsObject() && date.Type == gjson.String && price.Type == gjson.Number {
			rows = append(rows, Entry{Date: date.Str, Price: price.Num})
		}
		return true
	})

	return rows
}

// Marshal 문서를 사람이 읽기 쉬운 JSON으로 직렬화합니다.
func (d Document) Marshal() ([]byte, error) {
	if d.History == nil {
		d.History = []Entry{}
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "가격 이력 직렬화 실패")
	}

	return append(data, '\n'), nil
}
