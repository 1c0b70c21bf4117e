package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("배열 형식", func(t *testing.T) {
		doc, err := Parse([]byte(`[{"date":"2024-05-02","price":900},{"date":"2024-05-01","price":950}]`))

		require.NoError(t, err)
		assert.Equal(t, Meta{}, doc.Meta)
		assert.Equal(t, []Entry{{"2024-05-02", 900}, {"2024-05-01", 950}}, doc.History)
	})

	t.Run("객체 형식", func(t *testing.T) {
		doc, err := Parse([]byte(`{"meta":{"valueType":"effectivePrice","tz":"Asia/Tokyo","cleaned":true},"history":[{"date":"2024-05-01","price":900}]}`))

		require.NoError(t, err)
		assert.Equal(t, Meta{ValueType: "effectivePrice", TZ: "Asia/Tokyo", Cleaned: true}, doc.Meta)
		assert.Equal(t, []Entry{{"2024-05-01", 900}}, doc.History)
	})

	t.Run("형식이 올바르지 않은 행은 버린다", func(t *testing.T) {
		doc, err := Parse([]byte(`[{"date":"2024-05-01","price":"900"},{"date":20240502,"price":1},{"price":1},1,null,{"date":"2024-05-03","price":800}]`))

		require.NoError(t, err)
		assert.Equal(t, []Entry{{"2024-05-03", 800}}, doc.History)
	})

	t.Run("history가 없는 객체", func(t *testing.T) {
		doc, err := Parse([]byte(`{"meta":{}}`))

		require.NoError(t, err)
		assert.NotNil(t, doc.History)
		assert.Empty(t, doc.History)
	})

	t.Run("해석할 수 없는 입력", func(t *testing.T) {
		for _, raw := range []string{`{"history":`, `"text"`, `42`, ``} {
			_, err := Parse([]byte(raw))
			assert.Error(t, err, raw)
		}
	})
}

func TestDocument_Marshal(t *testing.T) {
	t.Parallel()

	data, err := Document{Meta: Meta{ValueType: "effectivePrice", TZ: "Asia/Tokyo"}}.Marshal()
	require.NoError(t, err)

	assert.JSONEq(t, `{"meta":{"valueType":"effectivePrice","tz":"Asia/Tokyo"},"history":[]}`, string(data))

	doc, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "effectivePrice", doc.Meta.ValueType)
}
