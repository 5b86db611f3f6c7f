// internal/catalog/date_test.go
package catalog

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	for _, bad := range []string{"", "2024-13-01", "29/02/2024", "2023-02-29"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDateOfDropsTime(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	d := DateOf(time.Date(2024, 5, 1, 23, 59, 0, 0, loc))
	assert.Equal(t, "2024-05-01", d.String())
	assert.True(t, d.Equal(NewDate(2024, time.May, 1)))
}

func TestDateJSON(t *testing.T) {
	type holder struct {
		Due *Date `json:"due"`
	}

	d := NewDate(2024, time.January, 5)
	out, err := json.Marshal(holder{Due: &d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"due":"2024-01-05"}`, string(out))

	var h holder
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2024-01-05"}`), &h))
	require.NotNil(t, h.Due)
	assert.True(t, h.Due.Equal(d))

	h = holder{}
	require.NoError(t, json.Unmarshal([]byte(`{"due":null}`), &h))
	assert.Nil(t, h.Due)

	h = holder{}
	require.NoError(t, json.Unmarshal([]byte(`{"due":""}`), &h))
	require.NotNil(t, h.Due)
	assert.True(t, h.Due.IsZero())
	assert.Nil(t, nonZeroDate(h.Due))

	var ute *json.UnmarshalTypeError
	require.ErrorAs(t, json.Unmarshal([]byte(`{"due":"tomorrow"}`), &h), &ute)
	assert.Equal(t, "due", ute.Field)
	require.ErrorAs(t, json.Unmarshal([]byte(`{"due":20240105}`), &h), &ute)
	assert.Equal(t, "due", ute.Field)
}

func TestDateScanAndValue(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2020, 7, 4, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2020-07-04", d.String())

	require.NoError(t, d.Scan("2021-08-09"))
	assert.Equal(t, "2021-08-09", d.String())

	require.NoError(t, d.Scan([]byte("2022-10-11T00:00:00Z")))
	assert.Equal(t, "2022-10-11", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2023, time.March, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, "2023-03-02", v)
}

func TestDateArithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-27", d.AddDays(28).String())
	assert.True(t, d.Before(d.AddDays(1)))
	assert.True(t, d.AddDays(1).After(d))

	a, b := NewDate(2024, 1, 1), NewDate(2024, 1, 1)
	assert.True(t, sameDate(&a, &b))
	assert.True(t, sameDate(nil, nil))
	assert.False(t, sameDate(&a, nil))
}
