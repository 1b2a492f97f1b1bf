package partialdate

import (
	"database/sql/driver"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		input     string
		precision Precision
		anchor    time.Time
	}{
		{"2012", PrecisionYear, time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2012-04", PrecisionMonth, time.Date(2012, 4, 1, 0, 0, 0, 0, time.UTC)},
		{"2012-04-27", PrecisionDay, time.Date(2012, 4, 27, 0, 0, 0, 0, time.UTC)},
		{"2000-02-29", PrecisionDay, time.Date(2000, 2, 29, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d, err := Parse(tt.input)
			require.NoError(t, err)

			assert.Equal(t, tt.input, d.String())
			assert.Equal(t, tt.precision, d.Precision())

			anchor, ok := d.Anchor()
			assert.True(t, ok)
			assert.Equal(t, tt.anchor, anchor)

			formatted := Format(d)
			require.NotNil(t, formatted)
			assert.Equal(t, tt.input, *formatted)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	for _, input := range []string{"2012-13", "2012-1210", "YESTERDAY", "2012-02-30", "12-01-01", "2012/01/01", " 2012", "0000", "0000-01", "0000-01-01"} {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrFormat)

			var fe *FormatError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, input, fe.Input)
		})
	}
}

func TestParse_Null(t *testing.T) {
	d, err := Parse("")
	require.NoError(t, err)
	assert.True(t, d.IsNull())
	assert.Equal(t, PrecisionNone, d.Precision())
	assert.Nil(t, Format(d))

	_, ok := d.Anchor()
	assert.False(t, ok)

	d, err = ParsePtr(nil)
	require.NoError(t, err)
	assert.True(t, d.Equal(Null))
}

func TestDate_Compare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2010", "2011", -1},
		{"2010-05", "2010-04-30", 1},
		{"2010", "2010-01", -1},
		{"2010-01", "2010-01-01", -1},
		{"2010-06-01", "2010-06-01", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			got, err := MustParse(tt.a).Compare(MustParse(tt.b))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDate_Compare_Unbounded(t *testing.T) {
	_, err := MustParse("2010").Compare(Null)
	assert.ErrorIs(t, err, ErrComparison)

	_, err = Null.Compare(MustParse("2010"))
	assert.ErrorIs(t, err, ErrComparison)

	_, err = Null.Compare(Null)
	assert.ErrorIs(t, err, ErrComparison)

	_, err = Min(Null, MustParse("2010"))
	assert.ErrorIs(t, err, ErrComparison)
}

func TestDate_Equal(t *testing.T) {
	assert.True(t, Null.Equal(Null))
	assert.True(t, MustParse("2010-01").Equal(MustParse("2010-01")))
	assert.False(t, MustParse("2010").Equal(MustParse("2010-01-01")))
	assert.False(t, MustParse("2010").Equal(Null))
}

func TestDate_Arithmetic(t *testing.T) {
	t.Run("add returns day precision", func(t *testing.T) {
		d, err := MustParse("2010-01").Add(31 * 24 * time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "2010-02-01", d.String())
		assert.Equal(t, PrecisionDay, d.Precision())
	})

	t.Run("add days", func(t *testing.T) {
		d, err := MustParse("2016-02-28").AddDays(1)
		require.NoError(t, err)
		assert.Equal(t, "2016-02-29", d.String())
	})

	t.Run("sub dates", func(t *testing.T) {
		d, err := MustParse("2010-01").Sub(MustParse("2008-01"))
		require.NoError(t, err)
		assert.Equal(t, 731*24*time.Hour, d)
	})

	t.Run("sub days spans centuries", func(t *testing.T) {
		days, err := MustParse("2020").SubDays(MustParse("1600"))
		require.NoError(t, err)
		assert.Equal(t, int64(153402), days)

		days, err = MustParse("1600").SubDays(MustParse("2020"))
		require.NoError(t, err)
		assert.Equal(t, int64(-153402), days)
	})

	t.Run("sub out of duration range", func(t *testing.T) {
		_, err := MustParse("2020").Sub(MustParse("1600"))
		assert.ErrorIs(t, err, ErrRange)

		d, err := MustParse("1900").Sub(MustParse("1700"))
		require.NoError(t, err)
		assert.Equal(t, 73048*24*time.Hour, d)
	})

	t.Run("sub duration", func(t *testing.T) {
		d, err := MustParse("2010").SubDuration(24 * time.Hour)
		require.NoError(t, err)
		assert.Equal(t, "2009-12-31", d.String())
	})

	t.Run("unbounded operands fail", func(t *testing.T) {
		_, err := Null.Add(time.Hour)
		assert.ErrorIs(t, err, ErrUnbounded)

		_, err = MustParse("2010").Sub(Null)
		assert.ErrorIs(t, err, ErrUnbounded)

		_, err = Null.SubDays(MustParse("2010"))
		assert.ErrorIs(t, err, ErrUnbounded)

		_, err = Null.AddDays(3)
		assert.ErrorIs(t, err, ErrUnbounded)
	})
}

func TestDate_JSON(t *testing.T) {
	type payload struct {
		Start Date `json:"start_date"`
		End   Date `json:"end_date"`
	}

	data, err := json.Marshal(payload{Start: MustParse("2001-05")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start_date":"2001-05","end_date":null}`, string(data))

	var decoded payload
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"1999","end_date":""}`), &decoded))
	assert.Equal(t, "1999", decoded.Start.String())
	assert.True(t, decoded.End.IsNull())

	err = json.Unmarshal([]byte(`{"start_date":"1999-00"}`), &decoded)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestDate_SQL(t *testing.T) {
	v, err := Null.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = MustParse("2003-03-03").Value()
	require.NoError(t, err)
	assert.Equal(t, driver.Value("2003-03-03"), v)

	var d Date
	require.NoError(t, d.Scan([]byte("2003-03")))
	assert.Equal(t, "2003-03", d.String())

	require.NoError(t, d.Scan(nil))
	assert.True(t, d.IsNull())

	assert.Error(t, d.Scan(42))
}
