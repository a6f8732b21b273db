package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/markwrap/binding"
)

func TestInterpolate(t *testing.T) {
	data, err := binding.ParseData([]byte(`
country: Chile
gdp:
  growth: 2.5
rows:
  - name: first
  - name: second
matrix: [[1, 2], [3, 4]]
`))
	require.NoError(t, err)

	tests := []struct {
		in      string
		want    string
		missing []string
	}{
		{"no placeholders", "no placeholders", nil},
		{"**${country}** grew ${gdp.growth}%", "**Chile** grew 2.5%", nil},
		{"${rows[1].name}", "second", nil},
		{"${ matrix[1][0] }", "3", nil},
		{"${gdp.missing} and ${rows[5].name}", "${gdp.missing} and ${rows[5].name}", []string{"gdp.missing", "rows[5].name"}},
		{"${country.name}", "${country.name}", []string{"country.name"}},
		{"${rows[x]}", "${rows[x]}", []string{"rows[x]"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, missing := binding.Interpolate(tt.in, data)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.missing, missing)
		})
	}
}

func TestParseDataJSON(t *testing.T) {
	data, err := binding.ParseData([]byte(`{"a": {"b": [true]}}`))
	require.NoError(t, err)
	v, ok := binding.Lookup(data, "a.b[0]")
	require.True(t, ok)
	assert.Equal(t, true, v)

	data, err = binding.ParseData(nil)
	require.NoError(t, err)
	got, missing := binding.Interpolate("${a}", data)
	assert.Equal(t, "${a}", got)
	assert.Equal(t, []string{"a"}, missing)

	_, err = binding.ParseData([]byte("a: [\n"))
	assert.Error(t, err)
}
