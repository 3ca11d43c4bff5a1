package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerializeSeparators(t *testing.T) {
	measures := []Measure{Empty(2, 4), Empty(2, 4)}

	out, err := Serialize(measures)
	require.NoError(t, err)
	assert.Equal(t, "0000\n0000\n,\n0000\n0000\n;", out)
}

func TestSerializeSingleMeasure(t *testing.T) {
	m := Empty(4, 4)
	m[0][0] = 1
	m[2][3] = 2

	out, err := Serialize([]Measure{m})
	require.NoError(t, err)
	assert.Equal(t, "1000\n0000\n0002\n0000\n;", out)
}

func TestSerializeRowCounts(t *testing.T) {
	measures := []Measure{Empty(16, 4), Empty(16, 4), Empty(16, 4)}

	out, err := Serialize(measures)
	require.NoError(t, err)

	rows, commas, semis := 0, 0, 0
	for _, line := range splitLines(out) {
		switch line {
		case ",":
			commas++
		case ";":
			semis++
		default:
			rows++
		}
	}
	assert.Equal(t, 48, rows)
	assert.Equal(t, 2, commas)
	assert.Equal(t, 1, semis)
}

func TestSerializeEmpty(t *testing.T) {
	out, err := Serialize(nil)
	require.NoError(t, err)
	assert.Equal(t, ";", out)
}

func TestSerializeRejectsWideCodes(t *testing.T) {
	m := Empty(1, 4)
	m[0][1] = 12
	_, err := Serialize([]Measure{m})
	assert.Error(t, err)
}

func TestRegrid(t *testing.T) {
	tests := []struct {
		width   int
		length  int
		wantErr bool
	}{
		{16, 192, false},
		{4, 192, false},
		{12, 192, false},
		{64, 192, false},
		{192, 192, false},
		{5, 192, true},
		{7, 192, true},
		{128, 192, true},
	}

	for _, tt := range tests {
		m := Empty(tt.width, 4)
		for i := range m {
			m[i][i%4] = 1
		}

		out, err := Regrid(m, tt.length, 4)
		if tt.wantErr {
			var divErr *DivisibilityError
			require.True(t, errors.As(err, &divErr), "width %d", tt.width)
			assert.Equal(t, tt.width, divErr.Width)
			assert.Equal(t, tt.length, divErr.Length)
			continue
		}
		require.NoError(t, err, "width %d", tt.width)
		require.Len(t, out, tt.length)

		stride := tt.length / tt.width
		for i, row := range out {
			if i%stride == 0 {
				assert.Equal(t, m[i/stride], row, "row %d", i)
			} else {
				assert.Equal(t, Row{0, 0, 0, 0}, row, "row %d", i)
			}
		}
	}
}

func TestRegridEmptyMeasure(t *testing.T) {
	out, err := Regrid(nil, FixedLength, 4)
	require.NoError(t, err)
	assert.Len(t, out, FixedLength)
	assert.Equal(t, 4, out.Width())
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}
