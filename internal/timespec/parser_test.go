package timespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RFC3339(t *testing.T) {
	got, err := Parse("2026-08-31T03:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC).UnixMilli(), got)
}

func TestParse_Date(t *testing.T) {
	got, err := Parse("2026-08-31")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.Local).UnixMilli(), got)
}

func TestParse_Duration(t *testing.T) {
	before := time.Now().Add(-time.Hour).UnixMilli()
	got, err := Parse("1h")
	require.NoError(t, err)
	after := time.Now().Add(-time.Hour).UnixMilli()

	assert.GreaterOrEqual(t, got, before)
	assert.LessOrEqual(t, got, after)
}

func TestParse_Invalid(t *testing.T) {
	for _, spec := range []string{"", "yesterday", "08/31/2026", "1 hour"} {
		_, err := Parse(spec)
		assert.Error(t, err, "spec %q should be rejected", spec)
	}
}

func TestParseRange(t *testing.T) {
	t.Run("both empty means unbounded", func(t *testing.T) {
		since, until, err := ParseRange("", "")
		require.NoError(t, err)
		assert.Zero(t, since)
		assert.Zero(t, until)
	})

	t.Run("valid range", func(t *testing.T) {
		since, until, err := ParseRange("2026-08-01", "2026-08-31")
		require.NoError(t, err)
		assert.Less(t, since, until)
	})

	t.Run("inverted range rejected", func(t *testing.T) {
		_, _, err := ParseRange("2026-08-31", "2026-08-01")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--since must be before --until")
	})

	t.Run("bad since", func(t *testing.T) {
		_, _, err := ParseRange("nope", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid --since")
	})
}
