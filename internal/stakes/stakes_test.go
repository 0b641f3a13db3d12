package stakes

import (
	"testing"

	"bankroll/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func s(v string) *string   { return &v }

func TestResolve(t *testing.T) {
	t.Run("nil_settings", func(t *testing.T) {
		_, ok := Resolve(nil)
		assert.False(t, ok)
	})

	t.Run("not_fixed_ignores_values", func(t *testing.T) {
		_, ok := Resolve(&models.GroupSettings{StakesSB: f(1), StakesBB: f(3)})
		assert.False(t, ok)
	})

	t.Run("numeric_fields", func(t *testing.T) {
		got, ok := Resolve(&models.GroupSettings{StakesFixed: true, StakesSB: f(1), StakesBB: f(3)})
		require.True(t, ok)
		assert.Equal(t, Stakes{SB: 1, BB: 3}, got)
		assert.Equal(t, "1/3", got.String())
	})

	t.Run("numeric_fields_win_over_legacy", func(t *testing.T) {
		got, ok := Resolve(&models.GroupSettings{StakesFixed: true, StakesSB: f(2), StakesBB: f(5), StakesValue: s("1/3")})
		require.True(t, ok)
		assert.Equal(t, "2/5", got.String())
	})

	t.Run("legacy_fallback", func(t *testing.T) {
		got, ok := Resolve(&models.GroupSettings{StakesFixed: true, StakesValue: s("1/3")})
		require.True(t, ok)
		assert.Equal(t, Stakes{SB: 1, BB: 3}, got)
	})

	t.Run("legacy_half_numeric_only", func(t *testing.T) {
		_, ok := Resolve(&models.GroupSettings{StakesFixed: true, StakesSB: f(1), StakesValue: s("abc")})
		assert.False(t, ok)
	})

	t.Run("fixed_without_anything", func(t *testing.T) {
		_, ok := Resolve(&models.GroupSettings{StakesFixed: true})
		assert.False(t, ok)
	})
}

func TestResolveGroup(t *testing.T) {
	_, ok := ResolveGroup(nil)
	assert.False(t, ok)

	got, ok := ResolveGroup(&models.Group{Settings: &models.GroupSettings{StakesFixed: true, StakesSB: f(0.5), StakesBB: f(1)}})
	require.True(t, ok)
	assert.Equal(t, "0.5/1", got.String())
}

func TestParseLegacy(t *testing.T) {
	sb, bb := ParseLegacy("1/3")
	require.NotNil(t, sb)
	require.NotNil(t, bb)
	assert.Equal(t, 1.0, *sb)
	assert.Equal(t, 3.0, *bb)

	sb, bb = ParseLegacy(" 0.5 / 1 ")
	require.NotNil(t, sb)
	require.NotNil(t, bb)
	assert.Equal(t, 0.5, *sb)
	assert.Equal(t, 1.0, *bb)

	sb, bb = ParseLegacy("")
	assert.Nil(t, sb)
	assert.Nil(t, bb)

	sb, bb = ParseLegacy("2")
	require.NotNil(t, sb)
	assert.Nil(t, bb)

	sb, bb = ParseLegacy("x/NaN")
	assert.Nil(t, sb)
	assert.Nil(t, bb)
}

func TestFormDefaults(t *testing.T) {
	sb, bb := FormDefaults(&models.GroupSettings{StakesSB: f(2), StakesValue: s("1/3")})
	require.NotNil(t, sb)
	require.NotNil(t, bb)
	assert.Equal(t, 2.0, *sb)
	assert.Equal(t, 3.0, *bb)

	sb, bb = FormDefaults(nil)
	assert.Nil(t, sb)
	assert.Nil(t, bb)
}

func TestValidate(t *testing.T) {
	assert.True(t, Validate(false, nil, nil))
	assert.True(t, Validate(true, f(1), f(2)))
	assert.False(t, Validate(true, nil, f(2)))
	assert.False(t, Validate(true, f(0), f(2)))
	assert.False(t, Validate(true, f(1), f(-2)))
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1/3", Format(1, 3))
	assert.Equal(t, "0.25/0.5", Format(0.25, 0.5))
}
