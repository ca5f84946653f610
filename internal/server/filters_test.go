package server

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveFilter(t *testing.T) {
	active, err := activeFilter(" ")
	require.NoError(t, err)
	assert.Nil(t, active)

	active, err = activeFilter("false")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.False(t, *active)

	_, err = activeFilter("maybe")
	var vErr *ValidationErrors
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "is_active", vErr.Errors[0].Field)
}

func TestTargetFilter(t *testing.T) {
	id, err := targetFilter("")
	require.NoError(t, err)
	assert.Nil(t, id)

	id, err = targetFilter(" 1234 ")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, snowflake.ID(1234), *id)

	for _, raw := range []string{"abc", "0", "-5"} {
		_, err = targetFilter(raw)
		assert.ErrorIs(t, err, discountruledomain.ErrInvalidTarget, raw)
	}
}

func TestParseRuleWindowPlainDatesCoverWholeDays(t *testing.T) {
	from, until, err := parseRuleWindow("2026-07-01", "2026-07-31")
	require.NoError(t, err)
	require.NotNil(t, from)
	require.NotNil(t, until)

	assert.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2026, 7, 31, 23, 59, 59, 999999999, time.UTC), *until)

	rule := discountruledomain.DiscountRule{ValidFrom: from, ValidUntil: until}
	assert.True(t, rule.InWindow(time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, rule.InWindow(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)))
}

func TestParseRuleWindowInstantsAndErrors(t *testing.T) {
	from, until, err := parseRuleWindow("2026-07-01T08:00:00+07:00", "")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Nil(t, until)
	assert.True(t, from.Equal(time.Date(2026, 7, 1, 1, 0, 0, 0, time.UTC)))

	_, _, err = parseRuleWindow("next week", "")
	var vErr *ValidationErrors
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid_valid_from", vErr.Errors[0].Code)

	_, _, err = parseRuleWindow("", "2026-13-01")
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "invalid_valid_until", vErr.Errors[0].Code)
}
