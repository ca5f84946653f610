package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
)

// List filters and rule windows arrive as plain strings. A blank value means
// "not set" and yields nil.

func activeFilter(raw string) (*bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	active, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, newValidationError("is_active", "invalid_is_active", "invalid is_active")
	}
	return &active, nil
}

// targetFilter parses the scope_target_id a rule listing is narrowed to.
func targetFilter(raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return nil, discountruledomain.ErrInvalidTarget
	}
	return &id, nil
}

// parseRuleWindow reads a discount rule's validity bounds. Both accept an
// RFC3339 instant or a plain date in UTC. A plain valid_from starts at
// midnight and a plain valid_until runs to the last nanosecond of that day,
// matching the inclusive window the engine checks.
func parseRuleWindow(from, until string) (*time.Time, *time.Time, error) {
	validFrom, ok := windowBound(from, false)
	if !ok {
		return nil, nil, newValidationError("valid_from", "invalid_valid_from", "invalid valid_from")
	}
	validUntil, ok := windowBound(until, true)
	if !ok {
		return nil, nil, newValidationError("valid_until", "invalid_valid_until", "invalid valid_until")
	}
	return validFrom, validUntil, nil
}

func windowBound(raw string, closesDay bool) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}
	if instant, err := time.Parse(time.RFC3339, raw); err == nil {
		return &instant, true
	}
	day, err := time.ParseInLocation(time.DateOnly, raw, time.UTC)
	if err != nil {
		return nil, false
	}
	if closesDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, true
}
