package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrItemNotFound          = errors.New("ItemNotFound")
	ErrCustomerNotFound      = errors.New("CustomerNotFound")
	ErrInvalidQuantity       = errors.New("InvalidQuantity")
	ErrRuleEvaluationSkipped = errors.New("RuleEvaluationSkipped")

	ErrEmptyBatch    = errors.New("empty_batch")
	ErrBatchTooLarge = errors.New("batch_too_large")
)

const (
	SkipReasonMissingTarget      = "missing_target"
	SkipReasonUnexpectedTarget   = "unexpected_target"
	SkipReasonUnknownScope       = "unknown_scope"
	SkipReasonUnknownKind        = "unknown_kind"
	SkipReasonNonPositiveValue   = "non_positive_value"
	SkipReasonPercentageAboveOne = "percentage_above_one"
	SkipReasonInvertedWindow     = "inverted_window"
)

// RuleSkipError carries why a rule was skipped. It matches ErrRuleEvaluationSkipped.
type RuleSkipError struct {
	RuleID snowflake.ID
	Reason string
}

func (e *RuleSkipError) Error() string {
	return fmt.Sprintf("%s: rule %s: %s", ErrRuleEvaluationSkipped, e.RuleID, e.Reason)
}

func (e *RuleSkipError) Unwrap() error {
	return ErrRuleEvaluationSkipped
}

// IsCalculationError reports whether err is one of the labeled failures a caller may see.
func IsCalculationError(err error) bool {
	return errors.Is(err, ErrItemNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrInvalidQuantity)
}
