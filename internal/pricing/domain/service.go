package domain

import "context"

type CalculateRequest struct {
	CustomerID string
	ItemID     string
	Quantity   int64
}

// BatchResult holds either the calculation or the labeled error of one batch line.
type BatchResult struct {
	Calculation *PriceCalculation
	Err         error
}

type Service interface {
	Calculate(context.Context, CalculateRequest) (PriceCalculation, error)
	CalculateBatch(context.Context, []CalculateRequest) ([]BatchResult, error)
}
