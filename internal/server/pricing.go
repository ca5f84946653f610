package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pricewise/internal/observability/logger"
	pricingdomain "github.com/smallbiznis/pricewise/internal/pricing/domain"
	"go.uber.org/zap"
)

// calculateLine keeps every field raw so a malformed quantity is reported as
// InvalidQuantity instead of a decode failure.
type calculateLine struct {
	CustomerID json.RawMessage `json:"customer_id"`
	ItemID     json.RawMessage `json:"item_id"`
	Quantity   json.RawMessage `json:"quantity"`
}

type calculateBatchRequest struct {
	Lines []calculateLine `json:"lines"`
}

type discountResponse struct {
	RuleID   string      `json:"rule_id"`
	RuleName string      `json:"rule_name"`
	Scope    string      `json:"scope"`
	Discount json.Number `json:"discount"`
}

type priceCalculationResponse struct {
	BasePrice        json.Number        `json:"base_price"`
	PriceSource      string             `json:"price_source"`
	PriceListID      string             `json:"price_list_id,omitempty"`
	Quantity         int64              `json:"quantity"`
	UnitPrice        json.Number        `json:"unit_price"`
	TotalPrice       json.Number        `json:"total_price"`
	TotalDiscount    json.Number        `json:"total_discount"`
	DiscountsApplied []discountResponse `json:"discounts_applied"`
	CostFloorApplied bool               `json:"cost_floor_applied,omitempty"`
}

type calculationErrorResponse struct {
	Error string `json:"error"`
}

type batchLineResponse struct {
	*priceCalculationResponse
	Error string `json:"error,omitempty"`
}

// maxPricingBodyBytes bounds a calculation request. A full batch of
// max_batch_size lines with long ids stays well under it.
const maxPricingBodyBytes int64 = 1 << 20

func (s *Server) CalculatePrice(c *gin.Context) {
	var line calculateLine
	if err := decodeJSONBody(c, &line); err != nil {
		AbortWithError(c, decodeError(err))
		return
	}

	req := line.toRequest()
	logger.Annotate(c,
		zap.String("item_id", req.ItemID),
		zap.String("customer_id", req.CustomerID),
		zap.Int64("quantity", req.Quantity),
	)

	calc, err := s.pricingSvc.Calculate(c.Request.Context(), req)
	if err != nil {
		if status, label, ok := calculationError(err); ok {
			logger.Annotate(c, zap.String("pricing_error", label))
			c.JSON(status, calculationErrorResponse{Error: label})
			return
		}
		AbortWithError(c, err)
		return
	}

	logger.Annotate(c,
		zap.String("price_source", string(calc.PriceSource)),
		zap.Int("discounts_applied", len(calc.DiscountsApplied)),
	)
	c.JSON(http.StatusOK, s.toCalculationResponse(calc))
}

func (s *Server) CalculatePriceBatch(c *gin.Context) {
	var body calculateBatchRequest
	if err := decodeJSONBody(c, &body); err != nil {
		AbortWithError(c, decodeError(err))
		return
	}

	reqs := make([]pricingdomain.CalculateRequest, 0, len(body.Lines))
	for _, line := range body.Lines {
		reqs = append(reqs, line.toRequest())
	}
	logger.Annotate(c, zap.Int("batch_size", len(reqs)))

	results, err := s.pricingSvc.CalculateBatch(c.Request.Context(), reqs)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]batchLineResponse, 0, len(results))
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			_, label, ok := calculationError(result.Err)
			if !ok {
				AbortWithError(c, result.Err)
				return
			}
			failed++
			out = append(out, batchLineResponse{Error: label})
			continue
		}
		resp := s.toCalculationResponse(*result.Calculation)
		out = append(out, batchLineResponse{priceCalculationResponse: &resp})
	}
	logger.Annotate(c, zap.Int("batch_failed", failed))

	c.JSON(http.StatusOK, gin.H{"results": out})
}

func (s *Server) toCalculationResponse(calc pricingdomain.PriceCalculation) priceCalculationResponse {
	scale := s.pricingCfg.Get().Scale
	resp := priceCalculationResponse{
		BasePrice:        money(calc.BasePrice, scale),
		PriceSource:      string(calc.PriceSource),
		Quantity:         calc.Quantity,
		UnitPrice:        money(calc.UnitPrice, scale),
		TotalPrice:       money(calc.TotalPrice, scale),
		TotalDiscount:    money(calc.TotalDiscount, scale),
		DiscountsApplied: make([]discountResponse, 0, len(calc.DiscountsApplied)),
		CostFloorApplied: calc.CostFloorApplied,
	}
	if calc.PriceListID != nil {
		resp.PriceListID = calc.PriceListID.String()
	}
	for _, applied := range calc.DiscountsApplied {
		resp.DiscountsApplied = append(resp.DiscountsApplied, discountResponse{
			RuleID:   applied.RuleID.String(),
			RuleName: applied.RuleName,
			Scope:    string(applied.Scope),
			Discount: money(applied.Amount, scale),
		})
	}
	return resp
}

// calculationError maps the labeled calculation failures to their status and label.
func calculationError(err error) (int, string, bool) {
	switch {
	case errors.Is(err, pricingdomain.ErrInvalidQuantity):
		return http.StatusBadRequest, pricingdomain.ErrInvalidQuantity.Error(), true
	case errors.Is(err, pricingdomain.ErrItemNotFound):
		return http.StatusNotFound, pricingdomain.ErrItemNotFound.Error(), true
	case errors.Is(err, pricingdomain.ErrCustomerNotFound):
		return http.StatusNotFound, pricingdomain.ErrCustomerNotFound.Error(), true
	default:
		return 0, "", false
	}
}

func (l calculateLine) toRequest() pricingdomain.CalculateRequest {
	return pricingdomain.CalculateRequest{
		CustomerID: rawID(l.CustomerID),
		ItemID:     rawID(l.ItemID),
		Quantity:   rawQuantity(l.Quantity),
	}
}

// rawID accepts an id sent as a JSON string or a bare number. Anything else is
// passed on as an unparsable id so the lookup fails with a not-found label.
func rawID(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err == nil {
		return n.String()
	}
	return "invalid"
}

// rawQuantity returns 0 for anything that is not a positive whole number so
// the calculation rejects it as InvalidQuantity.
func rawQuantity(raw json.RawMessage) int64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] == '"' {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return 0
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil || !d.IsInteger() || !d.IsPositive() {
		return 0
	}
	if !d.BigInt().IsInt64() {
		return 0
	}
	return d.IntPart()
}

func money(d decimal.Decimal, scale int32) json.Number {
	return json.Number(d.StringFixed(scale))
}

// decodeJSONBody reads at most maxPricingBodyBytes before decoding.
func decodeJSONBody(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPricingBodyBytes))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, dst)
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrRequestTooLarge
	}
	return invalidRequestError()
}
