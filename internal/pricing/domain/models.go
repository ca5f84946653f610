package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
)

// PriceSource tells where the base unit price came from.
type PriceSource string

const (
	PriceSourcePriceList PriceSource = "price_list"
	PriceSourceItem      PriceSource = "item"
)

// Snapshot is the master data one calculation reads. It is loaded once and never mutated.
type Snapshot struct {
	Item     *catalogdomain.Item
	Family   *catalogdomain.ItemFamily
	Customer *customerdomain.Customer

	AssignedPriceList *pricelistdomain.PriceList
	AssignedTiers     []pricelistdomain.PriceListTier
	DefaultPriceList  *pricelistdomain.PriceList
	DefaultTiers      []pricelistdomain.PriceListTier

	Rules []discountruledomain.DiscountRule
	Now   time.Time
}

type PriceBase struct {
	Price       decimal.Decimal
	Source      PriceSource
	PriceListID *snowflake.ID
}

// DiscountApplication is one rule that reduced the running unit price.
type DiscountApplication struct {
	RuleID   snowflake.ID
	RuleName string
	Scope    discountruledomain.Scope
	Amount   decimal.Decimal
}

type PriceCalculation struct {
	CustomerID       *snowflake.ID
	ItemID           snowflake.ID
	BasePrice        decimal.Decimal
	PriceSource      PriceSource
	PriceListID      *snowflake.ID
	Quantity         int64
	UnitPrice        decimal.Decimal
	TotalPrice       decimal.Decimal
	TotalDiscount    decimal.Decimal
	DiscountsApplied []DiscountApplication
	CostFloorApplied bool
}

// SkippedRule is a rule left out of a calculation because it could not be evaluated.
type SkippedRule struct {
	RuleID   snowflake.ID
	RuleName string
	Reason   string
}

func (s SkippedRule) Err() error {
	return &RuleSkipError{RuleID: s.RuleID, Reason: s.Reason}
}
