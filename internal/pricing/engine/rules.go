package engine

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
	"github.com/smallbiznis/pricewise/internal/pricing/domain"
)

// specificity ranks scopes for tie-breaks; lower applies first.
func specificity(scope discountruledomain.Scope) int {
	switch scope {
	case discountruledomain.ScopeCustomer:
		return 0
	case discountruledomain.ScopeCustomerGroup:
		return 1
	case discountruledomain.ScopeItem:
		return 2
	case discountruledomain.ScopeItemFamily:
		return 3
	default:
		return 4
	}
}

// GatherRules keeps the active, in-window rules whose scope matches the item and customer.
// Rules that cannot be evaluated are reported as skipped instead.
func GatherRules(rules []discountruledomain.DiscountRule, item *catalogdomain.Item, customer *customerdomain.Customer, now time.Time) ([]discountruledomain.DiscountRule, []domain.SkippedRule) {
	var (
		matched []discountruledomain.DiscountRule
		skipped []domain.SkippedRule
	)
	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if reason := checkRule(rule); reason != "" {
			skipped = append(skipped, domain.SkippedRule{RuleID: rule.ID, RuleName: rule.Name, Reason: reason})
			continue
		}
		if !rule.InWindow(now) {
			continue
		}
		if matchesScope(rule, item, customer) {
			matched = append(matched, rule)
		}
	}
	return matched, skipped
}

func checkRule(rule discountruledomain.DiscountRule) string {
	if !rule.Scope.Valid() {
		return domain.SkipReasonUnknownScope
	}
	hasTarget := rule.ScopeTargetID != nil && *rule.ScopeTargetID != 0
	if rule.Scope == discountruledomain.ScopeGlobal && hasTarget {
		return domain.SkipReasonUnexpectedTarget
	}
	if rule.Scope != discountruledomain.ScopeGlobal && !hasTarget {
		return domain.SkipReasonMissingTarget
	}
	if !rule.Kind.Valid() {
		return domain.SkipReasonUnknownKind
	}
	if !rule.Value.IsPositive() {
		return domain.SkipReasonNonPositiveValue
	}
	if rule.Kind == discountruledomain.KindPercentage && rule.Value.GreaterThan(decimal.NewFromInt(1)) {
		return domain.SkipReasonPercentageAboveOne
	}
	if rule.ValidFrom != nil && rule.ValidUntil != nil && rule.ValidUntil.Before(*rule.ValidFrom) {
		return domain.SkipReasonInvertedWindow
	}
	return ""
}

func matchesScope(rule discountruledomain.DiscountRule, item *catalogdomain.Item, customer *customerdomain.Customer) bool {
	switch rule.Scope {
	case discountruledomain.ScopeCustomer:
		return customer != nil && *rule.ScopeTargetID == customer.ID
	case discountruledomain.ScopeCustomerGroup:
		return customer != nil && customer.CustomerGroupID != nil && *rule.ScopeTargetID == *customer.CustomerGroupID
	case discountruledomain.ScopeItem:
		return item != nil && *rule.ScopeTargetID == item.ID
	case discountruledomain.ScopeItemFamily:
		return item != nil && item.FamilyID != nil && *rule.ScopeTargetID == *item.FamilyID
	case discountruledomain.ScopeGlobal:
		return true
	default:
		return false
	}
}

// OrderRules sorts in place by priority, then scope specificity, then rule id.
func OrderRules(rules []discountruledomain.DiscountRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		a, b := rules[i], rules[j]
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if ra, rb := specificity(a.Scope), specificity(b.Scope); ra != rb {
			return ra < rb
		}
		return a.ID < b.ID
	})
}

// ApplyRules stacks the ordered rules on a running unit price.
// Each discount is rounded to scale and recorded only when positive.
func ApplyRules(base decimal.Decimal, rules []discountruledomain.DiscountRule, scale int32) (decimal.Decimal, []domain.DiscountApplication) {
	running := base
	applied := make([]domain.DiscountApplication, 0, len(rules))
	for _, rule := range rules {
		if !running.IsPositive() {
			break
		}

		var amount decimal.Decimal
		switch rule.Kind {
		case discountruledomain.KindPercentage:
			amount = running.Mul(rule.Value)
		case discountruledomain.KindFixedPerUnit:
			amount = decimal.Min(rule.Value, running)
		default:
			continue
		}
		amount = decimal.Min(roundMoney(amount, scale), running)
		if !amount.IsPositive() {
			continue
		}

		running = running.Sub(amount)
		applied = append(applied, domain.DiscountApplication{
			RuleID:   rule.ID,
			RuleName: rule.Name,
			Scope:    rule.Scope,
			Amount:   amount,
		})
	}
	if running.IsNegative() {
		running = decimal.Zero
	}
	return running, applied
}
