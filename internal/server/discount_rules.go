package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	discountruledomain "github.com/smallbiznis/pricewise/internal/discountrule/domain"
)

type createDiscountRuleRequest struct {
	Name          string          `json:"name"`
	Scope         string          `json:"scope"`
	ScopeTargetID string          `json:"scope_target_id"`
	Kind          string          `json:"kind"`
	Value         decimal.Decimal `json:"value"`
	Priority      int             `json:"priority"`
	ValidFrom     string          `json:"valid_from"`
	ValidUntil    string          `json:"valid_until"`
}

type updateDiscountRuleRequest struct {
	Name          *string          `json:"name"`
	Scope         *string          `json:"scope"`
	ScopeTargetID *string          `json:"scope_target_id"`
	Kind          *string          `json:"kind"`
	Value         *decimal.Decimal `json:"value"`
	Priority      *int             `json:"priority"`
	ValidFrom     *string          `json:"valid_from"`
	ValidUntil    *string          `json:"valid_until"`
	ClearWindow   bool             `json:"clear_window"`
	IsActive      *bool            `json:"is_active"`
}

func (s *Server) CreateDiscountRule(c *gin.Context) {
	var req createDiscountRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	validFrom, validUntil, err := parseRuleWindow(req.ValidFrom, req.ValidUntil)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.discountRuleSvc.Create(c.Request.Context(), discountruledomain.CreateRuleRequest{
		Name:          strings.TrimSpace(req.Name),
		Scope:         strings.TrimSpace(req.Scope),
		ScopeTargetID: strings.TrimSpace(req.ScopeTargetID),
		Kind:          strings.TrimSpace(req.Kind),
		Value:         req.Value,
		Priority:      req.Priority,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateDiscountRule(c *gin.Context) {
	var req updateDiscountRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	var from, until string
	if req.ValidFrom != nil {
		from = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		until = *req.ValidUntil
	}
	validFrom, validUntil, err := parseRuleWindow(from, until)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.discountRuleSvc.Update(c.Request.Context(), discountruledomain.UpdateRuleRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Name:          req.Name,
		Scope:         req.Scope,
		ScopeTargetID: req.ScopeTargetID,
		Kind:          req.Kind,
		Value:         req.Value,
		Priority:      req.Priority,
		ValidFrom:     validFrom,
		ValidUntil:    validUntil,
		ClearWindow:   req.ClearWindow,
		IsActive:      req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateDiscountRule(c *gin.Context) {
	resp, err := s.discountRuleSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetDiscountRuleByID(c *gin.Context) {
	resp, err := s.discountRuleSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListDiscountRules(c *gin.Context) {
	isActive, err := activeFilter(c.Query("is_active"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetID, err := targetFilter(c.Query("scope_target_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	req := discountruledomain.ListRuleRequest{
		Scope:    strings.TrimSpace(c.Query("scope")),
		IsActive: isActive,
	}
	if targetID != nil {
		req.TargetID = targetID.String()
	}

	resp, err := s.discountRuleSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isDiscountRuleValidationError(err error) bool {
	switch err {
	case discountruledomain.ErrInvalidID,
		discountruledomain.ErrInvalidName,
		discountruledomain.ErrInvalidScope,
		discountruledomain.ErrInvalidTarget,
		discountruledomain.ErrInvalidKind,
		discountruledomain.ErrInvalidValue,
		discountruledomain.ErrInvalidWindow:
		return true
	default:
		return false
	}
}
