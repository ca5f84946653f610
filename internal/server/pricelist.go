package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	pricelistdomain "github.com/smallbiznis/pricewise/internal/pricelist/domain"
)

type createPriceListRequest struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

type updatePriceListRequest struct {
	Name     *string `json:"name"`
	IsActive *bool   `json:"is_active"`
}

type createPriceListTierRequest struct {
	ItemID      string          `json:"item_id"`
	MinQuantity int64           `json:"min_quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (s *Server) CreatePriceList(c *gin.Context) {
	var req createPriceListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceListSvc.Create(c.Request.Context(), pricelistdomain.CreatePriceListRequest{
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		IsDefault: req.IsDefault,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdatePriceList(c *gin.Context) {
	var req updatePriceListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceListSvc.Update(c.Request.Context(), pricelistdomain.UpdatePriceListRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     req.Name,
		IsActive: req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SetDefaultPriceList(c *gin.Context) {
	resp, err := s.priceListSvc.SetDefault(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPriceListByID(c *gin.Context) {
	resp, err := s.priceListSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPriceLists(c *gin.Context) {
	resp, err := s.priceListSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreatePriceListTier(c *gin.Context) {
	var req createPriceListTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceListSvc.CreateTier(c.Request.Context(), pricelistdomain.CreateTierRequest{
		PriceListID: strings.TrimSpace(c.Param("id")),
		ItemID:      strings.TrimSpace(req.ItemID),
		MinQuantity: req.MinQuantity,
		UnitPrice:   req.UnitPrice,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPriceListTiers(c *gin.Context) {
	resp, err := s.priceListSvc.ListTiers(c.Request.Context(), pricelistdomain.ListTierRequest{
		PriceListID: strings.TrimSpace(c.Param("id")),
		ItemID:      strings.TrimSpace(c.Query("item_id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeletePriceListTier(c *gin.Context) {
	if err := s.priceListSvc.DeleteTier(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func isPriceListValidationError(err error) bool {
	switch err {
	case pricelistdomain.ErrInvalidID,
		pricelistdomain.ErrInvalidName,
		pricelistdomain.ErrInvalidCode,
		pricelistdomain.ErrInvalidMinQuantity,
		pricelistdomain.ErrInvalidUnitPrice,
		pricelistdomain.ErrInvalidItem:
		return true
	default:
		return false
	}
}
