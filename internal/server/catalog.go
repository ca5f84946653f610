package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/pricewise/internal/catalog/domain"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
)

type createItemRequest struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	ListPrice decimal.Decimal `json:"list_price"`
	Cost      decimal.Decimal `json:"cost"`
	FamilyID  string          `json:"family_id"`
	Metadata  map[string]any  `json:"metadata"`
}

type updateItemRequest struct {
	Name      *string          `json:"name"`
	ListPrice *decimal.Decimal `json:"list_price"`
	Cost      *decimal.Decimal `json:"cost"`
	FamilyID  *string          `json:"family_id"`
	IsActive  *bool            `json:"is_active"`
}

type createItemFamilyRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) CreateItem(c *gin.Context) {
	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateItem(c.Request.Context(), catalogdomain.CreateItemRequest{
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		ListPrice: req.ListPrice,
		Cost:      req.Cost,
		FamilyID:  strings.TrimSpace(req.FamilyID),
		Metadata:  req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateItem(c *gin.Context) {
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.UpdateItem(c.Request.Context(), catalogdomain.UpdateItemRequest{
		ID:        strings.TrimSpace(c.Param("id")),
		Name:      req.Name,
		ListPrice: req.ListPrice,
		Cost:      req.Cost,
		FamilyID:  req.FamilyID,
		IsActive:  req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItemByID(c *gin.Context) {
	resp, err := s.catalogSvc.GetItem(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListItems(c *gin.Context) {
	var query struct {
		pagination.Pagination
		FamilyID string `form:"family_id"`
		IsActive string `form:"is_active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isActive, err := activeFilter(query.IsActive)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.catalogSvc.ListItems(c.Request.Context(), catalogdomain.ListItemRequest{
		Pagination: query.Pagination,
		FamilyID:   strings.TrimSpace(query.FamilyID),
		IsActive:   isActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Items, "page_info": resp.PageInfo})
}

func (s *Server) CreateItemFamily(c *gin.Context) {
	var req createItemFamilyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.CreateFamily(c.Request.Context(), catalogdomain.CreateFamilyRequest{
		Code: strings.TrimSpace(req.Code),
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetItemFamilyByID(c *gin.Context) {
	resp, err := s.catalogSvc.GetFamily(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListItemFamilies(c *gin.Context) {
	resp, err := s.catalogSvc.ListFamilies(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCatalogValidationError(err error) bool {
	switch err {
	case catalogdomain.ErrInvalidID,
		catalogdomain.ErrInvalidCode,
		catalogdomain.ErrInvalidName,
		catalogdomain.ErrInvalidListPrice,
		catalogdomain.ErrInvalidCost,
		catalogdomain.ErrInvalidFamily:
		return true
	default:
		return false
	}
}
