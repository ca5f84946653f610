package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/pricewise/internal/customer/domain"
	"github.com/smallbiznis/pricewise/pkg/db/pagination"
)

type createCustomerRequest struct {
	Name                string         `json:"name"`
	Email               string         `json:"email"`
	AssignedPriceListID string         `json:"assigned_price_list_id"`
	CustomerGroupID     string         `json:"customer_group_id"`
	Metadata            map[string]any `json:"metadata"`
}

type updateCustomerRequest struct {
	Name                *string `json:"name"`
	Email               *string `json:"email"`
	AssignedPriceListID *string `json:"assigned_price_list_id"`
	CustomerGroupID     *string `json:"customer_group_id"`
	IsActive            *bool   `json:"is_active"`
}

type createCustomerGroupRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

func (s *Server) CreateCustomer(c *gin.Context) {
	var req createCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Create(c.Request.Context(), customerdomain.CreateCustomerRequest{
		Name:                strings.TrimSpace(req.Name),
		Email:               strings.TrimSpace(req.Email),
		AssignedPriceListID: strings.TrimSpace(req.AssignedPriceListID),
		CustomerGroupID:     strings.TrimSpace(req.CustomerGroupID),
		Metadata:            req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateCustomer(c *gin.Context) {
	var req updateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.Update(c.Request.Context(), customerdomain.UpdateCustomerRequest{
		ID:                  strings.TrimSpace(c.Param("id")),
		Name:                req.Name,
		Email:               req.Email,
		AssignedPriceListID: req.AssignedPriceListID,
		CustomerGroupID:     req.CustomerGroupID,
		IsActive:            req.IsActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomers(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Email   string `form:"email"`
		GroupID string `form:"customer_group_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.List(c.Request.Context(), customerdomain.ListCustomerRequest{
		Pagination: query.Pagination,
		Email:      strings.TrimSpace(query.Email),
		GroupID:    strings.TrimSpace(query.GroupID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Customers, "page_info": resp.PageInfo})
}

func (s *Server) GetCustomerByID(c *gin.Context) {
	resp, err := s.customerSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateCustomerGroup(c *gin.Context) {
	var req createCustomerGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.customerSvc.CreateGroup(c.Request.Context(), customerdomain.CreateGroupRequest{
		Code: strings.TrimSpace(req.Code),
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCustomerGroups(c *gin.Context) {
	resp, err := s.customerSvc.ListGroups(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidEmail,
		customerdomain.ErrInvalidID,
		customerdomain.ErrInvalidCode,
		customerdomain.ErrInvalidGroup,
		customerdomain.ErrInvalidPriceList:
		return true
	default:
		return false
	}
}
