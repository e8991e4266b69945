package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	merchantpolicydomain "github.com/smallbiznis/ratewise/internal/merchantpolicy/domain"
)

func (s *Server) ListMerchantPolicies(c *gin.Context) {
	items, err := s.policySvc.List(c.Request.Context(), c.Param("merchantId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) ListOwnMerchantPolicies(c *gin.Context) {
	items, err := s.policySvc.List(c.Request.Context(), "")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) CreateMerchantPolicy(c *gin.Context) {
	var req merchantpolicydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	policy, err := s.policySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, itemResponse{Item: policy})
}

func (s *Server) UpdateMerchantPolicy(c *gin.Context) {
	var req merchantpolicydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	policy, err := s.policySvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemResponse{Item: policy})
}

func (s *Server) DeleteMerchantPolicy(c *gin.Context) {
	if err := s.policySvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
