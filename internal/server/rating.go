package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	ratingdomain "github.com/smallbiznis/ratewise/internal/rating/domain"
)

func (s *Server) InsertRating(c *gin.Context) {
	var req ratingdomain.InsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.ratingSvc.Insert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, itemResponse{Item: result.ID})
}

func (s *Server) ListRatings(c *gin.Context) {
	var req ratingdomain.ListRequest
	if err := c.ShouldBindQuery(&req.Pagination); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.ratingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: result.Items, PageInfo: result.PageInfo})
}

func (s *Server) GetRatingByID(c *gin.Context) {
	rating, err := s.ratingSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemResponse{Item: rating})
}

func (s *Server) UpdateRating(c *gin.Context) {
	var req ratingdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	// Mutations acknowledge with an empty object, not the updated record.
	if _, err := s.ratingSvc.Update(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) DeleteRating(c *gin.Context) {
	if err := s.ratingSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (s *Server) GetAverageProductRatings(c *gin.Context) {
	items, err := s.ratingSvc.AverageAllProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) GetAverageProductRating(c *gin.Context) {
	item, err := s.ratingSvc.AverageProduct(c.Request.Context(), c.Param("entityId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemResponse{Item: item})
}

func (s *Server) GetOwnProductRatings(c *gin.Context) {
	items, err := s.ratingSvc.AverageOwnProducts(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) GetAverageMerchantRatings(c *gin.Context) {
	items, err := s.ratingSvc.AverageAllMerchants(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemsResponse{Items: items})
}

func (s *Server) GetAverageMerchantRating(c *gin.Context) {
	item, err := s.ratingSvc.AverageMerchant(c.Request.Context(), c.Param("merchantId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemResponse{Item: item})
}

func (s *Server) GetCurrentMerchantRating(c *gin.Context) {
	item, err := s.ratingSvc.AverageCurrentMerchant(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, itemResponse{Item: item})
}
