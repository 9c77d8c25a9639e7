package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GenerateCharges(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Until string `json:"until"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	until, err := parseOptionalDate(req.Until)
	if err != nil || until == nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	charges, err := s.chargeSvc.GenerateForSubscription(c.Request.Context(), id, *until)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": charges})
}

func (s *Server) ListCharges(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	charges, err := s.chargeSvc.ListBySubscription(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": charges})
}

func (s *Server) GetCharge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	charge, err := s.chargeSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": charge})
}

func (s *Server) ListChargeShares(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	shares, err := s.chargeSvc.Shares(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": shares})
}

func (s *Server) CancelCharge(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	charge, err := s.chargeSvc.Cancel(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": charge})
}
