package server

import (
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	paymentdomain "github.com/smallbiznis/patungan/internal/payment/domain"
)

func (s *Server) CreatePayment(c *gin.Context) {
	var req struct {
		UserID        string `json:"user_id"`
		ChargeID      string `json:"charge_id"`
		Amount        string `json:"amount"`
		Currency      string `json:"currency"`
		ScheduledDate string `json:"scheduled_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	userID, err := snowflake.ParseString(strings.TrimSpace(req.UserID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var chargeID *snowflake.ID
	if raw := strings.TrimSpace(req.ChargeID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		chargeID = &id
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidAmount)
		return
	}

	scheduled, err := parseOptionalDate(req.ScheduledDate)
	if err != nil || scheduled == nil {
		AbortWithError(c, paymentdomain.ErrInvalidScheduledDate)
		return
	}

	payment, err := s.paymentSvc.Create(c.Request.Context(), &paymentdomain.CreatePaymentRequest{
		UserID:        userID,
		ChargeID:      chargeID,
		Amount:        amount,
		Currency:      req.Currency,
		ScheduledDate: *scheduled,
		CreatedBy:     userID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": payment})
}

func (s *Server) GetPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	payment, err := s.paymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) ListUserPayments(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	payments, err := s.paymentSvc.ListByUser(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payments})
}

func (s *Server) VerifyPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		VerifierID string  `json:"verifier_id"`
		Reference  *string `json:"reference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	verifierID, err := snowflake.ParseString(strings.TrimSpace(req.VerifierID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.Verify(c.Request.Context(), id, verifierID, req.Reference)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) RevertPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := s.paymentSvc.Revert(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) CancelPayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ActorID string `json:"actor_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	actorID, err := snowflake.ParseString(strings.TrimSpace(req.ActorID))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	payment, err := s.paymentSvc.Cancel(c.Request.Context(), id, actorID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

func (s *Server) ReschedulePayment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req struct {
		ScheduledDate string `json:"scheduled_date"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	scheduled, err := parseOptionalDate(req.ScheduledDate)
	if err != nil || scheduled == nil {
		AbortWithError(c, paymentdomain.ErrInvalidScheduledDate)
		return
	}

	payment, err := s.paymentSvc.Reschedule(c.Request.Context(), id, *scheduled)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": payment})
}

// ResolveScheduledDate previews where a payment would land without creating
// one.
func (s *Server) ResolveScheduledDate(c *gin.Context) {
	userID, err := snowflake.ParseString(strings.TrimSpace(c.Query("user_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	proposed, err := parseOptionalDate(c.Query("date"))
	if err != nil || proposed == nil {
		AbortWithError(c, paymentdomain.ErrInvalidScheduledDate)
		return
	}

	resolved, err := s.resolver.ResolveDateConflicts(c.Request.Context(), userID, *proposed, nil)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"requested_date": proposed.Format("2006-01-02"),
		"resolved_date":  resolved.Format("2006-01-02"),
	}})
}

func (s *Server) UserBalance(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	asOf, err := parseOptionalDate(c.Query("as_of"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	totals, err := s.balanceSvc.ForUser(c.Request.Context(), id, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": totals})
}
