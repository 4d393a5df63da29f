package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gas-voucher/internal/application/service"
)

// CreatePayment handles POST /monthly-payments
func (h *Handlers) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	p, err := h.paymentService.Create(c.Request.Context(), service.NewPayment{
		UserID:      req.UserID,
		Year:        req.Year,
		Month:       req.Month,
		Amount:      *req.Amount,
		Description: req.Description,
		PaymentDate: req.PaymentDate.TimePtr(),
		CreatedBy:   claimsFrom(c).UserID(),
	})
	if err != nil {
		h.respondError(c, "Create monthly payment", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: p})
}

// GetPayment handles GET /monthly-payments/:id
func (h *Handlers) GetPayment(c *gin.Context) {
	p, err := h.paymentService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Get monthly payment", err)
		return
	}
	ok(c, p)
}

// UpdatePayment handles PATCH /monthly-payments/:id
func (h *Handlers) UpdatePayment(c *gin.Context) {
	var req UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	p, err := h.paymentService.Update(c.Request.Context(), c.Param("id"), req.Patch())
	if err != nil {
		h.respondError(c, "Update monthly payment", err)
		return
	}
	ok(c, p)
}

// DeletePayment handles DELETE /monthly-payments/:id
func (h *Handlers) DeletePayment(c *gin.Context) {
	if err := h.paymentService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "Delete monthly payment", err)
		return
	}
	ok(c, gin.H{"id": c.Param("id")})
}

// ListUserPayments handles GET /monthly-payments/user/:userId
func (h *Handlers) ListUserPayments(c *gin.Context) {
	payments, err := h.paymentService.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "List monthly payments", err)
		return
	}
	ok(c, payments)
}

// ListUserPaymentsByYear handles GET /monthly-payments/user/:userId/year/:year
func (h *Handlers) ListUserPaymentsByYear(c *gin.Context) {
	year, valid := intParam(c, "year")
	if !valid {
		return
	}

	payments, err := h.paymentService.ListByUserAndYear(c.Request.Context(), c.Param("userId"), year)
	if err != nil {
		h.respondError(c, "List monthly payments by year", err)
		return
	}
	ok(c, payments)
}

// PaymentSummary handles GET /monthly-payments/user/:userId/summary
func (h *Handlers) PaymentSummary(c *gin.Context) {
	summary, err := h.paymentService.Summary(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "Monthly payment summary", err)
		return
	}
	ok(c, summary)
}

// LifetimeTotal handles GET /monthly-payments/user/:userId/total
func (h *Handlers) LifetimeTotal(c *gin.Context) {
	userID := c.Param("userId")
	total, err := h.paymentService.LifetimeTotal(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, "Lifetime payment total", err)
		return
	}
	ok(c, AmountResponse{UserID: userID, Amount: total})
}

// YearlyTotal handles GET /monthly-payments/user/:userId/year/:year/total
func (h *Handlers) YearlyTotal(c *gin.Context) {
	year, valid := intParam(c, "year")
	if !valid {
		return
	}

	userID := c.Param("userId")
	total, err := h.paymentService.YearlyTotal(c.Request.Context(), userID, year)
	if err != nil {
		h.respondError(c, "Yearly payment total", err)
		return
	}
	ok(c, AmountResponse{UserID: userID, Year: year, Amount: total})
}

// MonthAmount handles GET /monthly-payments/user/:userId/year/:year/month/:month.
// A month without an entry reports zero.
func (h *Handlers) MonthAmount(c *gin.Context) {
	year, valid := intParam(c, "year")
	if !valid {
		return
	}
	month, valid := intParam(c, "month")
	if !valid {
		return
	}

	userID := c.Param("userId")
	amount, err := h.paymentService.MonthAmount(c.Request.Context(), userID, year, month)
	if err != nil {
		h.respondError(c, "Monthly payment amount", err)
		return
	}
	ok(c, AmountResponse{UserID: userID, Year: year, Month: month, Amount: amount})
}

// intParam parses a numeric path parameter, answering 400 when malformed
func intParam(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}
