package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/gas-voucher/internal/application/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RequestVoucher handles POST /vouchers/request
func (h *Handlers) RequestVoucher(c *gin.Context) {
	var req RequestVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	claims := claimsFrom(c)
	v, err := h.voucherService.Request(c.Request.Context(), claims.UserID(), req.Kilos, req.Bank)
	if err != nil {
		h.respondError(c, "Request voucher", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: v})
}

// MyVouchers handles GET /vouchers/my-vouchers
func (h *Handlers) MyVouchers(c *gin.Context) {
	vouchers, err := h.voucherService.ListByUser(c.Request.Context(), claimsFrom(c).UserID())
	if err != nil {
		h.respondError(c, "List own vouchers", err)
		return
	}
	ok(c, vouchers)
}

// MyStats handles GET /vouchers/my-stats
func (h *Handlers) MyStats(c *gin.Context) {
	stats, err := h.voucherService.UserStats(c.Request.Context(), claimsFrom(c).UserID())
	if err != nil {
		h.respondError(c, "Own voucher stats", err)
		return
	}
	ok(c, stats)
}

// GetVoucher handles GET /vouchers/:id. Users may only read their own vouchers.
func (h *Handlers) GetVoucher(c *gin.Context) {
	v, err := h.voucherService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Get voucher", err)
		return
	}
	claims := claimsFrom(c)
	if !claims.IsAdmin() && v.UserID != claims.UserID() {
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "not found"})
		return
	}
	ok(c, v)
}

// ListPendingVouchers handles GET /vouchers/pending
func (h *Handlers) ListPendingVouchers(c *gin.Context) {
	vouchers, err := h.voucherService.ListPending(c.Request.Context())
	if err != nil {
		h.respondError(c, "List pending vouchers", err)
		return
	}
	ok(c, vouchers)
}

// ListAllVouchers handles GET /vouchers/all
func (h *Handlers) ListAllVouchers(c *gin.Context) {
	vouchers, err := h.voucherService.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, "List vouchers", err)
		return
	}
	ok(c, vouchers)
}

// ListUserVouchers handles GET /vouchers/user/:userId
func (h *Handlers) ListUserVouchers(c *gin.Context) {
	vouchers, err := h.voucherService.ListByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "List user vouchers", err)
		return
	}
	ok(c, vouchers)
}

// UserVoucherStats handles GET /vouchers/user/:userId/stats
func (h *Handlers) UserVoucherStats(c *gin.Context) {
	stats, err := h.voucherService.UserStats(c.Request.Context(), c.Param("userId"))
	if err != nil {
		h.respondError(c, "User voucher stats", err)
		return
	}
	ok(c, stats)
}

// GeneralStats handles GET /vouchers/stats/general
func (h *Handlers) GeneralStats(c *gin.Context) {
	stats, err := h.voucherService.GeneralStats(c.Request.Context())
	if err != nil {
		h.respondError(c, "General voucher stats", err)
		return
	}
	ok(c, stats)
}

// ApproveVoucher handles PATCH /vouchers/:id/approve
func (h *Handlers) ApproveVoucher(c *gin.Context) {
	var req ApproveVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	v, err := h.voucherService.Approve(c.Request.Context(), c.Param("id"), *req.Amount, req.Notes, claimsFrom(c).UserID())
	if err != nil {
		h.respondError(c, "Approve voucher", err)
		return
	}
	ok(c, v)
}

// RejectVoucher handles PATCH /vouchers/:id/reject
func (h *Handlers) RejectVoucher(c *gin.Context) {
	var req RejectVoucherRequest
	// An empty body is a rejection without notes
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	v, err := h.voucherService.Reject(c.Request.Context(), c.Param("id"), req.Notes, claimsFrom(c).UserID())
	if err != nil {
		h.respondError(c, "Reject voucher", err)
		return
	}
	ok(c, v)
}

// DeliverVoucher handles PATCH /vouchers/:id/deliver
func (h *Handlers) DeliverVoucher(c *gin.Context) {
	v, err := h.voucherService.MarkDelivered(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, "Deliver voucher", err)
		return
	}
	ok(c, v)
}

// CreateManualVoucher handles POST /vouchers/manual
func (h *Handlers) CreateManualVoucher(c *gin.Context) {
	var req ManualVoucherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	v, err := h.voucherService.CreateManual(c.Request.Context(), service.ManualVoucher{
		UserID:  req.UserID,
		Kilos:   req.Kilos,
		Bank:    req.Bank,
		Amount:  *req.Amount,
		Notes:   req.Notes,
		AdminID: claimsFrom(c).UserID(),
	})
	if err != nil {
		h.respondError(c, "Create manual voucher", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: v})
}

// ExportVouchers handles GET /vouchers/export
func (h *Handlers) ExportVouchers(c *gin.Context) {
	data, err := h.exportService.Export(c.Request.Context())
	if err != nil {
		h.respondError(c, "Export vouchers", err)
		return
	}

	filename := fmt.Sprintf("gas-vouchers-%s.xlsx", h.now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
