package service

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// VoucherStats counts vouchers by status and sums their assigned amounts
type VoucherStats struct {
	Total       int             `json:"total"`
	Pending     int             `json:"pending"`
	Approved    int             `json:"approved"`
	Delivered   int             `json:"delivered"`
	Rejected    int             `json:"rejected"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// GeneralStats adds the number of vouchers requested in the current month
type GeneralStats struct {
	VoucherStats
	ThisMonth int `json:"this_month"`
}

// ComputeStats folds vouchers into counts per status. TotalAmount sums every
// assigned amount regardless of status.
func ComputeStats(vouchers []*entity.Voucher) VoucherStats {
	stats := VoucherStats{TotalAmount: decimal.Zero}
	for _, v := range vouchers {
		stats.Total++
		switch v.Status {
		case entity.VoucherStatusPending:
			stats.Pending++
		case entity.VoucherStatusApproved:
			stats.Approved++
		case entity.VoucherStatusDelivered:
			stats.Delivered++
		case entity.VoucherStatusRejected:
			stats.Rejected++
		}
		if v.HasAmount() {
			stats.TotalAmount = stats.TotalAmount.Add(*v.Amount)
		}
	}
	return stats
}

// ComputeGeneralStats is ComputeStats plus the count of vouchers requested on
// or after the first instant of now's month in loc
func ComputeGeneralStats(vouchers []*entity.Voucher, now time.Time, loc *time.Location) GeneralStats {
	start := MonthStart(now, loc)

	general := GeneralStats{VoucherStats: ComputeStats(vouchers)}
	for _, v := range vouchers {
		if !v.RequestDate.Before(start) {
			general.ThisMonth++
		}
	}
	return general
}

// MonthStart returns midnight on the first day of t's month in loc
func MonthStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
}
