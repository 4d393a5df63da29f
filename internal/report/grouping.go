package report

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

// DefaultCylinderSizes are the cylinder sizes in kilos with their own column
var DefaultCylinderSizes = []int{5, 11, 15, 45}

// ExportGroup aggregates one user's approved and delivered vouchers
type ExportGroup struct {
	User       entity.UserSummary
	Cylinders  map[int]int // kilos -> voucher count
	Amount     decimal.Decimal
	LatestDate time.Time
	Bank       string

	bankDate time.Time
}

// GroupForExport groups approved and delivered vouchers by owner. Groups are
// ordered by user name, then user ID.
func GroupForExport(vouchers []*entity.Voucher) []*ExportGroup {
	byUser := make(map[string]*ExportGroup)
	for _, v := range vouchers {
		if v.Status != entity.VoucherStatusApproved && v.Status != entity.VoucherStatusDelivered {
			continue
		}

		g, ok := byUser[v.UserID]
		if !ok {
			g = &ExportGroup{
				User:      entity.UserSummary{ID: v.UserID, Name: v.UserID},
				Cylinders: make(map[int]int),
				Amount:    decimal.Zero,
			}
			if v.User != nil {
				g.User = *v.User
			}
			byUser[v.UserID] = g
		}

		g.Cylinders[v.Kilos]++
		if v.HasAmount() {
			g.Amount = g.Amount.Add(*v.Amount)
		}

		ref := v.ReferenceDate()
		if ref.After(g.LatestDate) {
			g.LatestDate = ref
		}
		if v.Bank != nil && *v.Bank != "" && !ref.Before(g.bankDate) {
			g.Bank = *v.Bank
			g.bankDate = ref
		}
	}

	groups := make([]*ExportGroup, 0, len(byUser))
	for _, g := range byUser {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].User.Name != groups[j].User.Name {
			return groups[i].User.Name < groups[j].User.Name
		}
		return groups[i].User.ID < groups[j].User.ID
	})
	return groups
}

// ExportRow is one spreadsheet row in column order: amount, name, rut, one
// count per cylinder size, phone, email, reference, latest date, bank
type ExportRow struct {
	Amount     decimal.Decimal
	Name       string
	Rut        string
	Cylinders  []int
	Phone      string
	Email      string
	Reference  string
	LatestDate time.Time
	Bank       string
}

// BuildRows renders groups as rows with one cylinder column per size.
// Counts for sizes without a column are left out of the row.
func BuildRows(groups []*ExportGroup, sizes []int) []ExportRow {
	if len(sizes) == 0 {
		sizes = DefaultCylinderSizes
	}

	rows := make([]ExportRow, 0, len(groups))
	for _, g := range groups {
		counts := make([]int, len(sizes))
		for i, size := range sizes {
			counts[i] = g.Cylinders[size]
		}
		rows = append(rows, ExportRow{
			Amount:     g.Amount,
			Name:       g.User.Name,
			Rut:        g.User.Rut,
			Cylinders:  counts,
			Phone:      g.User.Phone,
			Email:      g.User.Email,
			LatestDate: g.LatestDate,
			Bank:       g.Bank,
		})
	}
	return rows
}
