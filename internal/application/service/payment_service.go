package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/pkg/utils"
)

// PaymentService manages the monthly payment ledger
type PaymentService interface {
	Create(ctx context.Context, in NewPayment) (*entity.MonthlyPayment, error)
	Get(ctx context.Context, id string) (*entity.MonthlyPayment, error)
	Update(ctx context.Context, id string, patch entity.PaymentPatch) (*entity.MonthlyPayment, error)
	Delete(ctx context.Context, id string) error

	ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error)
	ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error)
	MonthAmount(ctx context.Context, userID string, year, month int) (decimal.Decimal, error)
	YearlyTotal(ctx context.Context, userID string, year int) (decimal.Decimal, error)
	LifetimeTotal(ctx context.Context, userID string) (decimal.Decimal, error)
	Summary(ctx context.Context, userID string) ([]YearSummary, error)
}

// NewPayment is the input of a ledger entry. A nil PaymentDate means now.
type NewPayment struct {
	UserID      string
	Year        int
	Month       int
	Amount      decimal.Decimal
	Description *string
	PaymentDate *time.Time
	CreatedBy   string
}

// MonthSummary is one month of a year summary
type MonthSummary struct {
	Month       int             `json:"month"`
	Amount      decimal.Decimal `json:"amount"`
	Description *string         `json:"description,omitempty"`
}

// YearSummary groups a user's entries for one year
type YearSummary struct {
	Year   int             `json:"year"`
	Total  decimal.Decimal `json:"total"`
	Months []MonthSummary  `json:"months"`
}

type paymentServiceImpl struct {
	paymentRepo port.PaymentRepository
	txManager   port.TransactionManager
	logger      Logger
	now         Clock
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(
	paymentRepo port.PaymentRepository,
	txManager port.TransactionManager,
	now Clock,
	logger Logger,
) PaymentService {
	if now == nil {
		now = time.Now
	}
	return &paymentServiceImpl{
		paymentRepo: paymentRepo,
		txManager:   txManager,
		logger:      logger,
		now:         now,
	}
}

// Create records a month's payment; a second entry for the same month fails
// with entity.ErrConflict
func (s *paymentServiceImpl) Create(ctx context.Context, in NewPayment) (*entity.MonthlyPayment, error) {
	p := &entity.MonthlyPayment{
		UserID:      in.UserID,
		Year:        in.Year,
		Month:       in.Month,
		Amount:      in.Amount,
		Description: utils.SanitizeOptional(in.Description),
		CreatedBy:   in.CreatedBy,
	}
	if in.PaymentDate != nil {
		p.PaymentDate = *in.PaymentDate
	} else {
		p.PaymentDate = s.now()
	}

	if err := entity.ValidatePayment(p); err != nil {
		return nil, err
	}

	var created *entity.MonthlyPayment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.paymentRepo.Create(txCtx, p); err != nil {
			return err
		}
		var err error
		created, err = s.paymentRepo.GetByID(txCtx, p.ID)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to create monthly payment", "error", err, "user_id", in.UserID, "year", in.Year, "month", in.Month)
		return nil, err
	}

	s.logger.Info("Monthly payment created", "payment_id", created.ID, "user_id", in.UserID, "year", in.Year, "month", in.Month)
	return created, nil
}

// Get retrieves an entry by ID
func (s *paymentServiceImpl) Get(ctx context.Context, id string) (*entity.MonthlyPayment, error) {
	return s.paymentRepo.GetByID(ctx, id)
}

// Update merges the defined fields of patch into the entry. Moving the entry
// onto a month that already has one fails with entity.ErrConflict.
func (s *paymentServiceImpl) Update(ctx context.Context, id string, patch entity.PaymentPatch) (*entity.MonthlyPayment, error) {
	var updated *entity.MonthlyPayment
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := s.paymentRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			updated = p
			return nil
		}

		patch.Description = utils.SanitizeOptional(patch.Description)
		patch.Apply(p)
		if err := entity.ValidatePayment(p); err != nil {
			return err
		}

		if err := s.paymentRepo.Update(txCtx, p); err != nil {
			return err
		}
		updated, err = s.paymentRepo.GetByID(txCtx, id)
		return err
	})
	if err != nil {
		s.logger.Error("Failed to update monthly payment", "error", err, "payment_id", id)
		return nil, err
	}

	s.logger.Info("Monthly payment updated", "payment_id", id)
	return updated, nil
}

// Delete removes an entry
func (s *paymentServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.paymentRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete monthly payment", "error", err, "payment_id", id)
		return err
	}
	s.logger.Info("Monthly payment deleted", "payment_id", id)
	return nil
}

// ListByUser returns a user's entries, newest period first
func (s *paymentServiceImpl) ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error) {
	return s.paymentRepo.ListByUser(ctx, userID)
}

// ListByUserAndYear returns one year's entries by month
func (s *paymentServiceImpl) ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error) {
	return s.paymentRepo.ListByUserAndYear(ctx, userID, year)
}

// MonthAmount returns the amount paid in one month, zero when nothing was paid
func (s *paymentServiceImpl) MonthAmount(ctx context.Context, userID string, year, month int) (decimal.Decimal, error) {
	p, err := s.paymentRepo.GetByUserMonth(ctx, userID, year, month)
	if errors.Is(err, entity.ErrNotFound) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, err
	}
	return p.Amount, nil
}

// YearlyTotal sums one year's entries
func (s *paymentServiceImpl) YearlyTotal(ctx context.Context, userID string, year int) (decimal.Decimal, error) {
	payments, err := s.paymentRepo.ListByUserAndYear(ctx, userID, year)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list payments for %d: %w", year, err)
	}
	return sumPayments(payments), nil
}

// LifetimeTotal sums every entry of the user
func (s *paymentServiceImpl) LifetimeTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("list payments: %w", err)
	}
	return sumPayments(payments), nil
}

// Summary groups the user's entries by year
func (s *paymentServiceImpl) Summary(ctx context.Context, userID string) ([]YearSummary, error) {
	payments, err := s.paymentRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return SummarizePayments(payments), nil
}

// SummarizePayments groups entries into years, newest year first, with the
// months of each year ascending
func SummarizePayments(payments []*entity.MonthlyPayment) []YearSummary {
	byYear := make(map[int]*YearSummary)
	for _, p := range payments {
		ys, ok := byYear[p.Year]
		if !ok {
			ys = &YearSummary{Year: p.Year, Total: decimal.Zero, Months: []MonthSummary{}}
			byYear[p.Year] = ys
		}
		ys.Total = ys.Total.Add(p.Amount)
		ys.Months = append(ys.Months, MonthSummary{
			Month:       p.Month,
			Amount:      p.Amount,
			Description: p.Description,
		})
	}

	summary := make([]YearSummary, 0, len(byYear))
	for _, ys := range byYear {
		sort.Slice(ys.Months, func(i, j int) bool {
			return ys.Months[i].Month < ys.Months[j].Month
		})
		summary = append(summary, *ys)
	}
	sort.Slice(summary, func(i, j int) bool {
		return summary[i].Year > summary[j].Year
	})
	return summary
}

func sumPayments(payments []*entity.MonthlyPayment) decimal.Decimal {
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total
}
