package http

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/garyjia/gas-voucher/internal/application/service"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (mockLogger) Error(msg string, keysAndValues ...interface{}) {}

type mockVoucherService struct {
	mock.Mock
}

func (m *mockVoucherService) vouchers(args mock.Arguments) ([]*entity.Voucher, error) {
	v, _ := args.Get(0).([]*entity.Voucher)
	return v, args.Error(1)
}

func (m *mockVoucherService) voucher(args mock.Arguments) (*entity.Voucher, error) {
	v, _ := args.Get(0).(*entity.Voucher)
	return v, args.Error(1)
}

func (m *mockVoucherService) Request(ctx context.Context, userID string, kilos int, bank *string) (*entity.Voucher, error) {
	return m.voucher(m.Called(userID, kilos, bank))
}

func (m *mockVoucherService) Approve(ctx context.Context, id string, amount decimal.Decimal, notes *string, adminID string) (*entity.Voucher, error) {
	return m.voucher(m.Called(id, amount.String(), notes, adminID))
}

func (m *mockVoucherService) Reject(ctx context.Context, id string, notes *string, adminID string) (*entity.Voucher, error) {
	return m.voucher(m.Called(id, notes, adminID))
}

func (m *mockVoucherService) MarkDelivered(ctx context.Context, id string) (*entity.Voucher, error) {
	return m.voucher(m.Called(id))
}

func (m *mockVoucherService) CreateManual(ctx context.Context, in service.ManualVoucher) (*entity.Voucher, error) {
	return m.voucher(m.Called(in.UserID, in.Kilos, in.Amount.String(), in.AdminID))
}

func (m *mockVoucherService) Get(ctx context.Context, id string) (*entity.Voucher, error) {
	return m.voucher(m.Called(id))
}

func (m *mockVoucherService) ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error) {
	return m.vouchers(m.Called(userID))
}

func (m *mockVoucherService) ListPending(ctx context.Context) ([]*entity.Voucher, error) {
	return m.vouchers(m.Called())
}

func (m *mockVoucherService) ListAll(ctx context.Context) ([]*entity.Voucher, error) {
	return m.vouchers(m.Called())
}

func (m *mockVoucherService) UserStats(ctx context.Context, userID string) (service.VoucherStats, error) {
	args := m.Called(userID)
	return args.Get(0).(service.VoucherStats), args.Error(1)
}

func (m *mockVoucherService) GeneralStats(ctx context.Context) (service.GeneralStats, error) {
	args := m.Called()
	return args.Get(0).(service.GeneralStats), args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) payment(args mock.Arguments) (*entity.MonthlyPayment, error) {
	p, _ := args.Get(0).(*entity.MonthlyPayment)
	return p, args.Error(1)
}

func (m *mockPaymentService) payments(args mock.Arguments) ([]*entity.MonthlyPayment, error) {
	p, _ := args.Get(0).([]*entity.MonthlyPayment)
	return p, args.Error(1)
}

func (m *mockPaymentService) Create(ctx context.Context, in service.NewPayment) (*entity.MonthlyPayment, error) {
	return m.payment(m.Called(in))
}

func (m *mockPaymentService) Get(ctx context.Context, id string) (*entity.MonthlyPayment, error) {
	return m.payment(m.Called(id))
}

func (m *mockPaymentService) Update(ctx context.Context, id string, patch entity.PaymentPatch) (*entity.MonthlyPayment, error) {
	return m.payment(m.Called(id, patch))
}

func (m *mockPaymentService) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *mockPaymentService) ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error) {
	return m.payments(m.Called(userID))
}

func (m *mockPaymentService) ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error) {
	return m.payments(m.Called(userID, year))
}

func (m *mockPaymentService) MonthAmount(ctx context.Context, userID string, year, month int) (decimal.Decimal, error) {
	args := m.Called(userID, year, month)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentService) YearlyTotal(ctx context.Context, userID string, year int) (decimal.Decimal, error) {
	args := m.Called(userID, year)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentService) LifetimeTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentService) Summary(ctx context.Context, userID string) ([]service.YearSummary, error) {
	args := m.Called(userID)
	s, _ := args.Get(0).([]service.YearSummary)
	return s, args.Error(1)
}

type mockUserService struct {
	mu       sync.Mutex
	profiles []entity.UserSummary
	err      error
}

func (m *mockUserService) Sync(ctx context.Context, profile *entity.UserSummary) error {
	if profile == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles = append(m.profiles, *profile)
	return m.err
}

func (m *mockUserService) synced() []entity.UserSummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]entity.UserSummary(nil), m.profiles...)
}

type mockExportService struct {
	data []byte
	err  error
}

func (m *mockExportService) Export(ctx context.Context) ([]byte, error) {
	return m.data, m.err
}
