package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/domain/event"
)

type mockUserRepo struct {
	mu        sync.Mutex
	users     map[string]*entity.UserSummary
	upserts   int
	upsertErr error
}

func newMockUserRepo(users ...*entity.UserSummary) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*entity.UserSummary)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.UserSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, entity.ErrNotFound)
	}
	cp := *u
	return &cp, nil
}

func (m *mockUserRepo) Upsert(ctx context.Context, u *entity.UserSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	cp := *u
	m.users[u.ID] = &cp
	m.upserts++
	return nil
}

// mockVoucherRepo keeps vouchers in memory and joins users like the SQL store
type mockVoucherRepo struct {
	mu       sync.Mutex
	users    *mockUserRepo
	vouchers map[string]entity.Voucher

	updateFunc func(ctx context.Context, v *entity.Voucher) error
}

func newMockVoucherRepo(users *mockUserRepo) *mockVoucherRepo {
	return &mockVoucherRepo{users: users, vouchers: make(map[string]entity.Voucher)}
}

func (m *mockVoucherRepo) Create(ctx context.Context, v *entity.Voucher) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	m.vouchers[v.ID] = *v
	return nil
}

func (m *mockVoucherRepo) GetByID(ctx context.Context, id string) (*entity.Voucher, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.vouchers[id]
	if !ok {
		return nil, fmt.Errorf("voucher %s: %w", id, entity.ErrNotFound)
	}
	return m.joined(v), nil
}

func (m *mockVoucherRepo) Update(ctx context.Context, v *entity.Voucher) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, v)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.vouchers[v.ID]
	if !ok {
		return fmt.Errorf("voucher %s: %w", v.ID, entity.ErrNotFound)
	}
	next := *v
	next.UserID = old.UserID
	next.Kilos = old.Kilos
	next.User = nil
	m.vouchers[v.ID] = next
	return nil
}

func (m *mockVoucherRepo) ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error) {
	return m.list(func(v entity.Voucher) bool { return v.UserID == userID }, true), nil
}

func (m *mockVoucherRepo) ListByStatus(ctx context.Context, status entity.VoucherStatus) ([]*entity.Voucher, error) {
	return m.list(func(v entity.Voucher) bool { return v.Status == status }, false), nil
}

func (m *mockVoucherRepo) ListAll(ctx context.Context) ([]*entity.Voucher, error) {
	return m.list(func(entity.Voucher) bool { return true }, true), nil
}

func (m *mockVoucherRepo) list(keep func(entity.Voucher) bool, newestFirst bool) []*entity.Voucher {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.Voucher, 0)
	for _, v := range m.vouchers {
		if keep(v) {
			out = append(out, m.joined(v))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if newestFirst {
			return out[i].RequestDate.After(out[j].RequestDate)
		}
		return out[i].RequestDate.Before(out[j].RequestDate)
	})
	return out
}

func (m *mockVoucherRepo) joined(v entity.Voucher) *entity.Voucher {
	if u, ok := m.users.users[v.UserID]; ok {
		cp := *u
		v.User = &cp
	}
	return &v
}

type mockPaymentRepo struct {
	users    *mockUserRepo
	payments map[string]entity.MonthlyPayment
}

func newMockPaymentRepo(users *mockUserRepo) *mockPaymentRepo {
	return &mockPaymentRepo{users: users, payments: make(map[string]entity.MonthlyPayment)}
}

func (m *mockPaymentRepo) collides(p *entity.MonthlyPayment) bool {
	for id, other := range m.payments {
		if id != p.ID && other.UserID == p.UserID && other.Year == p.Year && other.Month == p.Month {
			return true
		}
	}
	return false
}

func (m *mockPaymentRepo) Create(ctx context.Context, p *entity.MonthlyPayment) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if m.collides(p) {
		return fmt.Errorf("payment: %w", entity.ErrConflict)
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *mockPaymentRepo) GetByID(ctx context.Context, id string) (*entity.MonthlyPayment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, entity.ErrNotFound)
	}
	return &p, nil
}

func (m *mockPaymentRepo) GetByUserMonth(ctx context.Context, userID string, year, month int) (*entity.MonthlyPayment, error) {
	for _, p := range m.payments {
		if p.UserID == userID && p.Year == year && p.Month == month {
			cp := p
			return &cp, nil
		}
	}
	return nil, entity.ErrNotFound
}

func (m *mockPaymentRepo) ListByUser(ctx context.Context, userID string) ([]*entity.MonthlyPayment, error) {
	out := m.filter(func(p entity.MonthlyPayment) bool { return p.UserID == userID })
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year > out[j].Year
		}
		return out[i].Month > out[j].Month
	})
	return out, nil
}

func (m *mockPaymentRepo) ListByUserAndYear(ctx context.Context, userID string, year int) ([]*entity.MonthlyPayment, error) {
	out := m.filter(func(p entity.MonthlyPayment) bool { return p.UserID == userID && p.Year == year })
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (m *mockPaymentRepo) Update(ctx context.Context, p *entity.MonthlyPayment) error {
	if _, ok := m.payments[p.ID]; !ok {
		return entity.ErrNotFound
	}
	if m.collides(p) {
		return fmt.Errorf("payment: %w", entity.ErrConflict)
	}
	m.payments[p.ID] = *p
	return nil
}

func (m *mockPaymentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.payments[id]; !ok {
		return fmt.Errorf("payment %s: %w", id, entity.ErrNotFound)
	}
	delete(m.payments, id)
	return nil
}

func (m *mockPaymentRepo) filter(keep func(entity.MonthlyPayment) bool) []*entity.MonthlyPayment {
	out := make([]*entity.MonthlyPayment, 0)
	for _, p := range m.payments {
		if keep(p) {
			cp := p
			out = append(out, &cp)
		}
	}
	return out
}

type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) Publish(ctx context.Context, events ...*event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
}

func (m *mockPublisher) Types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	types := make([]event.Type, len(m.events))
	for i, e := range m.events {
		types[i] = e.Type
	}
	return types
}

func (m *mockPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
}

type mockLogger struct {
	mu    sync.Mutex
	infos []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) count(msg string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, info := range m.infos {
		if info == msg {
			n++
		}
	}
	return n
}
