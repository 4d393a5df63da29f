package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/domain/entity"
	"github.com/garyjia/gas-voucher/internal/domain/event"
	"github.com/garyjia/gas-voucher/internal/domain/workflow"
	"github.com/garyjia/gas-voucher/pkg/utils"
)

// VoucherService drives vouchers through request, approval and delivery
type VoucherService interface {
	Request(ctx context.Context, userID string, kilos int, bank *string) (*entity.Voucher, error)
	Approve(ctx context.Context, id string, amount decimal.Decimal, notes *string, adminID string) (*entity.Voucher, error)
	Reject(ctx context.Context, id string, notes *string, adminID string) (*entity.Voucher, error)
	MarkDelivered(ctx context.Context, id string) (*entity.Voucher, error)
	CreateManual(ctx context.Context, in ManualVoucher) (*entity.Voucher, error)

	Get(ctx context.Context, id string) (*entity.Voucher, error)
	ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error)
	ListPending(ctx context.Context) ([]*entity.Voucher, error)
	ListAll(ctx context.Context) ([]*entity.Voucher, error)
	UserStats(ctx context.Context, userID string) (VoucherStats, error)
	GeneralStats(ctx context.Context) (GeneralStats, error)
}

// ManualVoucher is an already-approved voucher entered by an admin
type ManualVoucher struct {
	UserID  string
	Kilos   int
	Bank    *string
	Amount  decimal.Decimal
	Notes   *string
	AdminID string
}

// VoucherServiceConfig holds the lifecycle settings
type VoucherServiceConfig struct {
	Policy   workflow.Policy
	Location *time.Location
	Now      Clock
}

type voucherServiceImpl struct {
	voucherRepo port.VoucherRepository
	txManager   port.TransactionManager
	publisher   EventPublisher
	logger      Logger

	policy   workflow.Policy
	location *time.Location
	now      Clock
}

// NewVoucherService creates a new VoucherService
func NewVoucherService(
	voucherRepo port.VoucherRepository,
	txManager port.TransactionManager,
	publisher EventPublisher,
	cfg VoucherServiceConfig,
	logger Logger,
) VoucherService {
	s := &voucherServiceImpl{
		voucherRepo: voucherRepo,
		txManager:   txManager,
		publisher:   publisher,
		logger:      logger,
		policy:      cfg.Policy,
		location:    cfg.Location,
		now:         cfg.Now,
	}
	if s.policy == "" {
		s.policy = workflow.PolicyStrict
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Request creates a pending voucher for userID
func (s *voucherServiceImpl) Request(ctx context.Context, userID string, kilos int, bank *string) (*entity.Voucher, error) {
	if err := utils.ValidateKilos(kilos); err != nil {
		return nil, entity.NewValidationError("kilos", "must be positive")
	}

	now := s.now()
	v := &entity.Voucher{
		UserID:      userID,
		Kilos:       kilos,
		Bank:        utils.SanitizeOptional(bank),
		Status:      entity.VoucherStatusPending,
		RequestDate: now,
		CreatedAt:   now,
	}

	created, err := s.insert(ctx, v)
	if err != nil {
		s.logger.Error("Failed to request voucher", "error", err, "user_id", userID)
		return nil, err
	}

	s.logger.Info("Voucher requested", "voucher_id", created.ID, "user_id", userID, "kilos", kilos)
	s.publish(ctx, event.TypeVoucherCreated, created)
	return created, nil
}

// Approve assigns the amount and approving admin
func (s *voucherServiceImpl) Approve(ctx context.Context, id string, amount decimal.Decimal, notes *string, adminID string) (*entity.Voucher, error) {
	if amount.IsNegative() {
		return nil, entity.NewValidationError("amount", "must not be negative")
	}

	return s.transition(ctx, id, workflow.TriggerApprove, event.TypeVoucherApproved, func(v *entity.Voucher, now time.Time) {
		a := amount
		v.Amount = &a
		v.ApprovalDate = &now
		v.ApprovedBy = &adminID
		v.Notes = utils.SanitizeOptional(notes)
	})
}

// Reject closes the voucher; an amount assigned earlier is kept
func (s *voucherServiceImpl) Reject(ctx context.Context, id string, notes *string, adminID string) (*entity.Voucher, error) {
	return s.transition(ctx, id, workflow.TriggerReject, event.TypeVoucherRejected, func(v *entity.Voucher, now time.Time) {
		v.ApprovedBy = &adminID
		v.Notes = utils.SanitizeOptional(notes)
	})
}

// MarkDelivered records the hand-over of an approved voucher
func (s *voucherServiceImpl) MarkDelivered(ctx context.Context, id string) (*entity.Voucher, error) {
	return s.transition(ctx, id, workflow.TriggerDeliver, event.TypeVoucherDelivered, func(v *entity.Voucher, now time.Time) {
		if v.DeliveredDate == nil {
			v.DeliveredDate = &now
		}
	})
}

// CreateManual stores a voucher directly in the approved state. No created
// event is emitted; subscribers only see the generic update.
func (s *voucherServiceImpl) CreateManual(ctx context.Context, in ManualVoucher) (*entity.Voucher, error) {
	if err := utils.ValidateKilos(in.Kilos); err != nil {
		return nil, entity.NewValidationError("kilos", "must be positive")
	}
	if in.Amount.IsNegative() {
		return nil, entity.NewValidationError("amount", "must not be negative")
	}

	now := s.now()
	amount := in.Amount
	adminID := in.AdminID
	v := &entity.Voucher{
		UserID:       in.UserID,
		Kilos:        in.Kilos,
		Bank:         utils.SanitizeOptional(in.Bank),
		Amount:       &amount,
		Status:       entity.VoucherStatusApproved,
		RequestDate:  now,
		ApprovalDate: &now,
		ApprovedBy:   &adminID,
		Notes:        utils.SanitizeOptional(in.Notes),
		CreatedAt:    now,
	}

	created, err := s.insert(ctx, v)
	if err != nil {
		s.logger.Error("Failed to create manual voucher", "error", err, "user_id", in.UserID, "admin_id", in.AdminID)
		return nil, err
	}

	s.logger.Info("Manual voucher created", "voucher_id", created.ID, "user_id", in.UserID, "admin_id", in.AdminID)
	s.publisher.Publish(ctx, event.NewEvent(event.TypeVoucherUpdated, created))
	return created, nil
}

// Get retrieves a voucher by ID
func (s *voucherServiceImpl) Get(ctx context.Context, id string) (*entity.Voucher, error) {
	return s.voucherRepo.GetByID(ctx, id)
}

// ListByUser returns a user's vouchers, newest first
func (s *voucherServiceImpl) ListByUser(ctx context.Context, userID string) ([]*entity.Voucher, error) {
	return s.voucherRepo.ListByUser(ctx, userID)
}

// ListPending returns the approval queue, oldest first
func (s *voucherServiceImpl) ListPending(ctx context.Context) ([]*entity.Voucher, error) {
	return s.voucherRepo.ListByStatus(ctx, entity.VoucherStatusPending)
}

// ListAll returns every voucher, newest first
func (s *voucherServiceImpl) ListAll(ctx context.Context) ([]*entity.Voucher, error) {
	return s.voucherRepo.ListAll(ctx)
}

// UserStats aggregates one user's vouchers
func (s *voucherServiceImpl) UserStats(ctx context.Context, userID string) (VoucherStats, error) {
	vouchers, err := s.voucherRepo.ListByUser(ctx, userID)
	if err != nil {
		return VoucherStats{}, fmt.Errorf("list vouchers for stats: %w", err)
	}
	return ComputeStats(vouchers), nil
}

// GeneralStats aggregates every voucher
func (s *voucherServiceImpl) GeneralStats(ctx context.Context) (GeneralStats, error) {
	vouchers, err := s.voucherRepo.ListAll(ctx)
	if err != nil {
		return GeneralStats{}, fmt.Errorf("list vouchers for stats: %w", err)
	}
	return ComputeGeneralStats(vouchers, s.now(), s.location), nil
}

// insert stores v and reloads it with the owner's summary joined
func (s *voucherServiceImpl) insert(ctx context.Context, v *entity.Voucher) (*entity.Voucher, error) {
	var created *entity.Voucher
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.voucherRepo.Create(txCtx, v); err != nil {
			return fmt.Errorf("create voucher: %w", err)
		}
		reloaded, err := s.voucherRepo.GetByID(txCtx, v.ID)
		if err != nil {
			return fmt.Errorf("reload voucher: %w", err)
		}
		created = reloaded
		return nil
	})
	return created, err
}

// transition performs one read-modify-write of a voucher inside a transaction
// and publishes evtType once it has committed
func (s *voucherServiceImpl) transition(
	ctx context.Context,
	id string,
	trigger workflow.Trigger,
	evtType event.Type,
	apply func(v *entity.Voucher, now time.Time),
) (*entity.Voucher, error) {
	var updated *entity.Voucher
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		v, err := s.voucherRepo.GetByID(txCtx, id)
		if err != nil {
			return err
		}

		current := workflow.State(v.Status)
		next, err := s.policy.Resolve(current, trigger)
		if err != nil {
			return err
		}
		if s.policy.Bypasses(current, trigger) {
			s.logger.Info("Voucher transition outside lifecycle",
				"voucher_id", id,
				"from", current,
				"trigger", trigger,
				"from_terminal", current.IsTerminal())
		}

		v.Status = entity.VoucherStatus(next)
		apply(v, s.now())

		if err := s.voucherRepo.Update(txCtx, v); err != nil {
			return fmt.Errorf("update voucher: %w", err)
		}

		updated, err = s.voucherRepo.GetByID(txCtx, id)
		if err != nil {
			return fmt.Errorf("reload voucher: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Voucher transition failed", "error", err, "voucher_id", id, "trigger", trigger)
		return nil, err
	}

	s.logger.Info("Voucher transitioned", "voucher_id", id, "trigger", trigger, "status", updated.Status)
	s.publish(ctx, evtType, updated)
	return updated, nil
}

// publish emits the specific event followed by the generic update
func (s *voucherServiceImpl) publish(ctx context.Context, evtType event.Type, v *entity.Voucher) {
	evt := event.NewEvent(evtType, v)
	s.publisher.Publish(ctx, evt, evt.Derive(event.TypeVoucherUpdated))
}
