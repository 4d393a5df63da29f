package service

import (
	"context"
	"fmt"

	"github.com/garyjia/gas-voucher/internal/application/port"
	"github.com/garyjia/gas-voucher/internal/report"
)

// SpreadsheetWriter renders export rows into a workbook
type SpreadsheetWriter interface {
	Write(rows []report.ExportRow) ([]byte, error)
}

// ExportService produces the voucher spreadsheet for accounting
type ExportService interface {
	Export(ctx context.Context) ([]byte, error)
}

type exportServiceImpl struct {
	voucherRepo   port.VoucherRepository
	writer        SpreadsheetWriter
	cylinderSizes []int
	logger        Logger
}

// NewExportService creates a new ExportService
func NewExportService(
	voucherRepo port.VoucherRepository,
	writer SpreadsheetWriter,
	cylinderSizes []int,
	logger Logger,
) ExportService {
	return &exportServiceImpl{
		voucherRepo:   voucherRepo,
		writer:        writer,
		cylinderSizes: cylinderSizes,
		logger:        logger,
	}
}

// Export groups approved and delivered vouchers per user and renders them
func (s *exportServiceImpl) Export(ctx context.Context) ([]byte, error) {
	vouchers, err := s.voucherRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vouchers for export: %w", err)
	}

	groups := report.GroupForExport(vouchers)
	rows := report.BuildRows(groups, s.cylinderSizes)

	data, err := s.writer.Write(rows)
	if err != nil {
		s.logger.Error("Failed to render voucher export", "error", err, "rows", len(rows))
		return nil, err
	}

	s.logger.Info("Voucher export generated", "users", len(groups), "vouchers", len(vouchers))
	return data, nil
}
