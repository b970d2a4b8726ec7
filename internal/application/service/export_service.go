package service

import (
	"context"
	"fmt"
	"io"

	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
)

const exportBatchSize = 200

// ExportService produces the admin spreadsheet of all requests
type ExportService interface {
	ExportAll(ctx context.Context, actor *entity.User, w io.Writer) (int, error)
}

type exportServiceImpl struct {
	repo     port.RequestRepository
	exporter port.RequestExporter
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(repo port.RequestRepository, exporter port.RequestExporter, logger Logger) ExportService {
	return &exportServiceImpl{
		repo:     repo,
		exporter: exporter,
		logger:   logger,
	}
}

// ExportAll writes every request to w and returns how many were written
func (s *exportServiceImpl) ExportAll(ctx context.Context, actor *entity.User, w io.Writer) (int, error) {
	if actor == nil {
		return 0, access.ErrAuthRequired
	}
	if actor.Role != entity.RoleAdmin {
		return 0, fmt.Errorf("%w: export is admin only", access.ErrRoleForbidden)
	}

	var all []*entity.Request
	for offset := 0; ; offset += exportBatchSize {
		batch, err := s.repo.List(ctx, port.RequestFilter{Limit: exportBatchSize, Offset: offset})
		if err != nil {
			s.logger.Error("Failed to list requests for export", "error", err, "offset", offset)
			return 0, err
		}
		all = append(all, batch...)
		if len(batch) < exportBatchSize {
			break
		}
	}

	if err := s.exporter.Export(ctx, w, all); err != nil {
		s.logger.Error("Failed to export requests", "error", err, "count", len(all))
		return 0, fmt.Errorf("export requests: %w", err)
	}

	s.logger.Info("Requests exported", "count", len(all), "admin", actor.Username)
	return len(all), nil
}
