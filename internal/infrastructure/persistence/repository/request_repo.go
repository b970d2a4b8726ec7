package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/isf/servicedesk/internal/application/port"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/isf/servicedesk/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const (
	requestTable  = "service_requests"
	requestFields = `id, requestor_name, status, badge_number, submitted_date, service_type,
		request_type, justification, description, phone_model, workstation, unit, location,
		priority, manager_comments, process_definition_id, process_definition_version,
		tenant_id, variables, updated_at`
)

var openStatuses = []string{
	string(workflow.StatusSubmitted),
	string(workflow.StatusPending),
	string(workflow.StatusInProgress),
}

// RequestRepository implements port.RequestRepository on SQLite
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
	psql   sq.StatementBuilderType
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
		psql:   sq.StatementBuilder.PlaceholderFormat(sq.Question),
	}
}

// Create inserts a new request
func (r *RequestRepository) Create(ctx context.Context, req *entity.Request) error {
	vars, err := encodeVariables(req.Variables)
	if err != nil {
		return err
	}
	if req.UpdatedAt.IsZero() {
		req.UpdatedAt = time.Now().UTC()
	}

	query, args, err := r.psql.Insert(requestTable).
		Columns("id", "requestor_name", "status", "badge_number", "submitted_date", "service_type",
			"request_type", "justification", "description", "phone_model", "workstation", "unit", "location",
			"priority", "manager_comments", "process_definition_id", "process_definition_version",
			"tenant_id", "variables", "updated_at").
		Values(req.ID, req.RequestorName, string(req.Status), req.BadgeNumber, req.SubmittedDate.UTC(), req.ServiceType,
			req.RequestType, req.Justification, req.Description, req.PhoneModel, req.Workstation, req.Unit, req.Location,
			req.Priority, req.ManagerComments, req.ProcessDefinitionID, req.ProcessDefinitionVersion,
			req.TenantID, vars, req.UpdatedAt.UTC()).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert: %w", err)
	}

	if _, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}
	return nil
}

// GetByID retrieves a request by its process instance key
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	query, args, err := r.psql.Select(requestFields).From(requestTable).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	req, err := scanRequest(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return req, nil
}

// Update overwrites a stored request
func (r *RequestRepository) Update(ctx context.Context, req *entity.Request) error {
	vars, err := encodeVariables(req.Variables)
	if err != nil {
		return err
	}
	req.UpdatedAt = time.Now().UTC()

	query, args, err := r.psql.Update(requestTable).
		SetMap(map[string]interface{}{
			"requestor_name":             req.RequestorName,
			"status":                     string(req.Status),
			"badge_number":               req.BadgeNumber,
			"submitted_date":             req.SubmittedDate.UTC(),
			"service_type":               req.ServiceType,
			"request_type":               req.RequestType,
			"justification":              req.Justification,
			"description":                req.Description,
			"phone_model":                req.PhoneModel,
			"workstation":                req.Workstation,
			"unit":                       req.Unit,
			"location":                   req.Location,
			"priority":                   req.Priority,
			"manager_comments":           req.ManagerComments,
			"process_definition_id":      req.ProcessDefinitionID,
			"process_definition_version": req.ProcessDefinitionVersion,
			"tenant_id":                  req.TenantID,
			"variables":                  vars,
			"updated_at":                 req.UpdatedAt,
		}).
		Where(sq.Eq{"id": req.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update: %w", err)
	}

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to update request: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("request not found: %s", req.ID)
	}
	return nil
}

// List returns requests matching filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	builder := applyRequestFilter(r.psql.Select(requestFields).From(requestTable), filter).
		OrderBy("submitted_date DESC", "id DESC")
	// SQLite rejects OFFSET without LIMIT
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
		if filter.Offset > 0 {
			builder = builder.Offset(uint64(filter.Offset))
		}
	}
	return r.query(ctx, builder)
}

// Count returns how many requests match filter, ignoring paging
func (r *RequestRepository) Count(ctx context.Context, filter port.RequestFilter) (int, error) {
	query, args, err := applyRequestFilter(r.psql.Select("COUNT(*)").From(requestTable), filter).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count: %w", err)
	}

	var total int
	if err := sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count requests", zap.Error(err))
		return 0, fmt.Errorf("failed to count requests: %w", err)
	}
	return total, nil
}

// ListOpen returns requests still awaiting a decision, least recently
// refreshed first.
func (r *RequestRepository) ListOpen(ctx context.Context, limit int) ([]*entity.Request, error) {
	builder := r.psql.Select(requestFields).From(requestTable).
		Where(sq.Eq{"status": openStatuses}).
		OrderBy("updated_at ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}
	return r.query(ctx, builder)
}

func (r *RequestRepository) query(ctx context.Context, builder sq.SelectBuilder) ([]*entity.Request, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select: %w", err)
	}

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var out []*entity.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func applyRequestFilter(builder sq.SelectBuilder, filter port.RequestFilter) sq.SelectBuilder {
	if name := strings.TrimSpace(filter.Requestor); name != "" {
		builder = builder.Where(sq.Expr("requestor_name = ? COLLATE NOCASE", name))
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, 0, len(filter.Statuses))
		for _, s := range filter.Statuses {
			statuses = append(statuses, string(s))
		}
		builder = builder.Where(sq.Eq{"status": statuses})
	}
	if term := strings.TrimSpace(filter.Search); term != "" {
		like := "%" + term + "%"
		builder = builder.Where(sq.Or{
			sq.Like{"id": like},
			sq.Like{"requestor_name": like},
			sq.Like{"service_type": like},
			sq.Like{"justification": like},
			sq.Like{"phone_model": like},
		})
	}
	return builder
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*entity.Request, error) {
	var (
		req    entity.Request
		status string
		vars   string
	)
	err := row.Scan(
		&req.ID, &req.RequestorName, &status, &req.BadgeNumber, &req.SubmittedDate, &req.ServiceType,
		&req.RequestType, &req.Justification, &req.Description, &req.PhoneModel, &req.Workstation,
		&req.Unit, &req.Location, &req.Priority, &req.ManagerComments, &req.ProcessDefinitionID,
		&req.ProcessDefinitionVersion, &req.TenantID, &vars, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Status = workflow.Status(status)
	if vars != "" && vars != "{}" {
		if err := json.Unmarshal([]byte(vars), &req.Variables); err != nil {
			return nil, fmt.Errorf("failed to decode variables for %s: %w", req.ID, err)
		}
	}
	return &req, nil
}

func encodeVariables(vars map[string]string) (string, error) {
	if len(vars) == 0 {
		return "{}", nil
	}
	raw, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode variables: %w", err)
	}
	return string(raw), nil
}

var _ port.RequestRepository = (*RequestRepository)(nil)
