package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/isf/servicedesk/internal/domain/access"
	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/isf/servicedesk/internal/domain/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportService_ExportAll(t *testing.T) {
	var reqs []*entity.Request
	for i := 0; i < exportBatchSize+3; i++ {
		reqs = append(reqs, &entity.Request{ID: fmt.Sprintf("R%04d", i), Status: workflow.StatusPending})
	}

	var exported int
	exporter := &mockExporter{
		exportFunc: func(ctx context.Context, w io.Writer, requests []*entity.Request) error {
			exported = len(requests)
			_, err := w.Write([]byte("xlsx"))
			return err
		},
	}
	svc := NewExportService(newMockRequestRepo(reqs...), exporter, &mockLogger{})

	var buf bytes.Buffer
	n, err := svc.ExportAll(context.Background(), adminU, &buf)
	require.NoError(t, err)
	assert.Equal(t, exportBatchSize+3, n)
	assert.Equal(t, exportBatchSize+3, exported)
	assert.Equal(t, "xlsx", buf.String())
}

func TestExportService_AdminOnly(t *testing.T) {
	svc := NewExportService(newMockRequestRepo(), &mockExporter{}, &mockLogger{})

	_, err := svc.ExportAll(context.Background(), supervisorU, io.Discard)
	assert.ErrorIs(t, err, access.ErrRoleForbidden)

	_, err = svc.ExportAll(context.Background(), nil, io.Discard)
	assert.ErrorIs(t, err, access.ErrAuthRequired)
}

func TestExportService_ExporterError(t *testing.T) {
	exporter := &mockExporter{
		exportFunc: func(ctx context.Context, w io.Writer, requests []*entity.Request) error {
			return errors.New("disk full")
		},
	}
	svc := NewExportService(newMockRequestRepo(), exporter, &mockLogger{})

	_, err := svc.ExportAll(context.Background(), adminU, io.Discard)
	assert.Error(t, err)
}
