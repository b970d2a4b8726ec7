package access

import (
	"testing"

	"github.com/isf/servicedesk/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardFor(t *testing.T) {
	assert.Equal(t, "/officer/dashboard", DashboardFor(entity.RoleOfficer))
	assert.Equal(t, "/supervisor/dashboard", DashboardFor(entity.RoleSupervisor))
	assert.Equal(t, "/admin/dashboard", DashboardFor(entity.RoleAdmin))
	assert.Equal(t, "/tech-approver/dashboard", DashboardFor(entity.RoleTechApprover))
	assert.Equal(t, "/", DashboardFor(entity.Role("guest")))
}

func TestDescriptorFor(t *testing.T) {
	d := DescriptorFor(entity.RoleSupervisor)
	assert.Equal(t, entity.RoleSupervisor, d.Role)
	assert.Equal(t, "/supervisor/dashboard", d.Dashboard)
	require.Len(t, d.Nav, 4)
	assert.Equal(t, "/supervisor/approvals", d.Nav[3].Path)
	require.Len(t, d.Cards, 4)
	assert.Equal(t, "/supervisor/approvals?status=pending", d.Cards[0].Link)

	fallback := DescriptorFor(entity.Role(""))
	assert.Equal(t, entity.RoleOfficer, fallback.Role)
	assert.Len(t, fallback.Nav, 3)
}

func TestDescriptorFor_CardsAreCopied(t *testing.T) {
	d := DescriptorFor(entity.RoleOfficer)
	d.Cards[0].Title = "changed"

	assert.NotEqual(t, "changed", DescriptorFor(entity.RoleOfficer).Cards[0].Title)
}

func TestNavItems_ActiveMatching(t *testing.T) {
	tests := []struct {
		name       string
		role       entity.Role
		path       string
		wantActive string
	}{
		{"dashboard exact", entity.RoleOfficer, "/officer/dashboard", "/officer/dashboard"},
		{"dashboard not by prefix", entity.RoleOfficer, "/officer/dashboard/extra", ""},
		{"status by prefix", entity.RoleOfficer, "/request/status-approved", "/request/status"},
		{"catalog", entity.RoleSupervisor, "/service-catalog", "/service-catalog"},
		{"approvals with query", entity.RoleSupervisor, "/supervisor/approvals?status=pending", "/supervisor/approvals"},
		{"unknown role gets officer menu", entity.Role(""), "/request/status", "/request/status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			active := ""
			for _, item := range NavItems(tt.role, tt.path) {
				if item.Active {
					assert.Empty(t, active, "more than one active item")
					active = item.Path
				}
			}
			assert.Equal(t, tt.wantActive, active)
		})
	}
}

func TestShowSidebar(t *testing.T) {
	assert.False(t, ShowSidebar(entity.RoleOfficer, "/"))
	assert.False(t, ShowSidebar("", "/officer/dashboard"))
	assert.True(t, ShowSidebar(entity.RoleAdmin, "/admin/dashboard"))
}
