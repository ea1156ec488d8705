package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func newTestRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{}
	cfg.Database.QueryTimeout = 5
	cfg.Database.TransactionTimeout = 10

	return NewRepository(cfg, db), mock
}

func testDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

var payrollTestColumns = []string{
	"id", "family_id", "name", "client_id", "cycle_id", "date_type_id", "date_value",
	"primary_consultant_id", "backup_consultant_id", "manager_id", "processing_days_before_eft",
	"go_live_date", "superseded_date", "version_number", "version_reason", "status", "is_current",
	"parent_payroll_id", "created_at", "version",
}

func addPayrollRow(rows *sqlmock.Rows, p *domain.Payroll) *sqlmock.Rows {
	var supersededDate any
	if p.SupersededDate != nil {
		supersededDate = *p.SupersededDate
	}
	var parentID any
	if p.ParentPayrollID != nil {
		parentID = *p.ParentPayrollID
	}

	return rows.AddRow(
		p.ID, p.FamilyID, p.Name, p.ClientID, p.CycleID, p.DateTypeID, p.DateValue,
		p.PrimaryConsultantID, nil, nil, p.ProcessingDaysBeforeEFT,
		p.GoLiveDate, supersededDate, p.VersionNumber, p.VersionReason, string(p.Status), p.IsCurrent,
		parentID, p.CreatedAt, p.Version,
	)
}
