package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestGetAssignmentAuditsScopedToPayroll(t *testing.T) {
	repo, mock := newTestRepository(t)

	changedAt := testDate(2026, time.March, 10)
	auditColumns := []string{"id", "payroll_date_id", "from_consultant_id", "to_consultant_id", "changed_by", "reason", "changed_at"}

	mock.ExpectQuery(`JOIN payroll_dates pd ON pd.id = aa.payroll_date_id`).
		WithArgs(int64(100), int64(7)).
		WillReturnRows(sqlmock.NewRows(auditColumns).
			AddRow(int64(300), int64(100), int64(2), int64(3), int64(9), "顾问休假", changedAt))

	audits, err := repo.GetAssignmentAudits(7, 100)
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, int64(300), audits[0].ID)
	require.Equal(t, int64(100), audits[0].PayrollDateID)
	require.Equal(t, int64(2), audits[0].FromConsultantID)
	require.Equal(t, int64(3), audits[0].ToConsultantID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAssignmentAuditsOtherPayrollEmpty(t *testing.T) {
	repo, mock := newTestRepository(t)

	// 日期 100 属于薪资组 7，通过薪资组 8 的路径查不到任何记录
	mock.ExpectQuery(`JOIN payroll_dates pd ON pd.id = aa.payroll_date_id`).
		WithArgs(int64(100), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "payroll_date_id", "from_consultant_id", "to_consultant_id", "changed_by", "reason", "changed_at"}))

	audits, err := repo.GetAssignmentAudits(8, 100)
	require.NoError(t, err)
	require.Empty(t, audits)

	require.NoError(t, mock.ExpectationsWereMet())
}
