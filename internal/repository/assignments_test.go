package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func TestCommitAssignmentsPartialSuccess(t *testing.T) {
	repo, mock := newTestRepository(t)

	okDate := testDate(2026, time.March, 13)
	staleDate := testDate(2026, time.March, 27)

	changes := []domain.AssignmentChange{
		{PayrollID: 7, Date: okDate, FromConsultantID: 2, ToConsultantID: 3},
		{PayrollID: 7, Date: staleDate, FromConsultantID: 4, ToConsultantID: 3},
	}

	// 第一项：当前顾问与 fromConsultant 一致，更新并写入审计
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT pd.id, pd.adjusted_eft_date, pa.id, pa.consultant_id FROM payroll_dates`).
		WithArgs(int64(7), okDate).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adjusted_eft_date", "id", "consultant_id"}).
			AddRow(int64(100), okDate, int64(200), int64(2)))
	mock.ExpectExec(`UPDATE payroll_assignments SET consultant_id`).
		WithArgs(int64(3), int64(9), int64(200)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO assignment_audits`).
		WithArgs(int64(100), int64(2), int64(3), int64(9), "顾问休假").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(300)))
	mock.ExpectCommit()

	// 第二项：当前顾问已经变成了 5，与请求中的 4 不一致，整项回滚
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT pd.id, pd.adjusted_eft_date, pa.id, pa.consultant_id FROM payroll_dates`).
		WithArgs(int64(7), staleDate).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adjusted_eft_date", "id", "consultant_id"}).
			AddRow(int64(101), staleDate, int64(201), int64(5)))
	mock.ExpectRollback()

	result, err := repo.CommitAssignments(changes, 9, "顾问休假")
	require.NoError(t, err)

	require.False(t, result.Success)
	require.Len(t, result.AffectedAssignments, 1)
	require.Len(t, result.Errors, 1)

	affected := result.AffectedAssignments[0]
	require.Equal(t, int64(200), affected.ID)
	require.Equal(t, int64(7), affected.PayrollID)
	require.Equal(t, int64(100), affected.PayrollDateID)
	require.Equal(t, int64(2), affected.OriginalConsultantID)
	require.Equal(t, int64(3), affected.NewConsultantID)

	require.Contains(t, result.Errors[0], "可能已被他人修改")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitAssignmentsDateNotFound(t *testing.T) {
	repo, mock := newTestRepository(t)

	missingDate := testDate(2026, time.April, 10)
	changes := []domain.AssignmentChange{
		{PayrollID: 8, Date: missingDate, FromConsultantID: 2, ToConsultantID: 3},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT pd.id, pd.adjusted_eft_date, pa.id, pa.consultant_id FROM payroll_dates`).
		WithArgs(int64(8), missingDate).
		WillReturnRows(sqlmock.NewRows([]string{"id", "adjusted_eft_date", "id", "consultant_id"}))
	mock.ExpectRollback()

	result, err := repo.CommitAssignments(changes, 9, "顾问离职")
	require.NoError(t, err)

	require.False(t, result.Success)
	require.Empty(t, result.AffectedAssignments)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "发薪日期不存在")

	require.NoError(t, mock.ExpectationsWereMet())
}
