package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func TestCreatePayrollVersionPending(t *testing.T) {
	repo, mock := newTestRepository(t)

	effectiveDate := testDate(2026, time.September, 1)
	payroll := &domain.Payroll{
		FamilyID:                1,
		Name:                    "广州云帆科技月薪组",
		ClientID:                3,
		CycleID:                 4,
		DateTypeID:              2,
		DateValue:               0,
		PrimaryConsultantID:     2,
		ProcessingDaysBeforeEFT: 3,
		GoLiveDate:              effectiveDate,
		VersionReason:           "更换主责顾问",
	}

	date := &domain.PayrollDate{
		OriginalEFTDate: testDate(2026, time.September, 30),
		AdjustedEFTDate: testDate(2026, time.September, 30),
		ProcessingDate:  testDate(2026, time.September, 25),
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`AND is_current = true FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version_number", "go_live_date"}).
			AddRow(int64(10), int32(3), testDate(2025, time.January, 1)))
	mock.ExpectQuery(`INSERT INTO payrolls`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).
			AddRow(int64(11), time.Now(), int32(1)))
	mock.ExpectQuery(`INSERT INTO payroll_dates`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).
			AddRow(int64(500), time.Now(), int32(1)))
	mock.ExpectQuery(`INSERT INTO payroll_assignments`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(600)))
	mock.ExpectCommit()

	datesRemoved, err := repo.CreatePayrollVersion(payroll, false, []*domain.PayrollDate{date}, 9)
	require.NoError(t, err)

	// 未来生效：当前版本保持不变，新版本等待激活
	require.Zero(t, datesRemoved)
	require.Equal(t, int32(4), payroll.VersionNumber)
	require.NotNil(t, payroll.ParentPayrollID)
	require.Equal(t, int64(10), *payroll.ParentPayrollID)
	require.False(t, payroll.IsCurrent)
	require.Equal(t, domain.PayrollStatusImplementation, payroll.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayrollVersionNoCurrent(t *testing.T) {
	repo, mock := newTestRepository(t)

	payroll := &domain.Payroll{FamilyID: 1, GoLiveDate: testDate(2026, time.September, 1)}

	mock.ExpectBegin()
	mock.ExpectQuery(`AND is_current = true FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version_number", "go_live_date"}))
	mock.ExpectRollback()

	_, err := repo.CreatePayrollVersion(payroll, false, nil, 9)
	require.ErrorIs(t, err, ErrNoCurrentVersion)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePayrollVersionEffectiveNowKeepsAuditedDates(t *testing.T) {
	repo, mock := newTestRepository(t)

	effectiveDate := testDate(2026, time.July, 1)
	payroll := &domain.Payroll{
		FamilyID:            1,
		Name:                "广州云帆科技月薪组",
		ClientID:            3,
		CycleID:             4,
		DateTypeID:          2,
		PrimaryConsultantID: 2,
		GoLiveDate:          effectiveDate,
		VersionReason:       "更换主责顾问",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`AND is_current = true FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version_number", "go_live_date"}).
			AddRow(int64(10), int32(1), testDate(2025, time.January, 1)))
	mock.ExpectExec(`UPDATE payrolls SET is_current = false, superseded_date`).
		WithArgs(effectiveDate, string(domain.PayrollStatusInactive), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 被改派过的未来日期不能删除，审计记录还引用着它，只标记取消
	mock.ExpectExec(`UPDATE payroll_dates pd`).
		WithArgs(int64(10), effectiveDate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 从未改派过的未来日期连同默认分配一起删除
	mock.ExpectExec(`DELETE FROM payroll_assignments`).
		WithArgs(int64(10), effectiveDate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM payroll_dates pd`).
		WithArgs(int64(10), effectiveDate, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`INSERT INTO payrolls`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).
			AddRow(int64(11), time.Now(), int32(1)))
	mock.ExpectCommit()

	datesRemoved, err := repo.CreatePayrollVersion(payroll, true, nil, 9)
	require.NoError(t, err)

	// 取消的和删除的都算移出排期
	require.Equal(t, int64(2), datesRemoved)
	require.True(t, payroll.IsCurrent)
	require.Equal(t, domain.PayrollStatusActive, payroll.Status)
	require.Equal(t, int32(2), payroll.VersionNumber)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGeneratePayrollDatesSkipsExisting(t *testing.T) {
	repo, mock := newTestRepository(t)

	payroll := &domain.Payroll{ID: 7, PrimaryConsultantID: 2}
	existing := &domain.PayrollDate{
		OriginalEFTDate: testDate(2026, time.May, 15),
		AdjustedEFTDate: testDate(2026, time.May, 15),
		ProcessingDate:  testDate(2026, time.May, 12),
	}
	fresh := &domain.PayrollDate{
		OriginalEFTDate: testDate(2026, time.May, 31),
		AdjustedEFTDate: testDate(2026, time.May, 29),
		ProcessingDate:  testDate(2026, time.May, 26),
	}

	mock.ExpectBegin()
	// 第一条与已有日期冲突，ON CONFLICT DO NOTHING 不返回行
	mock.ExpectQuery(`INSERT INTO payroll_dates`).
		WithArgs(int64(7), existing.OriginalEFTDate, existing.AdjustedEFTDate, existing.ProcessingDate, "").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(`INSERT INTO payroll_dates`).
		WithArgs(int64(7), fresh.OriginalEFTDate, fresh.AdjustedEFTDate, fresh.ProcessingDate, "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "version"}).
			AddRow(int64(501), time.Now(), int32(1)))
	mock.ExpectQuery(`INSERT INTO payroll_assignments`).
		WithArgs(int64(501), int64(2), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(601)))
	mock.ExpectCommit()

	created, err := repo.GeneratePayrollDates(payroll, []*domain.PayrollDate{existing, fresh}, 9)
	require.NoError(t, err)

	require.Len(t, created, 1)
	require.Equal(t, fresh.OriginalEFTDate, created[0].OriginalEFTDate)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestPayrollVersionCurrent(t *testing.T) {
	repo, mock := newTestRepository(t)

	current := &domain.Payroll{
		ID: 11, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 2, GoLiveDate: testDate(2026, time.January, 1),
		VersionNumber: 2, Status: domain.PayrollStatusActive, IsCurrent: true,
		CreatedAt: time.Now(), Version: 1,
	}

	mock.ExpectQuery(`AND is_current = true`).
		WithArgs(int64(1)).
		WillReturnRows(addPayrollRow(sqlmock.NewRows(payrollTestColumns), current))

	latest, degraded, err := repo.GetLatestPayrollVersion(1)
	require.NoError(t, err)
	require.False(t, degraded)
	require.Equal(t, int64(11), latest.ID)
	require.Equal(t, int32(2), latest.VersionNumber)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLatestPayrollVersionDegraded(t *testing.T) {
	repo, mock := newTestRepository(t)

	highest := &domain.Payroll{
		ID: 12, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 2, GoLiveDate: testDate(2026, time.March, 1),
		VersionNumber: 3, Status: domain.PayrollStatusImplementation,
		CreatedAt: time.Now(), Version: 1,
	}

	// 没有任何 is_current 的行，退化为按版本号取最高
	mock.ExpectQuery(`AND is_current = true`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(payrollTestColumns))
	mock.ExpectQuery(`ORDER BY version_number DESC LIMIT 1`).
		WithArgs(int64(1)).
		WillReturnRows(addPayrollRow(sqlmock.NewRows(payrollTestColumns), highest))

	latest, degraded, err := repo.GetLatestPayrollVersion(1)
	require.NoError(t, err)
	require.True(t, degraded)
	require.Equal(t, int64(12), latest.ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPayrollVersionHistoryMatchesLatest(t *testing.T) {
	repo, mock := newTestRepository(t)

	v1 := &domain.Payroll{
		ID: 10, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 2, GoLiveDate: testDate(2025, time.January, 1),
		VersionNumber: 1, Status: domain.PayrollStatusInactive,
		CreatedAt: time.Now(), Version: 1,
	}
	v2 := &domain.Payroll{
		ID: 11, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 5, GoLiveDate: testDate(2026, time.January, 1),
		VersionNumber: 2, Status: domain.PayrollStatusActive, IsCurrent: true,
		CreatedAt: time.Now(), Version: 1,
	}
	v3 := &domain.Payroll{
		ID: 12, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 5, GoLiveDate: testDate(2026, time.December, 1),
		VersionNumber: 3, Status: domain.PayrollStatusImplementation,
		CreatedAt: time.Now(), Version: 1,
	}

	historyRows := sqlmock.NewRows(payrollTestColumns)
	addPayrollRow(historyRows, v1)
	addPayrollRow(historyRows, v2)
	addPayrollRow(historyRows, v3)
	mock.ExpectQuery(`WHERE family_id = \$1 ORDER BY version_number`).
		WithArgs(int64(1)).
		WillReturnRows(historyRows)
	mock.ExpectQuery(`AND is_current = true`).
		WithArgs(int64(1)).
		WillReturnRows(addPayrollRow(sqlmock.NewRows(payrollTestColumns), v2))

	history, err := repo.GetPayrollVersionHistory(1)
	require.NoError(t, err)
	require.Len(t, history, 3)

	// 历史按版本号升序，恰好一个当前版本
	var current *domain.Payroll
	for i, p := range history {
		require.Equal(t, int32(i+1), p.VersionNumber)
		if p.IsCurrent {
			require.Nil(t, current)
			current = p
		}
	}
	require.NotNil(t, current)

	// 历史里的当前版本与 getLatestVersion 返回的是同一个版本
	latest, degraded, err := repo.GetLatestPayrollVersion(1)
	require.NoError(t, err)
	require.False(t, degraded)
	require.Equal(t, current.ID, latest.ID)
	require.Equal(t, current.VersionNumber, latest.VersionNumber)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivatePendingVersionsNothingDue(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := testDate(2026, time.June, 1)

	mock.ExpectQuery(`SELECT DISTINCT family_id FROM payrolls`).
		WithArgs(string(domain.PayrollStatusImplementation), now).
		WillReturnRows(sqlmock.NewRows([]string{"family_id"}))

	results, activationErrors, err := repo.ActivatePendingVersions(now)
	require.NoError(t, err)
	require.Empty(t, results)
	require.Empty(t, activationErrors)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivatePendingVersionsPromotesDueVersion(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := testDate(2026, time.June, 1)
	newGoLive := testDate(2026, time.May, 15)

	currentVersion := &domain.Payroll{
		ID: 10, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 2, GoLiveDate: testDate(2025, time.January, 1),
		VersionNumber: 1, Status: domain.PayrollStatusActive, IsCurrent: true,
		CreatedAt: time.Now(), Version: 1,
	}
	pendingVersion := &domain.Payroll{
		ID: 11, FamilyID: 1, Name: "月薪组", ClientID: 3, CycleID: 4, DateTypeID: 2,
		PrimaryConsultantID: 5, GoLiveDate: newGoLive,
		VersionNumber: 2, Status: domain.PayrollStatusImplementation,
		CreatedAt: time.Now(), Version: 1,
	}

	mock.ExpectQuery(`SELECT DISTINCT family_id FROM payrolls`).
		WithArgs(string(domain.PayrollStatusImplementation), now).
		WillReturnRows(sqlmock.NewRows([]string{"family_id"}).AddRow(int64(1)))

	mock.ExpectBegin()
	rows := sqlmock.NewRows(payrollTestColumns)
	addPayrollRow(rows, currentVersion)
	addPayrollRow(rows, pendingVersion)
	mock.ExpectQuery(`ORDER BY version_number FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	// 旧版本的 supersededDate 等于新版本的 goLiveDate
	mock.ExpectExec(`UPDATE payrolls SET is_current = false, superseded_date`).
		WithArgs(newGoLive, string(domain.PayrollStatusInactive), int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE payroll_dates pd`).
		WithArgs(int64(10), newGoLive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM payroll_assignments`).
		WithArgs(int64(10), newGoLive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM payroll_dates pd`).
		WithArgs(int64(10), newGoLive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`UPDATE payrolls SET is_current = true, status`).
		WithArgs(string(domain.PayrollStatusActive), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	results, activationErrors, err := repo.ActivatePendingVersions(now)
	require.NoError(t, err)
	require.Empty(t, activationErrors)
	require.Len(t, results, 1)

	require.Equal(t, int64(11), results[0].PayrollID)
	require.Equal(t, int64(1), results[0].FamilyID)
	require.Equal(t, int32(2), results[0].VersionNumber)
	require.Equal(t, "activated", results[0].ActionTaken)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivatePendingVersionsSkipsSupersededPending(t *testing.T) {
	repo, mock := newTestRepository(t)

	now := testDate(2026, time.June, 1)
	earlierGoLive := testDate(2026, time.April, 1)
	laterGoLive := testDate(2026, time.May, 1)

	olderPending := &domain.Payroll{
		ID: 20, FamilyID: 2, Name: "周薪组", ClientID: 3, CycleID: 1, DateTypeID: 1,
		DateValue: 5, PrimaryConsultantID: 2, GoLiveDate: earlierGoLive,
		VersionNumber: 2, Status: domain.PayrollStatusImplementation,
		CreatedAt: time.Now(), Version: 1,
	}
	newerPending := &domain.Payroll{
		ID: 21, FamilyID: 2, Name: "周薪组", ClientID: 3, CycleID: 1, DateTypeID: 1,
		DateValue: 5, PrimaryConsultantID: 5, GoLiveDate: laterGoLive,
		VersionNumber: 3, Status: domain.PayrollStatusImplementation,
		CreatedAt: time.Now(), Version: 1,
	}

	mock.ExpectQuery(`SELECT DISTINCT family_id FROM payrolls`).
		WithArgs(string(domain.PayrollStatusImplementation), now).
		WillReturnRows(sqlmock.NewRows([]string{"family_id"}).AddRow(int64(2)))

	mock.ExpectBegin()
	rows := sqlmock.NewRows(payrollTestColumns)
	addPayrollRow(rows, olderPending)
	addPayrollRow(rows, newerPending)
	mock.ExpectQuery(`ORDER BY version_number FOR UPDATE`).
		WithArgs(int64(2)).
		WillReturnRows(rows)

	// 版本号更低的到期版本被标记为跳过
	mock.ExpectExec(`UPDATE payrolls SET status =`).
		WithArgs(string(domain.PayrollStatusInactive), laterGoLive, int64(20)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// 没有当前版本，直接提升
	mock.ExpectExec(`UPDATE payrolls SET is_current = true, status`).
		WithArgs(string(domain.PayrollStatusActive), int64(21)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	results, activationErrors, err := repo.ActivatePendingVersions(now)
	require.NoError(t, err)
	require.Empty(t, activationErrors)
	require.Len(t, results, 2)

	require.Equal(t, "skipped", results[0].ActionTaken)
	require.Equal(t, int64(20), results[0].PayrollID)
	require.Equal(t, "activated", results[1].ActionTaken)
	require.Equal(t, int64(21), results[1].PayrollID)

	require.NoError(t, mock.ExpectationsWereMet())
}
