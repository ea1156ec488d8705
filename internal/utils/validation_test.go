package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func TestValidateDateWindow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ValidateDateWindow(start, start.AddDate(0, 3, 0)))
	require.Error(t, ValidateDateWindow(start, start.AddDate(0, 0, -1)))
}

func TestValidatePayrollSchedule(t *testing.T) {
	weekly := &domain.Cycle{Code: domain.CycleWeekly}
	monthly := &domain.Cycle{Code: domain.CycleMonthly}
	fixedDay := &domain.DateType{Code: domain.DateTypeFixedDay}
	lastDay := &domain.DateType{Code: domain.DateTypeLastDay}

	require.NoError(t, ValidatePayrollSchedule(weekly, fixedDay, 5))
	require.Error(t, ValidatePayrollSchedule(weekly, fixedDay, 8))
	require.Error(t, ValidatePayrollSchedule(weekly, lastDay, 5))

	require.NoError(t, ValidatePayrollSchedule(monthly, fixedDay, 31))
	require.Error(t, ValidatePayrollSchedule(monthly, fixedDay, 32))
	// last_day 不看 dateValue
	require.NoError(t, ValidatePayrollSchedule(monthly, lastDay, 0))
}

func TestValidateProcessingLeadTime(t *testing.T) {
	require.NoError(t, ValidateProcessingLeadTime(0))
	require.NoError(t, ValidateProcessingLeadTime(5))
	require.Error(t, ValidateProcessingLeadTime(-1))
	require.Error(t, ValidateProcessingLeadTime(15))
}

func TestValidateAssignmentChanges(t *testing.T) {
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	require.Error(t, ValidateAssignmentChanges(nil))

	changes := []domain.AssignmentChange{
		{PayrollID: 1, Date: date, FromConsultantID: 2, ToConsultantID: 2},
	}
	require.Error(t, ValidateAssignmentChanges(changes))

	changes = []domain.AssignmentChange{
		{PayrollID: 1, Date: date, FromConsultantID: 2, ToConsultantID: 3},
		{PayrollID: 1, Date: date, FromConsultantID: 3, ToConsultantID: 4},
	}
	require.Error(t, ValidateAssignmentChanges(changes))

	changes = []domain.AssignmentChange{
		{PayrollID: 1, Date: date, FromConsultantID: 2, ToConsultantID: 3},
		{PayrollID: 1, Date: date.AddDate(0, 0, 14), FromConsultantID: 2, ToConsultantID: 3},
	}
	require.NoError(t, ValidateAssignmentChanges(changes))
}
