package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func ValidateDateWindow(start, end time.Time) error {
	if end.Before(start) {
		return errors.New("结束日期不能早于开始日期")
	}
	return nil
}

// ValidatePayrollSchedule 检查周期、日期类型和 dateValue 的组合是否自洽
func ValidatePayrollSchedule(cycle *domain.Cycle, dateType *domain.DateType, dateValue int32) error {
	switch cycle.Code {
	case domain.CycleWeekly, domain.CycleBiweekly:
		// 每周/双周只支持固定星期发薪
		if dateType.Code != domain.DateTypeFixedDay {
			return fmt.Errorf("周期 %s 只支持固定日期类型", cycle.Code)
		}
		if dateValue < 1 || dateValue > 7 {
			return fmt.Errorf("周期为 %s 时 dateValue 必须是 1~7 之间的星期数", cycle.Code)
		}
	case domain.CycleMonthly, domain.CycleSemimonthly:
		if dateType.Code == domain.DateTypeFixedDay && (dateValue < 1 || dateValue > 31) {
			return errors.New("dateValue 必须是 1~31 之间的日期")
		}
	default:
		return fmt.Errorf("未知的发薪周期: %s", cycle.Code)
	}

	return nil
}

func ValidateProcessingLeadTime(days int32) error {
	if days < 0 {
		return errors.New("处理提前量不能为负数")
	}
	// 提前量大于两周基本可以确定是输入错误
	if days > 14 {
		return errors.New("处理提前量不能超过 14 个工作日")
	}
	return nil
}

// ValidateAssignmentChanges 检查改派请求本身的一致性，与数据库状态无关的部分
func ValidateAssignmentChanges(changes []domain.AssignmentChange) error {
	if len(changes) == 0 {
		return errors.New("改派列表不能为空")
	}

	type key struct {
		payrollID int64
		date      string
	}
	seen := make(map[key]bool)
	for _, change := range changes {
		if change.FromConsultantID == change.ToConsultantID {
			return fmt.Errorf("薪资组 %d 日期 %s: 新旧顾问相同", change.PayrollID, change.Date.Format(time.DateOnly))
		}
		k := key{payrollID: change.PayrollID, date: change.Date.Format(time.DateOnly)}
		if seen[k] {
			return fmt.Errorf("薪资组 %d 日期 %s: 同一发薪日期在本批次中出现了多次", change.PayrollID, change.Date.Format(time.DateOnly))
		}
		seen[k] = true
	}

	return nil
}
