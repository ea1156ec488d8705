package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

var ErrNoCurrentVersion = errors.New("该薪资组没有当前版本")

const payrollColumns = `
	id, family_id, name, client_id, cycle_id, date_type_id, date_value,
	primary_consultant_id, backup_consultant_id, manager_id, processing_days_before_eft,
	go_live_date, superseded_date, version_number, version_reason, status, is_current,
	parent_payroll_id, created_at, version
`

type payrollScanner interface {
	Scan(dst ...any) error
}

func scanPayroll(s payrollScanner) (*domain.Payroll, error) {
	p := &domain.Payroll{}
	dst := []any{
		&p.ID, &p.FamilyID, &p.Name, &p.ClientID, &p.CycleID, &p.DateTypeID, &p.DateValue,
		&p.PrimaryConsultantID, &p.BackupConsultantID, &p.ManagerID, &p.ProcessingDaysBeforeEFT,
		&p.GoLiveDate, &p.SupersededDate, &p.VersionNumber, &p.VersionReason, &p.Status, &p.IsCurrent,
		&p.ParentPayrollID, &p.CreatedAt, &p.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	return p, nil
}

func insertPayrollTx(ctx context.Context, tx *sql.Tx, p *domain.Payroll) error {
	query := `
		INSERT INTO payrolls (
			family_id, name, client_id, cycle_id, date_type_id, date_value,
			primary_consultant_id, backup_consultant_id, manager_id, processing_days_before_eft,
			go_live_date, superseded_date, version_number, version_reason, status, is_current,
			parent_payroll_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at, version
	`

	args := []any{
		p.FamilyID, p.Name, p.ClientID, p.CycleID, p.DateTypeID, p.DateValue,
		p.PrimaryConsultantID, p.BackupConsultantID, p.ManagerID, p.ProcessingDaysBeforeEFT,
		p.GoLiveDate, p.SupersededDate, p.VersionNumber, p.VersionReason, p.Status, p.IsCurrent,
		p.ParentPayrollID,
	}

	return tx.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.CreatedAt, &p.Version)
}

// insertDatesTx 在事务内批量写入发薪日期，并为新插入的日期创建默认的顾问分配。
// 与已有 (payroll_id, original_eft_date) 冲突的行会被跳过，因此重复生成是幂等的
func insertDatesTx(ctx context.Context, tx *sql.Tx, dates []*domain.PayrollDate, consultantID int64, assignedBy int64) ([]*domain.PayrollDate, error) {
	dateQuery := `
		INSERT INTO payroll_dates (payroll_id, original_eft_date, adjusted_eft_date, processing_date, notes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (payroll_id, original_eft_date) DO NOTHING
		RETURNING id, created_at, version
	`
	assignmentQuery := `
		INSERT INTO payroll_assignments (payroll_date_id, consultant_id, original_consultant_id, assigned_by)
		VALUES ($1, $2, $2, $3)
		RETURNING id
	`

	created := make([]*domain.PayrollDate, 0, len(dates))
	for _, d := range dates {
		args := []any{d.PayrollID, d.OriginalEFTDate, d.AdjustedEFTDate, d.ProcessingDate, d.Notes}
		if err := tx.QueryRowContext(ctx, dateQuery, args...).Scan(&d.ID, &d.CreatedAt, &d.Version); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// 该日期已存在，跳过
				continue
			}
			return nil, err
		}

		var assignmentID int64
		if err := tx.QueryRowContext(ctx, assignmentQuery, d.ID, consultantID, assignedBy).Scan(&assignmentID); err != nil {
			return nil, err
		}

		created = append(created, d)
	}

	return created, nil
}

// deleteFutureDatesTx 把某个版本在 effectiveDate 之后、且尚未支付的发薪日期
// 移出排期，已经过去的日期保持不动。有过改派记录的日期不能删（审计记录只追加，
// 且通过外键引用日期行），只在 notes 上标记取消；从未被改派过的日期
// 连同默认分配一起删除。返回被移出排期的日期总数
func deleteFutureDatesTx(ctx context.Context, tx *sql.Tx, payrollID int64, effectiveDate, now time.Time) (int64, error) {
	cancelDates := `
		UPDATE payroll_dates pd
		SET notes = '已随旧版本取消', version = version + 1
		WHERE pd.payroll_id = $1 AND pd.original_eft_date >= $2 AND pd.adjusted_eft_date >= $3
			AND EXISTS (
				SELECT 1 FROM assignment_audits aa WHERE aa.payroll_date_id = pd.id
			)
	`
	res, err := tx.ExecContext(ctx, cancelDates, payrollID, effectiveDate, now)
	if err != nil {
		return 0, err
	}
	cancelled, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	deleteAssignments := `
		DELETE FROM payroll_assignments
		WHERE payroll_date_id IN (
			SELECT pd.id FROM payroll_dates pd
			WHERE pd.payroll_id = $1 AND pd.original_eft_date >= $2 AND pd.adjusted_eft_date >= $3
				AND NOT EXISTS (
					SELECT 1 FROM assignment_audits aa WHERE aa.payroll_date_id = pd.id
				)
		)
	`
	if _, err := tx.ExecContext(ctx, deleteAssignments, payrollID, effectiveDate, now); err != nil {
		return 0, err
	}

	deleteDates := `
		DELETE FROM payroll_dates pd
		WHERE pd.payroll_id = $1 AND pd.original_eft_date >= $2 AND pd.adjusted_eft_date >= $3
			AND NOT EXISTS (
				SELECT 1 FROM assignment_audits aa WHERE aa.payroll_date_id = pd.id
			)
	`
	res, err = tx.ExecContext(ctx, deleteDates, payrollID, effectiveDate, now)
	if err != nil {
		return 0, err
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return cancelled + deleted, nil
}

// CreatePayrollFamily 创建一个全新的薪资组（版本号为 1 且立即生效），
// 并在同一个事务里写入生成好的发薪日期和默认分配
func (r *Repository) CreatePayrollFamily(p *domain.Payroll, dates []*domain.PayrollDate, assignedBy int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	p.VersionNumber = 1
	p.Status = domain.PayrollStatusActive

	// 先以非当前版本插入，拿到 id 后再一并写入 family_id 和 is_current，
	// 避免多条新薪资组记录在 family_id 上短暂撞到部分唯一索引
	p.IsCurrent = false
	if err := insertPayrollTx(ctx, tx, p); err != nil {
		return err
	}

	// family_id 就是首个版本自己的 id
	if _, err := tx.ExecContext(ctx, `UPDATE payrolls SET family_id = id, is_current = true WHERE id = $1`, p.ID); err != nil {
		return err
	}
	p.FamilyID = p.ID
	p.IsCurrent = true

	for _, d := range dates {
		d.PayrollID = p.ID
	}
	if _, err := insertDatesTx(ctx, tx, dates, p.PrimaryConsultantID, assignedBy); err != nil {
		return err
	}

	return tx.Commit()
}

// CreatePayrollVersion 在链上追加一个新版本。整个过程持有当前版本的行锁，
// 同一薪资组的并发创建会被串行化；版本号在锁内取自当前版本，保证单调递增。
// effectiveNow 为 true 时当前版本在同一事务中被取代，旧版本未来的发薪日期被清理；
// 否则新版本以 implementation 状态等待激活，当前版本保持不变
func (r *Repository) CreatePayrollVersion(p *domain.Payroll, effectiveNow bool, dates []*domain.PayrollDate, assignedBy int64) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	lockQuery := `
		SELECT id, version_number, go_live_date FROM payrolls
		WHERE family_id = $1 AND is_current = true
		FOR UPDATE
	`

	var currentID int64
	var currentVersionNumber int32
	var currentGoLive time.Time
	if err := tx.QueryRowContext(ctx, lockQuery, p.FamilyID).Scan(&currentID, &currentVersionNumber, &currentGoLive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNoCurrentVersion
		}
		return 0, err
	}

	p.VersionNumber = currentVersionNumber + 1
	p.ParentPayrollID = &currentID

	var datesRemoved int64
	now := time.Now().UTC().Truncate(24 * time.Hour)

	if effectiveNow {
		p.Status = domain.PayrollStatusActive
		p.IsCurrent = true

		// 先取代旧版本再插入新版本，避免触发 payrolls_family_current_key
		supersede := `
			UPDATE payrolls
			SET is_current = false, superseded_date = $1, status = $2, version = version + 1
			WHERE id = $3
		`
		if _, err := tx.ExecContext(ctx, supersede, p.GoLiveDate, domain.PayrollStatusInactive, currentID); err != nil {
			return 0, err
		}

		datesRemoved, err = deleteFutureDatesTx(ctx, tx, currentID, p.GoLiveDate, now)
		if err != nil {
			return 0, err
		}
	} else {
		p.Status = domain.PayrollStatusImplementation
		p.IsCurrent = false
	}

	if err := insertPayrollTx(ctx, tx, p); err != nil {
		return 0, err
	}

	for _, d := range dates {
		d.PayrollID = p.ID
	}
	if _, err := insertDatesTx(ctx, tx, dates, p.PrimaryConsultantID, assignedBy); err != nil {
		return 0, err
	}

	return datesRemoved, tx.Commit()
}

func (r *Repository) GetPayrollByID(id int64) (*domain.Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE id = $1`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return scanPayroll(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetAllCurrentPayrolls() ([]*domain.Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE is_current = true ORDER BY family_id`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payrolls := make([]*domain.Payroll, 0)
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		payrolls = append(payrolls, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payrolls, nil
}

// GetLatestPayrollVersion 返回薪资组的当前版本。当数据不满足"恰好一个当前版本"
// 时（0 个或多个），退化为按版本号取最高的版本并返回 degraded = true，
// 由调用方记录不一致告警
func (r *Repository) GetLatestPayrollVersion(familyID int64) (*domain.Payroll, bool, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE family_id = $1 AND is_current = true`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	current := make([]*domain.Payroll, 0, 1)
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, false, err
		}
		current = append(current, p)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}

	if len(current) == 1 {
		return current[0], false, nil
	}

	fallback := `
		SELECT ` + payrollColumns + ` FROM payrolls
		WHERE family_id = $1
		ORDER BY version_number DESC
		LIMIT 1
	`
	p, err := scanPayroll(r.dbpool.QueryRowContext(ctx, fallback, familyID))
	if err != nil {
		return nil, false, err
	}

	return p, true, nil
}

func (r *Repository) GetPayrollVersionHistory(familyID int64) ([]*domain.Payroll, error) {
	query := `SELECT ` + payrollColumns + ` FROM payrolls WHERE family_id = $1 ORDER BY version_number`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*domain.Payroll, 0)
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return history, nil
}

// ActivatePendingVersions 激活所有到期的待生效版本。每个薪资组一个事务，
// 不同薪资组之间互不阻塞；同一薪资组内通过行锁严格串行。没有到期版本时
// 返回空结果，重复调用是无副作用的
func (r *Repository) ActivatePendingVersions(now time.Time) ([]*domain.ActivationResult, []string, error) {
	listQuery := `
		SELECT DISTINCT family_id FROM payrolls
		WHERE status = $1 AND go_live_date <= $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, listQuery, domain.PayrollStatusImplementation, now)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	familyIDs := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, nil, err
		}
		familyIDs = append(familyIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	results := []*domain.ActivationResult{}
	activationErrors := []string{}
	for _, familyID := range familyIDs {
		familyResults, err := r.activateFamily(familyID, now)
		if err != nil {
			activationErrors = append(activationErrors, fmt.Sprintf("薪资组 %d 激活失败: %v", familyID, err))
			continue
		}
		results = append(results, familyResults...)
	}

	return results, activationErrors, nil
}

func (r *Repository) activateFamily(familyID int64, now time.Time) ([]*domain.ActivationResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 锁住整个薪资组，与版本创建（锁当前版本行）互斥
	lockQuery := `SELECT ` + payrollColumns + ` FROM payrolls WHERE family_id = $1 ORDER BY version_number FOR UPDATE`

	rows, err := tx.QueryContext(ctx, lockQuery, familyID)
	if err != nil {
		return nil, err
	}

	versions := []*domain.Payroll{}
	for rows.Next() {
		p, err := scanPayroll(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		versions = append(versions, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	var current *domain.Payroll
	due := []*domain.Payroll{}
	for _, v := range versions {
		if v.IsCurrent {
			current = v
		}
		if v.Status == domain.PayrollStatusImplementation && !v.GoLiveDate.After(now) {
			due = append(due, v)
		}
	}

	// 并发的另一次激活可能已经处理完了，这里什么都不用做
	if len(due) == 0 {
		return nil, tx.Commit()
	}

	// 取版本号最高的到期版本，更早的到期版本直接标记为跳过
	promoted := due[0]
	for _, v := range due[1:] {
		if v.VersionNumber > promoted.VersionNumber {
			promoted = v
		}
	}

	results := []*domain.ActivationResult{}
	executedAt := time.Now()

	skipQuery := `
		UPDATE payrolls
		SET status = $1, superseded_date = $2, version = version + 1
		WHERE id = $3
	`
	for _, v := range due {
		if v.ID == promoted.ID {
			continue
		}
		if _, err := tx.ExecContext(ctx, skipQuery, domain.PayrollStatusInactive, promoted.GoLiveDate, v.ID); err != nil {
			return nil, err
		}
		results = append(results, &domain.ActivationResult{
			PayrollID:     v.ID,
			FamilyID:      familyID,
			VersionNumber: v.VersionNumber,
			ActionTaken:   "skipped",
			ExecutedAt:    executedAt,
		})
	}

	if current != nil {
		supersede := `
			UPDATE payrolls
			SET is_current = false, superseded_date = $1, status = $2, version = version + 1
			WHERE id = $3
		`
		if _, err := tx.ExecContext(ctx, supersede, promoted.GoLiveDate, domain.PayrollStatusInactive, current.ID); err != nil {
			return nil, err
		}

		today := time.Now().UTC().Truncate(24 * time.Hour)
		if _, err := deleteFutureDatesTx(ctx, tx, current.ID, promoted.GoLiveDate, today); err != nil {
			return nil, err
		}
	}

	promote := `
		UPDATE payrolls
		SET is_current = true, status = $1, version = version + 1
		WHERE id = $2
	`
	if _, err := tx.ExecContext(ctx, promote, domain.PayrollStatusActive, promoted.ID); err != nil {
		return nil, err
	}

	results = append(results, &domain.ActivationResult{
		PayrollID:     promoted.ID,
		FamilyID:      familyID,
		VersionNumber: promoted.VersionNumber,
		ActionTaken:   "activated",
		ExecutedAt:    executedAt,
	})

	return results, tx.Commit()
}
