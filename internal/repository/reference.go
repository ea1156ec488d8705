package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
)

func (r *Repository) GetAllCycles() ([]*domain.Cycle, error) {
	query := `
		SELECT id, code, name, description, created_at, version FROM cycles ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cycles := make([]*domain.Cycle, 0)
	for rows.Next() {
		cycle := &domain.Cycle{}
		dst := []any{&cycle.ID, &cycle.Code, &cycle.Name, &cycle.Description, &cycle.CreatedAt, &cycle.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		cycles = append(cycles, cycle)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cycles, nil
}

func (r *Repository) GetCycleByID(id int64) (*domain.Cycle, error) {
	query := `
		SELECT code, name, description, created_at, version FROM cycles WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	cycle := &domain.Cycle{
		ID: id,
	}

	dst := []any{&cycle.Code, &cycle.Name, &cycle.Description, &cycle.CreatedAt, &cycle.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return cycle, nil
}

func (r *Repository) CreateCycle(cycle *domain.Cycle) error {
	query := `
		INSERT INTO cycles (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{cycle.Code, cycle.Name, cycle.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&cycle.ID, &cycle.CreatedAt, &cycle.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllDateTypes() ([]*domain.DateType, error) {
	query := `
		SELECT id, code, name, description, created_at, version FROM date_types ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dateTypes := make([]*domain.DateType, 0)
	for rows.Next() {
		dt := &domain.DateType{}
		dst := []any{&dt.ID, &dt.Code, &dt.Name, &dt.Description, &dt.CreatedAt, &dt.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		dateTypes = append(dateTypes, dt)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return dateTypes, nil
}

func (r *Repository) GetDateTypeByID(id int64) (*domain.DateType, error) {
	query := `
		SELECT code, name, description, created_at, version FROM date_types WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	dt := &domain.DateType{
		ID: id,
	}

	dst := []any{&dt.Code, &dt.Name, &dt.Description, &dt.CreatedAt, &dt.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return dt, nil
}

func (r *Repository) CreateDateType(dt *domain.DateType) error {
	query := `
		INSERT INTO date_types (code, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{dt.Code, dt.Name, dt.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&dt.ID, &dt.CreatedAt, &dt.Version); err != nil {
		return err
	}

	return nil
}

// GetAdjustmentRule 查找 (cycle, dateType) 对应的调整规则，没有配置时返回 nil，
// 由调用方落到默认策略
func (r *Repository) GetAdjustmentRule(cycleID, dateTypeID int64) (*domain.AdjustmentRule, error) {
	query := `
		SELECT id, rule_code, description, created_at, version
		FROM adjustment_rules
		WHERE cycle_id = $1 AND date_type_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rule := &domain.AdjustmentRule{
		CycleID:    cycleID,
		DateTypeID: dateTypeID,
	}

	dst := []any{&rule.ID, &rule.RuleCode, &rule.Description, &rule.CreatedAt, &rule.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, cycleID, dateTypeID).Scan(dst...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return rule, nil
}

func (r *Repository) GetAllAdjustmentRules() ([]*domain.AdjustmentRule, error) {
	query := `
		SELECT id, cycle_id, date_type_id, rule_code, description, created_at, version
		FROM adjustment_rules ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := make([]*domain.AdjustmentRule, 0)
	for rows.Next() {
		rule := &domain.AdjustmentRule{}
		dst := []any{&rule.ID, &rule.CycleID, &rule.DateTypeID, &rule.RuleCode, &rule.Description, &rule.CreatedAt, &rule.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

func (r *Repository) CreateAdjustmentRule(rule *domain.AdjustmentRule) error {
	query := `
		INSERT INTO adjustment_rules (cycle_id, date_type_id, rule_code, description)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{rule.CycleID, rule.DateTypeID, rule.RuleCode, rule.Description}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rule.ID, &rule.CreatedAt, &rule.Version); err != nil {
		return err
	}

	return nil
}

// GetHolidaysForCountry 返回某个国家的节假日以及所有全球性节假日
func (r *Repository) GetHolidaysForCountry(countryCode string) ([]*domain.Holiday, error) {
	query := `
		SELECT id, name, holiday_date, country_code, region, is_global, created_at, version
		FROM holidays
		WHERE country_code = $1 OR is_global = true
		ORDER BY holiday_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, countryCode)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := make([]*domain.Holiday, 0)
	for rows.Next() {
		holiday := &domain.Holiday{}
		dst := []any{&holiday.ID, &holiday.Name, &holiday.HolidayDate, &holiday.CountryCode, &holiday.Region, &holiday.IsGlobal, &holiday.CreatedAt, &holiday.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return holidays, nil
}

func (r *Repository) GetAllHolidays() ([]*domain.Holiday, error) {
	query := `
		SELECT id, name, holiday_date, country_code, region, is_global, created_at, version
		FROM holidays ORDER BY holiday_date
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holidays := make([]*domain.Holiday, 0)
	for rows.Next() {
		holiday := &domain.Holiday{}
		dst := []any{&holiday.ID, &holiday.Name, &holiday.HolidayDate, &holiday.CountryCode, &holiday.Region, &holiday.IsGlobal, &holiday.CreatedAt, &holiday.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		holidays = append(holidays, holiday)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return holidays, nil
}

func (r *Repository) CreateHoliday(holiday *domain.Holiday) error {
	query := `
		INSERT INTO holidays (name, holiday_date, country_code, region, is_global)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{holiday.Name, holiday.HolidayDate, holiday.CountryCode, holiday.Region, holiday.IsGlobal}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&holiday.ID, &holiday.CreatedAt, &holiday.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllClients() ([]*domain.Client, error) {
	query := `
		SELECT id, name, country_code, region, created_at, version FROM clients ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	clients := make([]*domain.Client, 0)
	for rows.Next() {
		client := &domain.Client{}
		dst := []any{&client.ID, &client.Name, &client.CountryCode, &client.Region, &client.CreatedAt, &client.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		clients = append(clients, client)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return clients, nil
}

func (r *Repository) GetClientByID(id int64) (*domain.Client, error) {
	query := `
		SELECT name, country_code, region, created_at, version FROM clients WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	client := &domain.Client{
		ID: id,
	}

	dst := []any{&client.Name, &client.CountryCode, &client.Region, &client.CreatedAt, &client.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return client, nil
}

func (r *Repository) CreateClient(client *domain.Client) error {
	query := `
		INSERT INTO clients (name, country_code, region)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{client.Name, client.CountryCode, client.Region}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&client.ID, &client.CreatedAt, &client.Version); err != nil {
		return err
	}

	return nil
}
