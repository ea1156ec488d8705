package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/paydate"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/repository"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/utils"
)

// generationContext 汇总一次日期生成所需的参考数据和日历引擎
type generationContext struct {
	client   *domain.Client
	cycle    *domain.Cycle
	dateType *domain.DateType
	rule     *domain.AdjustmentRule
	engine   *paydate.Engine
}

func (h *Handler) loadGenerationContext(clientID, cycleID, dateTypeID int64) (*generationContext, error) {
	client, err := h.repository.GetClientByID(clientID)
	if err != nil {
		return nil, err
	}

	cycle, err := h.repository.GetCycleByID(cycleID)
	if err != nil {
		return nil, err
	}

	dateType, err := h.repository.GetDateTypeByID(dateTypeID)
	if err != nil {
		return nil, err
	}

	// 没有配置规则时 rule 为 nil，引擎会落到默认策略
	rule, err := h.repository.GetAdjustmentRule(cycleID, dateTypeID)
	if err != nil {
		return nil, err
	}

	holidays, err := h.repository.GetHolidaysForCountry(client.CountryCode)
	if err != nil {
		return nil, err
	}
	if len(holidays) == 0 {
		slog.Warn("该国家没有任何节假日数据，日期调整时只会考虑周末", "countryCode", client.CountryCode)
	}

	return &generationContext{
		client:   client,
		cycle:    cycle,
		dateType: dateType,
		rule:     rule,
		engine:   paydate.NewEngine(paydate.NewCalendar(holidays)),
	}, nil
}

func (gc *generationContext) generate(p *domain.Payroll, windowStart, windowEnd time.Time, maxDates int) ([]*domain.PayrollDate, error) {
	return gc.engine.Generate(&paydate.GenerateRequest{
		Payroll:     p,
		Cycle:       gc.cycle,
		DateType:    gc.dateType,
		Rule:        gc.rule,
		CountryCode: gc.client.CountryCode,
		Region:      gc.client.Region,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		MaxDates:    maxDates,
	})
}

func (h *Handler) CreatePayrollFamily(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	var req struct {
		Name                    string `json:"name" validate:"required"`
		ClientID                int64  `json:"clientID" validate:"required"`
		CycleID                 int64  `json:"cycleID" validate:"required"`
		DateTypeID              int64  `json:"dateTypeID" validate:"required"`
		DateValue               int32  `json:"dateValue"`
		PrimaryConsultantID     int64  `json:"primaryConsultantID" validate:"required"`
		BackupConsultantID      *int64 `json:"backupConsultantID"`
		ManagerID               *int64 `json:"managerID"`
		ProcessingDaysBeforeEFT int32  `json:"processingDaysBeforeEFT"`
		GoLiveDate              string `json:"goLiveDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	goLiveDate, err := time.Parse(time.DateOnly, req.GoLiveDate)
	if err != nil {
		h.badRequest(w, r, errors.New("上线日期格式必须是 yyyy-mm-dd"))
		return
	}

	if err := utils.ValidateProcessingLeadTime(req.ProcessingDaysBeforeEFT); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	gc, err := h.loadGenerationContext(req.ClientID, req.CycleID, req.DateTypeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "客户、发薪周期或日期类型不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := utils.ValidatePayrollSchedule(gc.cycle, gc.dateType, req.DateValue); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	payroll := &domain.Payroll{
		Name:                    req.Name,
		ClientID:                req.ClientID,
		CycleID:                 req.CycleID,
		DateTypeID:              req.DateTypeID,
		DateValue:               req.DateValue,
		PrimaryConsultantID:     req.PrimaryConsultantID,
		BackupConsultantID:      req.BackupConsultantID,
		ManagerID:               req.ManagerID,
		ProcessingDaysBeforeEFT: req.ProcessingDaysBeforeEFT,
		GoLiveDate:              goLiveDate,
		VersionReason:           "初始配置",
	}

	windowEnd := goLiveDate.AddDate(0, h.config.Payroll.DefaultWindowMonths, 0)
	dates, err := gc.generate(payroll, goLiveDate, windowEnd, h.config.Payroll.MaxDatesPerRun)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	if err := h.repository.CreatePayrollFamily(payroll, dates, myInfo.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "payrolls_primary_consultant_id_fkey":
				h.badRequest(w, r, errors.New("主责顾问不存在"))
			case pgErr.ConstraintName == "payrolls_backup_consultant_id_fkey":
				h.badRequest(w, r, errors.New("候补顾问不存在"))
			case pgErr.ConstraintName == "payrolls_manager_id_fkey":
				h.badRequest(w, r, errors.New("经理不存在"))
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建薪资组成功", payroll)
}

func (h *Handler) GetAllCurrentPayrolls(w http.ResponseWriter, r *http.Request) {
	payrolls, err := h.repository.GetAllCurrentPayrolls()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取薪资组列表成功", payrolls)
}

func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)
	h.successResponse(w, r, "获取薪资组成功", payroll)
}

// CreatePayrollVersion 基于当前版本派生一个新版本。请求中省略的字段继承源版本，
// 生效日期不晚于今天时立即取代当前版本，否则等待激活调度器处理
func (h *Handler) CreatePayrollVersion(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	source := r.Context().Value(PayrollCtx).(*domain.Payroll)

	var req struct {
		Name                    *string `json:"name"`
		CycleID                 *int64  `json:"cycleID"`
		DateTypeID              *int64  `json:"dateTypeID"`
		DateValue               *int32  `json:"dateValue"`
		PrimaryConsultantID     *int64  `json:"primaryConsultantID"`
		BackupConsultantID      *int64  `json:"backupConsultantID"`
		ManagerID               *int64  `json:"managerID"`
		ProcessingDaysBeforeEFT *int32  `json:"processingDaysBeforeEFT"`
		VersionReason           string  `json:"versionReason" validate:"required"`
		EffectiveDate           string  `json:"effectiveDate" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	effectiveDate, err := time.Parse(time.DateOnly, req.EffectiveDate)
	if err != nil {
		h.badRequest(w, r, errors.New("生效日期格式必须是 yyyy-mm-dd"))
		return
	}

	// 复制源版本的配置，再套用请求中的覆盖项
	payroll := &domain.Payroll{
		FamilyID:                source.FamilyID,
		Name:                    source.Name,
		ClientID:                source.ClientID,
		CycleID:                 source.CycleID,
		DateTypeID:              source.DateTypeID,
		DateValue:               source.DateValue,
		PrimaryConsultantID:     source.PrimaryConsultantID,
		BackupConsultantID:      source.BackupConsultantID,
		ManagerID:               source.ManagerID,
		ProcessingDaysBeforeEFT: source.ProcessingDaysBeforeEFT,
		GoLiveDate:              effectiveDate,
		VersionReason:           req.VersionReason,
	}

	if req.Name != nil {
		payroll.Name = *req.Name
	}
	if req.CycleID != nil {
		payroll.CycleID = *req.CycleID
	}
	if req.DateTypeID != nil {
		payroll.DateTypeID = *req.DateTypeID
	}
	if req.DateValue != nil {
		payroll.DateValue = *req.DateValue
	}
	if req.PrimaryConsultantID != nil {
		payroll.PrimaryConsultantID = *req.PrimaryConsultantID
	}
	if req.BackupConsultantID != nil {
		payroll.BackupConsultantID = req.BackupConsultantID
	}
	if req.ManagerID != nil {
		payroll.ManagerID = req.ManagerID
	}
	if req.ProcessingDaysBeforeEFT != nil {
		payroll.ProcessingDaysBeforeEFT = *req.ProcessingDaysBeforeEFT
	}

	if err := utils.ValidateProcessingLeadTime(payroll.ProcessingDaysBeforeEFT); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	gc, err := h.loadGenerationContext(payroll.ClientID, payroll.CycleID, payroll.DateTypeID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, "客户、发薪周期或日期类型不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if err := utils.ValidatePayrollSchedule(gc.cycle, gc.dateType, payroll.DateValue); err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	windowEnd := effectiveDate.AddDate(0, h.config.Payroll.DefaultWindowMonths, 0)
	dates, err := gc.generate(payroll, effectiveDate, windowEnd, h.config.Payroll.MaxDatesPerRun)
	if err != nil {
		h.errorResponse(w, r, err.Error())
		return
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	effectiveNow := !effectiveDate.After(today)

	datesRemoved, err := h.repository.CreatePayrollVersion(payroll, effectiveNow, dates, myInfo.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.Is(err, repository.ErrNoCurrentVersion):
			h.errorResponse(w, r, err.Error())
		case errors.As(err, &pgErr):
			switch {
			case pgErr.ConstraintName == "payrolls_family_current_key":
				h.errorResponse(w, r, "该薪资组正在被其他人修改，请稍后重试")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建新版本成功", map[string]any{
		"newPayrollID":     payroll.ID,
		"versionNumber":    payroll.VersionNumber,
		"effectiveNow":     effectiveNow,
		"datesRegenerated": len(dates),
		"datesRemoved":     datesRemoved,
	})
}

func (h *Handler) GetLatestPayrollVersion(w http.ResponseWriter, r *http.Request) {
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)

	latest, degraded, err := h.repository.GetLatestPayrollVersion(payroll.FamilyID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	if degraded {
		// 当前版本不是恰好一个，说明数据已经违反了唯一性约束的预期
		slog.Error("薪资组的当前版本数量异常，已退化为按版本号返回最新版本", "familyID", payroll.FamilyID, "payrollID", latest.ID)
	}

	h.successResponse(w, r, "获取最新版本成功", latest)
}

func (h *Handler) GetPayrollVersionHistory(w http.ResponseWriter, r *http.Request) {
	payroll := r.Context().Value(PayrollCtx).(*domain.Payroll)

	history, err := h.repository.GetPayrollVersionHistory(payroll.FamilyID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取版本历史成功", history)
}

func (h *Handler) TriggerActivation(w http.ResponseWriter, r *http.Request) {
	results, err := h.activator.RunOnce()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "激活执行完成", results)
}
