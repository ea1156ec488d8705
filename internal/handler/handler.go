package handler

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/activator"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/repository"
)

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  *repository.Repository
	activator   *activator.Activator
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, act *activator.Activator, mailCh *amqp.Channel, rdb *redis.Client) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		activator:   act,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Route("/reset-password", func(r chi.Router) {
			r.Post("/require", h.RequireResetPassword)
			r.Post("/confirm", h.ConfirmResetPassword)
		})
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Route("/my-info", func(r chi.Router) {
			r.Use(h.myInfo)
			r.Get("/", h.GetMyInfo)
			r.Patch("/password", h.UpdateMyPassword)
			r.Route("/update-email", func(r chi.Router) {
				r.Post("/require", h.RequireUpdateEmail)
				r.Post("/confirm", h.ConfirmUpdateEmail)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateUser)
			r.Get("/", h.GetAllUserInfo) // 所有顾问应该都有权限获取其他人的个人信息
			r.Get("/consultants", h.GetActiveConsultants)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.userInfo)
				r.Get("/", h.GetUserInfo)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/", h.UpdateUser)
				r.With(h.preventOperateInitialAdmin).With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Delete("/", h.DeleteUser)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Patch("/password", h.UpdateUserPassword)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateClient)
			r.Get("/", h.GetAllClients)
		})

		r.Route("/reference", func(r chi.Router) {
			r.Get("/cycles", h.GetAllCycles)
			r.Get("/date-types", h.GetAllDateTypes)
			r.Get("/adjustment-rules", h.GetAllAdjustmentRules)
			r.Get("/holidays", h.GetAllHolidays)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/holidays", h.CreateHoliday)
		})

		r.Route("/payrolls", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).With(h.myInfo).Post("/", h.CreatePayrollFamily)
			r.Get("/", h.GetAllCurrentPayrolls)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.payroll)
				r.Get("/", h.GetPayroll)
				r.Get("/latest", h.GetLatestPayrollVersion)
				r.Get("/history", h.GetPayrollVersionHistory)
				r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).With(h.myInfo).Post("/versions", h.CreatePayrollVersion)
				r.Route("/dates", func(r chi.Router) {
					r.Get("/", h.GetPayrollDates)
					r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).With(h.myInfo).Post("/generate", h.GeneratePayrollDates)
					r.Get("/{dateID}/audits", h.GetAssignmentAudits)
				})
			})
		})

		// 改派由资深顾问或管理员执行
		r.With(h.RequiredRole([]domain.Role{domain.RoleSeniorConsultant, domain.RoleAdmin})).
			With(h.myInfo).
			Post("/assignments/commit", h.CommitAssignments)

		r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/activations", h.TriggerActivation)
	})
}
