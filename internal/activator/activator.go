package activator

import (
	"context"
	"log/slog"
	"time"

	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/config"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/domain"
	"github.com/sysu-ecnc-dev/payroll-manager/backend/internal/repository"
)

// Activator 定期把到期的待生效版本提升为当前版本。自身无状态，
// 重复触发是安全的：没有到期版本时什么都不会发生
type Activator struct {
	cfg        *config.Config
	repository *repository.Repository
}

func New(cfg *config.Config, repo *repository.Repository) *Activator {
	return &Activator{
		cfg:        cfg,
		repository: repo,
	}
}

// RunOnce 执行一轮激活并记录结果，供定时器和手动触发共用
func (a *Activator) RunOnce() ([]*domain.ActivationResult, error) {
	results, activationErrors, err := a.repository.ActivatePendingVersions(time.Now())
	if err != nil {
		return nil, err
	}

	for _, res := range results {
		slog.Info("已处理待生效版本",
			"payrollID", res.PayrollID,
			"familyID", res.FamilyID,
			"versionNumber", res.VersionNumber,
			"action", res.ActionTaken,
		)
	}
	for _, msg := range activationErrors {
		slog.Error("激活待生效版本失败", "error", msg)
	}

	return results, nil
}

// Run 按配置的间隔轮询，直到 ctx 被取消
func (a *Activator) Run(ctx context.Context) {
	interval := time.Duration(a.cfg.Activation.Interval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("激活调度器已启动", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			slog.Info("激活调度器已停止")
			return
		case <-ticker.C:
			if _, err := a.RunOnce(); err != nil {
				slog.Error("激活调度器执行失败", "error", err)
			}
		}
	}
}
