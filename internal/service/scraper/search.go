package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
)

type searchConfigurator struct {
	page           browser.Page
	sel            config.Selectors
	jobsURL        string
	updateEventURL string
	stepTimeout    time.Duration
	settleTimeout  time.Duration
	log            *logger.Logger
}

// Configure 打开结果页,输入搜索条件并应用发布时间筛选
// 每一步都以元素出现或网络事件为准,不使用固定等待
func (sc *searchConfigurator) Configure(ctx context.Context, criteria entity.SearchCriteria) error {
	optionSel, ok := sc.sel.RecencyOptions[recencyKey(criteria.Recency)]
	if !ok || optionSel == "" {
		return fmt.Errorf("没有发布时间筛选项 %q 的选择器", criteria.Recency)
	}

	navCtx, cancelNav := context.WithTimeout(ctx, sc.stepTimeout)
	defer cancelNav()
	if err := sc.page.Navigate(navCtx, sc.jobsURL); err != nil {
		return err
	}
	sc.dismissOverlay(navCtx)

	stepCtx, cancel := context.WithTimeout(ctx, sc.stepTimeout)
	defer cancel()

	if err := sc.page.WaitVisible(stepCtx, sc.sel.SearchTitleInput); err != nil {
		return err
	}
	if err := sc.page.Type(stepCtx, sc.sel.SearchTitleInput, criteria.Query); err != nil {
		return err
	}
	if err := sc.page.Type(stepCtx, sc.sel.SearchLocationInput, criteria.Location); err != nil {
		return err
	}
	if err := sc.page.Click(stepCtx, sc.sel.SearchSubmit); err != nil {
		return err
	}

	if err := sc.page.WaitVisible(stepCtx, sc.sel.DatePostedButton); err != nil {
		return err
	}
	if err := sc.page.Click(stepCtx, sc.sel.DatePostedButton); err != nil {
		return err
	}
	if err := sc.page.WaitVisible(stepCtx, optionSel); err != nil {
		return err
	}
	if err := sc.page.Click(stepCtx, optionSel); err != nil {
		return err
	}

	err := bracket(ctx, sc.page, sc.updateEventURL, sc.settleTimeout, func(ctx context.Context) error {
		return sc.page.Click(ctx, sc.sel.ApplyButton)
	})
	if err != nil {
		return err
	}

	sc.log.Info("try to search jobs..", "query", criteria.Query, "location", criteria.Location, "recency", string(criteria.Recency))
	return sc.page.WaitVisible(stepCtx, sc.sel.JobsContainer)
}

// dismissOverlay 收起消息浮层,失败只记录日志
func (sc *searchConfigurator) dismissOverlay(ctx context.Context) {
	if sc.sel.MessagesOverlay == "" || sc.sel.MessagesButton == "" {
		return
	}
	present, err := sc.page.Has(ctx, sc.sel.MessagesOverlay)
	if err != nil {
		sc.log.Warn("检查消息浮层失败", "err", err)
		return
	}
	if !present {
		return
	}
	if err := sc.page.Click(ctx, sc.sel.MessagesButton); err != nil {
		sc.log.Warn("收起消息浮层失败", "err", err)
		return
	}
	sc.log.Debug("messages overlay dismissed")
}

func recencyKey(r entity.Recency) string {
	if r == "" {
		return string(entity.RecencyAnyTime)
	}
	return string(r)
}
