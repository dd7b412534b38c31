package scraper

import (
	"context"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
)

type collector struct {
	page         browser.Page
	sel          config.Selectors
	pause        time.Duration
	defaultSteps int
	log          *logger.Logger
}

// Collect 把当前结果页的懒加载列表全部渲染出来,再提取所有卡片
// 列表只渲染视口附近的条目,所以按 scrollHeight/i 分段滚动而不是一次跳到底部
func (c *collector) Collect(ctx context.Context) ([]entity.Record, error) {
	var n int
	if err := c.page.Eval(ctx, countCardsScript(c.sel.JobsContainer, c.sel.JobCard), &n); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, notFoundErr(c.sel.JobsContainer)
	}
	steps := n
	if steps == 0 {
		steps = c.defaultSteps
	}
	c.log.Debug("scrolling results container", "cards", n, "steps", steps+1)

	for i := steps; i >= 0; i-- {
		var ok bool
		if err := c.page.Eval(ctx, scrollScript(c.sel.JobsContainer, i), &ok); err != nil {
			return nil, err
		}
		if !ok {
			return nil, notFoundErr(c.sel.JobsContainer)
		}
		// 滚动后没有可等待的信号,只能留出增量渲染的时间
		if err := sleep(ctx, c.pause); err != nil {
			return nil, err
		}
	}

	html, err := c.page.OuterHTML(ctx, c.sel.JobsContainer)
	if err != nil {
		return nil, err
	}
	return ExtractRecords(html, c.sel)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
