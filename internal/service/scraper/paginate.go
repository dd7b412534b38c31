package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
)

type Outcome int

const (
	Continued Outcome = iota
	Finished
)

func (o Outcome) String() string {
	if o == Finished {
		return "finished"
	}
	return "continued"
}

// Paginator 翻页控制,Finished是吸收态
// 只要还会继续, currentPage <= maxPages
type Paginator struct {
	page           browser.Page
	sel            config.Selectors
	updateEventURL string
	settleTimeout  time.Duration
	log            *logger.Logger

	currentPage int
	maxPages    int
	finished    bool
}

func newPaginator(page browser.Page, cfg *config.Config, maxPages int, log *logger.Logger) *Paginator {
	return &Paginator{
		page:           page,
		sel:            cfg.Selectors,
		updateEventURL: cfg.Site.UpdateEventURL,
		settleTimeout:  cfg.SettleTimeout(),
		log:            log,
		currentPage:    1,
		maxPages:       max(maxPages, 1),
	}
}

func (p *Paginator) CurrentPage() int {
	return p.currentPage
}

func (p *Paginator) Finished() bool {
	return p.finished
}

type pageProbe struct {
	Found   bool `json:"found"`
	HasNext bool `json:"hasNext"`
}

// Advance 翻到下一页,或者宣告工作流结束
func (p *Paginator) Advance(ctx context.Context) (Outcome, error) {
	if p.finished {
		return Finished, nil
	}
	// 先检查页数上限,达到上限时不再点击
	if p.currentPage >= p.maxPages {
		p.log.Info("page limit reached", "page", p.currentPage, "max_pages", p.maxPages)
		return p.finish(), nil
	}

	hasPagination, err := p.page.Has(ctx, p.sel.Pagination)
	if err != nil {
		return Continued, err
	}
	if !hasPagination {
		p.log.Info("no pagination control, single page of results")
		return p.finish(), nil
	}

	var probe pageProbe
	if err := p.page.Eval(ctx, pageProbeScript(p.sel.CurrentPageBtn), &probe); err != nil {
		return Continued, err
	}
	// 分页控件存在却找不到当前页,说明页面结构变了,不能当作最后一页
	if !probe.Found {
		return Continued, notFoundErr(p.sel.CurrentPageBtn)
	}
	if !probe.HasNext {
		p.log.Info("last results page reached", "page", p.currentPage)
		return p.finish(), nil
	}

	err = bracket(ctx, p.page, p.updateEventURL, p.settleTimeout, func(ctx context.Context) error {
		var clicked bool
		if err := p.page.Eval(ctx, nextPageScript(p.sel.CurrentPageBtn), &clicked); err != nil {
			return err
		}
		if !clicked {
			return fmt.Errorf("next page control disappeared: %w", notFoundErr(p.sel.CurrentPageBtn))
		}
		return nil
	})
	if err != nil {
		return Continued, err
	}

	settleCtx, cancel := context.WithTimeout(ctx, p.settleTimeout)
	defer cancel()
	if err := p.page.WaitVisible(settleCtx, p.sel.JobCard); err != nil {
		return Continued, err
	}

	p.currentPage++
	return Continued, nil
}

func (p *Paginator) finish() Outcome {
	p.finished = true
	return Finished
}

func notFoundErr(selector string) error {
	return fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
}
