package scraper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/persistence"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
	"github.com/LouYuanbo1/jobcrawler/param"
)

// Result 一次完整运行的结果
type Result struct {
	Records []entity.Record
	Pages   int
	Elapsed time.Duration
}

// Workflow 登录 -> 配置搜索 -> 循环{采集 -> 翻页} 直到Finished
// 所有阶段严格顺序执行,累加器与分页状态只由本工作流持有
type Workflow struct {
	page browser.Page
	cfg  *config.Config
	log  *logger.Logger

	diag    *diagnostics
	session *sessionController
	search  *searchConfigurator
	collect *collector

	acc entity.Accumulator
}

func NewWorkflow(page browser.Page, cfg *config.Config, log *logger.Logger) *Workflow {
	return &Workflow{
		page: page,
		cfg:  cfg,
		log:  log,
		diag: &diagnostics{
			page: page,
			dir:  cfg.Output.SnapshotDir,
			log:  log,
		},
		session: &sessionController{
			page:        page,
			sel:         cfg.Selectors,
			loginURL:    cfg.Site.LoginURL,
			creds:       cfg.Credentials,
			stepTimeout: cfg.StepTimeout(),
			log:         log.With("stage", StageLogin),
		},
		search: &searchConfigurator{
			page:           page,
			sel:            cfg.Selectors,
			jobsURL:        cfg.Site.JobsURL,
			updateEventURL: cfg.Site.UpdateEventURL,
			stepTimeout:    cfg.StepTimeout(),
			settleTimeout:  cfg.SettleTimeout(),
			log:            log.With("stage", StageSearch),
		},
		collect: &collector{
			page:         page,
			sel:          cfg.Selectors,
			pause:        cfg.ScrollPause(),
			defaultSteps: cfg.Timing.DefaultScrollSteps,
			log:          log.With("stage", StageGetData),
		},
	}
}

// Records 当前累加器的内容,致命中止后同样可用
func (w *Workflow) Records() []entity.Record {
	return w.acc.Snapshot()
}

// Run 执行整个工作流,第一个致命错误即结束运行并返回*StageError
func (w *Workflow) Run(ctx context.Context, params *param.Search) (*Result, error) {
	if !params.IsValid() {
		return nil, fmt.Errorf("invalid search params: %+v", params)
	}
	start := time.Now()
	w.log.Info("Start scraping..")

	if ua := w.cfg.Browser.UserAgent; ua != "" {
		err := w.diag.guard(ctx, StageSetup, func(ctx context.Context) error {
			return w.page.SetUserAgent(ctx, ua)
		})
		if err != nil {
			return nil, err
		}
	}

	err := w.diag.guard(ctx, StageLogin, func(ctx context.Context) error {
		state, err := w.session.Ensure(ctx)
		if err != nil {
			return err
		}
		w.log.Info("session ready", "state", state.String())
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = w.diag.guard(ctx, StageSearch, func(ctx context.Context) error {
		return w.search.Configure(ctx, params.Criteria)
	})
	if err != nil {
		return nil, err
	}

	w.log.Info("data scraping", "query", params.Criteria.Query, "location", params.Criteria.Location, "max_pages", params.MaxPages)
	pager := newPaginator(w.page, w.cfg, params.MaxPages, w.log.With("stage", StageLoadMore))
	for {
		err = w.diag.guard(ctx, StageGetData, func(ctx context.Context) error {
			records, err := w.collect.Collect(ctx)
			if err != nil {
				return err
			}
			w.acc.Append(records...)
			w.log.Info("page scraped", "page", pager.CurrentPage(), "records", len(records), "total", w.acc.Len())
			return nil
		})
		if err != nil {
			return nil, err
		}

		var outcome Outcome
		err = w.diag.guard(ctx, StageLoadMore, func(ctx context.Context) error {
			var err error
			outcome, err = pager.Advance(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		if outcome == Finished {
			break
		}
	}

	res := &Result{
		Records: w.acc.Snapshot(),
		Pages:   pager.CurrentPage(),
		Elapsed: time.Since(start),
	}
	w.log.Info("Scraping finished", "records", len(res.Records), "pages", res.Pages, "elapsed", res.Elapsed.Round(time.Millisecond))
	return res, nil
}

// RunAndFlush 运行工作流并把累加器写入sink
// 致命中止时同样写入已采集的记录(可能为空),返回的错误保留*StageError
func (w *Workflow) RunAndFlush(ctx context.Context, params *param.Search, sink persistence.Sink) (*Result, error) {
	res, runErr := w.Run(ctx, params)
	records := w.Records()
	if runErr != nil {
		w.log.Warn("run aborted, flushing collected records", "records", len(records))
	}
	flushCtx := context.WithoutCancel(ctx)
	if err := sink.Save(flushCtx, records); err != nil {
		w.log.Error("保存记录失败", "err", err)
		return res, errors.Join(runErr, fmt.Errorf("save records: %w", err))
	}
	w.log.Info("records saved", "records", len(records))
	return res, runErr
}
