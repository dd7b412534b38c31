package scraper

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
)

// 各阶段的名称,同时用作截图文件名
const (
	StageSetup    = "setupError"
	StageLogin    = "loginError"
	StageSearch   = "searchJobsError"
	StageGetData  = "getDataError"
	StageLoadMore = "loadMoreError"
)

const snapshotTimeout = 10 * time.Second

// StageError 某个阶段的致命失败,工作流没有中途恢复的路径
type StageError struct {
	Stage    string
	Snapshot string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// ExitCode 把工作流结果映射为进程退出码
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// IsStage 判断err是否为指定阶段的致命失败
func IsStage(err error, stage string) bool {
	var se *StageError
	return errors.As(err, &se) && se.Stage == stage
}

type diagnostics struct {
	page browser.Page
	dir  string
	log  *logger.Logger
}

// guard 执行一个阶段,失败时记录日志并截取以阶段命名的页面快照
// 任何错误(包括panic)都会被转换为*StageError
func (d *diagnostics) guard(ctx context.Context, stage string, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = d.fail(ctx, stage, fmt.Errorf("panic: %v", r))
		}
	}()
	if err := fn(ctx); err != nil {
		return d.fail(ctx, stage, err)
	}
	return nil
}

func (d *diagnostics) fail(ctx context.Context, stage string, cause error) error {
	path := filepath.Join(d.dir, stage+".png")
	// 原ctx可能已经超时,截图使用独立的截止时间
	snapCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), snapshotTimeout)
	defer cancel()
	if err := d.page.Screenshot(snapCtx, path); err != nil {
		d.log.Error("截图失败", "stage", stage, "err", err)
		path = ""
	}
	d.log.Error(stage, "err", cause, "snapshot", path)
	return &StageError{Stage: stage, Snapshot: path, Err: cause}
}
