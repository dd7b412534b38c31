package browser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	cdppage "github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

type chromedpPage struct {
	allocCtx      context.Context
	allocCtxFuc   context.CancelFunc
	pageCtx       context.Context
	pageCtxFuc    context.CancelFunc
	timeoutCtxFuc context.CancelFunc
}

func InitChromedpPage(ctx context.Context, cfg *config.Config) (Page, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("disable-dev-shm-usage", cfg.Browser.DisableDevShmUsage),
		chromedp.Flag("no-sandbox", cfg.Browser.NoSandbox),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if cfg.Browser.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(cfg.Browser.UserDataDir))
	}
	if cfg.Browser.Bin != "" {
		opts = append(opts, chromedp.ExecPath(cfg.Browser.Bin))
	}

	var (
		timeoutCtx    context.Context
		cancelTimeout context.CancelFunc
	)
	if cfg.Browser.LifeTime > 0 {
		timeoutCtx, cancelTimeout = context.WithTimeout(ctx, time.Duration(cfg.Browser.LifeTime)*time.Second)
	} else {
		timeoutCtx, cancelTimeout = context.WithCancel(ctx)
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(timeoutCtx, opts...)
	pageCtx, cancelPage := chromedp.NewContext(allocCtx)

	cp := &chromedpPage{
		allocCtx:      allocCtx,
		allocCtxFuc:   cancelAlloc,
		pageCtx:       pageCtx,
		pageCtxFuc:    cancelPage,
		timeoutCtxFuc: cancelTimeout,
	}
	// 第一次Run会启动浏览器,同时开启网络监听
	if err := chromedp.Run(pageCtx, network.Enable()); err != nil {
		cp.Close()
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}
	return cp, nil
}

// run 在页面上下文上执行动作,同时遵守调用方ctx的取消与截止时间
func (cp *chromedpPage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(cp.pageCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (cp *chromedpPage) Navigate(ctx context.Context, url string) error {
	if err := cp.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (cp *chromedpPage) Has(ctx context.Context, selector string) (bool, error) {
	var ok bool
	js := fmt.Sprintf(`document.querySelector(%s) !== null`, JSString(selector))
	if err := cp.run(ctx, chromedp.Evaluate(js, &ok)); err != nil {
		return false, fmt.Errorf("查询元素失败 %s: %w", selector, err)
	}
	return ok, nil
}

func (cp *chromedpPage) WaitVisible(ctx context.Context, selector string) error {
	if err := cp.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	return nil
}

func (cp *chromedpPage) mustHave(ctx context.Context, selector string) error {
	ok, err := cp.Has(ctx, selector)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(selector)
	}
	return nil
}

func (cp *chromedpPage) Click(ctx context.Context, selector string) error {
	if err := cp.mustHave(ctx, selector); err != nil {
		return err
	}
	if err := cp.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("点击失败 %s: %w", selector, err)
	}
	return nil
}

func (cp *chromedpPage) ClickAndWaitNavigation(ctx context.Context, selector string) error {
	if err := cp.mustHave(ctx, selector); err != nil {
		return err
	}
	loaded := make(chan struct{}, 1)
	listenCtx, cancel := context.WithCancel(cp.pageCtx)
	defer cancel()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if _, ok := ev.(*cdppage.EventLoadEventFired); ok {
			select {
			case loaded <- struct{}{}:
			default:
			}
		}
	})

	if err := cp.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("点击失败 %s: %w", selector, err)
	}
	select {
	case <-loaded:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: 等待页面加载: %v", ErrNavigation, ctx.Err())
	}
}

func (cp *chromedpPage) Type(ctx context.Context, selector, text string) error {
	if err := cp.mustHave(ctx, selector); err != nil {
		return err
	}
	err := cp.run(ctx,
		chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("输入失败 %s: %w", selector, err)
	}
	return nil
}

func (cp *chromedpPage) Eval(ctx context.Context, expression string, out any) error {
	if err := cp.run(ctx, chromedp.Evaluate(expression, out)); err != nil {
		return fmt.Errorf("执行脚本失败: %w", err)
	}
	return nil
}

func (cp *chromedpPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	if err := cp.mustHave(ctx, selector); err != nil {
		return "", err
	}
	var html string
	if err := cp.run(ctx, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("获取HTML失败 %s: %w", selector, err)
	}
	return html, nil
}

func (cp *chromedpPage) Listen(kind EventKind, fn func(NetworkEvent)) func() {
	listenCtx, cancel := context.WithCancel(cp.pageCtx)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		switch ev := ev.(type) {
		case *network.EventRequestWillBeSent:
			if kind == EventRequest && ev.Request != nil {
				fn(NetworkEvent{Kind: EventRequest, RequestID: string(ev.RequestID), URL: ev.Request.URL, Method: ev.Request.Method})
			}
		case *network.EventResponseReceived:
			if kind == EventResponse && ev.Response != nil {
				fn(NetworkEvent{Kind: EventResponse, RequestID: string(ev.RequestID), URL: ev.Response.URL, Status: int(ev.Response.Status)})
			}
		}
	})
	return cancel
}

func (cp *chromedpPage) Screenshot(ctx context.Context, path string) error {
	var buf []byte
	// quality为100时输出PNG
	if err := cp.run(ctx, chromedp.FullScreenshot(&buf, 100)); err != nil {
		return fmt.Errorf("截图失败: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

func (cp *chromedpPage) SetUserAgent(ctx context.Context, userAgent string) error {
	return cp.run(ctx, emulation.SetUserAgentOverride(userAgent))
}

func (cp *chromedpPage) Close() error {
	cp.pageCtxFuc()
	cp.allocCtxFuc()
	cp.timeoutCtxFuc()
	return nil
}
