package browser

import (
	"context"
	"fmt"
	"os"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

type rodPage struct {
	browser *rod.Browser
	page    *rod.Page
}

func InitRodPage(ctx context.Context, cfg *config.Config) (Page, error) {
	l := launcher.New().
		Headless(cfg.Browser.Headless).
		Leakless(cfg.Browser.Leakless).
		NoSandbox(cfg.Browser.NoSandbox).
		Set("disable-blink-features", "AutomationControlled")
	if cfg.Browser.DisableDevShmUsage {
		l = l.Set("disable-dev-shm-usage")
	}
	if cfg.Browser.UserDataDir != "" {
		l = l.UserDataDir(cfg.Browser.UserDataDir)
	}
	if cfg.Browser.Bin != "" {
		l = l.Bin(cfg.Browser.Bin)
	}
	url, err := l.Context(ctx).Launch()
	if err != nil {
		return nil, fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(url).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("连接浏览器失败: %w", err)
	}
	page, err := stealth.Page(browser)
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("创建页面失败: %w", err)
	}
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("开启网络监听失败: %w", err)
	}
	return &rodPage{browser: browser, page: page}, nil
}

func (rp *rodPage) Navigate(ctx context.Context, url string) error {
	p := rp.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigation, url, err)
	}
	return nil
}

func (rp *rodPage) Has(ctx context.Context, selector string) (bool, error) {
	has, _, err := rp.page.Context(ctx).Has(selector)
	if err != nil {
		return false, fmt.Errorf("查询元素失败 %s: %w", selector, err)
	}
	return has, nil
}

func (rp *rodPage) WaitVisible(ctx context.Context, selector string) error {
	el, err := rp.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	if err := el.WaitVisible(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrElementNotFound, selector, err)
	}
	return nil
}

func (rp *rodPage) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := rp.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, fmt.Errorf("查询元素失败 %s: %w", selector, err)
	}
	if !has {
		return nil, notFound(selector)
	}
	return el, nil
}

func (rp *rodPage) Click(ctx context.Context, selector string) error {
	el, err := rp.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("点击失败 %s: %w", selector, err)
	}
	return nil
}

func (rp *rodPage) ClickAndWaitNavigation(ctx context.Context, selector string) error {
	el, err := rp.element(ctx, selector)
	if err != nil {
		return err
	}
	wait := rp.page.Context(ctx).WaitNavigation(proto.PageLifecycleEventNameLoad)
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("点击失败 %s: %w", selector, err)
	}
	wait()
	if ctx.Err() != nil {
		return fmt.Errorf("%w: 等待页面加载: %v", ErrNavigation, ctx.Err())
	}
	return nil
}

func (rp *rodPage) Type(ctx context.Context, selector, text string) error {
	el, err := rp.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("输入失败 %s: %w", selector, err)
	}
	return nil
}

func (rp *rodPage) Eval(ctx context.Context, expression string, out any) error {
	res, err := rp.page.Context(ctx).Eval(fmt.Sprintf(`() => (%s)`, expression))
	if err != nil {
		return fmt.Errorf("执行脚本失败: %w", err)
	}
	if out == nil {
		return nil
	}
	return res.Value.Unmarshal(out)
}

func (rp *rodPage) OuterHTML(ctx context.Context, selector string) (string, error) {
	el, err := rp.element(ctx, selector)
	if err != nil {
		return "", err
	}
	html, err := el.HTML()
	if err != nil {
		return "", fmt.Errorf("获取HTML失败 %s: %w", selector, err)
	}
	return html, nil
}

func (rp *rodPage) Listen(kind EventKind, fn func(NetworkEvent)) func() {
	listenCtx, cancel := context.WithCancel(context.Background())
	wait := rp.page.Context(listenCtx).EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			if kind == EventRequest && e.Request != nil {
				fn(NetworkEvent{Kind: EventRequest, RequestID: string(e.RequestID), URL: e.Request.URL, Method: e.Request.Method})
			}
		},
		func(e *proto.NetworkResponseReceived) {
			if kind == EventResponse && e.Response != nil {
				fn(NetworkEvent{Kind: EventResponse, RequestID: string(e.RequestID), URL: e.Response.URL, Status: e.Response.Status})
			}
		},
	)
	go wait()
	return cancel
}

func (rp *rodPage) Screenshot(ctx context.Context, path string) error {
	buf, err := rp.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return fmt.Errorf("截图失败: %w", err)
	}
	return os.WriteFile(path, buf, 0o644)
}

func (rp *rodPage) SetUserAgent(ctx context.Context, userAgent string) error {
	return rp.page.Context(ctx).SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent})
}

func (rp *rodPage) Close() error {
	return rp.browser.Close()
}
