package scraper

import (
	"context"
	"fmt"
	"time"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
)

type SessionState int

const (
	Unauthenticated SessionState = iota
	Authenticated
)

func (s SessionState) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

type sessionController struct {
	page        browser.Page
	sel         config.Selectors
	loginURL    string
	creds       config.Credentials
	stepTimeout time.Duration
	log         *logger.Logger
}

// Probe 打开登录页判断会话是否有效
// 配置了会话标记时以标记为准,否则登录表单不存在即视为已登录
func (sc *sessionController) Probe(ctx context.Context) (SessionState, error) {
	ctx, cancel := context.WithTimeout(ctx, sc.stepTimeout)
	defer cancel()

	if err := sc.page.Navigate(ctx, sc.loginURL); err != nil {
		return Unauthenticated, err
	}
	if sc.sel.SessionMarker != "" {
		ok, err := sc.page.Has(ctx, sc.sel.SessionMarker)
		if err != nil {
			return Unauthenticated, err
		}
		if ok {
			return Authenticated, nil
		}
	}
	hasLogin, err := sc.page.Has(ctx, sc.sel.UsernameInput)
	if err != nil {
		return Unauthenticated, err
	}
	if !hasLogin {
		return Authenticated, nil
	}
	return Unauthenticated, nil
}

// Authenticate 填写凭据并提交,等待登录后的页面加载完成
// 凭据错误与页面结构变化都表现为本阶段的超时或元素缺失
func (sc *sessionController) Authenticate(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, sc.stepTimeout)
	defer cancel()

	if err := sc.page.Type(ctx, sc.sel.UsernameInput, sc.creds.Login); err != nil {
		return err
	}
	if err := sc.page.Type(ctx, sc.sel.PasswordInput, sc.creds.Password); err != nil {
		return err
	}
	sc.log.Info("try to sign in..")
	if err := sc.page.ClickAndWaitNavigation(ctx, sc.sel.SignInButton); err != nil {
		return err
	}
	if sc.sel.SessionMarker != "" {
		if err := sc.page.WaitVisible(ctx, sc.sel.SessionMarker); err != nil {
			return fmt.Errorf("登录后未出现会话标记: %w", err)
		}
	}
	return nil
}

// Ensure 保证返回前处于Authenticated状态
func (sc *sessionController) Ensure(ctx context.Context) (SessionState, error) {
	state, err := sc.Probe(ctx)
	if err != nil {
		return state, err
	}
	if state == Authenticated {
		sc.log.Info("session already active")
		return state, nil
	}
	if err := sc.Authenticate(ctx); err != nil {
		return Unauthenticated, err
	}
	return Authenticated, nil
}
