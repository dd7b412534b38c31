package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/LouYuanbo1/jobcrawler/internal/config"
	"github.com/LouYuanbo1/jobcrawler/internal/domain/entity"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/browser"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/persistence"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/persistence/es"
	"github.com/LouYuanbo1/jobcrawler/internal/infra/persistence/jsonfile"
	"github.com/LouYuanbo1/jobcrawler/internal/logger"
	"github.com/LouYuanbo1/jobcrawler/internal/service/scraper"
	"github.com/LouYuanbo1/jobcrawler/param"
	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	envFile    string
	driver     string
	recency    string
	output     string
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "jobcrawler [query] [location] [maxPages]",
	Short: "jobcrawler logs into LinkedIn, searches jobs and writes the results to a JSON file.",
	Args:  cobra.MaximumNArgs(3),
	// 错误由ExecuteContext统一输出
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts, args)
	},
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "JSON config file, defaults to the embedded config")
	flags.StringVar(&opts.envFile, "env", ".env", "dotenv file with login/password/CHROME_PATH")
	flags.StringVar(&opts.driver, "driver", "", "browser driver: chromedp or rod")
	flags.StringVar(&opts.recency, "recency", "", "date posted filter: any, day, week or month")
	flags.StringVarP(&opts.output, "output", "o", "", "output JSON path")
}

// ExecuteContext 运行根命令,按运行结果设置进程退出码
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(scraper.ExitCode(err))
	}
}

// parseArgs 位置参数依次为 查询词 地点 最大页数,缺省时使用默认值
func parseArgs(args []string, recency entity.Recency) (*param.Search, error) {
	query, location, maxPages := param.DefaultQuery, param.DefaultLocation, param.DefaultMaxPages
	if len(args) > 0 && args[0] != "" {
		query = args[0]
	}
	if len(args) > 1 && args[1] != "" {
		location = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("maxPages must be a positive integer, got %q", args[2])
		}
		maxPages = n
	}
	return param.NewSearch(query, location, maxPages, recency), nil
}

// loadConfig 读取配置与凭据,命令行参数优先于配置文件
func loadConfig(o options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFile(o.configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		return nil, err
	}
	if o.driver != "" {
		cfg.Driver = o.driver
	}
	if o.recency != "" {
		cfg.Search.Recency = o.recency
	}
	if o.output != "" {
		cfg.Output.JSONPath = o.output
	}
	if err := config.LoadCredentials(cfg, o.envFile); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildSink(cfg *config.Config, criteria entity.SearchCriteria, log *logger.Logger) (persistence.Sink, error) {
	sinks := []persistence.Sink{jsonfile.NewWriter(cfg.Output.JSONPath)}
	if cfg.Output.Elasticsearch.Address != "" {
		esClient, err := es.InitJobEsClient(cfg, criteria, log.With("sink", "elasticsearch"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, esClient)
	}
	return persistence.Multi(sinks...), nil
}

func run(ctx context.Context, o options, args []string) error {
	// 配置错误在启动浏览器之前就结束运行
	cfg, err := loadConfig(o)
	if err != nil {
		return err
	}
	recency, err := entity.ParseRecency(cfg.Search.Recency)
	if err != nil {
		return err
	}
	params, err := parseArgs(args, recency)
	if err != nil {
		return err
	}

	log := logger.NewLogger(cfg.LogLevel, cfg.LogTag)
	sink, err := buildSink(cfg, params.Criteria, log)
	if err != nil {
		return err
	}

	page, err := browser.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("初始化浏览器失败: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("关闭浏览器失败", "err", err)
		}
	}()

	wf := scraper.NewWorkflow(page, cfg, log)
	_, err = wf.RunAndFlush(ctx, params, sink)
	return err
}
