package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

//go:embed default.json
var defaultConfig []byte

// 凭据所在的环境变量
const (
	EnvLogin      = "login"
	EnvPassword   = "password"
	EnvChromePath = "CHROME_PATH"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default 返回内嵌的默认配置
func Default() (*Config, error) {
	return ParseConfig(defaultConfig)
}

// ParseConfig 解析JSON配置,未出现的字段沿用内嵌默认值
func ParseConfig(byteConfig []byte) (*Config, error) {
	var cfg Config
	if err := json.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("解析默认配置失败: %w", err)
	}
	if err := json.Unmarshal(byteConfig, &cfg); err != nil {
		return nil, err
	}
	if cfg.Browser.UserDataDir != "" {
		absPath, err := filepath.Abs(cfg.Browser.UserDataDir)
		if err != nil {
			return nil, err
		}
		cfg.Browser.UserDataDir = absPath
	}
	return &cfg, nil
}

// LoadFile 读取配置文件,path为空时使用内嵌默认配置
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}
	return ParseConfig(data)
}

// LoadCredentials 从.env文件(若存在)与环境变量读取凭据
// .env不会覆盖已经存在的环境变量
func LoadCredentials(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("加载%s失败: %w", envFile, err)
		}
	}
	cfg.Credentials = Credentials{
		Login:      os.Getenv(EnvLogin),
		Password:   os.Getenv(EnvPassword),
		ChromePath: os.Getenv(EnvChromePath),
	}
	if cfg.Credentials.ChromePath != "" && cfg.Browser.Bin == "" {
		cfg.Browser.Bin = cfg.Credentials.ChromePath
	}
	return nil
}

// Validate 在工作流启动之前检查配置,缺失凭据属于配置错误
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("配置无效: %s 未通过 %q 校验", verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("配置无效: %w", err)
	}
	if _, ok := cfg.Selectors.RecencyOptions[recencyKey(cfg.Search.Recency)]; !ok {
		return fmt.Errorf("配置无效: 缺少发布时间筛选项 %q 的选择器", recencyKey(cfg.Search.Recency))
	}
	return nil
}

func recencyKey(r string) string {
	if r == "" {
		return "any"
	}
	return r
}
