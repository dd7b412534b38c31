package config

import "time"

const (
	DriverChromedp = "chromedp"
	DriverRod      = "rod"
)

type Config struct {
	Driver   string `json:"driver" validate:"oneof=chromedp rod"`
	LogLevel string `json:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogTag   string `json:"log_tag"`

	Browser struct {
		LifeTime           int    `json:"life_time" validate:"gte=0"`
		UserDataDir        string `json:"user_data_dir"`
		Headless           bool   `json:"headless"`
		DisableDevShmUsage bool   `json:"disable_dev_shm_usage"`
		NoSandbox          bool   `json:"no_sandbox"`
		UserAgent          string `json:"user_agent"`
		Leakless           bool   `json:"leakless"`
		Bin                string `json:"bin"`
	} `json:"browser"`

	Site struct {
		LoginURL string `json:"login_url" validate:"required,url"`
		JobsURL  string `json:"jobs_url" validate:"required,url"`
		// 筛选生效与翻页时结果集刷新所触发请求的URL片段
		UpdateEventURL string `json:"update_event_url" validate:"required"`
	} `json:"site"`

	Search struct {
		Recency string `json:"recency" validate:"omitempty,oneof=any day week month"`
	} `json:"search"`

	Selectors Selectors `json:"selectors"`

	Timing struct {
		StepTimeoutSeconds   int `json:"step_timeout_seconds" validate:"gt=0"`
		SettleTimeoutSeconds int `json:"settle_timeout_seconds" validate:"gt=0"`
		ScrollPauseMillis    int `json:"scroll_pause_millis" validate:"gte=0"`
		DefaultScrollSteps   int `json:"default_scroll_steps" validate:"gt=0"`
	} `json:"timing"`

	Output struct {
		JSONPath    string `json:"json_path" validate:"required"`
		SnapshotDir string `json:"snapshot_dir"`

		Elasticsearch struct {
			Address  string `json:"address" validate:"omitempty,url"`
			Username string `json:"username"`
			Password string `json:"password"`
			Index    string `json:"index" validate:"required_with=Address"`
		} `json:"elasticsearch"`
	} `json:"output"`

	// 以下字段来自环境变量,不出现在配置文件中
	Credentials Credentials `json:"-"`
}

// Credentials 登录凭据,对核心流程来说是不透明的字符串
type Credentials struct {
	Login      string `validate:"required"`
	Password   string `validate:"required"`
	ChromePath string
}

// Selectors 逻辑元素名到具体选择器的映射表
type Selectors struct {
	UsernameInput   string `json:"username_input" validate:"required"`
	PasswordInput   string `json:"password_input" validate:"required"`
	SignInButton    string `json:"sign_in_button" validate:"required"`
	SessionMarker   string `json:"session_marker"`
	MessagesOverlay string `json:"messages_overlay"`
	MessagesButton  string `json:"messages_button"`

	SearchTitleInput    string `json:"search_title_input" validate:"required"`
	SearchLocationInput string `json:"search_location_input" validate:"required"`
	SearchSubmit        string `json:"search_submit" validate:"required"`
	DatePostedButton    string `json:"date_posted_button" validate:"required"`
	// 每个发布时间筛选项对应的选项选择器
	RecencyOptions map[string]string `json:"recency_options" validate:"required"`
	ApplyButton    string            `json:"apply_button" validate:"required"`

	JobsContainer  string `json:"jobs_container" validate:"required"`
	JobCard        string `json:"job_card" validate:"required"`
	JobTitle       string `json:"job_title" validate:"required"`
	Company        string `json:"company" validate:"required"`
	CompanyLink    string `json:"company_link" validate:"required"`
	PostedTime     string `json:"posted_time" validate:"required"`
	Pagination     string `json:"pagination" validate:"required"`
	CurrentPageBtn string `json:"current_page_btn" validate:"required"`
}

func (c *Config) StepTimeout() time.Duration {
	return time.Duration(c.Timing.StepTimeoutSeconds) * time.Second
}

func (c *Config) SettleTimeout() time.Duration {
	return time.Duration(c.Timing.SettleTimeoutSeconds) * time.Second
}

func (c *Config) ScrollPause() time.Duration {
	return time.Duration(c.Timing.ScrollPauseMillis) * time.Millisecond
}
