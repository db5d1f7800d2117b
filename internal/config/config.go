package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Cfg struct {
	App        App
	Database   Database
	Logger     Logger
	OpenAI     OpenAI
	Browser    Browser
	Chat       Chat
	Sheets     Sheets
	Jobs       Jobs
	Nav        Nav
	Migrations Migrations
}

type App struct {
	Host string
	Port string
}

// Addr - адрес HTTP API.
func (a App) Addr() string { return a.Host + ":" + a.Port }

type Database struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	// Enabled - без БД задачи работают, но обмены с ассистентом и результаты не сохраняются.
	Enabled bool
}

type Migrations struct {
	Path string
}

type Logger struct {
	Env   string
	Level string
}

type OpenAI struct {
	KeyAI     string
	Model     string
	MaxTokens int
	// RateLimit - минимальный интервал между запросами.
	RateLimit time.Duration
}

type Browser struct {
	// CDPURL - адрес DevTools уже запущенного Chrome (--remote-debugging-port).
	CDPURL            string
	ConnectTimeout    time.Duration
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	ScreenshotWidth   int
	ScreenshotHeight  int
	ScreenshotDir     string
}

type Chat struct {
	// Backend: "web" - чат в том же браузере, "openai" - API.
	Backend         string
	URL             string
	ResponseTimeout time.Duration
	StableFor       time.Duration
}

type Sheets struct {
	CredentialsFile string
	WebsiteCol      string
	PhoneCol        string
	FirstCol        string
	LastCol         string
	DoctorsCol      string
	MaxRetries      int
	RetryBaseDelay  time.Duration
}

type Jobs struct {
	BatchLimit   int
	Cooldown     time.Duration
	PollInterval time.Duration
	// Watch - после обработки всей колонки продолжать ждать новые сайты.
	Watch         bool
	WatchInterval time.Duration
	SiteDelay     time.Duration
}

type Nav struct {
	MinConfidence int
	MaxLinks      int
}

func Load() (*Cfg, error) {
	_ = godotenv.Load()

	cfg := &Cfg{
		App: App{
			Host: env("APP_HOST", "127.0.0.1"),
			Port: env("APP_PORT", "5000"),
		},
		Database: Database{
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			Name:     os.Getenv("DB_NAME"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASS"),
			Enabled:  os.Getenv("DB_HOST") != "",
		},
		Logger: Logger{
			Env:   env("ENV", "dev"),
			Level: env("LOG_LEVEL", "info"),
		},
		OpenAI: OpenAI{
			KeyAI:     os.Getenv("OPENAI_API_KEY"),
			Model:     env("OPENAI_MODEL", "gpt-4o"),
			MaxTokens: envInt("OPENAI_MAX_TOKENS", 1000),
			RateLimit: envDuration("OPENAI_RATE_LIMIT", time.Second),
		},
		Browser: Browser{
			CDPURL:            env("CHROME_CDP_URL", "http://127.0.0.1:9222"),
			ConnectTimeout:    envDuration("BROWSER_CONNECT_TIMEOUT", 15*time.Second),
			NavigationTimeout: envDuration("BROWSER_NAV_TIMEOUT", 30*time.Second),
			ActionTimeout:     envDuration("BROWSER_ACTION_TIMEOUT", 5*time.Second),
			ScreenshotWidth:   envInt("SCREENSHOT_WIDTH", 1366),
			ScreenshotHeight:  envInt("SCREENSHOT_HEIGHT", 900),
			ScreenshotDir:     env("SCREENSHOT_DIR", ""),
		},
		Chat: Chat{
			Backend:         env("CHAT_BACKEND", "web"),
			URL:             env("CHAT_URL", "https://chatgpt.com/"),
			ResponseTimeout: envDuration("CHAT_RESPONSE_TIMEOUT", 90*time.Second),
			StableFor:       envDuration("CHAT_STABLE_FOR", 2*time.Second),
		},
		Sheets: Sheets{
			CredentialsFile: os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"),
			WebsiteCol:      env("SHEET_WEBSITE_COL", "K"),
			PhoneCol:        os.Getenv("SHEET_PHONE_COL"),
			FirstCol:        env("SHEET_FIRST_COL", "C"),
			LastCol:         env("SHEET_LAST_COL", "D"),
			DoctorsCol:      env("SHEET_DOCTORS_COL", "O"),
			MaxRetries:      envInt("SHEETS_MAX_RETRIES", 5),
			RetryBaseDelay:  envDuration("SHEETS_RETRY_BASE_DELAY", 2*time.Second),
		},
		Jobs: Jobs{
			BatchLimit:    envInt("BATCH_LIMIT", 80),
			Cooldown:      envDuration("BATCH_COOLDOWN", 30*time.Minute),
			PollInterval:  envDuration("JOB_POLL_INTERVAL", 500*time.Millisecond),
			Watch:         envBool("WATCH_MODE"),
			WatchInterval: envDuration("WATCH_INTERVAL", time.Minute),
			SiteDelay:     envDuration("SITE_DELAY", time.Second),
		},
		Nav: Nav{
			MinConfidence: envInt("NAV_MIN_CONFIDENCE", 90),
			MaxLinks:      envInt("NAV_MAX_LINKS", 120),
		},
		Migrations: Migrations{
			Path: env("MIGRATIONS_PATH", "file://migrations"),
		},
	}

	return cfg, nil
}

func env(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "true" || v == "1" || v == "yes"
}

// envDuration понимает как "30s"/"5m", так и голое число секунд.
func envDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
