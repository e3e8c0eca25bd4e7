package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/caiorodrigo10/Operabase-sub001/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"operabase"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

// WhatsAppOptions configures the outbound messaging gateway
// (an Evolution-API compatible HTTP endpoint).
type WhatsAppOptions struct {
	BaseURL     string        `env:"WHATSAPP_BASE_URL"`
	APIKey      string        `env:"WHATSAPP_API_KEY"`
	Instance    string        `env:"WHATSAPP_INSTANCE" envDefault:"default"`
	SendTimeout time.Duration `env:"WHATSAPP_SEND_TIMEOUT" envDefault:"30s"`
}

// StorageOptions configures the Supabase Storage blob adapter.
type StorageOptions struct {
	SupabaseURL  string        `env:"SUPABASE_URL"`
	SupabaseKey  string        `env:"SUPABASE_SERVICE_KEY"`
	Bucket       string        `env:"STORAGE_BUCKET" envDefault:"conversation-attachments"`
	SignedURLTTL time.Duration `env:"STORAGE_SIGNED_URL_TTL" envDefault:"24h"`
}

type TranscriptionOptions struct {
	Enabled   bool   `env:"TRANSCRIPTION_ENABLED" envDefault:"true"`
	OpenAIKey string `env:"OPENAI_KEY"`
	Model     string `env:"TRANSCRIPTION_MODEL" envDefault:"whisper-1"`
}

// PauseOptions configures the auto-pause reaper and the fallback pause
// window used when a clinic has no explicit configuration row.
type PauseOptions struct {
	ReaperInterval  time.Duration `env:"PAUSE_REAPER_INTERVAL" envDefault:"30s"`
	ReaperBatchSize int           `env:"PAUSE_REAPER_BATCH_SIZE" envDefault:"100"`
	DefaultDuration int           `env:"PAUSE_DEFAULT_DURATION" envDefault:"30"`
	DefaultUnit     string        `env:"PAUSE_DEFAULT_UNIT" envDefault:"minutes"`
}

func (p *PauseOptions) Validate() error {
	if p.ReaperInterval <= 0 {
		return fmt.Errorf("pause reaper interval must be positive, got %s", p.ReaperInterval)
	}
	if p.ReaperBatchSize <= 0 {
		return fmt.Errorf("pause reaper batch size must be positive, got %d", p.ReaperBatchSize)
	}
	switch p.DefaultUnit {
	case "minutes", "hours", "days":
	default:
		return fmt.Errorf("invalid PAUSE_DEFAULT_UNIT=%q (expected minutes|hours|days)", p.DefaultUnit)
	}
	return nil
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// DeliveryOptions bounds the fire-and-forget outbound dispatch workers.
type DeliveryOptions struct {
	Workers         int           `env:"DELIVERY_WORKERS" envDefault:"4"`
	QueueSize       int           `env:"DELIVERY_QUEUE_SIZE" envDefault:"256"`
	DispatchTimeout time.Duration `env:"DELIVERY_DISPATCH_TIMEOUT" envDefault:"30s"`
}

type Configuration struct {
	Database      DatabaseOptions
	WhatsApp      WhatsAppOptions
	Storage       StorageOptions
	Transcription TranscriptionOptions
	Pause         PauseOptions
	Prometheus    PrometheusOptions
	Delivery      DeliveryOptions

	RedisURL         string `env:"REDIS_URL" envDefault:"localhost:6379"`
	ServerPort       int    `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string `env:"-"`
	Domain           string `env:"DOMAIN" envDefault:"localhost"`
	Origin           string `env:"ORIGIN" envDefault:"http://localhost:3200"`
	MaxUploadSize    int64  `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Looked up in the request; a random uuidv4 is generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	RealIPHeader    string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production { // assume 'https' on production mode
		return "https"
	}
	return "http"
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}

	if err := c.Pause.Validate(); err != nil {
		return fmt.Errorf("pause configuration error: %w", err)
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}

	c.WhatsApp.BaseURL = strings.TrimRight(c.WhatsApp.BaseURL, "/")
	c.Storage.SupabaseURL = strings.TrimRight(c.Storage.SupabaseURL, "/")

	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
