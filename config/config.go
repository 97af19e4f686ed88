package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"onboardbuddy/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB        *gorm.DB
	AppConfig Config
	envLoaded bool
)

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

type OAuthConfig struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`
}

// StorageConfig points at a Supabase Storage bucket.
type StorageConfig struct {
	URL        string `json:"url"`
	ServiceKey string `json:"-"`
	Bucket     string `json:"bucket"`
}

type Config struct {
	Environment          string        `json:"environment"`
	Google               OAuthConfig   `json:"google"`
	EncryptionKey        string        `json:"-"`
	ServerPort           string        `json:"server_port"`
	DBHost               string        `json:"db_host"`
	DBPort               string        `json:"db_port"`
	DBUser               string        `json:"db_user"`
	DBPassword           string        `json:"-"`
	DBName               string        `json:"db_name"`
	DBSSLMode            string        `json:"db_ssl_mode"`
	DBMaxIdleConns       int           `json:"db_max_idle_conns"`
	DBMaxOpenConns       int           `json:"db_max_open_conns"`
	StripeSecretKey      string        `json:"-"`
	StripeWebhookSecret  string        `json:"-"`
	StripePremiumPriceID string        `json:"stripe_premium_price_id"`
	Redis                RedisConfig   `json:"redis"`
	SnapshotBackend      string        `json:"snapshot_backend"`
	Storage              StorageConfig `json:"storage"`
	SMTPHost             string        `json:"smtp_host"`
	SMTPPort             int           `json:"smtp_port"`
	SMTPUsername         string        `json:"smtp_username"`
	SMTPPassword         string        `json:"-"`
	FromEmail            string        `json:"from_email"`
	SentryDSN            string        `json:"-"`
	Timezone             string        `json:"timezone"`
	RateLimitUploads     int           `json:"rate_limit_uploads"`
	CORSOrigins          string        `json:"cors_origins"`
	SuperAdminEmails     []string      `json:"super_admin_emails"`
	FrontendURL          string        `json:"frontend_url"`
}

func init() {
	// .env is optional
	_ = godotenv.Load()
	envLoaded = true
}

func LoadConfig() error {
	AppConfig = Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Google: OAuthConfig{
			ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		},
		EncryptionKey:  getEnv("ENCRYPTION_KEY", ""),
		ServerPort:     getEnv("SERVER_PORT", "5000"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", ""),
		DBName:         getEnv("DB_NAME", "onboardbuddy"),
		DBSSLMode:      getEnv("DB_SSL_MODE", "disable"),
		DBMaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 10),
		DBMaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 100),

		StripeSecretKey:      getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePremiumPriceID: getEnv("STRIPE_PREMIUM_PRICE_ID", ""),

		Redis: RedisConfig{
			Enabled:  getEnv("REDIS_ENABLED", "false") == "true",
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		SnapshotBackend: getEnv("SNAPSHOT_BACKEND", "postgres"),
		Storage: StorageConfig{
			URL:        strings.TrimRight(getEnv("STORAGE_URL", ""), "/"),
			ServiceKey: getEnv("STORAGE_SERVICE_KEY", ""),
			Bucket:     getEnv("STORAGE_BUCKET", "onboard-buddy"),
		},

		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 587),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		FromEmail:    getEnv("FROM_EMAIL", "no-reply@onboardbuddy.app"),

		SentryDSN:        getEnv("SENTRY_DSN", ""),
		Timezone:         getEnv("TIMEZONE", "UTC"),
		RateLimitUploads: getEnvAsInt("RATE_LIMIT_UPLOADS", 20),
		CORSOrigins:      getEnv("CORS_ORIGINS", "http://localhost:3000"),
		SuperAdminEmails: splitList(getEnv("SUPER_ADMIN_EMAILS", "")),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	if AppConfig.DBPassword == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if AppConfig.EncryptionKey == "" {
		return fmt.Errorf("ENCRYPTION_KEY is required")
	}
	if AppConfig.SnapshotBackend != "postgres" && AppConfig.SnapshotBackend != "redis" {
		return fmt.Errorf("SNAPSHOT_BACKEND must be postgres or redis, got %q", AppConfig.SnapshotBackend)
	}
	if AppConfig.SnapshotBackend == "redis" && !AppConfig.Redis.Enabled {
		return fmt.Errorf("SNAPSHOT_BACKEND=redis requires REDIS_ENABLED=true")
	}
	if _, err := time.LoadLocation(AppConfig.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", AppConfig.Timezone, err)
	}
	if AppConfig.Environment == "production" {
		if AppConfig.StripeSecretKey == "" || AppConfig.StripeWebhookSecret == "" {
			return fmt.Errorf("Stripe credentials are required in production")
		}
		if AppConfig.Storage.URL == "" || AppConfig.Storage.ServiceKey == "" {
			return fmt.Errorf("STORAGE_URL and STORAGE_SERVICE_KEY are required in production")
		}
	}

	logConfig()
	return nil
}

// Location is the zone task dates are interpreted in.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func ConnectDB() error {
	log.Println("Attempting to connect to database...")

	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBSSLMode,
	)
	log.Println("Using connection string:", maskPassword(dsn))

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get DB instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(AppConfig.DBMaxIdleConns)
	sqlDB.SetMaxOpenConns(AppConfig.DBMaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	log.Println("✅ Successfully connected to the database")
	log.Println("🔄 Starting database migration...")
	if err := migrateDB(DB); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}
	log.Println("✅ Database migration completed")
	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	if !envLoaded && fallback == "" {
		log.Printf("⚠️ Environment variable %s not found and no fallback provided", key)
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	var value int
	_, err := fmt.Sscanf(valueStr, "%d", &value)
	if err != nil {
		return fallback
	}
	return value
}

// AllowedOrigins is the parsed CORS_ORIGINS list.
func (c Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToLower(part))
		}
	}
	return out
}

func maskPassword(dsn string) string {
	const passwordMarker = "password="
	startIdx := strings.Index(dsn, passwordMarker)
	if startIdx == -1 {
		return dsn
	}

	startIdx += len(passwordMarker)
	endIdx := strings.IndexAny(dsn[startIdx:], " ")
	if endIdx == -1 {
		return dsn[:startIdx] + "*****"
	}
	return dsn[:startIdx] + "*****" + dsn[startIdx+endIdx:]
}

func logConfig() {
	log.Println("🔧 Loaded configuration:")
	log.Printf("Environment: %s", AppConfig.Environment)
	log.Printf("Server Port: %s", AppConfig.ServerPort)
	log.Printf("Database: %s@%s:%s/%s",
		AppConfig.DBUser,
		AppConfig.DBHost,
		AppConfig.DBPort,
		AppConfig.DBName)
	log.Printf("Snapshots: %s, Redis(%t), Storage(%t), Timezone: %s",
		AppConfig.SnapshotBackend,
		AppConfig.Redis.Enabled,
		AppConfig.Storage.URL != "",
		AppConfig.Timezone)
	log.Printf("Google OAuth(%t), Stripe(%t), Sentry(%t)",
		AppConfig.Google.ClientID != "",
		AppConfig.StripeSecretKey != "",
		AppConfig.SentryDSN != "")
}

func migrateDB(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Subscription{},
		&models.StoreSnapshot{},
		&models.SharedWorkflow{},
		&models.ActivationCode{},
	); err != nil {
		return err
	}
	return models.BackfillSubscriptions(db)
}
