package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば POSTGRES_* より優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string        // JWT署名シークレット
	AccessTTL time.Duration // アクセストークンの有効期限（15分）

	GoEnv    string // dev/prod
	FEURL    string // フロントURL（CORS）
	LogLevel string // debug/info/warn/error

	RedisURL           string        // 空ならカートはメモリ保存
	CartTTL            time.Duration // Redis上のカートの寿命
	CartPersistTimeout time.Duration // 1回の保存の上限

	KafkaBrokers     []string // 空ならイベントはログに出すだけ
	KafkaTopicOrders string

	AdminEmail    string // 起動時に管理者を作る
	AdminPassword string

	ShutdownTimeout time.Duration
}

// Loadは環境変数から読む。.env があれば先に読み込む。
func Load() (Config, error) {
	// 無くてもよい
	_ = godotenv.Load()

	var errs []error

	pgPort, err := intEnv("POSTGRES_PORT", 5432)
	errs = append(errs, err)
	cartTTL, err := durationEnv("CART_TTL", 7*24*time.Hour)
	errs = append(errs, err)
	persistTimeout, err := durationEnv("CART_PERSIST_TIMEOUT", 2*time.Second)
	errs = append(errs, err)
	shutdown, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	errs = append(errs, err)

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     getenv("POSTGRES_USER", "postgres"),
		PostgresPassword: getenv("POSTGRES_PASSWORD", "postgres"),
		PostgresDB:       getenv("POSTGRES_DB", "restaurant"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		AccessTTL: 15 * time.Minute,

		GoEnv:    getenv("GO_ENV", "dev"),
		FEURL:    getenv("FE_URL", "http://localhost:3000"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		RedisURL:           os.Getenv("REDIS_URL"),
		CartTTL:            cartTTL,
		CartPersistTimeout: persistTimeout,

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicOrders: getenv("KAFKA_TOPIC_ORDERS", "orders"),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		ShutdownTimeout: shutdown,
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate は必須項目と値の範囲を確認する。
func (c Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 bytes in prod")
	}
	if c.DatabaseURL == "" && c.PostgresHost == "" {
		return fmt.Errorf("DATABASE_URL or POSTGRES_HOST is required")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug/info/warn/error: %q", c.LogLevel)
	}
	if c.CartPersistTimeout <= 0 {
		return fmt.Errorf("CART_PERSIST_TIMEOUT must be positive")
	}
	if c.CartTTL < 0 {
		return fmt.Errorf("CART_TTL must not be negative")
	}
	// 片方だけは設定ミス
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return fmt.Errorf("ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	if c.AdminPassword != "" && len(c.AdminPassword) < 8 {
		return fmt.Errorf("ADMIN_PASSWORD must be at least 8 characters")
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopicOrders == "" {
		return fmt.Errorf("KAFKA_TOPIC_ORDERS is required when KAFKA_BROKERS is set")
	}
	return nil
}

// PostgresDSN は接続文字列を返す。DATABASE_URL が最優先。
func (c Config) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Addr はlisten用のアドレス
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration (e.g. 30s, 24h): %w", key, err)
	}
	return d, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// 本番ではcookieにSecureを付ける
func (c Config) IsProduction() bool {
	switch strings.ToLower(c.GoEnv) {
	case "prod", "production":
		return true
	}
	return false
}
