package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	AppPort  string
	LogLevel string

	// DBDriver is mysql, postgres or sqlite. DBDSN, when set, wins over the
	// per-driver settings below.
	DBDriver string
	DBDSN    string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	SQLitePath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	IdempTTLSecs int

	// PendingStore selects where OTP-gated transactions wait: memory or redis.
	PendingStore string

	JWTSecret string

	RateLimitRPS   float64
	RateLimitBurst int

	// Notifier is log, sendgrid or sms.
	Notifier       string
	SendGridAPIKey string
	SendGridFrom   string
	SMSGatewayURL  string
	SMSGatewayKey  string

	KafkaBrokers []string
	KafkaTopic   string
	PollInterval time.Duration

	PolicyFile string
	Policy     Policy
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads .env (if present), then the environment, then the policy file
// named by POLICY_FILE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	c := &Config{
		AppEnv:   getenv("APP_ENV", "dev"),
		AppPort:  getenv("APP_PORT", "8080"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DBDriver:  getenv("DB_DRIVER", "mysql"),
		DBDSN:     os.Getenv("DB_DSN"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "p2plend"),
		MySQLUser: getenv("MYSQL_USER", "p2plend"),
		MySQLPass: getenv("MYSQL_PASS", "p2plend"),

		SQLitePath: getenv("SQLITE_PATH", "p2plend.db"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getint("REDIS_DB", 0),
		IdempTTLSecs:  getint("IDEMPOTENCY_TTL_SECONDS", 300),

		PendingStore: getenv("PENDING_STORE", "redis"),
		JWTSecret:    os.Getenv("JWT_SECRET"),

		RateLimitRPS:   5,
		RateLimitBurst: getint("RATE_LIMIT_BURST", 10),

		Notifier:       getenv("NOTIFIER", "log"),
		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		SendGridFrom:   getenv("SENDGRID_FROM", "no-reply@p2plend.local"),
		SMSGatewayURL:  os.Getenv("SMS_GATEWAY_URL"),
		SMSGatewayKey:  os.Getenv("SMS_GATEWAY_KEY"),

		KafkaBrokers: splitList(getenv("KAFKA_BROKERS", "kafka:9092")),
		KafkaTopic:   getenv("KAFKA_TOPIC", "ledger-events"),
		PollInterval: time.Second,

		PolicyFile: os.Getenv("POLICY_FILE"),
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RateLimitRPS = f
		}
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PollInterval = d
		}
	}

	c.Policy = DefaultPolicy(c.AppEnv)
	if c.PolicyFile != "" {
		if err := c.Policy.LoadFile(c.PolicyFile); err != nil {
			return nil, fmt.Errorf("policy file %s: %w", c.PolicyFile, err)
		}
	}
	if v := os.Getenv("OTP_ECHO_CODE_ON_FAILURE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Policy.EchoCodeOnFailure = b
		}
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case "mysql":
		if c.DBDSN == "" {
			if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
				return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
			}
			// ensure port is valid
			if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
				return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
			}
		}
	case "postgres":
		if c.DBDSN == "" {
			return errors.New("postgres requires DB_DSN")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.PendingStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported PENDING_STORE %q", c.PendingStore)
	}
	switch c.Notifier {
	case "log":
	case "sendgrid":
		if c.SendGridAPIKey == "" {
			return errors.New("NOTIFIER=sendgrid requires SENDGRID_API_KEY")
		}
	case "sms":
		if c.SMSGatewayURL == "" {
			return errors.New("NOTIFIER=sms requires SMS_GATEWAY_URL")
		}
	default:
		return fmt.Errorf("unsupported NOTIFIER %q", c.Notifier)
	}
	if c.JWTSecret == "" {
		return errors.New("missing JWT_SECRET")
	}
	return c.Policy.Validate()
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

// DSN is the connection string for the selected driver.
func (c *Config) DSN() string {
	if c.DBDSN != "" {
		return c.DBDSN
	}
	switch c.DBDriver {
	case "sqlite":
		return c.SQLitePath
	default:
		return c.MySQLDSN()
	}
}
