package main

import (
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	Environment    string   `mapstructure:"ENVIRONMENT"`
	Version        string   `mapstructure:"VERSION"`
	TrustedOrigins []string `mapstructure:"TRUSTED_ORIGINS"`
	TLSCertFile    string   `mapstructure:"TLS_CERT_FILE"`
	TLSKeyFile     string   `mapstructure:"TLS_KEY_FILE"`
	SiteURL        string   `mapstructure:"SITE_URL"`

	LimiterEnabled bool    `mapstructure:"LIMITER_ENABLED"`
	LimiterRPS     float64 `mapstructure:"LIMITER_RPS"`
	LimiterBurst   int     `mapstructure:"LIMITER_BURST"`

	// StoreBackend is one of appwrite, postgres or memory.
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	AppwriteURL          string `mapstructure:"APPWRITE_URL"`
	AppwriteProjectID    string `mapstructure:"APPWRITE_PROJECT_ID"`
	AppwriteAPIKey       string `mapstructure:"APPWRITE_API_KEY"`
	AppwriteDatabaseID   string `mapstructure:"APPWRITE_DATABASE_ID"`
	AppwriteCollectionID string `mapstructure:"APPWRITE_COLLECTION_ID"`
	AppwriteBucketID     string `mapstructure:"APPWRITE_BUCKET_ID"`

	DBHost         string `mapstructure:"POSTGRES_HOST"`
	DBPort         string `mapstructure:"POSTGRES_PORT"`
	DBUser         string `mapstructure:"POSTGRES_USER"`
	DBPassword     string `mapstructure:"POSTGRES_PASSWORD"`
	DBName         string `mapstructure:"POSTGRES_DB"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3Bucket          string `mapstructure:"S3_BUCKET"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`

	AIProxyURL      string `mapstructure:"AI_PROXY_URL"`
	AIAPIKey        string `mapstructure:"AI_API_KEY"`
	AIModel         string `mapstructure:"AI_MODEL"`
	AIEndpoint      string `mapstructure:"AI_ENDPOINT"`
	AIRatePerMinute int    `mapstructure:"AI_RATE_PER_MINUTE"`
	ImageSourceURL  string `mapstructure:"IMAGE_SOURCE_URL"`

	RedisURL string `mapstructure:"REDIS_URL"`

	MailHost     string `mapstructure:"MAIL_HOST"`
	MailPort     int    `mapstructure:"MAIL_PORT"`
	MailUser     string `mapstructure:"MAIL_USER"`
	MailPassword string `mapstructure:"MAIL_PASSWORD"`
	MailSender   string `mapstructure:"MAIL_SENDER"`

	MQHost     string `mapstructure:"RABBITMQ_HOST"`
	MQPort     string `mapstructure:"RABBITMQ_PORT"`
	MQUser     string `mapstructure:"RABBITMQ_USER"`
	MQPassword string `mapstructure:"RABBITMQ_PASSWORD"`
}

// Every key needs a default so that environment variables are picked up by Unmarshal.
var configDefaults = map[string]any{
	"PORT":                   "4000",
	"ENVIRONMENT":            "development",
	"VERSION":                "1.0.0",
	"TRUSTED_ORIGINS":        "",
	"TLS_CERT_FILE":          "",
	"TLS_KEY_FILE":           "",
	"SITE_URL":               "http://localhost:4000",
	"LIMITER_ENABLED":        true,
	"LIMITER_RPS":            10,
	"LIMITER_BURST":          20,
	"STORE_BACKEND":          "memory",
	"APPWRITE_URL":           "",
	"APPWRITE_PROJECT_ID":    "",
	"APPWRITE_API_KEY":       "",
	"APPWRITE_DATABASE_ID":   "",
	"APPWRITE_COLLECTION_ID": "",
	"APPWRITE_BUCKET_ID":     "",
	"POSTGRES_HOST":          "",
	"POSTGRES_PORT":          "5432",
	"POSTGRES_USER":          "",
	"POSTGRES_PASSWORD":      "",
	"POSTGRES_DB":            "",
	"MIGRATIONS_PATH":        "file://migrations",
	"S3_ENDPOINT":            "",
	"S3_REGION":              "",
	"S3_BUCKET":              "",
	"S3_ACCESS_KEY_ID":       "",
	"S3_SECRET_ACCESS_KEY":   "",
	"AI_PROXY_URL":           "",
	"AI_API_KEY":             "",
	"AI_MODEL":               "sonar-pro",
	"AI_ENDPOINT":            "https://api.perplexity.ai/chat/completions",
	"AI_RATE_PER_MINUTE":     20,
	"IMAGE_SOURCE_URL":       "https://picsum.photos",
	"REDIS_URL":              "",
	"MAIL_HOST":              "",
	"MAIL_PORT":              587,
	"MAIL_USER":              "",
	"MAIL_PASSWORD":          "",
	"MAIL_SENDER":            "Blogify <no-reply@blogify.local>",
	"RABBITMQ_HOST":          "",
	"RABBITMQ_PORT":          "5672",
	"RABBITMQ_USER":          "guest",
	"RABBITMQ_PASSWORD":      "guest",
}

// loadConfig reads the env file at path when it exists. Environment variables
// take precedence over the file.
func loadConfig(path string) (*Config, error) {
	v := viper.New()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("env")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
