package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Mailjet    MailjetConfig
	SSLCommerz SSLCommerzConfig
	Cloudinary CloudinaryConfig
	Redis      RedisConfig
}

type AppConfig struct {
	Name        string
	Version     string
	Environment string
	// BackendURL is the public base URL embedded in payment callback links.
	BackendURL string
}

type ServerConfig struct {
	Port string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey string
}

type MailjetConfig struct {
	MailjetBaseUrl           string
	MailjetBasicAuthUsername string
	MailjetBasicAuthPassword string
	MailjetSenderEmail       string
	MailjetSenderName        string
}

type SSLCommerzConfig struct {
	StoreID       string
	StorePassword string
	SessionURL    string
	Currency      string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

type RedisConfig struct {
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, errors.New("invalid redis database number")
	}

	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "LaptopVision API"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			BackendURL:  getEnv("BACKEND_URL", "http://localhost:8080"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "laptop_vision"),
			SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey: getEnv("JWT_SECRET", ""),
		},
		Mailjet: MailjetConfig{
			MailjetBaseUrl:           getEnv("MAILJET_BASE_URL", "https://api.mailjet.com"),
			MailjetBasicAuthUsername: getEnv("MAILJET_BASIC_AUTH_USERNAME", ""),
			MailjetBasicAuthPassword: getEnv("MAILJET_BASIC_AUTH_PASSWORD", ""),
			MailjetSenderEmail:       getEnv("MAILJET_SENDER_EMAIL", ""),
			MailjetSenderName:        getEnv("MAILJET_SENDER_NAME", "LaptopVision"),
		},
		SSLCommerz: SSLCommerzConfig{
			StoreID:       getEnv("SSLC_STORE_ID", ""),
			StorePassword: getEnv("SSLC_STORE_PASS", ""),
			SessionURL:    getEnv("SSLC_SESSION_URL", "https://sandbox.sslcommerz.com/gwprocess/v3/api.php"),
			Currency:      getEnv("SSLC_CURRENCY", "BDT"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
			APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
			APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			Folder:    getEnv("CLOUDINARY_FOLDER", "laptopVision"),
		},
		Redis: RedisConfig{
			RedisHost:     getEnv("REDIS_HOST", "localhost"),
			RedisPort:     getEnv("REDIS_PORT", "6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       redisDB,
		},
	}

	if cfg.JWT.SecretKey == "" {
		return nil, errors.New("missing jwt secret")
	}

	if cfg.Database.Password == "" {
		return nil, errors.New("missing database password")
	}

	if cfg.SSLCommerz.StoreID == "" || cfg.SSLCommerz.StorePassword == "" {
		return nil, errors.New("missing sslcommerz store credentials")
	}

	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultVal
}
