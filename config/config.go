package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
)

var (
	MAIN_ROUTES   string
	APP_PORT      string
	APP_NAME      string
	JWTSecret     string
	JWTExpiration int
	AccessTTL     int

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite string

	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPFrom       string
	NotifyImportTo []string

	AuditQueueSize    int
	SnowflakeNode     int64
	ImportInboxDir    string
	ImportDoneDir     string
	MaxUploadFileSize int

	allowedOrigins map[string]bool
)

// LoadConfig reads the .env file and initializes the configuration variables
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	// Server
	MAIN_ROUTES = getEnv("MAIN_ROUTES", "/api/v1")
	APP_PORT = getEnv("APP_PORT", "9000")
	APP_NAME = getEnv("APP_NAME", "condo-app")

	// JWT
	JWTSecret = getEnv("JWT_SECRET", "condo_app_key_secret")
	JWTExpiration = getEnvAsInt("JWT_EXPIRATION", 86400)
	AccessTTL = getEnvAsInt("JWT_ACCESS_TTL", 3600)

	// First administrator, created on an empty users table
	AdminUsername = getEnv("ADMIN_USERNAME", "admin")
	AdminEmail = getEnv("ADMIN_EMAIL", "admin@condo.local")
	AdminPassword = getEnv("ADMIN_PASSWORD", "")

	// Database
	DBDriver = getEnv("DB_DRIVER", "postgres")
	DBHost = getEnv("DB_HOST", "localhost")
	DBPort = getEnv("DB_PORT", "5432")
	DBUser = getEnv("DB_USER", "postgres")
	DBPassword = getEnv("DB_PASSWORD", "password")
	DBName = getEnv("DB_NAME", "condo_app")

	// Cookie
	CookieSecure = getEnvAsBool("COOKIE_SECURE", true)
	CookieHTTPOnly = getEnvAsBool("COOKIE_HTTPONLY", false)
	CookieSameSite = getEnv("COOKIE_SAMESITE", "None")

	// Mail notifications for finished imports; empty host disables them
	SMTPHost = getEnv("SMTP_HOST", "")
	SMTPPort = getEnvAsInt("SMTP_PORT", 465)
	SMTPUser = getEnv("SMTP_USER", "")
	SMTPPassword = getEnv("SMTP_PASSWORD", "")
	SMTPFrom = getEnv("SMTP_FROM", SMTPUser)
	NotifyImportTo = getEnvAsList("NOTIFY_IMPORT_TO")

	// Import engine
	AuditQueueSize = getEnvAsInt("AUDIT_QUEUE_SIZE", 256)
	SnowflakeNode = int64(getEnvAsInt("SNOWFLAKE_NODE", 1))
	ImportInboxDir = getEnv("IMPORT_INBOX_DIR", "./imports/unprocessed")
	ImportDoneDir = getEnv("IMPORT_DONE_DIR", "./imports/processed")
	MaxUploadFileSize = getEnvAsInt("MAX_UPLOAD_FILE_SIZE", 10*1024*1024)

	loadAllowedOrigins()
}

// getEnv reads an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsList splits a comma separated variable, skipping blanks
func getEnvAsList(key string) []string {
	var out []string
	for _, item := range strings.Split(getEnv(key, ""), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func loadAllowedOrigins() {
	allowedOrigins = make(map[string]bool)
	origins := getEnvAsList("ALLOWED_ORIGINS")

	if len(origins) == 0 {
		allowedOrigins = map[string]bool{
			"http://127.0.0.1:3000": true,
		}
		return
	}

	for _, origin := range origins {
		allowedOrigins[origin] = true
	}
}

func SetupCORS(app *fiber.App) {
	app.Use(func(c *fiber.Ctx) error {
		origin := c.Get("Origin")
		if allowedOrigins[origin] {
			c.Set("Access-Control-Allow-Origin", origin)
			c.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			c.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
			c.Set("Access-Control-Allow-Credentials", "true")
		}

		// Handle preflight request
		if c.Method() == fiber.MethodOptions {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.Next()
	})
}

func GetTokenCookie(token string) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     "refresh_token",
		Value:    token,
		Expires:  time.Now().Add(time.Duration(JWTExpiration) * time.Second),
		HTTPOnly: CookieHTTPOnly,
		SameSite: CookieSameSite,
		Path:     "/",
		Secure:   CookieSecure,
	}
}
