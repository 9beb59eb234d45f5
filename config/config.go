package config

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Env          string

	// Location is the clinic time zone every date window is resolved in
	Location *time.Location

	JWTSecret       string
	InvoiceFontPath string

	RedisURL       string
	GrowthCacheTTL time.Duration

	CloudinaryURL string

	SendgridAPIKey  string
	ReportEmailFrom string
	ReportEmailTo   string
	ReportCron      string

	// PrintRateLimit is the number of PDF renders allowed per second
	PrintRateLimit float64
}

// New sets up all config related services
func New() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_NAME", "clinic")
	v.SetDefault("ENV", "production")
	v.SetDefault("GROWTH_CACHE_TTL", "5m")
	v.SetDefault("REPORT_CRON", "0 21 * * *")
	v.SetDefault("PRINT_RATE_LIMIT", 5)

	//setup zap logger and replace default logger
	if _, err := setLogger(v.GetString("ENV")); err != nil {
		_ = zap.ReplaceGlobals(zap.NewExample())
		zap.S().Warnw("failed to build logger, using example logger", "error", err)
	}

	loc := time.Local
	if tz := v.GetString("CLINIC_TIMEZONE"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			zap.S().Warnw("unknown CLINIC_TIMEZONE, falling back to server local time", "tz", tz, "error", err)
		} else {
			loc = l
		}
	}

	return &Config{
		URL:             v.GetString("DB_URI"),
		DatabaseName:    v.GetString("DB_NAME"),
		BaseURL:         v.GetString("BASE_URL"),
		Port:            v.GetString("PORT"),
		Env:             v.GetString("ENV"),
		Location:        loc,
		JWTSecret:       v.GetString("JWT_SECRET"),
		InvoiceFontPath: v.GetString("INVOICE_FONT_PATH"),
		RedisURL:        v.GetString("REDIS_URL"),
		GrowthCacheTTL:  v.GetDuration("GROWTH_CACHE_TTL"),
		CloudinaryURL:   v.GetString("CLOUDINARY_URL"),
		SendgridAPIKey:  v.GetString("SENDGRID_API_KEY"),
		ReportEmailFrom: v.GetString("REPORT_EMAIL_FROM"),
		ReportEmailTo:   v.GetString("REPORT_EMAIL_TO"),
		ReportCron:      v.GetString("REPORT_CRON"),
		PrintRateLimit:  v.GetFloat64("PRINT_RATE_LIMIT"),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Server errors only carry the message, the cause
// stays in the logs.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)

	detail := ""
	if err != nil {
		detail = err.Error()
	}
	if httpStatusCode >= http.StatusInternalServerError {
		detail = http.StatusText(httpStatusCode)
	}

	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: detail},
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}
