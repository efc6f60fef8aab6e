package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/smartwaste/bin-registry/internal/constants"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

type StoreDriver string

const (
	StorePostgres StoreDriver = "postgres"
	StoreSQLite   StoreDriver = "sqlite"
	StoreMemory   StoreDriver = "memory"
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	Env              string

	// Storage
	StoreDriver StoreDriver
	DBUrl       string
	SQLitePath  string

	// Sticker cache (optional)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// External services
	GeolocationAPIURL string
	GMapsAPIKey       string
	TwilioAccountSID  string
	TwilioAuthToken   string
	SendGridAPIKey    string

	// Auth (optional; nil disables the bearer check)
	RSAPublicKey *rsa.PublicKey

	// Timeouts
	GeolocationTimeout time.Duration
	LogoTimeout        time.Duration

	// Sticker assets
	LogoSource      string
	FontSinhalaPath string
	FontTamilPath   string

	HolidayRegion string

	// LaunchDarkly flags (env fallbacks when LD_SDK_KEY is unset)
	LDFlag_TwilioFromPhone        string
	LDFlag_SendgridFromEmail      string
	LDFlag_SendgridSandboxMode    bool
	LDFlag_SeedDbWithTestData     bool
	LDFlag_CORSHighSecurity       bool
	LDFlag_SkipHolidayCollections bool
}

const (
	OrganizationName    = utils.OrganizationName
	DefaultAppName      = "bins-service"
	LDConnectionTimeout = 5 * time.Second
)

// build-time overrides
var (
	AppName             string
	LDServerContextKey  = "bins-service"
	LDServerContextKind = "service"
)

// LoadConfig reads .env (if present) and the process environment. Any
// missing required value is fatal.
func LoadConfig() *Config {
	if AppName == "" {
		AppName = DefaultAppName
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Logger.WithError(err).Warn("Failed to read .env file")
	}

	utils.Logger.Info("Loading config for app: ", AppName)

	cfg, err := loadFromEnv(os.Getenv)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	if sdkKey := os.Getenv("LD_SDK_KEY"); sdkKey != "" {
		if err := applyLDFlags(cfg, sdkKey); err != nil {
			utils.Logger.WithError(err).Fatal("Failed to load LaunchDarkly flags")
		}
	} else {
		utils.Logger.Info("LD_SDK_KEY not set, using env fallbacks for feature flags")
	}
	return cfg
}

func loadFromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		OrganizationName:  OrganizationName,
		AppName:           utils.FirstNonEmpty(AppName, DefaultAppName),
		AppPort:           utils.FirstNonEmpty(getenv("APP_PORT"), "8080"),
		Env:               utils.FirstNonEmpty(getenv("ENV"), "dev"),
		SQLitePath:        utils.FirstNonEmpty(getenv("SQLITE_PATH"), "data/bins.db"),
		RedisAddr:         getenv("REDIS_ADDR"),
		RedisPassword:     getenv("REDIS_PASSWORD"),
		GeolocationAPIURL: getenv("GEOLOCATION_API_URL"),
		GMapsAPIKey:       getenv("GMAPS_API_KEY"),
		TwilioAccountSID:  getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   getenv("TWILIO_AUTH_TOKEN"),
		SendGridAPIKey:    getenv("SENDGRID_API_KEY"),
		LogoSource:        getenv("STICKER_LOGO_SOURCE"),
		FontSinhalaPath:   getenv("STICKER_FONT_SINHALA"),
		FontTamilPath:     getenv("STICKER_FONT_TAMIL"),
		HolidayRegion:     utils.FirstNonEmpty(getenv("HOLIDAY_REGION"), "lk"),

		LDFlag_TwilioFromPhone:   utils.FirstNonEmpty(getenv("TWILIO_FROM_PHONE"), "+10005550006"),
		LDFlag_SendgridFromEmail: utils.FirstNonEmpty(getenv("SENDGRID_FROM_EMAIL"), "no-reply@smartwaste.dev"),
	}

	cfg.AppUrl = getenv("APP_URL_FROM_ANYWHERE")
	if cfg.AppUrl == "" {
		return nil, errors.New("APP_URL_FROM_ANYWHERE env var is missing")
	}

	cfg.StoreDriver = StoreDriver(strings.ToLower(utils.FirstNonEmpty(getenv("STORE_DRIVER"), string(StoreSQLite))))
	switch cfg.StoreDriver {
	case StorePostgres:
		cfg.DBUrl = getenv("DB_URL")
		if cfg.DBUrl == "" {
			return nil, errors.New("DB_URL env var is missing (STORE_DRIVER=postgres)")
		}
	case StoreSQLite, StoreMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	var err error
	if cfg.RedisDB, err = envInt(getenv, "REDIS_DB", 0); err != nil {
		return nil, err
	}
	if cfg.GeolocationTimeout, err = envDuration(getenv, "GEOLOCATION_TIMEOUT", constants.GeolocationTimeout); err != nil {
		return nil, err
	}
	if cfg.LogoTimeout, err = envDuration(getenv, "LOGO_TIMEOUT", constants.LogoLoadTimeout); err != nil {
		return nil, err
	}

	if pubB64 := getenv("AUTH_RSA_PUBLIC_KEY_BASE64"); pubB64 != "" {
		if cfg.RSAPublicKey, err = parseRSAPublicKey(pubB64); err != nil {
			return nil, err
		}
	}

	for name, dst := range map[string]*bool{
		"SEED_DB_WITH_TEST_DATA":   &cfg.LDFlag_SeedDbWithTestData,
		"CORS_HIGH_SECURITY":       &cfg.LDFlag_CORSHighSecurity,
		"SENDGRID_SANDBOX_MODE":    &cfg.LDFlag_SendgridSandboxMode,
		"SKIP_HOLIDAY_COLLECTIONS": &cfg.LDFlag_SkipHolidayCollections,
	} {
		if *dst, err = envBool(getenv, name, false); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func applyLDFlags(cfg *Config, sdkKey string) error {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		return fmt.Errorf("create LaunchDarkly client: %w", err)
	}
	defer ldClient.Close()
	if !ldClient.Initialized() {
		return errors.New("LaunchDarkly client failed to initialize")
	}

	ctx := ldcontext.NewWithKind(ldcontext.Kind(LDServerContextKind), LDServerContextKey)

	for flag, dst := range map[string]*bool{
		"seed_db_with_test_data":   &cfg.LDFlag_SeedDbWithTestData,
		"cors_high_security":       &cfg.LDFlag_CORSHighSecurity,
		"sendgrid_sandbox_mode":    &cfg.LDFlag_SendgridSandboxMode,
		"skip_holiday_collections": &cfg.LDFlag_SkipHolidayCollections,
	} {
		v, err := ldClient.BoolVariation(flag, ctx, *dst)
		if err != nil {
			return fmt.Errorf("retrieve %s flag: %w", flag, err)
		}
		utils.Logger.Debugf("%s flag: %t", flag, v)
		*dst = v
	}

	twilioFrom, err := ldClient.StringVariation("twilio_from_phone", ctx, cfg.LDFlag_TwilioFromPhone)
	if err != nil {
		return fmt.Errorf("retrieve twilio_from_phone flag: %w", err)
	}
	cfg.LDFlag_TwilioFromPhone = utils.FirstNonEmpty(twilioFrom, cfg.LDFlag_TwilioFromPhone)

	sgFrom, err := ldClient.StringVariation("sendgrid_from_email", ctx, cfg.LDFlag_SendgridFromEmail)
	if err != nil {
		return fmt.Errorf("retrieve sendgrid_from_email flag: %w", err)
	}
	cfg.LDFlag_SendgridFromEmail = utils.FirstNonEmpty(sgFrom, cfg.LDFlag_SendgridFromEmail)
	return nil
}

func parseRSAPublicKey(b64 string) (*rsa.PublicKey, error) {
	pubPEM, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("AUTH_RSA_PUBLIC_KEY_BASE64 is not base64: %w", err)
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		return nil, errors.New("failed to decode PEM block for public key")
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("parse RSA public key: %w", err)
	}
	return pub, nil
}

func envInt(getenv func(string) string, name string, def int) (int, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

func envBool(getenv func(string) string, name string, def bool) (bool, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", name, err)
	}
	return b, nil
}

func envDuration(getenv func(string) string, name string, def time.Duration) (time.Duration, error) {
	v := getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 5s: %w", name, err)
	}
	return d, nil
}
