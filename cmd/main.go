package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sendgrid/sendgrid-go"
	"github.com/smartwaste/bin-registry/internal/app"
	"github.com/smartwaste/bin-registry/internal/config"
	"github.com/smartwaste/bin-registry/internal/constants"
	"github.com/smartwaste/bin-registry/internal/controllers"
	"github.com/smartwaste/bin-registry/internal/services"
	internal_utils "github.com/smartwaste/bin-registry/internal/utils"
	"github.com/smartwaste/bin-registry/internal/utils/sticker"
	"github.com/smartwaste/bin-registry/shared/go-middleware"
	"github.com/smartwaste/bin-registry/shared/go-utils"
	"github.com/twilio/twilio-go"
	_ "time/tzdata"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize bins-service:", err)
	}
	defer application.Close()

	if cfg.LDFlag_SeedDbWithTestData {
		if err := app.SeedAllTestData(context.Background(), application.Bins); err != nil {
			utils.Logger.Fatal("Failed to seed demo bins:", err)
		}
	}

	// Location collaborators
	var resolver services.AddressResolver
	if cfg.GMapsAPIKey != "" {
		resolver = internal_utils.NewGMapsAddressResolver(cfg.GMapsAPIKey)
	} else {
		utils.Logger.Warn("GMAPS_API_KEY not set, addresses will not be reverse geocoded")
	}
	locator := internal_utils.NewIPGeoLocator(cfg.GeolocationAPIURL, cfg.GeolocationTimeout)

	// Sticker collaborators
	fonts, err := sticker.NewFontSet(sticker.FontPaths{Sinhala: cfg.FontSinhalaPath, Tamil: cfg.FontTamilPath})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to load sticker fonts")
	}
	var logo sticker.LogoLoader
	if cfg.LogoSource != "" {
		logo = sticker.NewSourceLogoLoader(cfg.LogoSource, cfg.LogoTimeout)
	}
	compositor := sticker.NewCompositor(fonts, logo, cfg.LogoTimeout)
	var stickerCache services.StickerCache
	if application.Redis != nil {
		stickerCache = internal_utils.NewRedisStickerCache(application.Redis)
	}

	// Notification clients
	var sgClient *sendgrid.Client
	if cfg.SendGridAPIKey != "" {
		sgClient = sendgrid.NewSendClient(cfg.SendGridAPIKey)
	}
	var twClient *twilio.RestClient
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		twClient = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
	}

	// Services
	locationService := services.NewLocationService(locator, resolver, cfg.GeolocationTimeout)
	scheduleService := services.NewScheduleService(
		application.Bins,
		internal_utils.NewHolidayCalendar(cfg.HolidayRegion),
		cfg.LDFlag_SkipHolidayCollections,
	)
	stickerService := services.NewStickerService(
		application.Bins, compositor, sticker.SkipQRRenderer{}, stickerCache, constants.StickerCacheTTL,
	)
	notificationService := services.NewNotificationService(services.NotificationConfig{
		FromEmail:       cfg.LDFlag_SendgridFromEmail,
		FromPhone:       cfg.LDFlag_TwilioFromPhone,
		SendgridSandbox: cfg.LDFlag_SendgridSandboxMode,
		Timeout:         constants.NotificationTimeout,
	}, stickerService, sgClient, twClient)
	binService := services.NewBinService(application.Bins, locationService, scheduleService, notificationService)

	// Router setup
	router := controllers.NewRouter(controllers.RouterDeps{
		Bins:     controllers.NewBinsController(binService, stickerService),
		Location: controllers.NewLocationController(locationService),
		Health:   controllers.NewHealthController(application),
		Auth:     middleware.AuthMiddleware(cfg.RSAPublicKey),
		Metrics:  promhttp.Handler(),
	})
	router.Use(middleware.MetricsMiddleware)

	// Cron job setup
	c := cron.New()
	_, err = c.AddFunc(constants.CollectionRollOverCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), constants.CollectionRollOverJobTimeout)
		defer cancel()
		utils.Logger.Info("Starting collection roll-over cron job...")
		if _, err := scheduleService.RollOver(ctx); err != nil {
			utils.Logger.WithError(err).Error("Collection roll-over finished with errors")
		}
	})
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to schedule collection roll-over cron")
	}
	c.Start()
	defer c.Stop()
	utils.Logger.Info("Scheduled collection roll-over cron job")

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("bins-service failed to start:", err)
	}
}
