package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"brewhouse/internal/api"
	"brewhouse/internal/auth"
	"brewhouse/internal/config"
	"brewhouse/internal/database"
	"brewhouse/internal/domain"
	"brewhouse/internal/events"
	"brewhouse/internal/google"
	"brewhouse/internal/logging"
	"brewhouse/internal/metrics"
	"brewhouse/internal/models"
	"brewhouse/internal/notify"
	"brewhouse/internal/repository"
	"brewhouse/internal/service"
	"brewhouse/internal/storage"
	"brewhouse/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "server-main").Logger()

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, cfg.Booking, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	redisClient, flowRepo := initFlowRepository(ctx, cfg, &logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	blobs, err := storage.New(ctx, cfg.Storage, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации хранилища файлов")
		return err
	}

	authService, err := initAuth(cfg, &logger)
	if err != nil {
		return err
	}

	eventBus := events.NewEventBus()

	var notifier domain.Notifier
	if cfg.Telegram.Enabled {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram, &logger)
		if err != nil {
			logger.Error().Err(err).Msg("Ошибка создания Telegram-нотификатора")
			return err
		}
		tg.SubscribeTo(eventBus)
		notifier = tg
	}

	var syncWorker domain.SyncWorker
	var sheetsWriter domain.SheetsWriter
	if sheetsService := initGoogleSheets(ctx, cfg, &logger); sheetsService != nil {
		sheetsWriter = sheetsService
		priceFor := func(pkg string) float64 {
			price, _ := cfg.Booking.PackagePrice(pkg)
			return price
		}
		salesWorker := worker.NewSalesWorker(db, sheetsService, redisClient, priceFor, worker.RetryPolicy{}, &logger)
		go salesWorker.Start(ctx)
		syncWorker = salesWorker
	}

	reservations := service.NewReservationService(db, eventBus, syncWorker, notifier, cfg.Booking.MaxAdvanceDays, &logger)
	menu := service.NewMenuService(db, blobs, cfg.Menu, &logger)
	flow := service.NewFlowService(flowRepo, &logger)
	reports := service.NewReportService(db, cfg.Booking, cfg.Exports.Path, &logger)

	// Снимаем расхождения после незавершённых переносов на старте
	if ids, err := reservations.Reconcile(ctx); err != nil {
		logger.Error().Err(err).Msg("Стартовая сверка коллекций не удалась")
	} else if len(ids) > 0 {
		logger.Warn().Strs("ids", ids).Msg("Стартовая сверка удалила дубликаты")
	}

	server := api.NewServer(cfg, reservations, menu, flow, reports, authService, blobs, sheetsWriter, &logger)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Ошибка остановки HTTP-сервера")
	}

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
			return err
		}
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initFlowRepository(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.FlowRepository) {
	ttl := time.Duration(models.DefaultRedisTTL) * time.Second
	fallback := repository.NewMemoryFlowRepository(ttl)

	if !cfg.Redis.Enabled || cfg.Redis.Address == "" {
		return nil, fallback
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis недоступен, стартуем на fallback-хранилище")
	}

	primary := repository.NewRedisFlowRepository(redisClient, ttl)
	return redisClient, repository.NewFailoverFlowRepository(primary, fallback, logger)
}

func initAuth(cfg *config.Config, logger *zerolog.Logger) (*auth.Service, error) {
	if len(cfg.Auth.Admins) == 0 {
		logger.Warn().Msg("Админские аккаунты не настроены, админка отключена")
		return nil, nil
	}
	authService, err := auth.NewService(cfg.Auth)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации auth-сервиса")
		return nil, err
	}
	return authService, nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.SalesSpreadsheetID == "" {
		logger.Info().Msg("Google Sheets не настроен, синхронизация продаж выключена")
		return nil
	}

	sheetsService, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.SalesSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsService
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("Metrics listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}
