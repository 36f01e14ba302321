package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/lessonhub/settlement-service/config"
	"github.com/lessonhub/settlement-service/internal/handler"
	"github.com/lessonhub/settlement-service/internal/jobs"
	"github.com/lessonhub/settlement-service/internal/middleware"
	"github.com/lessonhub/settlement-service/internal/payment"
	"github.com/lessonhub/settlement-service/internal/repository"
	"github.com/lessonhub/settlement-service/internal/service"
	"github.com/lessonhub/settlement-service/pkg/database"
	"github.com/lessonhub/settlement-service/pkg/rabbitmq"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	db := database.NewPostgresDB(cfg.DSN())

	// Settlement events are optional: without a broker the service runs
	// standalone and transitions are simply not announced.
	var publisher service.Publisher
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	gateway := payment.NewSandboxGateway(cfg.CheckoutBaseURL)

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	// Services
	walletSvc := service.NewWalletService(walletRepo)
	bookingSvc := service.NewBookingService(bookingRepo, walletSvc, gateway, publisher, cfg.HoldWindow)

	// Hold expiration job runs alongside live traffic until shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go jobs.NewHoldExpirer(bookingSvc, cfg.ExpirySweepInterval).Run(ctx)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "settlement-service"})
	})

	handler.NewBookingHandler(bookingSvc).RegisterRoutes(e)
	handler.NewWalletHandler(walletSvc).RegisterRoutes(e)

	go func() {
		log.Printf("Settlement Service starting on :%s", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	if err := waitForShutdown(ctx, e, 10*time.Second); err != nil {
		log.Printf("forced shutdown: %v", err)
	}
	log.Println("Settlement Service stopped")
}

// waitForShutdown blocks until the signal context is cancelled, then drains
// in-flight requests before the timeout elapses.
func waitForShutdown(ctx context.Context, e *echo.Echo, timeout time.Duration) error {
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
