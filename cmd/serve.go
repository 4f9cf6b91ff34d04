package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Leganyst/reserveme/internal/auth"
	"github.com/Leganyst/reserveme/internal/config"
	"github.com/Leganyst/reserveme/internal/db"
	"github.com/Leganyst/reserveme/internal/logger"
	"github.com/Leganyst/reserveme/internal/repository"
	"github.com/Leganyst/reserveme/internal/service"
	"github.com/Leganyst/reserveme/internal/transport/grpcapi"
	"github.com/Leganyst/reserveme/internal/transport/httpapi"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP and gRPC servers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log := logger.New(cfg.Environment)
			defer func() { _ = log.Sync() }()

			if cfg.IsProduction() {
				gin.SetMode(gin.ReleaseMode)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			gormDB, err := db.NewGormDB(&cfg.DB)
			if err != nil {
				return err
			}
			defer closeGorm(gormDB)

			if migrateUp {
				if err := db.Migrate(ctx, gormDB); err != nil {
					return err
				}
				log.Info("migrations applied")
			}

			policy, err := service.ParseSlotDeletePolicy(cfg.SlotDeletePolicy)
			if err != nil {
				return err
			}

			// Репозитории.
			slotRepo := repository.NewGormSlotRepository(gormDB)
			reservationRepo := repository.NewGormReservationRepository(gormDB)
			userRepo := repository.NewGormUserRepository(gormDB)
			refreshRepo := repository.NewGormRefreshTokenRepository(gormDB)
			eventRepo := repository.NewGormEventRepository(gormDB)
			txManager := repository.NewGormTxManager(gormDB)

			// Сервисы.
			bookingSvc := service.NewBookingService(
				slotRepo,
				reservationRepo,
				userRepo,
				txManager,
				log,
				service.WithSlotDeletePolicy(policy),
				service.WithAuditLog(eventRepo),
			)
			identitySvc := service.NewIdentityService(
				userRepo,
				refreshRepo,
				txManager,
				auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, nil),
				auth.NewPasswordHasher(0),
				cfg.RefreshTokenTTL,
				nil,
				log,
			)

			httpSrv := &http.Server{
				Addr:              cfg.HTTPAddr,
				Handler:           httpapi.NewRouter(bookingSvc, identitySvc, log),
				ReadHeaderTimeout: 5 * time.Second,
			}
			grpcSrv := grpcapi.NewServer(bookingSvc, identitySvc, log)

			lis, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
			}

			return run(ctx, log, httpSrv, grpcSrv, lis)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", false, "apply database migrations on startup")
	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

// run держит оба сервера до отмены ctx или падения одного из них.
func run(ctx context.Context, log *zap.Logger, httpSrv *http.Server, grpcSrv *grpc.Server, lis net.Listener) error {
	errCh := make(chan error, 2)

	go func() {
		log.Info("http server listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http serve: %w", err)
		}
	}()
	go func() {
		log.Info("grpc server listening", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case runErr = <-errCh:
		log.Error("server failed", zap.Error(runErr))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}

	stopped := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		grpcSrv.Stop()
	}

	return runErr
}
