package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"filebox/backend/api/route"
	"filebox/backend/common"
	"filebox/backend/library/blob"
	"filebox/backend/library/revoke"
	"filebox/backend/model"
	"filebox/backend/service"
)

func main() {
	cfg, opts, err := common.LoadConfig(os.Args[1:])
	if opts.PrintHelp {
		common.PrintHelp()
		os.Exit(0)
	}
	if opts.PrintVersion {
		fmt.Println(common.Version)
		os.Exit(0)
	}
	if err != nil {
		common.FatalLog(err)
	}

	common.SetupGinLog()
	common.SysLog("filebox " + common.Version + " started")
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		common.FatalLog(err)
	}
	common.SysLog("Server shutdown complete")
}

func run(ctx context.Context, cfg common.Config) error {
	db, err := model.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := model.CloseDB(db); err != nil {
			common.SysError("failed to close database", "error", err)
		}
	}()

	blobs, err := blob.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init blob store: %w", err)
	}
	common.SysLog("Blob store ready", "driver", cfg.BlobDriver)

	var revoked revoke.Store = revoke.NewLocalStore()
	if cfg.RedisConnString != "" {
		rdb, err := common.NewRedisClient(ctx, cfg.RedisConnString)
		if err != nil {
			return err
		}
		defer rdb.Close()
		revoked = revoke.NewRedisStore(rdb)
	} else {
		common.SysLog("REDIS_CONN_STRING not set, token revocations are kept in memory")
	}

	tokens := service.NewTokenService(cfg, revoked)
	users := service.NewUserService(cfg, db, blobs, tokens)
	files := service.NewFileService(cfg, db, blobs)

	if cfg.ReconcileOnStart {
		repaired, err := files.Reconcile(ctx)
		if err != nil {
			return fmt.Errorf("reconcile: %w", err)
		}
		common.SysLog("Reconcile finished", "repaired_users", repaired)
	}

	server := gin.New()
	server.Use(gin.Logger(), gin.Recovery())
	server.MaxMultipartMemory = cfg.MaxUploadBytes()
	route.SetRouter(server, route.Services{Config: cfg, Tokens: tokens, Users: users, Files: files})

	httpServer := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Port),
		Handler: server,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		common.SysLog("Server listening on port: " + strconv.Itoa(cfg.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		common.SysLog("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), common.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
