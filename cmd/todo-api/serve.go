package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"todo_api/internal/config"
	"todo_api/internal/database"
	"todo_api/internal/logging"
	"todo_api/internal/store"
	"todo_api/internal/todo"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().String("addr", "", "listen address (env ADDR)")
	cmd.Flags().String("db-driver", "", "database driver: sqlite or pgx (env DATABASE_DRIVER)")
	cmd.Flags().String("db-url", "", "database connection string (env DATABASE_URL)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// 主流程：加载配置、连接数据库、启动 HTTP 服务并等待退出信号
	cfg, err := config.Load(":8080", configFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)

	db, dialect, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.EnsureSchema(cmd.Context(), db, dialect); err != nil {
		return err
	}

	handler := todo.NewHandler(store.New(db, dialect), logger, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		// 非正常关闭才返回错误
		logger.Info("listening", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 监听系统信号，触发优雅退出
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	// 给予超时时间完成正在处理的请求
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}
	return nil
}
