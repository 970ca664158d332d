package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ponyo877/livetalk/server/adaptor"
	"github.com/ponyo877/livetalk/server/domain"
	"github.com/ponyo877/livetalk/server/repository"
	"github.com/ponyo877/livetalk/server/usecase"
)

var cfgFile string

const (
	listenAddrKey     = "listen_addr"
	databasePathKey   = "database_path"
	allowedOriginsKey = "allowed_origins"
)

var rootCmd = &cobra.Command{
	Use:   "livetalk-server",
	Short: "LiveTalk presence and message-relay server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./livetalk.yaml)")
	rootCmd.PersistentFlags().String("listen", ":3000", "HTTP listen address")
	rootCmd.PersistentFlags().String("db", "./livetalk.db", "path to the sqlite database")
	rootCmd.PersistentFlags().StringSlice("allowed-origins", []string{"*"}, "origins allowed to open WebSocket connections")

	viper.BindPFlag(listenAddrKey, rootCmd.PersistentFlags().Lookup("listen"))
	viper.BindPFlag(databasePathKey, rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag(allowedOriginsKey, rootCmd.PersistentFlags().Lookup("allowed-origins"))
	viper.SetDefault(listenAddrKey, ":3000")
	viper.SetDefault(databasePathKey, "./livetalk.db")
	viper.SetDefault(allowedOriginsKey, []string{"*"})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("livetalk")
	}

	viper.SetEnvPrefix("LIVETALK")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		slog.Info("using config file", "path", viper.ConfigFileUsed())
	}
}

func run() error {
	db, err := sql.Open("sqlite3", viper.GetString(databasePathKey)+"?_foreign_keys=1&_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	repo, err := repository.NewRepository(db)
	if err != nil {
		return fmt.Errorf("building repository: %w", err)
	}

	hub := domain.NewHub()
	presence := usecase.NewPresence(hub, hub, repo)
	relay := usecase.NewRelay(hub, hub, repo)
	profile := usecase.NewProfile(repo)

	ws := adaptor.NewWSHandler(presence, relay, viper.GetStringSlice(allowedOriginsKey))
	api := adaptor.NewAdaptor(relay, presence, profile)

	server := &http.Server{
		Addr:         viper.GetString(listenAddrKey),
		Handler:      api.Routes(ws),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // WebSocket connections are long-lived
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case sig := <-stop:
		slog.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}
