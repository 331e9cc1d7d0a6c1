package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/StoreStation/statuscraft/pkg/config"
	"github.com/StoreStation/statuscraft/pkg/server"
)

var (
	bindAddr string
	cfgDir   string
)

var rootCmd = &cobra.Command{
	Use:   "statuscraft",
	Short: "A status/login-only server listing responder",
	Long: `statuscraft answers the handshake, status, legacy ping and
login-start exchange of the protocol without implementing any actual
gameplay. Every login is rejected with a configurable kick message.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&bindAddr, "ip", "127.0.0.1:25565", "address to listen on (host:port)")
	rootCmd.Flags().StringVar(&cfgDir, "cfgdir", "./config", "directory containing config.toml and icon.b64")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	snap, iconWarning, err := config.Load(cfgDir)
	if err != nil {
		logrus.WithError(err).Error("loading config")
		return err
	}
	if iconWarning != nil {
		logrus.WithError(iconWarning).Warn("loading icon.b64")
	}

	store := config.NewStore(snap)
	logStartupSummary(snap)

	watcher, err := config.NewWatcher(cfgDir, store)
	if err != nil {
		logrus.WithError(err).Error("starting config watcher")
		return err
	}
	defer watcher.Close()
	go watcher.Run()

	srv := server.New(bindAddr, store)
	if err := srv.Start(); err != nil {
		logrus.WithError(err).Error("starting listener")
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logrus.WithField("signal", sig).Info("shutting down")
	case <-srv.StopChan():
		logrus.Info("shutting down (internal)")
	}

	srv.Stop()
	return nil
}

func logStartupSummary(snap config.Snapshot) {
	cfg := snap.Config
	logrus.WithFields(logrus.Fields{
		"version":        cfg.Version,
		"online_players": cfg.OnlinePlayers,
		"max_players":    cfg.MaxPlayers,
		"kick_message":   cfg.KickMessage,
		"has_icon":       snap.HasIcon,
	}).Info("config loaded")
}
