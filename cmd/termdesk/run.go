package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/1broseidon/termdesk/internal/api"
	"github.com/1broseidon/termdesk/internal/audio"
	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/ipc"
	"github.com/1broseidon/termdesk/internal/launcher"
	"github.com/1broseidon/termdesk/internal/logging"
	"github.com/1broseidon/termdesk/internal/service"
	"github.com/1broseidon/termdesk/internal/tui"
	"github.com/1broseidon/termdesk/internal/widget"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the desktop (default)",
	Long: `Start the desktop in the current terminal.

Mouse: double click an icon to open its window, drag a title bar to move
a window, click [x] to close it. Keys: esc or ctrl+w closes the focused
window, arrows scroll it, q quits when no window is focused, ctrl+c quits.`,
	Example: `  # Start with the default config
  termdesk

  # Start with the HTTP API on port 7777
  termdesk run --api-addr 127.0.0.1:7777

  # Log debug output to the log file
  termdesk --log-level debug`,
	RunE: runDesktop,
}

func init() {
	runCmd.Flags().AddFlag(rootCmd.Flags().Lookup("api-addr"))
	rootCmd.AddCommand(runCmd)
}

func runDesktop(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("termdesk needs an interactive terminal")
	}

	res, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := res.Config

	logger, logFile, err := logging.OpenFile(cfg.GetLoggingConfig())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.Info("starting termdesk", slog.String("version", version), slog.String("config", res.File))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	coordinator := desk.New[widget.Widget]()
	catalog := launcher.New(cfg, audio.NewPlayer)
	shell := tui.New(tui.Options{
		Config:  cfg,
		Desk:    coordinator,
		Catalog: catalog,
		Logger:  logger,
	})
	defer shell.Close()

	p := tea.NewProgram(shell,
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithContext(ctx),
	)

	remote := tui.NewRemote(coordinator, catalog)
	done := make(chan struct{})
	remote.Attach(p.Send, done)

	super := service.NewSupervisor("termdesk", logger)
	service.Add(super, stateJournal(remote, logger))
	if cfg.IPC.Enabled {
		srv, err := ipc.NewServer(remote, ipc.ServerOptions{
			SocketPath: cfg.IPC.Socket,
			Version:    version,
			Logger:     logger,
		})
		if err != nil {
			return err
		}
		service.Add(super, srv)
	}
	if cfg.API.Enabled {
		service.Add(super, api.NewServer(remote, api.Options{
			Addr:    cfg.API.Addr,
			Version: version,
			Logger:  logger,
		}))
	}

	superCtx, cancelSuper := context.WithCancel(ctx)
	superDone := super.ServeBackground(superCtx)

	_, err = p.Run()
	close(done)
	cancelSuper()
	<-superDone

	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		logger.Info("terminated by signal")
		return nil
	}
	if err != nil {
		logger.Error("desktop exited", slog.Any("error", err))
		return err
	}
	logger.Info("termdesk stopped")
	return nil
}
