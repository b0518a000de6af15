package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/1broseidon/termdesk/internal/config"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "termdesk",
		Short: "termdesk - a retro desktop in your terminal",
		Long: `termdesk draws a small desktop in the terminal: icons that open
draggable windows, a taskbar with quick links and a clock, and a few
built-in apps (a text viewer, a project gallery and a media player).

Running termdesk without a subcommand starts the desktop. While it runs,
the window subcommands, the MCP server and the optional HTTP API control
it over a local socket.`,
		SilenceUsage: true,
		RunE:         runDesktop,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/termdesk/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("socket", "", "control socket path (default is in the runtime dir)")
	rootCmd.Flags().String("api-addr", "", "serve the HTTP API on this address")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("ipc_socket", rootCmd.PersistentFlags().Lookup("socket"))
	viper.BindPFlag("api_addr", rootCmd.Flags().Lookup("api-addr"))
}

// initConfig lets TERMDESK_* environment variables stand in for flags.
func initConfig() {
	viper.SetEnvPrefix("TERMDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = viper.GetString("config")
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config file and applies flag and environment
// overrides.
func loadConfig() (*config.LoadResult, error) {
	path := cfgFile
	if path == "" {
		var err error
		path, err = config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
	}
	res, err := config.LoadFromPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyOverrides(res.Config, viper.GetViper()); err != nil {
		return nil, err
	}
	return res, nil
}

// applyOverrides layers flag and environment values over cfg and validates
// the result.
func applyOverrides(cfg *config.Config, v *viper.Viper) error {
	if level := v.GetString("log_level"); level != "" {
		cfg.Logging.Level = level
	}
	if file := v.GetString("log_file"); file != "" {
		cfg.Logging.File = file
	}
	if socket := v.GetString("ipc_socket"); socket != "" {
		cfg.IPC.Socket = socket
	}
	if addr := v.GetString("api_addr"); addr != "" {
		cfg.API.Addr = addr
		cfg.API.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flag or environment override: %w", err)
	}
	return nil
}
