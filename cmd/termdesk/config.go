package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/1broseidon/termdesk/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage termdesk configuration",
}

var configPrintCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the effective configuration",
	Example: `  # Effective config (file + flags + environment)
  termdesk config print

  # Built-in defaults
  termdesk config print --defaults`,
	Args: cobra.NoArgs,
	RunE: runConfigPrint,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		fmt.Println("config: ok")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file interactively",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var (
	printDefaults bool
	initForce     bool
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPrintCmd, configValidateCmd, configPathCmd, configInitCmd)

	configPrintCmd.Flags().BoolVar(&printDefaults, "defaults", false, "print built-in defaults (no files)")
	configInitCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.DefaultConfigPath()
}

func runConfigPrint(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if !printDefaults {
		res, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = res.Config
		if res.File != "" {
			fmt.Printf("# file: %s\n", res.File)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

// initAnswers holds the values edited by the config init form.
type initAnswers struct {
	HomeTimezone string
	Wallpaper    string
	StartSound   string
	LogLevel     string
	EnableAPI    bool
	APIAddr      string
}

func answersFrom(cfg *config.Config) initAnswers {
	return initAnswers{
		HomeTimezone: cfg.Clock.HomeTimezone,
		Wallpaper:    cfg.Desktop.Wallpaper,
		StartSound:   cfg.Taskbar.StartSound,
		LogLevel:     cfg.Logging.Level,
		EnableAPI:    cfg.API.Enabled,
		APIAddr:      cfg.API.Addr,
	}
}

func (a initAnswers) apply(cfg *config.Config) {
	cfg.Clock.HomeTimezone = strings.TrimSpace(a.HomeTimezone)
	if w := strings.TrimSpace(a.Wallpaper); w != "" {
		cfg.Desktop.Wallpaper = w
	}
	cfg.Taskbar.StartSound = strings.TrimSpace(a.StartSound)
	if a.LogLevel != "" {
		cfg.Logging.Level = a.LogLevel
	}
	cfg.API.Enabled = a.EnableAPI
	if addr := strings.TrimSpace(a.APIAddr); addr != "" {
		cfg.API.Addr = addr
	}
}

func validateTimezone(s string) error {
	if _, err := time.LoadLocation(strings.TrimSpace(s)); err != nil {
		return fmt.Errorf("unknown timezone: %w", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg := config.DefaultConfig()
	answers := answersFrom(cfg)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("home_timezone").
				Title("Home Timezone").
				Description("Shown when the taskbar clock is clicked (IANA name)").
				Validate(validateTimezone).
				Value(&answers.HomeTimezone),

			huh.NewInput().
				Key("wallpaper").
				Title("Wallpaper").
				Description("Desktop background color (ANSI number or #hex)").
				Value(&answers.Wallpaper),

			huh.NewInput().
				Key("start_sound").
				Title("Start Sound").
				Description("Played when the start button is clicked; empty for none").
				Value(&answers.StartSound),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Key("log_level").
				Title("Log Level").
				Options(
					huh.NewOption("debug", "debug"),
					huh.NewOption("info", "info"),
					huh.NewOption("warn", "warn"),
					huh.NewOption("error", "error"),
				).
				Value(&answers.LogLevel),

			huh.NewConfirm().
				Key("api_enabled").
				Title("Serve the HTTP API?").
				Value(&answers.EnableAPI),

			huh.NewInput().
				Key("api_addr").
				Title("API Address").
				Value(&answers.APIAddr),
		),
	).WithShowHelp(true).WithShowErrors(true)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil
		}
		return err
	}

	answers.apply(cfg)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}
