package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/1broseidon/termdesk/internal/desk"
	"github.com/1broseidon/termdesk/internal/ipc"
)

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Control the windows of a running desktop",
}

var windowListCmd = &cobra.Command{
	Use:   "list",
	Short: "List windows and launchers",
	Example: `  # Table of every window the desktop knows about
  termdesk window list

  # Only open windows, as JSON
  termdesk window list --open --format json`,
	Args: cobra.NoArgs,
	RunE: runWindowList,
}

var windowOpenCmd = &cobra.Command{
	Use:   "open ID",
	Short: "Open a window and bring it to the front",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printWindowResult(newClient().OpenWindow(args[0]))
	},
}

var windowCloseCmd = &cobra.Command{
	Use:   "close ID",
	Short: "Close a window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printWindowResult(newClient().CloseWindow(args[0]))
	},
}

var windowFocusCmd = &cobra.Command{
	Use:   "focus ID",
	Short: "Bring an open window to the front",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printWindowResult(newClient().FocusWindow(args[0]))
	},
}

var windowMoveCmd = &cobra.Command{
	Use:     "move ID X Y",
	Short:   "Move a window's top-left corner",
	Example: `  termdesk window move bio 10 3`,
	Args:    cobra.ExactArgs(3),
	RunE:    runWindowMove,
}

var windowWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the window state every time it changes",
	Args:  cobra.NoArgs,
	RunE:  runWindowWatch,
}

var (
	windowFormat   string
	windowOpenOnly bool
)

func init() {
	rootCmd.AddCommand(windowCmd)
	windowCmd.AddCommand(windowListCmd, windowOpenCmd, windowCloseCmd, windowFocusCmd, windowMoveCmd, windowWatchCmd)

	windowCmd.PersistentFlags().StringVarP(&windowFormat, "format", "f", "table", "output format (table or json)")
	windowListCmd.Flags().BoolVar(&windowOpenOnly, "open", false, "show only open windows")
}

func newClient() *ipc.Client {
	if socket := viper.GetString("ipc_socket"); socket != "" {
		return ipc.NewClientWithSocket(socket)
	}
	return ipc.NewClient()
}

func runWindowList(cmd *cobra.Command, args []string) error {
	st, err := newClient().GetState()
	if err != nil {
		return err
	}
	if windowOpenOnly {
		open := st.Windows[:0]
		for _, w := range st.Windows {
			if w.Open {
				open = append(open, w)
			}
		}
		st.Windows = open
	}
	if windowFormat == "json" {
		return writeJSON(os.Stdout, st)
	}
	return printStateTable(os.Stdout, *st)
}

func runWindowMove(cmd *cobra.Command, args []string) error {
	x, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid x %q: %w", args[1], err)
	}
	y, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid y %q: %w", args[2], err)
	}
	return printWindowResult(newClient().MoveWindow(args[0], x, y))
}

func runWindowWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := newClient().Watch(ctx, func(st desk.State) error {
		if windowFormat == "json" {
			data, err := json.Marshal(st)
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}
		fmt.Printf("-- version %d\n", st.Version)
		return printStateTable(os.Stdout, st)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func printWindowResult(data *ipc.WindowData, err error) error {
	if err != nil {
		return err
	}
	if windowFormat == "json" {
		return writeJSON(os.Stdout, data)
	}
	if data.Window == nil {
		fmt.Println("no such window; nothing changed")
		return nil
	}
	return printStateTable(os.Stdout, desk.State{
		Version: data.State.Version,
		Focused: data.State.Focused,
		Windows: []desk.WindowState{*data.Window},
	})
}

func printStateTable(out io.Writer, st desk.State) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "ID\tTITLE\tOPEN\tFOCUSED\tPOSITION\tSIZE\tLAYER")
	fmt.Fprintln(w, "--\t-----\t----\t-------\t--------\t----\t-----")

	for _, win := range st.Windows {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d,%d\t%dx%d\t%s\n",
			win.ID, win.Title, yesNo(win.Open), yesNo(win.Focused),
			win.Position.X, win.Position.Y, win.Size.Width, win.Size.Height, win.Layer)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func writeJSON(out io.Writer, v interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
