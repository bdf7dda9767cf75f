/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/allbin/go-ultiprint/gcode"
	"github.com/allbin/go-ultiprint/internal/config"
	"github.com/allbin/go-ultiprint/internal/firmware"
	"github.com/allbin/go-ultiprint/internal/tui/colors"
	"github.com/allbin/go-ultiprint/internal/tui/models"
	"github.com/allbin/go-ultiprint/logger"
	"github.com/allbin/go-ultiprint/printer"
)

// runFlags are shared by the commands that drive a session.
type runFlags struct {
	tui     bool
	retries int
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	cmd.Flags().BoolVar(&f.tui, "tui", false, "Show an interactive progress view")
	cmd.Flags().IntVar(&f.retries, "retries", 3, "Reconnect attempts after the printer disappears")
}

// newConnector returns the serial connector for the configured device, or
// an in-process printer when simulating.
func newConnector(cfg config.Config, log logger.Logger) printer.Connector {
	if cfg.Simulate {
		sim := firmware.New(firmware.WithLogger(log.With("component", "firmware")))
		dial := func(ctx context.Context) (printer.Transport, error) {
			return sim.Dial(ctx)
		}
		return printer.ConnectorFuncs{OpenFunc: dial}
	}

	conn := printer.NewSerialConnector(cfg.Device, cfg.SerialOptions()...)
	conn.Backoff = cfg.Session.ReconnectBackoff
	conn.Logger = log.With("component", "connector")
	return conn
}

// loadProgram reads a G-code file and wraps it for mode.
func loadProgram(path string, mode printer.Mode, log logger.Logger) (*gcode.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cmds, dropped, err := gcode.ReadCommands(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if dropped > 0 {
		log.Warn("dropped unusable lines", "file", path, "count", dropped)
	}
	return printer.BuildProgram(mode, cmds)
}

// runSession opens the printer and runs prog. A printer that cannot be
// found again after a reconnect is retried up to flags.retries times,
// resuming after the last confirmed command.
func runSession(cmd *cobra.Command, mode printer.Mode, prog *gcode.Program, flags runFlags) error {
	cfg, log := loadConfig()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	device := cfg.Device
	if cfg.Simulate {
		device = "simulator"
	}

	if !flags.tui {
		s, res, err := drive(ctx, cfg, log, printer.NopNotifier{}, mode, prog, flags.retries)
		printSummary(device, res, s, err)
		return err
	}

	// The view owns the terminal, so log output is dropped while it runs.
	log = logger.Discard()
	logger.SetDefault(log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := models.NewRunModel(device, mode, cancel)
	p := tea.NewProgram(model, tea.WithAltScreen())
	notify := printer.NotifierFunc(func(e printer.Event) {
		p.Send(models.EventMsg{Event: e})
	})

	var (
		s   *printer.Session
		res printer.Result
		err error
	)
	g := errgroup.Group{}
	g.Go(func() error {
		s, res, err = drive(ctx, cfg, log, notify, mode, prog, flags.retries)
		p.Send(models.DoneMsg{Result: res, Err: err})
		return nil
	})
	g.Go(func() error {
		_, perr := p.Run()
		if perr != nil && !errors.Is(perr, tea.ErrProgramKilled) {
			return perr
		}
		return nil
	})
	if gerr := g.Wait(); gerr != nil {
		return gerr
	}

	printSummary(device, res, s, err)
	return err
}

// drive runs one session to completion, reconnecting between attempts.
func drive(ctx context.Context, cfg config.Config, log logger.Logger, n printer.Notifier,
	mode printer.Mode, prog *gcode.Program, retries int) (*printer.Session, printer.Result, error) {

	s, err := printer.New(newConnector(cfg, log), cfg.SessionOptions(log, n)...)
	if err != nil {
		return nil, printer.Result{}, err
	}
	if err := s.Open(ctx); err != nil {
		return s, printer.Result{Mode: mode}, fmt.Errorf("opening %s: %w", cfg.Device, err)
	}
	defer s.Close()

	res, err := s.Run(ctx, mode, prog)
	for attempt := 1; errors.Is(err, printer.ErrReconnectFailed) && attempt <= retries; attempt++ {
		log.Warn("printer lost, retrying", "attempt", attempt, "of", retries, "confirmed", res.Confirmed)
		if rerr := s.Reconnect(ctx); rerr != nil {
			err = rerr
			continue
		}
		prev := res
		res, err = s.RunFrom(ctx, mode, prog, res.Confirmed)
		res.Resends += prev.Resends
		res.Reconnects += prev.Reconnects + 1
	}
	if mode == printer.ModeMonitor && errors.Is(err, context.Canceled) {
		// monitoring ends when the user stops it
		err = nil
	}
	return s, res, err
}

var (
	summaryTitle = lipgloss.NewStyle().Bold(true).Foreground(colors.Blue)
	summaryLabel = lipgloss.NewStyle().Foreground(colors.Subtext0).Width(14)
	summaryOK    = lipgloss.NewStyle().Foreground(colors.Green)
	summaryFail  = lipgloss.NewStyle().Foreground(colors.Red)
)

func printSummary(device string, res printer.Result, s *printer.Session, err error) {
	status := summaryOK.Render("completed")
	switch {
	case err != nil:
		status = summaryFail.Render(err.Error())
	case !res.Completed && res.Mode != printer.ModeMonitor:
		status = summaryFail.Render("incomplete")
	}

	row := func(label string, value any) {
		fmt.Fprintf(os.Stderr, "  %s %v\n", summaryLabel.Render(label), value)
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, summaryTitle.Render(fmt.Sprintf("%s on %s", res.Mode, device)))
	row("Status", status)
	row("Sent", res.Sent)
	row("Confirmed", res.Confirmed)
	row("Last line", res.LastSeq)
	row("Resends", res.Resends)
	row("Reconnects", res.Reconnects)
	row("Elapsed", res.Elapsed.Round(100*time.Millisecond))
	if s != nil {
		m := s.Metrics()
		row("Frames", m.FramesSent.Load())
		row("Bytes", m.BytesSent.Load())
		row("I/O errors", m.IOErrorCount.Load())
	}
}
