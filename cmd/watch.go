package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/nibzard/bouldy-go/internal/app"
	"github.com/nibzard/bouldy-go/internal/logging"
	"github.com/nibzard/bouldy-go/internal/ui"
	"github.com/nibzard/bouldy-go/internal/watcher"
)

// watchCommand runs the vault watcher until interrupted, echoing events to
// the console and recording them in a run log.
func watchCommand(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("watch")
	uiMode := fs.String("ui", "", "Interface (tui)")
	noLog := fs.Bool("no-log", false, "Do not write a run log")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *uiMode != "" && *uiMode != "tui" {
		return fmt.Errorf("unknown ui %q", *uiMode)
	}
	tui := *uiMode == "tui"
	if tui && !ui.IsTTY(e.out) {
		return fmt.Errorf("-ui tui requires a terminal")
	}

	// The dashboard owns the screen; console output would corrupt it.
	if tui {
		e.logger = log.New(io.Discard)
	}
	var a *app.App
	if tui {
		a = e.buildApp()
	} else {
		a = e.newApp()
	}

	if !*noLog {
		runLog, err := logging.NewRunLogger(e.cfg.LogDir, e.cfg.Vault)
		if err != nil {
			return err
		}
		defer runLog.Close()
		a.Bus().Subscribe(runLog.Handler(e.logger))
		e.logger.Info("recording events", "log", runLog.LogPath)
	}

	var fns []func(context.Context) error
	if tui {
		fns = append(fns, func(ctx context.Context) error {
			return ui.RunDashboard(ctx, a.Vault(), a.Bus())
		})
	}
	err := a.Run(ctx, fns...)
	if errors.Is(err, watcher.ErrNotesRootMissing) {
		return fmt.Errorf("%w (run 'bouldy migrate-vault' to create it)", err)
	}
	return err
}

// tailCommand prints the newest watch log for the configured vault.
func tailCommand(ctx context.Context, e *env, args []string) error {
	fs := e.newFlagSet("tail")
	follow := fs.Bool("f", false, "Follow log output")
	fs.BoolVar(follow, "follow", false, "Follow log output")
	lines := fs.Int("n", 50, "Number of lines to show")
	runs := fs.Bool("runs", false, "List recorded runs instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logDir, err := logging.FindLogDir(e.cfg.LogDir, e.cfg.Vault)
	if err != nil {
		return err
	}
	if *runs {
		list, err := logging.FindLogRuns(logDir)
		if err != nil {
			return err
		}
		if len(list) == 0 {
			e.printf("No runs recorded in %s\n", logDir)
			return nil
		}
		for _, r := range list {
			e.printf("%s  %s  %d bytes\n", r.ModTime.Format("2006-01-02 15:04:05"), r.RunID, r.Size)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(logDir)
	if err != nil {
		return err
	}
	if logPath == "" {
		return fmt.Errorf("no run logs in %s (start one with 'bouldy watch')", logDir)
	}
	return logging.TailLog(ctx, e.out, logPath, *lines, *follow)
}
