package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wellbeing/internal/config"
	"wellbeing/internal/core/model"
	"wellbeing/internal/core/monitor"
	"wellbeing/internal/logfields"
	"wellbeing/internal/platform"
	"wellbeing/internal/storage"
	"wellbeing/internal/ui/overlay"
)

const timeFormat = "2006-01-02 15:04"

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			snapshot, ok, err := store.LoadSnapshot(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load session: %w", err)
			}
			out := cmd.OutOrStdout()
			if !ok {
				fmt.Fprintln(out, "No saved session")
				return nil
			}
			phase := snapshot.Phase
			if snapshot.Paused && phase == model.PhaseRunning {
				phase = model.PhasePaused
			}
			fmt.Fprintf(out, "Phase: %s\n", phase)
			fmt.Fprintf(out, "Remaining: %s of %s\n", clock(snapshot.RemainingSeconds), clock(snapshot.TotalSeconds))
			fmt.Fprintf(out, "Saved: %s\n", snapshot.CapturedAt.Local().Format(timeFormat))
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show usage statistics and recent sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, _, err := opts.openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = store.Close()
			}()

			stats, err := store.Stats(cmd.Context(), time.Now())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Today: %s in %d sessions\n", clock(stats.TodayUsageSeconds), stats.TodaySessions)
			fmt.Fprintf(out, "Total usage: %s\n", clock(stats.TotalUsageSeconds))
			fmt.Fprintf(out, "Breaks taken: %d\n", stats.Blocks)
			fmt.Fprintf(out, "Extensions: %d\n", stats.Extensions)
			fmt.Fprintf(out, "Streak: %d days\n", stats.StreakDays)
			fmt.Fprintf(out, "Breaks kept (7 days): %d%%\n", stats.GoalAchievementPercent)

			sessions, err := store.Sessions(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to load sessions: %w", err)
			}
			if len(sessions) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nRecent sessions:")
			for _, session := range sessions {
				fmt.Fprintf(out, "  %s  %s\n", session.EndedAt.Local().Format(timeFormat), clock(session.UsedSeconds))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent sessions to list")
	return cmd
}

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or edit settings.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := opts.settingsStore()
			if err != nil {
				return err
			}
			settings, err := loadSettings(store)
			if err != nil {
				return err
			}
			printSettings(cmd, store.Path(), settings)
			return nil
		},
	}

	cmd.AddCommand(settingsEdit(opts, "add-site <host>", "Watch a site", cobra.ExactArgs(1),
		func(settings *model.Settings, args []string) error { return settings.AddSite(args[0]) }))
	cmd.AddCommand(settingsEdit(opts, "remove-site <host>", "Stop watching a site", cobra.ExactArgs(1),
		func(settings *model.Settings, args []string) error { return settings.RemoveSite(args[0]) }))
	cmd.AddCommand(settingsEdit(opts, "add-message <text>", "Add a warning message", cobra.MinimumNArgs(1),
		func(settings *model.Settings, args []string) error {
			return settings.AddMessage(strings.Join(args, " "))
		}))
	cmd.AddCommand(settingsEdit(opts, "remove-message <index>", "Remove a warning message by its number", cobra.ExactArgs(1),
		func(settings *model.Settings, args []string) error {
			number, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("message number %q is not a number", args[0])
			}
			return settings.RemoveMessage(number - 1)
		}))
	cmd.AddCommand(settingsEdit(opts, "set-limit <minutes>", "Set the session length", cobra.ExactArgs(1),
		func(settings *model.Settings, args []string) error {
			minutes, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("time limit %q is not a whole number of minutes", args[0])
			}
			return settings.SetTimeLimit(minutes * 60)
		}))
	cmd.AddCommand(settingsEdit(opts, "notifications <on|off>", "Turn notifications on or off", cobra.ExactArgs(1),
		func(settings *model.Settings, args []string) error {
			switch strings.ToLower(args[0]) {
			case "on", "true", "yes":
				settings.SetNotifications(true)
			case "off", "false", "no":
				settings.SetNotifications(false)
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			return nil
		}))
	return cmd
}

func settingsEdit(opts *rootOptions, use, short string, args cobra.PositionalArgs, change func(*model.Settings, []string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, argv []string) error {
			store, err := opts.settingsStore()
			if err != nil {
				return err
			}
			settings, err := store.Update(func(settings *model.Settings) error {
				return change(settings, argv)
			})
			if err != nil {
				return err
			}
			printSettings(cmd, store.Path(), settings)
			return nil
		},
	}
}

func (opts *rootOptions) settingsStore() (*storage.SettingsStore, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	return storage.NewSettingsStore(cfg.SettingsPath), nil
}

// loadSettings falls back to the defaults on a malformed file and only
// fails when the file cannot be read at all.
func loadSettings(store *storage.SettingsStore) (model.Settings, error) {
	settings, err := store.Load()
	if err != nil {
		if !errors.Is(err, model.ErrMalformedData) {
			return settings, err
		}
		slog.Warn("Using default settings", logfields.Path(store.Path()), logfields.Error(err))
	}
	return settings, nil
}

func printSettings(cmd *cobra.Command, path string, settings model.Settings) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "File: %s\n", path)
	fmt.Fprintf(out, "Time limit: %s\n", clock(settings.TimeLimitSeconds))
	fmt.Fprintf(out, "Notifications: %s\n", onOff(settings.NotificationsEnabled))
	fmt.Fprintln(out, "Sites:")
	for _, site := range settings.Sites {
		fmt.Fprintf(out, "  %s\n", site)
	}
	fmt.Fprintln(out, "Messages:")
	for i, message := range settings.Messages {
		fmt.Fprintf(out, "  %d. %s\n", i+1, message)
	}
}

func newCheckCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check <host>",
		Short: "Report whether a host is a watched site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := opts.settingsStore()
			if err != nil {
				return err
			}
			settings, err := loadSettings(store)
			if err != nil {
				return err
			}
			site, ok := monitor.NewAdvisor(settings.Sites).Match(args[0])
			if !ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%s is not watched\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is watched (%s)\n", args[0], site)
			return nil
		},
	}
}

func newAutostartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage launching at login",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Launch at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := loginEntry()
			if err != nil {
				return err
			}
			if err := entry.Enable(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Stop launching at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := platform.NewAutostart(config.AppName, "").Disable(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether autostart is enabled",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			enabled, err := platform.NewAutostart(config.AppName, "").Enabled()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Autostart: %s\n", onOff(enabled))
			return nil
		},
	})
	return cmd
}

func loginEntry() (platform.Autostart, error) {
	exe, err := os.Executable()
	if err != nil {
		return platform.Autostart{}, fmt.Errorf("failed to locate executable: %w", err)
	}
	return platform.NewAutostart(config.AppName, exe, "run"), nil
}

func clock(seconds int) string {
	return overlay.FormatClock(time.Duration(seconds) * time.Second)
}

func onOff(value bool) string {
	if value {
		return "on"
	}
	return "off"
}
