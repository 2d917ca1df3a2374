package main

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contrib-search/internal/refresh"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the refresh daemon",
	Long: `Runs refresh on a cron schedule until interrupted.

The schedule uses six fields (seconds first), e.g. "0 30 3 * * *" for 03:30:00
UTC daily. Each tick refreshes every due job of every selected source.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		names, err := sourceNames(cmd)
		if err != nil {
			return err
		}
		spec, _ := cmd.Flags().GetString("cron")
		if spec == "" {
			spec = cfg.Schedule.Cron
		}
		cfg.Schedule.Cron = spec
		if err := cfg.Validate("schedule", names...); err != nil {
			return err
		}

		sched, err := cronParser.Parse(spec)
		if err != nil {
			return eris.Wrapf(err, "schedule: parse cron %q", spec)
		}

		log := zap.L().With(zap.String("command", "schedule"))
		d := newDaemon(names)
		c := cron.New(
			cron.WithLocation(time.UTC),
			cron.WithSeconds(),
			cron.WithLogger(cronLogger{log: log.Sugar()}),
		)
		if _, err := c.AddFunc(spec, func() { d.tick(ctx) }); err != nil {
			return eris.Wrapf(err, "schedule: add job %q", spec)
		}

		log.Info("refresh daemon started",
			zap.String("cron", spec),
			zap.Strings("sources", names),
			zap.Time("next_run", sched.Next(time.Now().UTC())),
		)
		fmt.Printf("Refresh daemon running (%s), next run %s\n", spec, sched.Next(time.Now().UTC()).Format(time.RFC3339))

		c.Start()
		defer func() { <-c.Stop().Done() }()

		if runNow, _ := cmd.Flags().GetBool("run-now"); runNow {
			d.tick(ctx)
		}

		<-ctx.Done()
		log.Info("refresh daemon stopping")
		return nil
	},
}

func init() {
	scheduleCmd.Flags().String("cron", "", "cron expression overriding schedule.cron")
	scheduleCmd.Flags().Bool("run-now", false, "refresh once at startup before waiting for the schedule")
	rootCmd.AddCommand(scheduleCmd)
}

// cronParser matches the parser cron.WithSeconds installs, so a spec that
// parses here is accepted by the scheduler.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// cronLogger routes scheduler events through zap. Wake-ups and job starts
// are frequent, so they log at debug.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debugw("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Errorw("cron: "+msg, append(keysAndValues, "error", err)...)
}

// daemon serializes scheduled refreshes.
type daemon struct {
	sources []string
	mu      sync.Mutex
	run     func(ctx context.Context, names []string, opts refresh.RunOpts) ([]*refresh.Summary, error)
}

func newDaemon(sources []string) *daemon {
	return &daemon{sources: sources, run: refreshSources}
}

// tick runs one refresh unless the previous one is still running.
func (d *daemon) tick(ctx context.Context) bool {
	log := zap.L().With(zap.String("command", "schedule"))
	if !d.mu.TryLock() {
		log.Warn("previous refresh still running, skipping tick")
		return false
	}
	defer d.mu.Unlock()

	if ctx.Err() != nil {
		return false
	}

	summaries, err := d.run(ctx, d.sources, refresh.RunOpts{})
	if err != nil {
		log.Error("scheduled refresh failed", zap.Error(err))
	}
	for _, s := range summaries {
		if s == nil {
			continue
		}
		log.Info("scheduled refresh complete",
			zap.String("source", s.Source),
			zap.Int("ran", s.Ran),
			zap.Int("skipped", s.Skipped),
			zap.Int("failed", s.Failed),
		)
	}
	return true
}
