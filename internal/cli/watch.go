package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/docguard/internal/daemon"
)

var (
	watchInbox    string
	watchOutbox   string
	watchState    string
	watchIdentity string
	watchStrict   bool
	watchPoll     bool
	watchInterval time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchInbox, "inbox", "", "Inbox directory (required)")
	watchCmd.Flags().StringVar(&watchOutbox, "outbox", "", "Outbox directory for reports (required)")
	watchCmd.Flags().StringVar(&watchState, "state", "", "State directory (required)")
	watchCmd.Flags().StringVar(&watchIdentity, "identity", "docguard-daemon", "Requesting identity recorded in audit events")
	watchCmd.Flags().BoolVar(&watchStrict, "strict", false, "Quarantine documents with warning-severity findings")
	watchCmd.Flags().BoolVar(&watchPoll, "poll", false, "Use polling instead of fsnotify (for NFS)")
	watchCmd.Flags().DurationVar(&watchInterval, "poll-interval", 5*time.Second, "Polling interval with --poll")
	_ = watchCmd.MarkFlagRequired("inbox")
	_ = watchCmd.MarkFlagRequired("outbox")
	_ = watchCmd.MarkFlagRequired("state")
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch an inbox directory and process documents",
	Long: "Runs the pipeline as a daemon: documents dropped into the inbox are\n" +
		"sanitized, scanned, and gated. Passing documents land in\n" +
		"state/released/, blocked ones in state/quarantine/, and a JSON\n" +
		"report for each lands in the outbox.",
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := setup("")
	if err != nil {
		return err
	}
	defer rt.Close()

	d, err := daemon.New(daemon.Config{
		Dirs: daemon.DirConfig{
			Inbox:  watchInbox,
			Outbox: watchOutbox,
			State:  watchState,
		},
		Identity:     watchIdentity,
		Strict:       watchStrict || rt.cfg.Gate.StrictMode,
		PollMode:     watchPoll,
		PollInterval: watchInterval,
		Cache:        rt.cache,
		CacheMaxAge:  time.Duration(rt.cfg.Cache.MaxAgeDays) * 24 * time.Hour,
	}, rt.gk)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		cancel()
	}()

	fmt.Fprintf(os.Stderr, "docguard watching %s\n", watchInbox)
	return d.Run(ctx)
}
