package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/pulsar/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the changes directory for authored messages",
	Long: "Watches the changes output directory and reports every edit to a\n" +
		"commit or tag message, so the operator sees which packages are ready\n" +
		"for the next stage. Stops on Ctrl-C.",
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	env, err := newEnv(cmd, "watch")
	if err != nil {
		return err
	}

	dir := filepath.Join(env.Root, env.Cfg.ChangesOutputDir)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("changes directory %s not found, run scan or since first", dir)
	}

	w, err := watch.New(dir, env.Cfg.CommitMsgFilename, env.Cfg.TagMsgFilename)
	if err != nil {
		return err
	}
	if err := w.Start(); err != nil {
		return err
	}
	defer w.Stop()

	env.UI.Info("watching " + dir)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case ev := <-w.Events:
			env.UI.Done(ev.Package, "updated "+filepath.Base(ev.File))
		case <-stop:
			return nil
		case <-cmd.Context().Done():
			return nil
		}
	}
}
