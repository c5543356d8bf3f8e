package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/cube2222/octoframe/config"
	"github.com/cube2222/octoframe/logs"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "octoframe",
	Short: "Build execution graphs and run them on a remote executor.",
	Long: `octoframe buffers read, select and where operations into an execution graph.
Actions (sum, count, fetch) send the buffered graph to the executor and print its response.`,
	Example: `octoframe run read:deniro.csv "select:Year Title" "where:Score > 90" sum:Year count
octoframe explain read:deniro.csv "select:Year Title" --format dot
octoframe shell`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := initializeLogging(); err != nil {
			return err
		}
		return startProfiling()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		stopProfiling()
		if err := logs.CloseLogger(); err != nil {
			return fmt.Errorf("couldn't close logger: %w", err)
		}
		return nil
	},
}

func Execute(ctx context.Context) {
	cobra.CheckErr(rootCmd.ExecuteContext(ctx))
}

var configPath string
var logDir string
var verbose bool
var profileMode string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration file. Defaults to ~/.octoframe/config.yml.")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for logs.txt. Defaults to ~/.octoframe.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log to stderr instead of the log file.")
	rootCmd.PersistentFlags().StringVar(&profileMode, "profile", "", "Write a profile of the given kind (cpu, mem, block, trace) to the log directory.")
}

func initializeLogging() error {
	if verbose {
		logs.InitializeStderrLogger()
		return nil
	}
	dir, err := resolveLogDir()
	if err != nil {
		return err
	}
	if err := logs.InitializeFileLogger(dir); err != nil {
		return fmt.Errorf("couldn't initialize logger: %w", err)
	}
	return nil
}

func resolveLogDir() (string, error) {
	if logDir != "" {
		return logDir, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("couldn't get octoframe directory: %w", err)
	}
	return dir, nil
}

var profiler interface{ Stop() }

func startProfiling() error {
	if profileMode == "" {
		return nil
	}
	var mode func(*profile.Profile)
	switch profileMode {
	case "cpu":
		mode = profile.CPUProfile
	case "mem":
		mode = profile.MemProfile
	case "block":
		mode = profile.BlockProfile
	case "trace":
		mode = profile.TraceProfile
	default:
		return fmt.Errorf("unknown profile kind '%s'", profileMode)
	}
	dir, err := resolveLogDir()
	if err != nil {
		return err
	}
	profiler = profile.Start(mode, profile.ProfilePath(filepath.Join(dir, "profiles")), profile.Quiet, profile.NoShutdownHook)
	return nil
}

func stopProfiling() {
	if profiler != nil {
		profiler.Stop()
		profiler = nil
	}
}
