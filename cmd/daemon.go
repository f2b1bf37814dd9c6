package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/fcast/internal/cli"
	"github.com/theirongolddev/fcast/internal/config"
	"github.com/theirongolddev/fcast/internal/daemon"
	"github.com/theirongolddev/fcast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
	flagDaemonOrigins      []string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Serve forecasts, insights and scenarios over HTTP, reloading data on an interval",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the daemon is up and what it last loaded",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	cfg, _ := config.Load()
	home := pipeline.DataHome()

	pf := daemonCmd.PersistentFlags()
	pf.StringVar(&flagDaemonAddr, "addr", cfg.Daemon.Addr, "HTTP listen address")
	pf.DurationVar(&flagDaemonInterval, "interval", cfg.PollInterval(), "How often to reload data")
	pf.StringVar(&flagDaemonPIDFile, "pid-file", filepath.Join(home, "fcastd.pid"), "PID file path")
	pf.StringVar(&flagDaemonLogFile, "log-file", filepath.Join(home, "fcastd.log"), "Log file used with --detach")
	pf.IntVar(&flagDaemonEventsBuffer, "events-buffer", cfg.Daemon.EventsBuffer, "Events kept in memory for /v1/events")
	pf.StringSliceVar(&flagDaemonOrigins, "allow-origin", cfg.Daemon.AllowedOrigins, "Browser origins allowed by CORS")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Fork into the background")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: set on the forked process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd, daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

// daemonFiles is the pid file plus the JSON sidecar describing the running daemon.
type daemonFiles struct {
	pidPath string
}

// daemonInfo is written next to the pid file so `daemon status` can find the API.
type daemonInfo struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	Source    string    `json:"source"`
	StartedAt time.Time `json:"startedAt"`
}

func (f daemonFiles) infoPath() string { return f.pidPath + ".json" }

func (f daemonFiles) pid() (int, error) {
	data, err := os.ReadFile(f.pidPath) //nolint:gosec // path comes from a local flag
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("pid file %s is corrupt", f.pidPath)
	}
	return pid, nil
}

func (f daemonFiles) info() (daemonInfo, error) {
	var info daemonInfo
	data, err := os.ReadFile(f.infoPath()) //nolint:gosec // path comes from a local flag
	if err != nil {
		return info, err
	}
	err = json.Unmarshal(data, &info)
	return info, err
}

func (f daemonFiles) write(info daemonInfo) error {
	if err := os.MkdirAll(filepath.Dir(f.pidPath), 0o750); err != nil {
		return fmt.Errorf("creating daemon directory: %w", err)
	}
	if err := os.WriteFile(f.pidPath, []byte(strconv.Itoa(info.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing pid file: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.infoPath(), append(data, '\n'), 0o600)
}

func (f daemonFiles) remove() {
	_ = os.Remove(f.pidPath)
	_ = os.Remove(f.infoPath())
}

// claim fails if a live daemon owns the pid file and clears a stale one.
func (f daemonFiles) claim() error {
	pid, err := f.pid()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return err
	case processAlive(pid):
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	log.WithField("pid", pid).Debug("removing stale daemon pid file")
	f.remove()
	return nil
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	switch {
	case flagDaemonDetach && flagDaemonChild:
		return errors.New("--detach and --child cannot be combined")
	case flagDaemonDetach:
		return forkDaemon(files)
	default:
		return serveDaemon(cmd.Context(), files)
	}
}

// forkDaemon re-executes the binary with --child, sending its output to the log file.
func forkDaemon(files daemonFiles) error {
	if err := files.claim(); err != nil {
		return err
	}
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating fcast binary: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600) //nolint:gosec // local flag
	if err != nil {
		return fmt.Errorf("opening daemon log: %w", err)
	}
	defer func() { _ = logf.Close() }()

	args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool {
		return a == "--detach" || strings.HasPrefix(a, "--detach=")
	})
	child := exec.Command(exe, append(args, "--child")...) //nolint:gosec // re-exec of the current binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("starting daemon: %w", err)
	}

	fmt.Print(cli.RenderKeyValues([][2]string{
		{"Started", fmt.Sprintf("pid %d", child.Process.Pid)},
		{"API", "http://" + flagDaemonAddr + "/v1/status"},
		{"Log", flagDaemonLogFile},
	}))
	return nil
}

func serveDaemon(parent context.Context, files daemonFiles) error {
	if err := files.claim(); err != nil {
		return err
	}
	if err := files.write(daemonInfo{
		PID:       os.Getpid(),
		Addr:      flagDaemonAddr,
		Source:    dataSourceLabel(),
		StartedAt: time.Now(),
	}); err != nil {
		return err
	}
	defer files.remove()

	fileCfg, err := config.Load()
	if err != nil {
		log.WithError(err).Warn("config unreadable, using defaults")
		fileCfg = config.DefaultConfig()
	}

	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	planner, closePlanner, err := openPlanner(ctx)
	if err != nil {
		return err
	}
	defer closePlanner()

	svc := daemon.New(daemon.Config{
		DataDir:        flagDataDir,
		Days:           flagDays,
		Category:       flagCategory,
		UseCache:       !flagNoCache,
		Interval:       flagDaemonInterval,
		Addr:           flagDaemonAddr,
		EventsBuffer:   flagDaemonEventsBuffer,
		AllowedOrigins: flagDaemonOrigins,
		Forecast:       fileCfg.Forecast,
		Planner:        planner,
		Log:            log,
		Load: func(ctx context.Context) (*pipeline.LoadResult, error) {
			return loadData(ctx, nil)
		},
	})

	log.WithFields(map[string]any{
		"addr":     flagDaemonAddr,
		"interval": flagDaemonInterval.String(),
		"source":   dataSourceLabel(),
	}).Info("daemon starting")
	fmt.Printf("  fcast daemon on http://%s, reloading %s every %s\n",
		flagDaemonAddr, dataSourceLabel(), flagDaemonInterval)

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func dataSourceLabel() string {
	if flagAPIURL != "" {
		return flagAPIURL
	}
	return flagDataDir
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	pid, err := files.pid()
	if err != nil {
		fmt.Println("  Daemon: not running")
		return nil
	}
	if !processAlive(pid) {
		fmt.Printf("  Daemon: not running (stale pid %d)\n", pid)
		return nil
	}

	addr := flagDaemonAddr
	pairs := [][2]string{{"PID", strconv.Itoa(pid)}}
	if info, err := files.info(); err == nil {
		if info.Addr != "" {
			addr = info.Addr
		}
		pairs = append(pairs,
			[2]string{"Source", info.Source},
			[2]string{"Up since", info.StartedAt.Local().Format(time.RFC3339)},
		)
	}
	pairs = append(pairs, [2]string{"Address", "http://" + addr})

	st, err := fetchDaemonStatus(cmd.Context(), addr)
	if err != nil {
		pairs = append(pairs, [2]string{"API", err.Error()})
		fmt.Print(cli.RenderKeyValues(pairs))
		return nil
	}

	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	sum := st.Summary
	pairs = append(pairs,
		[2]string{"Last poll", fmt.Sprintf("%s (%d polls)", lastPoll, st.PollCount)},
		[2]string{"Days", fmt.Sprintf("%d from %d records", sum.Days, sum.Records)},
		[2]string{"Total", fmt.Sprintf("%s, %s a day", cli.FormatCurrency(sum.TotalAmount), cli.FormatCurrency(sum.AverageDaily))},
		[2]string{"Trend", sum.Trend},
		[2]string{"Anomalies", strconv.Itoa(sum.AnomalyCount)},
		[2]string{"Subscribers", strconv.Itoa(st.SubscriberCount)},
	)
	if st.LastError != "" {
		pairs = append(pairs, [2]string{"Last error", st.LastError})
	}
	fmt.Print(cli.RenderKeyValues(pairs))
	return nil
}

func fetchDaemonStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed status: %w", err)
	}
	return st, nil
}

func runDaemonStop(_ *cobra.Command, _ []string) error {
	files := daemonFiles{pidPath: flagDaemonPIDFile}
	pid, err := files.pid()
	if err != nil {
		return errors.New("daemon is not running")
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("finding pid %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("signalling pid %d: %w", pid, err)
	}

	ticker := time.NewTicker(150 * time.Millisecond)
	defer ticker.Stop()
	timeout := time.After(8 * time.Second)
	for {
		select {
		case <-ticker.C:
			if !processAlive(pid) {
				files.remove()
				fmt.Printf("  Stopped daemon (pid %d)\n", pid)
				return nil
			}
		case <-timeout:
			return fmt.Errorf("daemon (pid %d) still running after SIGTERM", pid)
		}
	}
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}
