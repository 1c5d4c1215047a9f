// ============================================================================
// Timeslice CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra based command line interface for the time-sliced sorter
//
// Command Structure:
//   timeslice                      # Root command
//   ├── run                        # Sort one vector with two cooperating workers
//   │   ├── --size / --algorithm / --time-limit
//   │   ├── --interactive          # Prompt for the three values on stdin
//   │   └── --remote a,b           # Use two `timeslice worker` processes
//   ├── worker                     # Serve one worker over gRPC
//   ├── inspect                    # Summarize a journal or a report file
//   ├── --config, -c               # Config file (default: configs/default.yaml)
//   └── --version
//
// Configuration Management:
//   YAML config file; every section has defaults, so a missing default
//   config file is not an error. Flags override the file only when set.
//   - run:         vector size, algorithm, time limit, seed, input file
//   - coordinator: poll interval, remote worker addresses
//   - worker:      channel buffer size
//   - logging:     level and format (console/text/json)
//   - metrics:     Prometheus endpoint
//   - journal:     handoff journal path, optional batching
//   - report:      run report path
//
// Signal Handling:
//   run and worker capture SIGINT/SIGTERM. run cancels the job (workers are
//   still sent a stop signal); worker stops the gRPC server gracefully.
//
// ============================================================================

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"gopkg.in/yaml.v3"

	"github.com/ChuLiYu/timeslice-sort/internal/coordinator"
	"github.com/ChuLiYu/timeslice-sort/internal/datasource"
	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/metrics"
	"github.com/ChuLiYu/timeslice-sort/internal/report"
	"github.com/ChuLiYu/timeslice-sort/internal/server"
	"github.com/ChuLiYu/timeslice-sort/internal/storage/journal"
	"github.com/ChuLiYu/timeslice-sort/internal/transport"
	"github.com/ChuLiYu/timeslice-sort/internal/worker"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// DefaultConfigPath 預設配置檔路徑
const DefaultConfigPath = "configs/default.yaml"

// summaryPrefix 摘要中顯示的元素個數
const summaryPrefix = 10

// Config represents the complete configuration structure
// Maps config file fields through YAML tags
type Config struct {
	Run struct {
		VectorSize int           `yaml:"vector_size"`
		Algorithm  string        `yaml:"algorithm"`
		TimeLimit  time.Duration `yaml:"time_limit"`
		Seed       int64         `yaml:"seed"`  // 0 表示依時間產生
		Input      string        `yaml:"input"` // YAML 向量檔，設定時取代隨機產生
	} `yaml:"run"`

	Coordinator struct {
		PollInterval  time.Duration `yaml:"poll_interval"`
		RemoteWorkers []string      `yaml:"remote_workers"`
	} `yaml:"coordinator"`

	Worker struct {
		BufferSize int `yaml:"buffer_size"`
	} `yaml:"worker"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`

	Journal struct {
		Path          string        `yaml:"path"`
		Sync          bool          `yaml:"sync"`
		BatchSize     int           `yaml:"batch_size"`     // > 1 時批次寫入，每批同步一次
		FlushInterval time.Duration `yaml:"flush_interval"` // 批次的最長等待
	} `yaml:"journal"`

	Report struct {
		Path string `yaml:"path"`
	} `yaml:"report"`
}

// defaultConfig 沒有配置檔時使用的預設值
func defaultConfig() *Config {
	cfg := &Config{}
	cfg.Run.VectorSize = 1000
	cfg.Run.Algorithm = string(types.Mergesort)
	cfg.Run.TimeLimit = 100 * time.Millisecond
	cfg.Coordinator.PollInterval = coordinator.DefaultPollInterval
	cfg.Worker.BufferSize = 1
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "console"
	cfg.Metrics.Addr = ":9090"
	cfg.Journal.FlushInterval = 100 * time.Millisecond
	return cfg
}

var configFile string

// BuildCLI builds the command tree
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "timeslice",
		Short: "Cooperative time-sliced distributed sorting",
		Long: `timeslice sorts a vector with two workers that take turns.
Each worker sorts for at most one time slice and hands the partially
sorted vector back to the coordinator, which forwards it to the other
worker until one of them finishes.`,
		Version:       "1.0.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", DefaultConfigPath, "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildWorkerCommand())
	rootCmd.AddCommand(buildInspectCommand())

	return rootCmd
}

// resolveConfig 載入配置檔；只有明確指定的檔案不存在時才報錯
func resolveConfig(cmd *cobra.Command) (*Config, error) {
	explicit := cmd.Flags().Changed("config")
	if !explicit {
		if _, err := os.Stat(configFile); errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
	}
	return loadConfig(configFile)
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return cfg, nil
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return logging.NewLoggerWithWriter(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format, w)
}

// ============================================================================
// run
// ============================================================================

type runFlags struct {
	size        int
	algorithm   string
	timeLimit   time.Duration
	seed        int64
	input       string
	remote      []string
	journal     string
	report      string
	metricsAddr string
	logLevel    string
	logFormat   string
	interactive bool
}

func buildRunCommand() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Sort one vector with two cooperating workers",
		Long: `Generate (or load) a vector and sort it with two workers that hand it
back and forth every time slice. Values come from the config file, then
from flags, then from interactive prompts when --interactive is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			applyRunFlags(cmd, cfg, &f)

			if f.interactive {
				if err := promptRun(cmd.InOrStdin(), cmd.OutOrStdout(), cfg); err != nil {
					return err
				}
			}
			return runSort(cmd, cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&f.size, "size", "n", 0, "vector size")
	flags.StringVarP(&f.algorithm, "algorithm", "a", "", "sorting algorithm (mergesort/quicksort/heapsort)")
	flags.DurationVarP(&f.timeLimit, "time-limit", "t", 0, "time slice per worker (e.g. 50ms, 0 for one step per slice)")
	flags.BoolVarP(&f.interactive, "interactive", "i", false, "prompt for size, algorithm and time limit")
	flags.Int64Var(&f.seed, "seed", 0, "random seed (0 uses the current time)")
	flags.StringVar(&f.input, "input", "", "YAML file with the vector to sort")
	flags.StringSliceVar(&f.remote, "remote", nil, "addresses of two remote workers (host:port,host:port)")
	flags.StringVar(&f.journal, "journal", "", "append handoff events to this journal file")
	flags.StringVar(&f.report, "report", "", "write the run report to this JSON file")
	flags.StringVar(&f.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flags.StringVar(&f.logLevel, "log-level", "", "log level (debug/info/warn/error)")
	flags.StringVar(&f.logFormat, "log-format", "", "log format (console/text/json)")

	return cmd
}

// applyRunFlags 只覆寫使用者明確設定的旗標
func applyRunFlags(cmd *cobra.Command, cfg *Config, f *runFlags) {
	flags := cmd.Flags()
	if flags.Changed("size") {
		cfg.Run.VectorSize = f.size
	}
	if flags.Changed("algorithm") {
		cfg.Run.Algorithm = f.algorithm
	}
	if flags.Changed("time-limit") {
		cfg.Run.TimeLimit = f.timeLimit
	}
	if flags.Changed("seed") {
		cfg.Run.Seed = f.seed
	}
	if flags.Changed("input") {
		cfg.Run.Input = f.input
	}
	if flags.Changed("remote") {
		cfg.Coordinator.RemoteWorkers = f.remote
	}
	if flags.Changed("journal") {
		cfg.Journal.Path = f.journal
	}
	if flags.Changed("report") {
		cfg.Report.Path = f.report
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = f.metricsAddr
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
}

// promptRun 依序詢問向量大小、演算法與時間限制
func promptRun(in io.Reader, out io.Writer, cfg *Config) error {
	scanner := bufio.NewScanner(in)
	ask := func(question string) (string, error) {
		fmt.Fprint(out, question)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return strings.TrimSpace(scanner.Text()), nil
	}

	answer, err := ask("Vector size: ")
	if err != nil {
		return fmt.Errorf("read vector size: %w", err)
	}
	size, err := strconv.Atoi(answer)
	if err != nil {
		return fmt.Errorf("%w: vector size %q is not an integer", types.ErrInvalidConfig, answer)
	}
	cfg.Run.VectorSize = size

	answer, err = ask("Algorithm (mergesort/quicksort/heapsort): ")
	if err != nil {
		return fmt.Errorf("read algorithm: %w", err)
	}
	cfg.Run.Algorithm = answer

	answer, err = ask("Time limit per worker (seconds): ")
	if err != nil {
		return fmt.Errorf("read time limit: %w", err)
	}
	seconds, err := strconv.ParseFloat(answer, 64)
	if err != nil {
		return fmt.Errorf("%w: time limit %q is not a number", types.ErrInvalidConfig, answer)
	}
	cfg.Run.TimeLimit = time.Duration(seconds * float64(time.Second))
	return nil
}

// runConfig 驗證並正規化 run 區段
func runConfig(cfg *Config) (types.RunConfig, error) {
	rc := types.RunConfig{
		VectorSize: cfg.Run.VectorSize,
		Algorithm:  types.Algorithm(cfg.Run.Algorithm),
		TimeLimit:  cfg.Run.TimeLimit,
	}
	if err := rc.Validate(); err != nil {
		return rc, err
	}
	alg, _ := types.ParseAlgorithm(cfg.Run.Algorithm)
	rc.Algorithm = alg
	return rc, nil
}

func newSource(cfg *Config) (datasource.Source, error) {
	if cfg.Run.Input == "" {
		return datasource.NewRandom(cfg.Run.Seed, datasource.DefaultMax), nil
	}
	return datasource.Load(cfg.Run.Input)
}

func runSort(cmd *cobra.Command, cfg *Config) error {
	rc, err := runConfig(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	base := newLogger(cfg, out)
	logger := base.With(logging.SourceKey, "Client")
	logger.Info("Starting distributed sort", "algorithm", rc.Algorithm, "size", rc.VectorSize, "time_limit", rc.TimeLimit)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	if cfg.Metrics.Enabled {
		metricsCtx, cancelMetrics := context.WithCancel(context.Background())
		metricsDone := make(chan struct{})
		defer func() {
			cancelMetrics()
			<-metricsDone
		}()
		go func() {
			defer close(metricsDone)
			if err := metrics.Serve(metricsCtx, cfg.Metrics.Addr, metrics.NewRouter(reg), logger); err != nil {
				logger.Warn("metrics server stopped", "error", err)
			}
		}()
	}

	opts := []coordinator.Option{coordinator.WithLogger(base), coordinator.WithMetrics(collector)}

	// Journal
	if cfg.Journal.Path != "" {
		j, err := journal.Open(cfg.Journal.Path, cfg.Journal.Sync && cfg.Journal.BatchSize <= 1)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer j.Close()
		if n := j.Truncated(); n > 0 {
			logger.Warn("Journal ended in a partial record, truncated", "path", j.Path(), "bytes", n)
		}

		if cfg.Journal.BatchSize > 1 {
			bw := journal.NewBatchWriter(j, cfg.Journal.BatchSize, cfg.Journal.FlushInterval)
			defer func() {
				if err := bw.Close(); err != nil {
					logger.Warn("failed to flush journal", "error", err)
				}
			}()
			opts = append(opts, coordinator.WithJournal(bw))
		} else {
			opts = append(opts, coordinator.WithJournal(j))
		}
	}

	// Input vector
	src, err := newSource(cfg)
	if err != nil {
		return fmt.Errorf("failed to prepare input: %w", err)
	}
	if cfg.Run.Input == "" {
		logger.Info("Generating random vector...")
	}
	buf, err := src.Generate(rc.VectorSize)
	if err != nil {
		return fmt.Errorf("failed to generate vector: %w", err)
	}
	logger.Info(fmt.Sprintf("Vector generated. First elements: %v...", buf.Prefix(summaryPrefix)))

	// Workers
	links, pool, cleanup, err := startWorkers(cfg, rc, base, collector)
	if err != nil {
		return err
	}
	defer cleanup()

	coord, err := coordinator.New(coordinator.Config{
		PollInterval: cfg.Coordinator.PollInterval,
		Algorithm:    rc.Algorithm,
	}, links, opts...)
	if err != nil {
		return err
	}

	result, runErr := coord.Run(ctx, buf)
	if pool != nil {
		if err := pool.Wait(); err != nil {
			logger.Warn("worker exited with error", "error", err)
		}
	}

	if cfg.Report.Path != "" {
		if err := writeReport(cfg.Report.Path, rc, result, pool); err != nil {
			logger.Error("failed to write report", "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("sort failed after %d transfers: %w", result.Transfers, runErr)
	}

	printSummary(out, rc, result)
	logger.Info("Program finished")
	return nil
}

// startWorkers 啟動本地 Worker Pool，或連線到兩個遠端 Worker
func startWorkers(cfg *Config, rc types.RunConfig, logger *slog.Logger, obs worker.Observer) ([2]transport.Link, *worker.Pool, func(), error) {
	var links [2]transport.Link

	if remotes := cfg.Coordinator.RemoteWorkers; len(remotes) > 0 {
		if len(remotes) != 2 {
			return links, nil, nil, fmt.Errorf("%w: need exactly 2 remote workers, got %d", types.ErrInvalidConfig, len(remotes))
		}
		var dialed []*transport.RemoteLink
		closeAll := func() {
			for _, l := range dialed {
				_ = l.Close()
			}
		}
		for i, addr := range remotes {
			l, err := transport.Dial(addr)
			if err != nil {
				closeAll()
				return links, nil, nil, fmt.Errorf("failed to dial worker %d at %s: %w", i, addr, err)
			}
			dialed = append(dialed, l)
			links[i] = l
		}
		logger.With(logging.SourceKey, "Client").Info("Using remote workers", "addrs", strings.Join(remotes, ","))
		return links, nil, closeAll, nil
	}

	logger.With(logging.SourceKey, "Client").Info("Starting workers...")
	pool := worker.NewPool(cfg.Worker.BufferSize, logger)
	// Worker 由 Coordinator 的停止訊號結束，不綁定訊號 ctx
	if err := pool.Start(context.Background(), 2, worker.Config{
		Algorithm: rc.Algorithm,
		TimeLimit: rc.TimeLimit,
	}, worker.WithObserver(obs)); err != nil {
		return links, nil, nil, fmt.Errorf("failed to start workers: %w", err)
	}
	pl, err := pool.Links()
	if err != nil {
		_ = pool.Stop()
		return links, nil, nil, err
	}
	copy(links[:], pl)
	return links, pool, func() { _ = pool.Stop() }, nil
}

func writeReport(path string, rc types.RunConfig, result coordinator.Report, pool *worker.Pool) error {
	rec := report.Record{
		RunID:        result.RunID,
		Algorithm:    rc.Algorithm,
		VectorSize:   rc.VectorSize,
		TimeLimitMs:  rc.TimeLimit.Milliseconds(),
		Transfers:    result.Transfers,
		Slices:       result.Slices,
		FinishedBy:   result.FinishedBy,
		TotalSeconds: result.TotalElapsed.Seconds(),
		Sorted:       result.FinishedBy >= 0,
		Prefix:       result.Buffer.Prefix(summaryPrefix),
	}
	if pool != nil {
		rec.Workers = pool.Stats()
	}
	return report.NewStore(path).Write(rec)
}

func printSummary(w io.Writer, rc types.RunConfig, result coordinator.Report) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  ├─ Run ID:       %s\n", result.RunID)
	fmt.Fprintf(w, "  ├─ Algorithm:    %s\n", rc.Algorithm)
	fmt.Fprintf(w, "  ├─ Elements:     %s\n", humanize.Comma(int64(rc.VectorSize)))
	fmt.Fprintf(w, "  ├─ Time limit:   %s\n", rc.TimeLimit)
	fmt.Fprintf(w, "  ├─ Total time:   %.2fs\n", result.TotalElapsed.Seconds())
	fmt.Fprintf(w, "  ├─ Transfers:    %s\n", humanize.Comma(int64(result.Transfers)))
	fmt.Fprintf(w, "  ├─ Finished by:  Worker %d\n", result.FinishedBy)
	fmt.Fprintf(w, "  └─ First values: %v\n", result.Buffer.Prefix(summaryPrefix))
}

// ============================================================================
// worker
// ============================================================================

func buildWorkerCommand() *cobra.Command {
	var (
		listen    string
		id        int
		algorithm string
		timeLimit time.Duration
	)

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Serve one sorting worker over gRPC",
		Long:  "Run a single worker behind the timeslice.v1.SortWorker gRPC service. Use two of these with `run --remote`.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if !cmd.Flags().Changed("algorithm") {
				algorithm = cfg.Run.Algorithm
			}
			if !cmd.Flags().Changed("time-limit") {
				timeLimit = cfg.Run.TimeLimit
			}
			alg, err := types.ParseAlgorithm(algorithm)
			if err != nil {
				return err
			}
			if timeLimit < 0 {
				return fmt.Errorf("%w: time limit must not be negative, got %s", types.ErrInvalidConfig, timeLimit)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			lis, err := net.Listen("tcp", listen)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", listen, err)
			}
			return serveWorker(ctx, lis, worker.Config{ID: id, Algorithm: alg, TimeLimit: timeLimit}, cfg.Worker.BufferSize, newLogger(cfg, cmd.OutOrStdout()))
		},
	}

	cmd.Flags().StringVar(&listen, "listen", ":50051", "gRPC listen address")
	cmd.Flags().IntVar(&id, "id", 0, "worker id (0 or 1)")
	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", string(types.Mergesort), "sorting algorithm")
	cmd.Flags().DurationVarP(&timeLimit, "time-limit", "t", 100*time.Millisecond, "time slice")

	return cmd
}

// serveWorker 在 lis 上提供單一 Worker，直到收到 Stop RPC 或 ctx 取消
func serveWorker(ctx context.Context, lis net.Listener, cfg worker.Config, bufferSize int, logger *slog.Logger) error {
	link, port := transport.NewPipe(bufferSize)
	w, err := worker.New(cfg, port, logger)
	if err != nil {
		return err
	}

	runErr := make(chan error, 1)
	go func() { runErr <- w.Run(context.Background()) }()

	srv := server.NewServer(link, logger)
	gs := grpc.NewServer(transport.ServerOptions()...)
	transport.RegisterSortWorkerServer(gs, srv)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("worker listening", logging.SourceKey, fmt.Sprintf("Worker %d", cfg.ID), "addr", lis.Addr().String())
		serveErr <- gs.Serve(lis)
	}()

	select {
	case <-srv.Done():
		gs.GracefulStop()
	case <-ctx.Done():
		_ = link.Send(context.Background(), types.Stop())
		gs.GracefulStop()
	case err := <-serveErr:
		_ = link.Close()
		return fmt.Errorf("grpc server: %w", err)
	}

	_ = link.Close()
	return <-runErr
}

// ============================================================================
// inspect
// ============================================================================

func buildInspectCommand() *cobra.Command {
	var journalPath, reportPath string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a handoff journal or a run report",
		RunE: func(cmd *cobra.Command, args []string) error {
			if journalPath == "" && reportPath == "" {
				return fmt.Errorf("nothing to inspect (use --journal or --report)")
			}
			out := cmd.OutOrStdout()
			if journalPath != "" {
				if err := inspectJournal(out, journalPath); err != nil {
					return err
				}
			}
			if reportPath != "" {
				if err := inspectReport(out, reportPath); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&journalPath, "journal", "", "journal file to replay")
	cmd.Flags().StringVar(&reportPath, "report", "", "report file to show")
	return cmd
}

func inspectJournal(w io.Writer, path string) error {
	runs, err := journal.Summarize(path)
	if err != nil {
		return fmt.Errorf("failed to replay journal: %w", err)
	}

	fmt.Fprintf(w, "Journal %s: %s\n", path, pluralRuns(len(runs)))
	for _, run := range runs {
		outcome := string(run.Outcome)
		if outcome == "" {
			outcome = "UNFINISHED"
		}
		fmt.Fprintf(w, "  ├─ %s  %s\n", run.RunID, outcome)
		fmt.Fprintf(w, "  │  ├─ Elements:  %s\n", humanize.Comma(int64(run.Size)))
		fmt.Fprintf(w, "  │  ├─ Events:    %d\n", run.Events)
		fmt.Fprintf(w, "  │  ├─ Transfers: %s\n", humanize.Comma(int64(run.Transfers)))
		if run.Outcome == journal.EventDone {
			fmt.Fprintf(w, "  │  ├─ Finished by Worker %d\n", run.FinishedBy)
		}
		fmt.Fprintf(w, "  │  └─ Started %s, took %s\n", humanize.Time(run.Started), run.Duration())
	}
	return nil
}

func inspectReport(w io.Writer, path string) error {
	rec, err := report.NewStore(path).Load()
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	fmt.Fprintf(w, "Report %s:\n", path)
	fmt.Fprintf(w, "  ├─ Run ID:     %s\n", rec.RunID)
	fmt.Fprintf(w, "  ├─ Algorithm:  %s\n", rec.Algorithm)
	fmt.Fprintf(w, "  ├─ Elements:   %s\n", humanize.Comma(int64(rec.VectorSize)))
	fmt.Fprintf(w, "  ├─ Sorted:     %t\n", rec.Sorted)
	fmt.Fprintf(w, "  ├─ Transfers:  %s\n", humanize.Comma(int64(rec.Transfers)))
	fmt.Fprintf(w, "  ├─ Total time: %s\n", rec.TotalElapsed())
	fmt.Fprintf(w, "  └─ Created:    %s\n", humanize.Time(time.UnixMilli(rec.CreatedAt)))
	return nil
}

func pluralRuns(n int) string {
	if n == 1 {
		return "1 run"
	}
	return fmt.Sprintf("%d runs", n)
}
