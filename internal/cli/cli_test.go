package cli

import (
	"bytes"
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/timeslice-sort/internal/logging"
	"github.com/ChuLiYu/timeslice-sort/internal/report"
	"github.com/ChuLiYu/timeslice-sort/internal/storage/journal"
	"github.com/ChuLiYu/timeslice-sort/internal/worker"
	"github.com/ChuLiYu/timeslice-sort/pkg/types"
)

// execute 以指定參數執行 CLI，返回輸出
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeConfig 寫入臨時配置檔，poll_interval 縮短以加快交接
func writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
coordinator:
  poll_interval: 5ms
logging:
  level: warn
  format: text
` + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestBuildCLI(t *testing.T) {
	cmd := BuildCLI()

	assert.NotNil(t, cmd, "BuildCLI should return a non-nil command")
	assert.Equal(t, "timeslice", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)

	// 檢查子命令
	commands := cmd.Commands()
	assert.Len(t, commands, 3, "Should have 3 subcommands")

	commandNames := make(map[string]bool)
	for _, c := range commands {
		commandNames[c.Use] = true
	}
	assert.True(t, commandNames["run"])
	assert.True(t, commandNames["worker"])
	assert.True(t, commandNames["inspect"])

	// 檢查持久化標誌
	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag, "Should have --config flag")
	assert.Equal(t, "c", configFlag.Shorthand)
	assert.Equal(t, DefaultConfigPath, configFlag.DefValue)
}

func TestBuildRunCommand(t *testing.T) {
	cmd := buildRunCommand()

	assert.Equal(t, "run", cmd.Use)
	assert.NotNil(t, cmd.RunE)
	for _, name := range []string{"size", "algorithm", "time-limit", "interactive", "seed", "input", "remote", "journal", "report", "metrics-addr"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "missing flag --%s", name)
	}
}

func TestBuildWorkerCommand(t *testing.T) {
	cmd := buildWorkerCommand()

	assert.Equal(t, "worker", cmd.Use)
	listen := cmd.Flags().Lookup("listen")
	require.NotNil(t, listen)
	assert.Equal(t, ":50051", listen.DefValue)
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.yaml")

	configContent := `
run:
  vector_size: 500
  algorithm: heapsort
  time_limit: 250ms
  seed: 42

coordinator:
  poll_interval: 200ms
  remote_workers: ["10.0.0.1:50051", "10.0.0.2:50051"]

worker:
  buffer_size: 4

logging:
  level: debug
  format: json

metrics:
  enabled: true
  addr: ":9100"

journal:
  path: "./data/journal.log"
  sync: true

report:
  path: "./data/report.json"
`
	require.NoError(t, os.WriteFile(configPath, []byte(configContent), 0644))

	cfg, err := loadConfig(configPath)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, 500, cfg.Run.VectorSize)
	assert.Equal(t, "heapsort", cfg.Run.Algorithm)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.TimeLimit)
	assert.Equal(t, int64(42), cfg.Run.Seed)
	assert.Equal(t, 200*time.Millisecond, cfg.Coordinator.PollInterval)
	assert.Equal(t, []string{"10.0.0.1:50051", "10.0.0.2:50051"}, cfg.Coordinator.RemoteWorkers)
	assert.Equal(t, 4, cfg.Worker.BufferSize)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
	assert.Equal(t, "./data/journal.log", cfg.Journal.Path)
	assert.True(t, cfg.Journal.Sync)
	assert.Equal(t, "./data/report.json", cfg.Report.Path)
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := loadConfig("/nonexistent/config.yaml")

	assert.Error(t, err)
	assert.Nil(t, cfg, "Config should be nil on error")
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("run:\n  vector_size: [not, a, number\n"), 0644))

	cfg, err := loadConfig(configPath)

	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_PartialConfigKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("run:\n  algorithm: quicksort\n"), 0644))

	cfg, err := loadConfig(configPath)
	require.NoError(t, err)

	defaults := defaultConfig()
	assert.Equal(t, "quicksort", cfg.Run.Algorithm)
	assert.Equal(t, defaults.Run.VectorSize, cfg.Run.VectorSize)
	assert.Equal(t, defaults.Coordinator.PollInterval, cfg.Coordinator.PollInterval)
	assert.Equal(t, defaults.Logging.Format, cfg.Logging.Format)
}

func TestDefaultConfigIsValid(t *testing.T) {
	rc, err := runConfig(defaultConfig())
	require.NoError(t, err)
	assert.Equal(t, types.Mergesort, rc.Algorithm)
}

func TestRunConfigNormalizesAlgorithm(t *testing.T) {
	cfg := defaultConfig()
	cfg.Run.Algorithm = "HeapSort"

	rc, err := runConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, types.Heapsort, rc.Algorithm)

	cfg.Run.VectorSize = 0
	_, err = runConfig(cfg)
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestPromptRun(t *testing.T) {
	cfg := defaultConfig()
	var out bytes.Buffer

	err := promptRun(strings.NewReader("25\nQuicksort\n0.5\n"), &out, cfg)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Run.VectorSize)
	assert.Equal(t, "Quicksort", cfg.Run.Algorithm)
	assert.Equal(t, 500*time.Millisecond, cfg.Run.TimeLimit)
	assert.Contains(t, out.String(), "Vector size: ")
	assert.Contains(t, out.String(), "Algorithm (mergesort/quicksort/heapsort): ")
	assert.Contains(t, out.String(), "Time limit per worker (seconds): ")
}

func TestPromptRunRejectsBadInput(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"size not a number", "ten\nmergesort\n1\n"},
		{"time limit not a number", "10\nmergesort\nsoon\n"},
		{"input ends early", "10\n"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := promptRun(strings.NewReader(tc.input), &bytes.Buffer{}, defaultConfig())
			assert.Error(t, err)
		})
	}
}

func TestRunCommand_ExplicitMissingConfig(t *testing.T) {
	_, err := execute(t, "run", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestRunCommand_InvalidSize(t *testing.T) {
	_, err := execute(t, "run", "--config", writeConfig(t, ""), "--size", "0")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestRunCommand_RequiresTwoRemoteWorkers(t *testing.T) {
	_, err := execute(t, "run", "--config", writeConfig(t, ""), "--size", "5", "--remote", "127.0.0.1:1")
	assert.ErrorIs(t, err, types.ErrInvalidConfig)
}

// TestRunCommand_EndToEnd 在本地 Worker 上完成一次作業，並檢查日誌檔與報告
func TestRunCommand_EndToEnd(t *testing.T) {
	for _, alg := range types.Algorithms {
		t.Run(string(alg), func(t *testing.T) {
			dir := t.TempDir()
			journalPath := filepath.Join(dir, "journal.log")
			reportPath := filepath.Join(dir, "report.json")

			out, err := execute(t, "run",
				"--config", writeConfig(t, ""),
				"--size", "40",
				"--algorithm", string(alg),
				"--time-limit", "0",
				"--seed", "7",
				"--journal", journalPath,
				"--report", reportPath,
			)
			require.NoError(t, err, out)
			assert.Contains(t, out, "Summary:")

			rec, err := report.NewStore(reportPath).Load()
			require.NoError(t, err)
			assert.True(t, rec.Sorted)
			assert.Equal(t, alg, rec.Algorithm)
			assert.Equal(t, 40, rec.VectorSize)
			assert.Len(t, rec.Workers, 2)
			assert.LessOrEqual(t, rec.Transfers, rec.Slices)

			runs, err := journal.Summarize(journalPath)
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, rec.RunID, runs[0].RunID)
			assert.Equal(t, journal.EventDone, runs[0].Outcome)
			assert.Equal(t, rec.Transfers, runs[0].Transfers)

			inspected, err := execute(t, "inspect", "--journal", journalPath, "--report", reportPath)
			require.NoError(t, err)
			assert.Contains(t, inspected, rec.RunID)
			assert.Contains(t, inspected, "DONE")
			assert.Contains(t, inspected, "1 run")
		})
	}
}

func TestRunCommand_BatchedJournal(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "journal.log")
	cfgPath := writeConfig(t, "journal:\n  batch_size: 4\n  flush_interval: 1h\n")

	out, err := execute(t, "run", "--config", cfgPath, "--size", "20", "--time-limit", "0", "--journal", journalPath)
	require.NoError(t, err, out)

	// Close 時寫出剩餘的批次
	require.NoError(t, journal.Validate(journalPath))
	runs, err := journal.Summarize(journalPath)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, journal.EventDone, runs[0].Outcome)
}

func TestRunCommand_InputFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.yaml")
	reportPath := filepath.Join(dir, "report.json")
	require.NoError(t, os.WriteFile(input, []byte("[5, 3, 4, 1, 2]\n"), 0644))

	out, err := execute(t, "run",
		"--config", writeConfig(t, ""),
		"--size", "5",
		"--input", input,
		"--time-limit", "1h",
		"--report", reportPath,
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "[1 2 3 4 5]")

	rec, err := report.NewStore(reportPath).Load()
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Transfers)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, rec.Prefix)
	assert.Equal(t, 0, rec.FinishedBy)
}

func TestRunCommand_Interactive(t *testing.T) {
	cmd := BuildCLI()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("12\nmergesort\n0\n"))
	cmd.SetArgs([]string{"run", "--config", writeConfig(t, ""), "--interactive"})

	require.NoError(t, cmd.Execute(), out.String())
	assert.Contains(t, out.String(), "Vector size: ")
	assert.Contains(t, out.String(), "Summary:")
}

// TestRunCommand_RemoteWorkers 兩個 gRPC Worker 加上 run --remote
func TestRunCommand_RemoteWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var addrs []string
	done := make([]chan error, 2)
	for i := 0; i < 2; i++ {
		lis, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addrs = append(addrs, lis.Addr().String())

		done[i] = make(chan error, 1)
		cfg := worker.Config{ID: i, Algorithm: types.Quicksort, TimeLimit: 0}
		go func(ch chan error) {
			ch <- serveWorker(ctx, lis, cfg, 1, logging.Discard())
		}(done[i])
	}

	out, err := execute(t, "run",
		"--config", writeConfig(t, ""),
		"--size", "30",
		"--algorithm", "quicksort",
		"--time-limit", "0",
		"--remote", strings.Join(addrs, ","),
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Summary:")

	// 作業結束時 Coordinator 會對兩個 Worker 發送 Stop
	for i, ch := range done {
		select {
		case err := <-ch:
			assert.NoError(t, err, "worker %d", i)
		case <-time.After(5 * time.Second):
			t.Fatalf("worker %d did not stop", i)
		}
	}
}

func TestInspectCommand_RequiresInput(t *testing.T) {
	_, err := execute(t, "inspect")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to inspect")
}

func TestInspectCommand_MissingReport(t *testing.T) {
	_, err := execute(t, "inspect", "--report", filepath.Join(t.TempDir(), "none.json"))
	assert.ErrorIs(t, err, report.ErrReportNotFound)
}
