// ============================================================================
// timeslice - 程式進入點
// ============================================================================
//
// main.go 應該非常簡單，所有邏輯在 internal/cli
//
//	go run ./cmd/timeslice run --size 1000 --algorithm heapsort --time-limit 50ms
//	go run ./cmd/timeslice run --interactive
//	go run ./cmd/timeslice worker --listen :50051 --id 0
//	go run ./cmd/timeslice inspect --journal data/journal.log
//
// ============================================================================

package main

import (
	"fmt"
	"os"

	"github.com/ChuLiYu/timeslice-sort/internal/cli"
)

// 由 CI 注入：go build -ldflags "-X main.version=1.0.0 -X main.commit=$(git rev-parse HEAD)"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "嚴重錯誤: %v\n", r)
			os.Exit(1)
		}
	}()

	rootCmd := cli.BuildCLI()
	if version != "dev" {
		rootCmd.Version = fmt.Sprintf("%s (commit: %s)", version, commit)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "錯誤: %v\n", err)
		os.Exit(1)
	}
}
