package main

import (
	"fmt"
	"os"
)

// 构建时通过 -ldflags 注入
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cmd := newRootCommand(buildInfo{Version: version, Commit: commit, Date: date})
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "markwrap: %v\n", err)
		os.Exit(1)
	}
}
