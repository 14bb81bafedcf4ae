package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iksnae/agent-webcall/testutil"
)

// resetFlags restores every command flag to its default between runs
func resetFlags() {
	verbose = false
	configPath = ""
	gatewayURL = ""
	agentsRefresh = false
	agentsOutput = "table"
	createCopy = false
	createOutput = "text"
	snippetToken = ""
	snippetCopy = false
	serveAgent = ""
	serveListen = ""
	healthcheckDetail = false
}

// writeTestConfig writes a config file whose cache lives in a temp dir
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := testutil.CreateTempDir(t)
	path := filepath.Join(dir, "config.yaml")
	content := fmt.Sprintf("cache:\n  path: %s\n%s", filepath.Join(dir, "agents.db"), extra)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// executeCommand runs the root command with args and returns its stdout
func executeCommand(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("WEBCALL_GATEWAY_URL", "")
	t.Setenv("WEBCALL_GATEWAY_KEY", "")
	resetFlags()
	t.Cleanup(resetFlags)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetIn(strings.NewReader(stdin))

	err := rootCmd.Execute()
	return stdout.String(), err
}
