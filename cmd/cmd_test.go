package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cube2222/octoframe/config"
	"github.com/cube2222/octoframe/executortest"
	"github.com/cube2222/octoframe/journal"
	"github.com/cube2222/octoframe/plan"
	"github.com/cube2222/octoframe/schema"
)

func deniroExecutor(t *testing.T) (*executortest.Server, string) {
	t.Helper()
	listen := executortest.FreeAddress(t)
	executor := executortest.NewServer(t, listen)
	executor.SetResponder(func(g plan.Graph) []byte {
		switch g.Operations[len(g.Operations)-1].Kind {
		case plan.Sum:
			return []byte("5965")
		case plan.Count:
			return []byte("3")
		default:
			return []byte("Year,Title\n1976,Taxi Driver")
		}
	})
	return executor, listen
}

func writeConfig(t *testing.T, executorAddress, listenAddress, journalDir string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	body := fmt.Sprintf(`executor_address: %s
listen_address: %s
response_timeout: 2s
dial_timeout: 1s
journal_dir: %s
`, executorAddress, listenAddress, journalDir)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvExecutorAddress, "")
	t.Setenv(config.EnvListenAddress, "")

	configPath, logDir, verbose, profileMode = "", "", false, ""
	runStats = false
	explainFormat, explainOpen = "text", false
	historyLimit, historyFormat = 20, "table"
	schemaTable = schema.DefaultTable

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--log-dir", t.TempDir()))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRunCommand(t *testing.T) {
	executor, listen := deniroExecutor(t)
	journalDir := t.TempDir()
	cfg := writeConfig(t, executor.Addr(), listen, journalDir)

	out, err := executeCommand(t, "run", "--config", cfg, "--stats",
		"read:deniro.csv", "select:Year Title", "where:Score > 90", "sum:Year", "count", "fetch")
	require.NoError(t, err)

	assert.Contains(t, out, "Sum #4: 5965\n")
	assert.Contains(t, out, "Count #5: 3\n")
	assert.Contains(t, out, "Fetch #6: Year,Title\n1976,Taxi Driver\n")
	assert.Contains(t, out, "octoframe_flushes_total")

	received := executor.Received()
	require.Len(t, received, 3)
	assert.Len(t, received[0].Operations, 5)
	assert.Equal(t, uint64(4), received[1].Checkpoint)

	j, err := journal.Open(journalDir)
	require.NoError(t, err)
	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "Sum", entries[0].Operation)
	assert.Equal(t, "5965", entries[0].Response)
}

func TestRunCommandConnectionError(t *testing.T) {
	cfg := writeConfig(t, executortest.FreeAddress(t), executortest.FreeAddress(t), `""`)

	_, err := executeCommand(t, "run", "--config", cfg, "read:deniro.csv", "count")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 2")
}

func TestRunCommandInvalidStep(t *testing.T) {
	_, err := executeCommand(t, "run", "read:deniro.csv", "avg:Year")
	assert.Error(t, err)
}

func TestHistoryCommand(t *testing.T) {
	executor, listen := deniroExecutor(t)
	journalDir := t.TempDir()
	cfg := writeConfig(t, executor.Addr(), listen, journalDir)

	_, err := executeCommand(t, "run", "--config", cfg, "read:deniro.csv", "sum:Year", "read:deniro.csv", "count")
	require.NoError(t, err)

	out, err := executeCommand(t, "history", "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "operation")
	assert.Contains(t, out, "5965")

	out, err = executeCommand(t, "history", "--config", cfg, "--format", "json", "--limit", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], `"operation":"Count"`)

	j, err := journal.Open(journalDir)
	require.NoError(t, err)
	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	out, err = executeCommand(t, "history", "diff", entries[0].ID, entries[1].ID, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "--- "+entries[0].ID)
	assert.Contains(t, out, "+++ "+entries[1].ID)
	assert.Contains(t, out, "-Sum(Year) #2")
	assert.Contains(t, out, "+Count() #4")
}

func TestHistoryCommandEmptyJournal(t *testing.T) {
	journalDir := t.TempDir()
	cfg := writeConfig(t, "127.0.0.1:8000", "127.0.0.1:8001", journalDir)

	out, err := executeCommand(t, "history", "--config", cfg)
	require.NoError(t, err)
	assert.Equal(t, "no flushes recorded in "+journalDir+"\n", out)
}

func TestHistoryCommandJournalDisabled(t *testing.T) {
	cfg := writeConfig(t, "127.0.0.1:8000", "127.0.0.1:8001", `""`)
	_, err := executeCommand(t, "history", "--config", cfg)
	assert.Error(t, err)
}

func TestSchemaCommand(t *testing.T) {
	out, err := executeCommand(t, "schema", "Year:integer", "Title:string", "--table", "movies")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE movies (Title TEXT, Year INTEGER);\n", out)

	_, err = executeCommand(t, "schema", "Year")
	assert.Error(t, err)
	_, err = executeCommand(t, "schema", "Year:integer", "Year:float")
	assert.Error(t, err)
}

func TestExplainCommand(t *testing.T) {
	out, err := executeCommand(t, "explain", "read:deniro.csv", "count", "--format", "json")
	require.NoError(t, err)
	assert.Equal(t, `{"operations":[{"id":0,"function_name":"Empty","args":[]},{"id":1,"function_name":"Read","args":["deniro.csv"]},{"id":2,"function_name":"Count","args":[]}],"checkpoint":0}`+"\n", out)
}

func TestExecLine(t *testing.T) {
	executor, listen := deniroExecutor(t)
	cfg := config.Default()
	cfg.ExecutorAddress = executor.Addr()
	cfg.ListenAddress = listen
	cfg.JournalDir = ""

	s, err := newSession(cfg, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	var out bytes.Buffer
	for _, line := range []string{"read:deniro.csv", "select:Year Title", "graph", "sum:Year", "checkpoint", "avg:Year", "read:", "count", "read:deniro.csv", "count", "help", "exit", ""} {
		execLine(ctx, s.df, line, &out)
	}

	text := out.String()
	assert.Contains(t, text, "Select(Year Title) #2\n")
	assert.Contains(t, text, "Sum #3: 5965\n")
	assert.Contains(t, text, "3\n")
	assert.Contains(t, text, "error: unknown step 'avg'")
	assert.Contains(t, text, "error: read: ")
	assert.Contains(t, text, "error: Count failed with serialization error")
	assert.Contains(t, text, "Count #5: 3\n")
	assert.Contains(t, text, "sum:COLUMN, count, fetch")
	assert.Len(t, executor.Received(), 2)
}
