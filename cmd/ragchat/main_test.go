package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/poiesic/ragchat/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// runApp runs the CLI offline against in-memory storage.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("RAGCHAT_CONFIG", "")

	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	err := app.Run(append([]string{"ragchat", "--in-memory"}, args...))
	return out.String(), err
}

func findCommand(t *testing.T, app *cli.App, name string) *cli.Command {
	t.Helper()
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	t.Fatalf("command %q not found", name)
	return nil
}

func TestCommands(t *testing.T) {
	app := newApp()
	for _, name := range []string{"serve", "ingest", "history", "search"} {
		assert.NotNil(t, findCommand(t, app, name))
	}
}

func TestUserFlagRequired(t *testing.T) {
	for _, name := range []string{"ingest", "history", "search"} {
		t.Run(name, func(t *testing.T) {
			_, err := runApp(t, name, "anything")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "user")
		})
	}
}

func TestHistoryCommand_Empty(t *testing.T) {
	out, err := runApp(t, "history", "--user", "alice")
	require.NoError(t, err)
	assert.Contains(t, out, history.NoHistoryMessage)
}

func TestHistoryCommand_DefaultLimit(t *testing.T) {
	cmd := findCommand(t, newApp(), "history")
	for _, flag := range cmd.Flags {
		if f, ok := flag.(*cli.IntFlag); ok && f.Name == "limit" {
			assert.Equal(t, history.DefaultRecentLimit, f.Value)
			return
		}
	}
	t.Fatal("limit flag not found")
}

func TestIngestCommand(t *testing.T) {
	t.Run("requires files", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--user", "alice")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one file")
	})

	t.Run("rejects non-positive retries", func(t *testing.T) {
		_, err := runApp(t, "ingest", "--user", "alice", "--max-retries", "0", "a.pdf")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max-retries")
	})

	t.Run("reports failed documents", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.pdf")
		require.NoError(t, os.WriteFile(path, []byte("not a pdf"), 0o600))

		out, err := runApp(t, "ingest", "--user", "alice", path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ingestion failed")
		assert.Contains(t, out, "stored 0, skipped 0, failed 1")
	})
}

func TestSearchCommand_RequiresQuery(t *testing.T) {
	_, err := runApp(t, "search", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query is required")
}

func TestConfigFileMissing(t *testing.T) {
	_, err := runApp(t, "--config", "does-not-exist.toml", "history", "--user", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}

func TestSetupLogger(t *testing.T) {
	newLoggerApp := func() *cli.App {
		return &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info"},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error { return nil },
		}
	}

	for _, level := range []string{"debug", "info", "warn", "error", "DEBUG", "WaRn"} {
		t.Run(level, func(t *testing.T) {
			require.NoError(t, newLoggerApp().Run([]string{"test", "-l", level}))
		})
	}

	t.Run("invalid log level returns error", func(t *testing.T) {
		err := newLoggerApp().Run([]string{"test", "--log-level", "invalid"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}
