package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout, stderr and
// the command's error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "remod", cmd.Use)
	assert.Contains(t, cmd.Long, "feed back")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"modules", "validate", "drive", "trace", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)
}

func TestDriveCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	driveCmd, _, err := cmd.Find([]string{"drive"})
	require.NoError(t, err)

	for _, name := range []string{"set", "db", "metrics", "max-depth"} {
		assert.NotNil(t, driveCmd.Flags().Lookup(name), "flag --%s", name)
	}
}

func TestTraceCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	traceCmd, _, err := cmd.Find([]string{"trace"})
	require.NoError(t, err)

	dbFlag := traceCmd.Flags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "", dbFlag.DefValue)
	assert.NotNil(t, traceCmd.Flags().Lookup("instance"))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := execute(t, "modules", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerboseLogsToStderr(t *testing.T) {
	stdout, stderr, err := execute(t, "drive", "Counter", "--set", "increment", "-v")
	require.NoError(t, err)

	assert.Contains(t, stdout, "displayText")
	assert.NotContains(t, stdout, "level=DEBUG")
	assert.Contains(t, stderr, "level=DEBUG")
	assert.Contains(t, stderr, "instance wired")
}

func TestQuietByDefault(t *testing.T) {
	_, stderr, err := execute(t, "drive", "Counter", "--set", "increment")
	require.NoError(t, err)
	assert.NotContains(t, stderr, "level=DEBUG")
}
