package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calbook/internal/booking"
	"github.com/teemow/calbook/internal/provider"
)

// runCLI executes the root command in an isolated directory and returns
// stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(append(args, "--source", "synthetic", "--token-dir", t.TempDir()))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateTransport(t *testing.T) {
	tests := []struct {
		transport string
		wantErr   bool
	}{
		{transport: "stdio"},
		{transport: "streamable-http"},
		{transport: "sse", wantErr: true},
		{transport: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.transport, func(t *testing.T) {
			err := validateTransport(tt.transport)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAvailabilityCommand_JSON(t *testing.T) {
	out, err := runCLI(t, "availability",
		"--start", "2025-01-01T11:00:00Z",
		"--end", "2025-01-01T13:30:00Z",
		"-o", "json")
	require.NoError(t, err)

	var res booking.AvailabilityResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, booking.SourceSynthetic, res.Source)
	assert.False(t, res.Degraded)

	// The default lunch block removes 12:00-13:00.
	require.Len(t, res.Slots, 3)
	assert.Equal(t, "2025-01-01T11:00:00Z", res.Slots[0].Start)
	assert.Equal(t, "2025-01-01T11:30:00Z", res.Slots[1].Start)
	assert.Equal(t, "2025-01-01T13:00:00Z", res.Slots[2].Start)
	assert.Equal(t, 30, res.Slots[0].DurationMinutes)
}

func TestAvailabilityCommand_Text(t *testing.T) {
	out, err := runCLI(t, "availability",
		"--start", "2025-01-01T09:00:00Z",
		"--end", "2025-01-01T10:00:00Z")
	require.NoError(t, err)

	assert.Contains(t, out, "START")
	assert.Contains(t, out, "2025-01-01T09:30:00Z")
	assert.Contains(t, out, "2 slots, source: synthetic")
}

func TestAvailabilityCommand_MaxSlots(t *testing.T) {
	out, err := runCLI(t, "availability",
		"--start", "2025-01-01T09:00:00Z",
		"--end", "2025-01-01T11:00:00Z",
		"--max-slots", "1",
		"-o", "json")
	require.NoError(t, err)

	var res booking.AvailabilityResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Slots, 1)
}

func TestAvailabilityCommand_InvalidInput(t *testing.T) {
	_, err := runCLI(t, "availability", "--start", "not-a-time", "--end", "2025-01-01T10:00:00Z")
	require.Error(t, err)
	assert.Equal(t, provider.KindInvalidInput, provider.KindOf(err))
}

func TestAvailabilityCommand_MissingFlags(t *testing.T) {
	_, err := runCLI(t, "availability", "--start", "2025-01-01T09:00:00Z")
	assert.Error(t, err)
}

func TestEventsCommand(t *testing.T) {
	out, err := runCLI(t, "events",
		"--start", "2025-01-01T00:00:00Z",
		"--end", "2025-01-02T00:00:00Z",
		"-o", "json")
	require.NoError(t, err)

	var res booking.EventsResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Events, 1)
	assert.Equal(t, "Lunch", res.Events[0].Summary)
	assert.Equal(t, "2025-01-01T12:00:00Z", res.Events[0].Start)
}

func TestBookCommand(t *testing.T) {
	out, err := runCLI(t, "book",
		"--title", "Standup",
		"--start", "2025-01-01T09:00:00Z",
		"--end", "2025-01-01T09:30:00Z",
		"--attendee", "a@example.com",
		"--attendee", "b@example.com")
	require.NoError(t, err)

	assert.Contains(t, out, `Booked "Standup" (confirmed)`)
	assert.Contains(t, out, "start: 2025-01-01T09:00:00Z")
	assert.Contains(t, out, "attendees: a@example.com, b@example.com")
}

func TestBookCommand_EndBeforeStart(t *testing.T) {
	_, err := runCLI(t, "book",
		"--title", "Backwards",
		"--start", "2025-01-01T10:00:00Z",
		"--end", "2025-01-01T09:00:00Z")
	require.Error(t, err)
	assert.Equal(t, provider.KindInvalidInput, provider.KindOf(err))
}

func TestOutputFormatValidation(t *testing.T) {
	_, err := runCLI(t, "events",
		"--start", "2025-01-01T00:00:00Z",
		"--end", "2025-01-02T00:00:00Z",
		"-o", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "calbook version 1.2.3\n", out)
}

func TestAuthCommand_RequiresClient(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")
	t.Setenv("CALBOOK_GOOGLE_CLIENT_ID", "")
	t.Setenv("CALBOOK_GOOGLE_CLIENT_SECRET", "")

	_, err := runCLI(t, "auth", "--code", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "client ID and secret are required")
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "Calendar Tools", getCategoryFromToolName("calendar_get_availability"))
	assert.Equal(t, "Other", getCategoryFromToolName("unknown"))
}

func TestBuildToolsMarkdown(t *testing.T) {
	markdown, err := buildToolsMarkdown(context.Background())
	require.NoError(t, err)

	assert.Contains(t, markdown, "# MCP Tools Reference")
	assert.Contains(t, markdown, "- [Calendar Tools](#calendar-tools)")
	assert.Contains(t, markdown, "### calendar_get_availability")
	assert.Contains(t, markdown, "### calendar_list_events")
	assert.Contains(t, markdown, "### calendar_create_event")
	assert.Contains(t, markdown, "- `startTime` (required): ")
	assert.Contains(t, markdown, "- `description` (optional): ")
}

func TestGenerateToolMarkdown_PropertyWithoutDescription(t *testing.T) {
	tool := mcp.NewTool("calendar_example",
		mcp.WithDescription("Example tool"),
		mcp.WithNumber("count", mcp.Required()),
	)

	md := generateToolMarkdown(tool)
	assert.Contains(t, md, "### calendar_example")
	assert.Contains(t, md, "Example tool")
	assert.Contains(t, md, "- `count` (required): number parameter")
}
