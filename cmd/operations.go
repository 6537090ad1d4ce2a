package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teemow/calbook/internal/booking"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func addRangeFlags(cmd *cobra.Command, start, end *string) {
	cmd.Flags().StringVar(start, "start", "", "Window start as ISO-8601 timestamp, e.g. 2025-01-01T09:00:00Z")
	cmd.Flags().StringVar(end, "end", "", "Window end as ISO-8601 timestamp")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func addOutputFlag(cmd *cobra.Command, output *string) {
	cmd.Flags().StringVarP(output, "output", "o", outputText, "Output format: text or json")
}

func validateOutput(output string) error {
	switch output {
	case outputText, outputJSON:
		return nil
	default:
		return fmt.Errorf("unsupported output format %q, must be text or json", output)
	}
}

func newAvailabilityCmd() *cobra.Command {
	var start, end, output string

	cmd := &cobra.Command{
		Use:   "availability",
		Short: "List free slots in a time window",
		Long: `List the free slots between --start and --end. Slots have the configured
slot duration and never overlap a busy interval of the calendar.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			_, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetAvailability(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeSlots(cmd.OutOrStdout(), res)
		},
	}

	addRangeFlags(cmd, &start, &end)
	addOutputFlag(cmd, &output)
	return cmd
}

func newEventsCmd() *cobra.Command {
	var start, end, output string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events in a time window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			_, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			res, err := svc.GetEvents(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeEvents(cmd.OutOrStdout(), res)
		},
	}

	addRangeFlags(cmd, &start, &end)
	addOutputFlag(cmd, &output)
	return cmd
}

func newBookCmd() *cobra.Command {
	var (
		in     booking.CreateEventInput
		output string
	)

	cmd := &cobra.Command{
		Use:   "book",
		Short: "Book a new event",
		Long: `Create an event from --start to --end. Attendees are given as repeated
--attendee flags or a comma separated list.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateOutput(output); err != nil {
				return err
			}
			_, svc, err := setup(cmd)
			if err != nil {
				return err
			}
			res, err := svc.CreateEvent(cmd.Context(), in)
			if err != nil {
				return err
			}
			if output == outputJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			return writeCreated(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "Event title")
	cmd.Flags().StringVar(&in.StartTime, "start", "", "Event start as ISO-8601 timestamp")
	cmd.Flags().StringVar(&in.EndTime, "end", "", "Event end as ISO-8601 timestamp")
	cmd.Flags().StringVar(&in.Description, "description", "", "Event description")
	cmd.Flags().StringSliceVar(&in.Attendees, "attendee", nil, "Attendee email address (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	addOutputFlag(cmd, &output)
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func servedNote(s booking.Served) string {
	if s.Degraded {
		return fmt.Sprintf("source: %s (degraded)", s.Source)
	}
	return "source: " + s.Source
}

func writeSlots(w io.Writer, res *booking.AvailabilityResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "START\tEND\tLABEL")
	for _, s := range res.Slots {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Start, s.End, s.Title)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d slots, %s\n", len(res.Slots), servedNote(res.Served))
	return err
}

func writeEvents(w io.Writer, res *booking.EventsResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTART\tEND\tSUMMARY")
	for _, e := range res.Events {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Start, e.End, e.Summary)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d events, %s\n", len(res.Events), servedNote(res.Served))
	return err
}

func writeCreated(w io.Writer, res *booking.CreateResult) error {
	e := res.Event
	var sb strings.Builder
	fmt.Fprintf(&sb, "Booked %q (%s)\n", e.Summary, e.Status)
	fmt.Fprintf(&sb, "  id:    %s\n", e.ID)
	fmt.Fprintf(&sb, "  start: %s\n", e.Start)
	fmt.Fprintf(&sb, "  end:   %s\n", e.End)
	if e.Link != "" {
		fmt.Fprintf(&sb, "  link:  %s\n", e.Link)
	}
	if len(e.Attendees) > 0 {
		fmt.Fprintf(&sb, "  attendees: %s\n", strings.Join(e.Attendees, ", "))
	}
	fmt.Fprintf(&sb, "%s\n", servedNote(res.Served))
	_, err := io.WriteString(w, sb.String())
	return err
}
