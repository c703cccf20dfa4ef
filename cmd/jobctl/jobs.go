package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/isdelr/jobboard-be/internal/browse"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List job postings, one page at a time",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			page, _ := cmd.Flags().GetInt("page")

			view := browse.NewJobListView(a.client, a.client.Session())
			if err := view.Load(cmd.Context()); err != nil {
				if msg := view.Error(); msg != "" {
					return fmt.Errorf("%s (%w)", msg, describe(err))
				}
				return describe(err)
			}

			out := cmd.OutOrStdout()
			if view.Len() == 0 {
				fmt.Fprintln(out, "No job listings available.")
				return nil
			}
			if page != 1 {
				if err := view.Paginator().JumpTo(page); err != nil {
					return err
				}
			}
			view.RefreshStatuses(cmd.Context())

			for _, item := range view.Items() {
				printListItem(out, item)
			}
			printPager(out, view)
			return nil
		},
	}
	cmd.Flags().Int("page", 1, "page number to show")
	return cmd
}

func printListItem(out io.Writer, item browse.ListItem) {
	job := item.Job
	fmt.Fprintf(out, "%s  %s\n", job.JobKey, job.Title)
	fmt.Fprintf(out, "    %s | %s | %s\n", job.CompanyName, job.Location, job.PostDate.Format("2006-01-02"))
	if job.Salary != nil && *job.Salary != "" {
		fmt.Fprintf(out, "    Salary: %s\n", *job.Salary)
	}
	fmt.Fprintf(out, "    Type: %s | %s\n", job.JobType, item.Status)
}

func printPager(out io.Writer, view *browse.JobListView) {
	p := view.Paginator()
	buttons := view.Buttons()
	if len(buttons) == 0 {
		return
	}
	labels := make([]string, len(buttons))
	for i, b := range buttons {
		labels[i] = b.String()
	}
	prev, next := "", ""
	if p.HasPrevious() {
		prev = "« prev  "
	}
	if p.HasNext() {
		next = "  next »"
	}
	fmt.Fprintf(out, "\n%s%s%s   (page %d of %d)\n", prev, strings.Join(labels, " "), next, p.Page(), p.TotalPages())
}

func newJobCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job <key>",
		Short: "Show one job posting",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			view := browse.NewDetailView(a.client, a.client.Session(), a.mapAPIKey)
			if err := view.Load(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}

			out := cmd.OutOrStdout()
			job := view.Job()
			loc := view.Location()
			fmt.Fprintln(out, job.Title)
			fmt.Fprintf(out, "Company:     %s\n", job.CompanyName)
			fmt.Fprintf(out, "Link:        %s\n", job.Link)
			if loc.Text != "" {
				fmt.Fprintf(out, "Location:    %s\n", loc.Text)
			}
			fmt.Fprintf(out, "Coordinates: %s\n", loc.Coordinates)
			if mapURL, ok := view.MapURL(); ok {
				fmt.Fprintf(out, "Map:         %s\n", mapURL)
			}
			fmt.Fprintf(out, "Post Date:   %s\n", job.PostDate.Format("2006-01-02"))
			if job.Salary != nil && *job.Salary != "" {
				fmt.Fprintf(out, "Salary:      %s\n", *job.Salary)
			}
			fmt.Fprintf(out, "Type:        %s\n", job.JobType)
			fmt.Fprintf(out, "\n%s\n", job.Description)

			if open, _ := cmd.Flags().GetBool("open"); open {
				return view.Apply(browserOpener{})
			}
			return nil
		},
	}
	cmd.Flags().Bool("open", false, "open the posting's link in a browser")
	return cmd
}

func newApplyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "apply <key>",
		Short: "Mark a job as applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			view := browse.NewDetailView(a.client, a.client.Session(), a.mapAPIKey)
			if err := view.Load(cmd.Context(), args[0]); err != nil {
				return describe(err)
			}
			if err := view.MarkAsApplied(cmd.Context()); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), view.State())
				return describe(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", args[0], view.State())
			return nil
		},
	}
}

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show recent account activity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			limit, _ := cmd.Flags().GetInt("limit")
			events, err := a.client.RecentEvents(cmd.Context(), limit)
			if err != nil {
				return describe(err)
			}
			for _, e := range events {
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %-16s %s\n", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Type, e.Message)
			}
			return nil
		},
	}
	cmd.Flags().Int("limit", 20, "number of events to show")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print jobs as they are marked applied from any device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			tracker := browse.NewStatusTracker(a.client, 1)
			tracker.OnUpdate(func(jobKey string, status browse.AppliedStatus) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", jobKey, status)
			})
			err = a.client.WatchApplied(ctx, func(jobKey string) {
				tracker.Set(jobKey, browse.StatusApplied)
			})
			return describe(err)
		},
	}
}

// browserOpener opens URLs with the platform's default handler.
type browserOpener struct{}

func (browserOpener) Open(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	return c.Start()
}
