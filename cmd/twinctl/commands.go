package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/service"
)

func newHealthCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := c.client().Health(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return c.emit(w, h, func() {
				fmt.Fprintf(w, "%s %v (version %v)\n", green("●"), h["status"], h["version"])
			})
		},
	}
}

func newSubmitCmd(c *cli) *cobra.Command {
	var (
		req      request.Request
		priority string
		sync     bool
		wait     bool
	)
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a request for expert analysis",
		Example: `  twinctl submit --type utility_management --description "Reduce our electricity usage"
  twinctl submit --type comprehensive_analysis --description "Fleet fuel cost review" --wait
  twinctl submit --type financial_health --description "Quarterly budget review" --sync`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if req.RequestID == "" {
				req.RequestID = "req-" + uuid.NewString()
			}
			req.Priority = request.Priority(priority)
			ctx := cmd.Context()
			w := cmd.OutOrStdout()
			cl := c.client()

			if sync {
				resp, err := cl.Process(ctx, &req)
				if err != nil {
					return err
				}
				return c.emit(w, resp, func() { printFinalResponse(w, resp) })
			}

			acc, err := cl.Submit(ctx, &req)
			if err != nil {
				return err
			}
			if !wait {
				return c.emit(w, acc, func() {
					fmt.Fprintf(w, "%s %s\n", green("accepted"), acc.RequestID)
					fmt.Fprintf(w, "processing id: %s\n", cyan(acc.ProcessingID))
				})
			}
			job, err := cl.WaitJob(ctx, acc.ProcessingID, 500*time.Millisecond)
			if err != nil {
				return err
			}
			return c.emit(w, job, func() { printJob(w, job) })
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.RequestID, "id", "", "request ID (default: generated)")
	f.StringVarP(&req.UserID, "user", "u", "twinctl", "user ID")
	f.StringVarP(&req.Type, "type", "t", request.TypeGeneral, "request type, e.g. utility_management")
	f.StringVarP(&req.Description, "description", "d", "", "free-text request description")
	f.StringVarP(&priority, "priority", "p", string(request.PriorityMedium), "low, medium or high")
	f.BoolVar(&sync, "sync", false, "process synchronously and print the full response")
	f.BoolVarP(&wait, "wait", "w", false, "poll the background job until it finishes")
	_ = cmd.MarkFlagRequired("description")
	cmd.MarkFlagsMutuallyExclusive("sync", "wait")
	return cmd
}

func newJobCmd(c *cli) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "job <processing-id>",
		Short: "Show a background job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cl := c.client()
			ctx := cmd.Context()
			var (
				job *service.Job
				err error
			)
			if wait {
				job, err = cl.WaitJob(ctx, args[0], 500*time.Millisecond)
			} else {
				job, err = cl.Job(ctx, args[0])
			}
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return c.emit(w, job, func() { printJob(w, job) })
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the job finishes")
	return cmd
}

func newResponsesCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "responses",
		Short: "List recent published and background records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			page, err := c.client().Responses(cmd.Context(), limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return c.emit(w, page, func() {
				fmt.Fprintf(w, "%s\n", bold(fmt.Sprintf("%d record(s)", page.Count)))
				for _, r := range page.Responses {
					printRecord(w, r)
				}
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of trailing records")
	return cmd
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show principal and expert agent status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.client().AgentsStatus(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			return c.emit(w, st, func() { printStatus(w, st) })
		},
	}
}

// --- rendering ---

func publicationColor(status service.PublicationStatus) string {
	switch status {
	case service.PublicationPublished:
		return green(string(status))
	case service.PublicationWithheld:
		return yellow(string(status))
	default:
		return red(string(status))
	}
}

func printFinalResponse(w io.Writer, r *service.FinalResponse) {
	fmt.Fprintf(w, "%s %s (%s)\n", bold("request"), r.RequestID, r.RequestType)
	fmt.Fprintf(w, "publication: %s  score: %.3f  level: %s\n",
		publicationColor(r.PublicationStatus), r.QualityReport.OverallScore, r.QualityReport.QualityLevel)
	fmt.Fprintf(w, "experts: %d ok / %d failed  %s\n",
		r.Synthesis.SuccessfulExperts, r.Synthesis.FailedExperts, gray(fmt.Sprintf("%.3fs", r.ProcessingTime)))
	if r.Synthesis.Summary != "" {
		fmt.Fprintf(w, "summary: %s\n", r.Synthesis.Summary)
	}
	for _, rec := range r.Synthesis.Recommendations {
		fmt.Fprintf(w, "  - %s\n", rec)
	}
	if r.QualityReport.Summary != "" {
		fmt.Fprintf(w, "%s\n", gray(r.QualityReport.Summary))
	}
}

func printJob(w io.Writer, j *service.Job) {
	status := string(j.Status)
	switch j.Status {
	case service.JobCompleted:
		status = green(status)
	case service.JobError:
		status = red(status)
	default:
		status = yellow(status)
	}
	fmt.Fprintf(w, "%s %s  request %s\n", status, cyan(j.ProcessingID), j.RequestID)
	if j.PublicationStatus != "" {
		fmt.Fprintf(w, "publication: %s  score: %.3f  %s\n",
			publicationColor(j.PublicationStatus), j.QualityScore, gray(fmt.Sprintf("%.3fs", j.ProcessingTime)))
	}
	if j.Error != "" {
		fmt.Fprintf(w, "error: %s\n", red(j.Error))
	}
}

func printRecord(w io.Writer, r map[string]any) {
	id := r["request_id"]
	ts := r["timestamp"]
	switch {
	case r["processing_id"] != nil:
		fmt.Fprintf(w, "%v  %v  background %v\n", gray(ts), id, r["status"])
	default:
		fmt.Fprintf(w, "%v  %v  %v\n", gray(ts), id, publicationColor(service.PublicationStatus(fmt.Sprint(r["publication_status"]))))
	}
}

func printStatus(w io.Writer, st *service.PrincipalStatus) {
	state := red("not initialized")
	if st.IsInitialized {
		state = green("initialized")
	}
	fmt.Fprintf(w, "%s %s\n", bold(st.Name), state)
	fmt.Fprintf(w, "workflows: %d  published: %d\n", st.WorkflowHistoryCount, st.PublicationQueueSize)

	keys := make([]string, 0, len(st.ExpertAgents))
	for k := range st.ExpertAgents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := st.ExpertAgents[k]
		fmt.Fprintf(w, "  %-10s %-26s requests %d (%d ok, %d failed)  avg quality %.3f\n",
			k, e.Name, e.ProcessingStats.TotalRequests, e.ProcessingStats.SuccessfulRequests,
			e.ProcessingStats.FailedRequests, e.AverageQualityScore)
	}
	for _, wf := range st.RecentWorkflows {
		fmt.Fprintf(w, "  %s %s  experts %s  score %.3f\n",
			gray(wf.Timestamp.Format(time.RFC3339)), wf.RequestID, strings.Join(wf.ExpertsUsed, ","), wf.QualityScore)
	}
}
