package cmd

import (
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/up42-go/pkg/models"
	"github.com/psantana5/up42-go/pkg/up42"
)

type jobRow struct {
	ID         string           `json:"id" yaml:"id"`
	Status     models.JobStatus `json:"status" yaml:"status"`
	Mode       models.JobMode   `json:"mode,omitempty" yaml:"mode,omitempty"`
	WorkflowID string           `json:"workflow_id,omitempty" yaml:"workflow_id,omitempty"`
}

func newJobRow(j *up42.Job) jobRow {
	return jobRow{ID: j.JobID, Status: j.Status(), Mode: j.Mode, WorkflowID: j.WorkflowID}
}

func newJobsCmd(o *options) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:     "jobs",
		Aliases: []string{"job"},
		Short:   "Manage jobs",
		Long:    `Commands for listing, following, and cancelling the jobs of the project.`,
	}

	var testJobs, realJobs bool
	jobsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			jobs, err := p.GetJobs(cmd.Context(), up42.WithTestJobs(testJobs), up42.WithRealJobs(realJobs))
			if err != nil {
				return err
			}

			rows := make([]jobRow, 0, jobs.Len())
			for _, j := range jobs.All() {
				rows = append(rows, newJobRow(j))
			}
			return render(cmd.OutOrStdout(), o.outputFormat, rows, func(table *tablewriter.Table) {
				table.Header("ID", "Status", "Mode", "Workflow")
				for _, r := range rows {
					table.Append(r.ID, string(r.Status), formatValue(string(r.Mode)), formatValue(r.WorkflowID))
				}
			})
		},
	}
	jobsListCmd.Flags().BoolVar(&testJobs, "test-jobs", true, "include test (dry run) jobs")
	jobsListCmd.Flags().BoolVar(&realJobs, "real-jobs", true, "include real jobs")

	var follow bool
	var interval time.Duration
	jobsStatusCmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Get job status",
		Long:  `Retrieve the status of a job. With --follow, poll until the job reaches a terminal state.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := o.job(cmd, args[0])
			if err != nil {
				return err
			}

			var status models.JobStatus
			if follow {
				fmt.Fprintf(cmd.ErrOrStderr(), "Following job %s (press Ctrl+C to stop)...\n", j.JobID)
				status, err = j.TrackStatus(cmd.Context(), interval)
			} else {
				status, err = j.RefreshStatus(cmd.Context())
			}
			if status != "" {
				if renderErr := render(cmd.OutOrStdout(), o.outputFormat, newJobRow(j), func(table *tablewriter.Table) {
					table.Header("Field", "Value")
					table.Append("Job ID", j.JobID)
					table.Append("Status", string(status))
				}); renderErr != nil {
					return renderErr
				}
			}
			return err
		},
	}
	jobsStatusCmd.Flags().BoolVar(&follow, "follow", false, "poll job status until completion")
	jobsStatusCmd.Flags().DurationVar(&interval, "interval", 5*time.Second, "polling interval for --follow")

	jobsCancelCmd := &cobra.Command{
		Use:   "cancel <job-id>",
		Short: "Cancel a job",
		Long:  `Cancel a pending or running job.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := o.job(cmd, args[0])
			if err != nil {
				return err
			}
			if err := j.Cancel(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s cancelled\n", j.JobID)
			return nil
		},
	}

	jobsTasksCmd := &cobra.Command{
		Use:   "tasks <job-id>",
		Short: "List the tasks of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			j, err := o.job(cmd, args[0])
			if err != nil {
				return err
			}
			tasks, err := j.GetJobTasks(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.outputFormat, tasks, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Status", "Block", "Started", "Finished")
				for _, t := range tasks {
					table.Append(t.ID, t.Name, string(t.Status), formatValue(t.BlockName),
						formatValue(t.StartedAt), formatValue(t.FinishedAt))
				}
			})
		},
	}

	jobsCmd.AddCommand(jobsListCmd, jobsStatusCmd, jobsCancelCmd, jobsTasksCmd)
	return jobsCmd
}

func (o *options) job(cmd *cobra.Command, jobID string) (*up42.Job, error) {
	p, err := o.session(cmd.Context())
	if err != nil {
		return nil, err
	}
	return up42.NewJob(cmd.Context(), p.Auth(), p.ProjectID, jobID, nil)
}
