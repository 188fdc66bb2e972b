package cmd

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/up42-go/pkg/models"
	"github.com/psantana5/up42-go/pkg/up42"
)

func newWorkflowsCmd(o *options) *cobra.Command {
	workflowsCmd := &cobra.Command{
		Use:     "workflows",
		Aliases: []string{"workflow", "wf"},
		Short:   "Manage workflows",
		Long:    `Commands for creating, listing, and deleting the workflows of the project.`,
	}

	workflowsListCmd := &cobra.Command{
		Use:   "list",
		Short: "List workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			records, err := p.GetWorkflowsJSON(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.outputFormat, records, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Description")
				for _, r := range records {
					table.Append(formatValue(r["id"]), formatValue(r["name"]), formatValue(r["description"]))
				}
			})
		},
	}

	var name, description string
	var useExisting bool
	workflowsCreateCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workflow",
		Long:  `Create a workflow. With --use-existing, a workflow with the same name and description is reused.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			w, err := p.CreateWorkflow(cmd.Context(), name, description, useExisting)
			if err != nil {
				return err
			}
			result := map[string]interface{}{
				"id":         w.WorkflowID,
				"display_id": w.DisplayID,
				"project_id": w.ProjectID,
			}
			return render(cmd.OutOrStdout(), o.outputFormat, result, recordTable(result))
		},
	}
	workflowsCreateCmd.Flags().StringVar(&name, "name", "", "workflow name (required)")
	workflowsCreateCmd.Flags().StringVar(&description, "description", "", "workflow description")
	workflowsCreateCmd.Flags().BoolVar(&useExisting, "use-existing", false, "reuse a workflow with the same name and description")
	workflowsCreateCmd.MarkFlagRequired("name")

	workflowsDescribeCmd := &cobra.Command{
		Use:   "describe <workflow-id>",
		Short: "Show a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := o.workflow(cmd, args[0])
			if err != nil {
				return err
			}
			var info models.WorkflowInfo
			if err := w.DecodeInfo(cmd.Context(), &info); err != nil {
				return fmt.Errorf("failed to get workflow info: %w", err)
			}
			return render(cmd.OutOrStdout(), o.outputFormat, info, func(table *tablewriter.Table) {
				table.Header("Field", "Value")
				table.Append("ID", info.ID)
				table.Append("Display ID", formatValue(info.DisplayID))
				table.Append("Name", formatValue(info.Name))
				table.Append("Description", formatValue(info.Description))
				table.Append("Created At", formatValue(info.CreatedAt))
				table.Append("Updated At", formatValue(info.UpdatedAt))
				table.Append("Processing Time", fmt.Sprintf("%.1fs", info.TotalProcessingTime))
			})
		},
	}

	workflowsTasksCmd := &cobra.Command{
		Use:   "tasks <workflow-id>",
		Short: "List the blocks of a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := o.workflow(cmd, args[0])
			if err != nil {
				return err
			}
			tasks, err := w.GetWorkflowTasks(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.outputFormat, tasks, func(table *tablewriter.Table) {
				table.Header("ID", "Name", "Block", "Version", "Parents")
				for _, t := range tasks {
					parents := strings.Join(t.ParentsIDs, ",")
					table.Append(t.ID, t.Name, formatValue(t.BlockName), formatValue(t.BlockVersion), formatValue(parents))
				}
			})
		},
	}

	workflowsDeleteCmd := &cobra.Command{
		Use:   "delete <workflow-id>",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := o.workflow(cmd, args[0])
			if err != nil {
				return err
			}
			if err := w.Delete(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Workflow %s deleted\n", w.WorkflowID)
			return nil
		},
	}

	workflowsCmd.AddCommand(workflowsListCmd, workflowsCreateCmd, workflowsDescribeCmd, workflowsTasksCmd, workflowsDeleteCmd)
	return workflowsCmd
}

func (o *options) workflow(cmd *cobra.Command, workflowID string) (*up42.Workflow, error) {
	p, err := o.session(cmd.Context())
	if err != nil {
		return nil, err
	}
	return up42.NewWorkflow(cmd.Context(), p.Auth(), p.ProjectID, workflowID)
}
