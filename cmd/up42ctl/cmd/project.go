package cmd

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/up42-go/pkg/up42"
)

func newProjectCmd(o *options) *cobra.Command {
	projectCmd := &cobra.Command{
		Use:   "project",
		Short: "Inspect the project",
		Long:  `Commands for reading the project record and its job settings.`,
	}

	projectInfoCmd := &cobra.Command{
		Use:   "info",
		Short: "Show the project record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			info, err := p.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get project info: %w", err)
			}
			return render(cmd.OutOrStdout(), o.outputFormat, info, recordTable(info))
		},
	}

	projectSettingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "List the project settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			settings, err := p.GetProjectSettings(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.outputFormat, settings, func(table *tablewriter.Table) {
				table.Header("Name", "Value", "Min", "Max")
				for _, s := range settings {
					table.Append(formatValue(s["name"]), formatValue(s["value"]), formatValue(s["minValue"]), formatValue(s["maxValue"]))
				}
			})
		},
	}

	projectMaxJobsCmd := &cobra.Command{
		Use:   "max-concurrent-jobs",
		Short: "Show how many jobs may run at the same time",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			maxJobs, err := p.MaxConcurrentJobs(cmd.Context())
			if err != nil {
				return err
			}
			if o.outputFormat == "table" {
				fmt.Fprintln(cmd.OutOrStdout(), maxJobs)
				return nil
			}
			return render(cmd.OutOrStdout(), o.outputFormat, map[string]int{"max_concurrent_jobs": maxJobs}, nil)
		},
	}

	var maxAOISize, maxConcurrentJobs, numberOfImages int
	projectUpdateCmd := &cobra.Command{
		Use:   "update-settings",
		Short: "Change the job limits of the project",
		Long:  `Change the job limits of the project. Limits that are not given keep their current value.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update up42.SettingsUpdate
			if cmd.Flags().Changed("max-aoi-size") {
				update.MaxAOISize = &maxAOISize
			}
			if cmd.Flags().Changed("max-concurrent-jobs") {
				update.MaxConcurrentJobs = &maxConcurrentJobs
			}
			if cmd.Flags().Changed("number-of-images") {
				update.NumberOfImages = &numberOfImages
			}
			if update == (up42.SettingsUpdate{}) {
				return fmt.Errorf("nothing to update: set at least one of --max-aoi-size, --max-concurrent-jobs, --number-of-images")
			}

			p, err := o.session(cmd.Context())
			if err != nil {
				return err
			}
			if err := p.UpdateProjectSettings(cmd.Context(), update); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Project settings updated")
			return nil
		},
	}
	projectUpdateCmd.Flags().IntVar(&maxAOISize, "max-aoi-size", 0, "maximum AOI size in square kilometers per job")
	projectUpdateCmd.Flags().IntVar(&maxConcurrentJobs, "max-concurrent-jobs", 0, "maximum number of jobs running at the same time")
	projectUpdateCmd.Flags().IntVar(&numberOfImages, "number-of-images", 0, "maximum number of images per job query")

	projectCmd.AddCommand(projectInfoCmd, projectSettingsCmd, projectMaxJobsCmd, projectUpdateCmd)
	return projectCmd
}
