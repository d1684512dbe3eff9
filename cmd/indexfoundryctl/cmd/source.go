package cmd

import (
	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/cliout"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
)

func newSourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage a project's sources",
	}
	cmd.AddCommand(newSourceAddCmd())
	cmd.AddCommand(newSourceListCmd())
	cmd.AddCommand(newSourceRemoveCmd())
	return cmd
}

func newSourceAddCmd() *cobra.Command {
	var id, sourceType, displayName string

	cmd := &cobra.Command{
		Use:   "add <project-id> <uri>",
		Short: "Add a source (url, sitemap, folder, or pdf) to a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			projectID, uri := args[0], args[1]
			if id == "" {
				id = uri
			}

			err = mgr.AddSource(projectID, workspace.SourceRecord{
				ID:          id,
				Type:        workspace.SourceType(sourceType),
				URI:         uri,
				DisplayName: displayName,
			})
			if err != nil {
				return err
			}
			cliout.New(cmd.OutOrStdout()).Successf("added source %q (%s) to %q", id, sourceType, projectID)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "source id (defaults to the uri)")
	cmd.Flags().StringVar(&sourceType, "type", string(workspace.SourceURL), "source type: url, sitemap, folder, pdf")
	cmd.Flags().StringVar(&displayName, "name", "", "human-readable display name")
	return cmd
}

func newSourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			sources, err := mgr.ListSources(args[0])
			if err != nil {
				return err
			}

			out := cliout.New(cmd.OutOrStdout())
			if len(sources) == 0 {
				out.Status("", "(no sources)")
				return nil
			}
			for _, s := range sources {
				out.Statusf("", "%-24s %-8s %-10s %s", s.ID, s.Type, s.Status, s.URI)
			}
			return nil
		},
	}
}

func newSourceRemoveCmd() *cobra.Command {
	var cascade bool

	cmd := &cobra.Command{
		Use:   "remove <project-id> <source-id>",
		Short: "Remove a source from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			if err := mgr.RemoveSource(args[0], args[1], cascade); err != nil {
				return err
			}
			cliout.New(cmd.OutOrStdout()).Successf("removed source %q", args[1])
			return nil
		},
	}
	cmd.Flags().BoolVar(&cascade, "cascade", false, "also drop the source's chunks and vectors")
	return cmd
}
