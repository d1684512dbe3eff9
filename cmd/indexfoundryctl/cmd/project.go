package cmd

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/cliout"
	"github.com/indexfoundry/indexfoundry/internal/config"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Manage projects",
	}
	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectGetCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var provider, modelName string
	var dimension int

	cmd := &cobra.Command{
		Use:   "create <project-id>",
		Short: "Create a new project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}

			cfg := *config.NewDefault()
			cfg.Embedding = config.EmbeddingModel{Provider: provider, ModelName: modelName, Dimension: dimension}

			p, err := mgr.Create(args[0], cfg)
			if err != nil {
				return err
			}

			out := cliout.New(cmd.OutOrStdout())
			out.Successf("created project %q", p.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "static", "embedding provider")
	cmd.Flags().StringVar(&modelName, "model", "static-hash-256", "embedding model name")
	cmd.Flags().IntVar(&dimension, "dimension", 256, "embedding vector dimension")
	return cmd
}

func newProjectListCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List project ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			ids, err := mgr.List()
			if err != nil {
				return err
			}
			sort.Strings(ids)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(ids)
			}

			out := cliout.New(cmd.OutOrStdout())
			if len(ids) == 0 {
				out.Status("", "(no projects)")
				return nil
			}
			for _, id := range ids {
				out.Status("", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newProjectGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <project-id>",
		Short: "Show a project's manifest and config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			p, err := mgr.Get(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

func newProjectDeleteCmd() *cobra.Command {
	var confirm bool

	cmd := &cobra.Command{
		Use:   "delete <project-id>",
		Short: "Delete a project and all its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := openManager()
			if err != nil {
				return err
			}
			if err := mgr.Delete(args[0], confirm); err != nil {
				return err
			}
			cliout.New(cmd.OutOrStdout()).Successf("deleted project %q", args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&confirm, "confirm", false, "required to actually delete the project")
	return cmd
}
