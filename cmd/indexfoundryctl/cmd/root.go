// Package cmd provides the CLI commands for indexfoundryctl.
package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/project"
	"github.com/indexfoundry/indexfoundry/internal/workspace"
	"github.com/indexfoundry/indexfoundry/pkg/version"
)

var workspaceDir string

// NewRootCmd creates the root command for the indexfoundryctl CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "indexfoundryctl",
		Short:   "Deterministic vector-index factory",
		Long:    `indexfoundryctl ingests sources into a project, builds its index, and serves hybrid retrieval over it.`,
		Version: version.Version,
	}
	cmd.SetVersionTemplate("indexfoundryctl version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&workspaceDir, "workspace", defaultWorkspaceDir(), "workspace base directory")

	cmd.AddCommand(newProjectCmd())
	cmd.AddCommand(newSourceCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

func defaultWorkspaceDir() string {
	return filepath.Join(".", ".indexfoundry")
}

// openWorkspace opens (creating if needed) the workspace rooted at the
// --workspace flag's directory.
func openWorkspace() (*workspace.Workspace, error) {
	return workspace.New(workspaceDir)
}

// openManager opens a project.Manager over the current workspace.
func openManager() (*project.Manager, error) {
	ws, err := openWorkspace()
	if err != nil {
		return nil, err
	}
	return project.NewManager(ws), nil
}
