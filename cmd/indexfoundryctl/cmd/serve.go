package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/cliout"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/ierrors"
	"github.com/indexfoundry/indexfoundry/internal/retrieve"
	"github.com/indexfoundry/indexfoundry/internal/searchapi"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
)

// newServeCmd starts the searchapi HTTP server for a single project and
// blocks until interrupted (§5 process-scoped server registry).
func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve <project-id>",
		Short: "Serve the query API for a project over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			if _, err := ws.LoadProject(projectID); err != nil {
				return err
			}

			resolve := func(id string) (*searchapi.ProjectContext, error) {
				if _, err := ws.LoadProject(id); err != nil {
					return nil, err
				}
				store := vectorstore.New(ws, id)
				return &searchapi.ProjectContext{
					Workspace: ws,
					Vectors:   store,
					Retriever: retrieve.New(ws, id, store, embed.NewStaticProvider()),
				}, nil
			}

			handler := searchapi.NewHandler(resolve)
			httpHandler := searchapi.NewHTTPHandler(handler)
			registry := searchapi.NewRegistry()

			if err := registry.Start(projectID, addr, httpHandler); err != nil {
				return err
			}

			out := cliout.New(cmd.OutOrStdout())
			out.Successf("serving project %q on %s", projectID, addr)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			out.Status("", "shutting down")
			shutdownCtx := context.Background()
			if err := registry.Stop(shutdownCtx, projectID); err != nil {
				return ierrors.New(ierrors.CodeServeFailed, fmt.Sprintf("shutdown: %v", err), err)
			}
			out.Success("stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}
