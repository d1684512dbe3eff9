package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/blobstore"
	"github.com/indexfoundry/indexfoundry/internal/build"
	"github.com/indexfoundry/indexfoundry/internal/cliout"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/fetch"
	"github.com/indexfoundry/indexfoundry/internal/project"
)

func newBuildCmd() *cobra.Command {
	var force, dryRun, resume bool
	var checkpointID string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "build <project-id>",
		Short: "Run a build: fetch, chunk, embed, and upsert pending sources",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			rawDir := ws.RawDir(projectID)
			blobs := blobstore.New(rawDir, ws.RawManifestPath(projectID))
			fetcher := fetch.New(blobs)
			builder := build.New(ws, blobs, fetcher, embed.NewStaticProvider())

			result, err := builder.Run(cmd.Context(), build.Request{
				ProjectID:            projectID,
				Force:                force,
				DryRun:               dryRun,
				ResumeFromCheckpoint: resume,
				CheckpointID:         checkpointID,
			})
			if err != nil {
				return err
			}

			if !dryRun {
				mgr := project.NewManager(ws)
				if _, statErr := mgr.RefreshStats(projectID); statErr != nil {
					return statErr
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			out := cliout.New(cmd.OutOrStdout())
			out.Statusf("", "processed %d/%d sources this run (%d remaining)",
				result.Progress.ProcessedThisRun, result.Progress.TotalSources, result.Progress.Remaining)
			out.Statusf("", "chunks added: %d, vectors added: %d", result.ChunksAdded, result.VectorsAdded)
			if len(result.Errors) > 0 {
				for _, e := range result.Errors {
					out.Error(e)
				}
			}
			if result.Success {
				out.Success("build complete")
			} else {
				out.Error("build failed")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reset completed sources back to pending and reprocess them")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report the work set without processing any source")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume from the project's latest checkpoint")
	cmd.Flags().StringVar(&checkpointID, "checkpoint-id", "", "specific checkpoint id to resume from")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}
