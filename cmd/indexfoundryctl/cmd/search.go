package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/indexfoundry/indexfoundry/internal/cliout"
	"github.com/indexfoundry/indexfoundry/internal/embed"
	"github.com/indexfoundry/indexfoundry/internal/retrieve"
	"github.com/indexfoundry/indexfoundry/internal/vectorstore"
)

func newSearchCmd() *cobra.Command {
	var mode, format string
	var topK int
	var alpha float64
	var explain bool

	cmd := &cobra.Command{
		Use:   "search <project-id> <query...>",
		Short: "Search a project's index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID := args[0]
			query := strings.Join(args[1:], " ")

			ws, err := openWorkspace()
			if err != nil {
				return err
			}
			store := vectorstore.New(ws, projectID)
			retriever := retrieve.New(ws, projectID, store, embed.NewStaticProvider())

			resp, err := retriever.Search(cmd.Context(), query, nil, retrieve.Options{
				Mode:    retrieve.Mode(mode),
				TopK:    topK,
				Alpha:   alpha,
				Explain: explain,
			})
			if err != nil {
				return err
			}

			if format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}

			out := cliout.New(cmd.OutOrStdout())
			if len(resp.Hits) == 0 {
				out.Statusf("", "no results for %q", query)
				return nil
			}
			out.Statusf("", "found %d results for %q (mode: %s):", len(resp.Hits), query, resp.ModeUsed)
			out.Newline()
			for i, hit := range resp.Hits {
				out.Statusf("", "%d. %s (score: %.3f)", i+1, hit.Chunk.ChunkID, hit.Score)
				snippet := hit.Chunk.Text
				if len(snippet) > 160 {
					snippet = snippet[:160] + "..."
				}
				out.Status("", "   "+snippet)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(retrieve.ModeHybrid), "search mode: semantic, keyword, hybrid")
	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json")
	cmd.Flags().IntVarP(&topK, "limit", "n", 10, "maximum number of results")
	cmd.Flags().Float64Var(&alpha, "alpha", 0.7, "hybrid fusion weight toward semantic results")
	cmd.Flags().BoolVar(&explain, "explain", false, "include the query explain payload")
	return cmd
}
