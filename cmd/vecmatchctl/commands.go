package main

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	api "github.com/kailas-cloud/vecmatch/internal/transport/chi"
	"github.com/kailas-cloud/vecmatch/internal/usecase/assembler"
)

var defaultWeights = map[string]string{
	"skills":     "0.7",
	"experience": "0.2",
	"education":  "0.1",
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Show component health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			h, err := opts.client().health(cmd.Context())
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), h)
			}

			w := cmd.OutOrStdout()
			status := green(h.Status)
			if h.Status != "ok" {
				status = red(h.Status)
			}
			fmt.Fprintf(w, "%s %s\n", bold("status:"), status)

			names := make([]string, 0, len(h.Checks))
			for name := range h.Checks {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				mark := okMark()
				if h.Checks[name] != "ok" {
					mark = errMark()
				}
				fmt.Fprintf(w, "  %s %s\n", mark, name)
			}
			return nil
		},
	}
}

func newCollectionsCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Manage vector collections",
	}

	var entity string
	create := &cobra.Command{
		Use:   "create",
		Short: "Drop and recreate a collection (all points are lost)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entities := []string{"resume", "job"}
			switch entity {
			case "all":
			case "resume", "job":
				entities = []string{entity}
			default:
				return fmt.Errorf("unknown entity %q (resume, job or all)", entity)
			}

			c := opts.client()
			for _, e := range entities {
				if err := c.createCollection(cmd.Context(), e); err != nil {
					return fmt.Errorf("create %s collection: %w", e, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s collection created\n", okMark(), e)
			}
			return nil
		},
	}
	create.Flags().StringVar(&entity, "entity", "all", "resume, job or all")

	cmd.AddCommand(create)
	return cmd
}

func newEmbedCommand(opts *rootOptions) *cobra.Command {
	var (
		entity  string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "embed FILE...",
		Short: "Embed and store entities read from JSON files",
		Long: "Each file holds one object or an array of objects shaped like the /api/embed body:\n" +
			`  {"entity_type": "resume", "sections": {"skills": "..."}, "metadata": {"resume_id": "r1"}}`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([][]api.EmbedRequest, len(args))
			for i, path := range args {
				d, err := loadDocuments(path, entity)
				if err != nil {
					return err
				}
				docs[i] = d
			}

			outcomes, err := ingestConcurrently(cmd.Context(), opts.client(), args, docs, workers)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), outcomes)
			}

			w := cmd.OutOrStdout()
			var failed int
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					fmt.Fprintf(w, "%s %s[%d]: %v\n", errMark(), o.Source, o.Index, o.Err)
					continue
				}
				fmt.Fprintf(w, "%s %s[%d]: %d sections\n", okMark(), o.Source, o.Index, o.Sections)
			}
			fmt.Fprintf(w, "%s %d embedded, %d failed\n", bold("done:"), len(outcomes)-failed, failed)
			if failed > 0 {
				return fmt.Errorf("%d of %d documents failed", failed, len(outcomes))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "", "entity type for documents without entity_type")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent requests")
	return cmd
}

func newSearchCommand(opts *rootOptions) *cobra.Command {
	var (
		entity  string
		section string
		query   string
		topK    int
		filters map[string]string
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search one section of a collection with a text query",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			vec, err := c.queryEmbed(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}

			metadata := make(map[string]any, len(filters))
			for k, v := range filters {
				metadata[k] = v
			}
			results, err := c.search(cmd.Context(), entity, &api.SearchRequest{
				QueryEmbedding:  vec,
				Section:         section,
				TopK:            topK,
				MetadataFilters: metadata,
			})
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "resume", "collection to search: resume or job")
	cmd.Flags().StringVar(&section, "section", "skills", "section to search")
	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	cmd.Flags().IntVar(&topK, "top-k", 10, "number of results")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "exact-match metadata filter key=value (repeatable)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newFuzzyCommand(opts *rootOptions) *cobra.Command {
	var (
		entity    string
		query     string
		topK      int
		threshold float64
	)
	cmd := &cobra.Command{
		Use:   "fuzzy",
		Short: "Search all sections and keep hits above a similarity threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := opts.client()
			vec, err := c.queryEmbed(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("embed query: %w", err)
			}

			req := &api.FuzzySearchRequest{QueryEmbedding: vec}
			if cmd.Flags().Changed("top-k") {
				req.TopK = &topK
			}
			if cmd.Flags().Changed("threshold") {
				req.Threshold = &threshold
			}
			results, err := c.fuzzySearch(cmd.Context(), entity, req)
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), results)
			}
			printResults(cmd.OutOrStdout(), results)
			return nil
		},
	}
	cmd.Flags().StringVar(&entity, "entity", "resume", "collection to search: resume or job")
	cmd.Flags().StringVarP(&query, "query", "q", "", "query text")
	cmd.Flags().IntVar(&topK, "top-k", 10, "maximum number of results (server default when unset)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0.8, "minimum score (server default when unset)")
	_ = cmd.MarkFlagRequired("query")
	return cmd
}

func newWeightedCommand(opts *rootOptions) *cobra.Command {
	var (
		jobFile    string
		resumeFile string
		weights    map[string]string
	)
	cmd := &cobra.Command{
		Use:   "weighted",
		Short: "Score a job against a résumé with per-section weights (nothing is stored)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w, err := parseWeights(weights)
			if err != nil {
				return err
			}

			c := opts.client()
			job, err := sectionVectors(cmd, c, jobFile, "job")
			if err != nil {
				return err
			}
			resume, err := sectionVectors(cmd, c, resumeFile, "resume")
			if err != nil {
				return err
			}

			score, err := c.weightedSearch(cmd.Context(), &api.WeightedSearchRequest{
				JobEmbedding:     job,
				ResumeEmbeddings: resume,
				Weights:          w,
			})
			if err != nil {
				return err
			}
			if opts.json {
				return printJSON(cmd.OutOrStdout(), api.WeightedSearchResponse{WeightedScore: score})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", bold("weighted score:"), green(fmt.Sprintf("%.4f", score)))
			return nil
		},
	}
	cmd.Flags().StringVar(&jobFile, "job", "", "job JSON file (first document is used)")
	cmd.Flags().StringVar(&resumeFile, "resume", "", "résumé JSON file (first document is used)")
	cmd.Flags().StringToStringVar(&weights, "weight", defaultWeights, "section weight section=value (repeatable)")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("resume")
	return cmd
}

func parseWeights(in map[string]string) (map[string]float64, error) {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("weight %s=%q: %w", k, v, err)
		}
		out[k] = f
	}
	return out, nil
}

// sectionVectors encodes the sections of the first document in path through /api/batch-embed,
// which does not persist anything.
func sectionVectors(cmd *cobra.Command, c *apiClient, path, entity string) (map[string][]float32, error) {
	docs, err := loadDocuments(path, entity)
	if err != nil {
		return nil, err
	}
	doc := docs[0]

	sections := make(map[string][]*string, len(doc.Sections))
	for name, v := range doc.Sections {
		text := assembler.Stringify(v)
		sections[name] = []*string{&text}
	}
	res, err := c.batchEmbed(cmd.Context(), &api.BatchEmbedRequest{EntityType: doc.EntityType, Sections: sections})
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", path, err)
	}

	out := make(map[string][]float32, len(res.Embeddings))
	for name, vecs := range res.Embeddings {
		if len(vecs) == 0 || vecs[0] == nil {
			continue
		}
		out[name] = vecs[0]
	}
	if len(out) == 0 {
		return nil, errors.New(path + ": no section could be encoded")
	}
	return out, nil
}
