package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/AaronRDurant/table-over-two/content"
)

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"ls"},
	Short:   "List published posts",
	Long: `List public posts from the content API, newest first.

Examples:
  tableovertwo posts                  # Latest posts
  tableovertwo posts --limit 20       # Up to 20 posts
  tableovertwo posts --tag results    # Posts tagged "results"
  tableovertwo posts --json           # Output as JSON`,
	RunE: runPosts,
}

func init() {
	rootCmd.AddCommand(postsCmd)

	postsCmd.Flags().Int("limit", content.DefaultPostLimit, "maximum number of posts")
	postsCmd.Flags().String("tag", "", "only posts carrying this tag slug")
	postsCmd.Flags().Bool("json", false, "output as JSON")
}

func runPosts(cmd *cobra.Command, args []string) error {
	if err := initConfig(cmd); err != nil {
		return err
	}
	client, err := newContentClient()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	tag, _ := cmd.Flags().GetString("tag")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	var posts []content.Post
	if tag != "" {
		posts, err = client.PostsByTag(cmd.Context(), tag, limit)
	} else {
		posts, err = client.Posts(cmd.Context(), limit)
	}
	if err != nil {
		// already logged; show whatever came back
		logger.Debug("listing posts degraded", "error", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(posts)
	}
	return writePostTable(cmd.OutOrStdout(), posts)
}

func writePostTable(w io.Writer, posts []content.Post) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header([]string{"SLUG", "TITLE", "PUBLISHED", "TAGS"})

	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		published := ""
		if t, ok := p.Published(); ok {
			published = t.Format("2006-01-02")
		}
		names := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			names = append(names, t.Slug)
		}
		rows = append(rows, []string{p.Slug, p.Title, published, strings.Join(names, ", ")})
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}
