package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	tableovertwo "github.com/AaronRDurant/table-over-two"
	"github.com/AaronRDurant/table-over-two/content"
)

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Print every page path",
	Long: `Print the path of every page the site serves, one per line: the static
pages, then each post, then each topic. Useful for prerendering or cache warming.`,
	RunE: runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
}

func runPaths(cmd *cobra.Command, args []string) error {
	if err := initConfig(cmd); err != nil {
		return err
	}
	client, err := newContentClient()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var (
		posts []content.Post
		tags  []content.Tag
		g     errgroup.Group
	)
	g.Go(func() error {
		posts, _ = client.Posts(ctx, content.MaxPostLimit)
		return nil
	})
	g.Go(func() error {
		tags, _ = client.Tags(ctx)
		return nil
	})
	_ = g.Wait()

	w := cmd.OutOrStdout()
	for _, p := range tableovertwo.SitePaths(posts, tags) {
		fmt.Fprintln(w, p)
	}
	return nil
}
