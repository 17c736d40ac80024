// Command analyze runs a single analysis and prints one line per post.
// With -input it reads a JSON dump of posts instead of calling Reddit.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"wsbsentiment/internal/adapters/reddit"
	"wsbsentiment/internal/bootstrap"
	"wsbsentiment/internal/domain/post"
)

func main() {
	input := flag.String("input", "", "read posts from a JSON file instead of Reddit")
	flag.Parse()

	c := bootstrap.NewContainer()
	if *input != "" {
		c.UseSource(reddit.NewFileSource(*input))
	}
	c.MustInitCore()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	snap, err := c.Services.Analysis.RunOnce(ctx)
	stop()

	c.Shutdown()

	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(1)
	}

	printSnapshot(snap)
}

func printSnapshot(snap *post.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LABEL\tCOMPOUND\tTICKERS\tTITLE")
	for _, p := range snap.Posts {
		fmt.Fprintf(w, "%s\t%+.4f\t%s\t%s\n", p.Label, p.Compound, strings.Join(p.Tickers, ","), truncate(p.Title, 80))
	}
	w.Flush()

	counts := snap.LabelCounts()
	fmt.Printf("\n%d posts: %d bullish, %d neutral, %d bearish\n",
		len(snap.Posts), counts[post.LabelBullish], counts[post.LabelNeutral], counts[post.LabelBearish])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

