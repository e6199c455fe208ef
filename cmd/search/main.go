// Command search queries a snapshot file from the command line.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/internal/search"
)

func main() {
	snapPath := flag.String("snapshot", "data/index.json", "path to index snapshot")
	limit := flag.Int("limit", 10, "maximum results")
	offset := flag.Int("offset", 0, "results to skip")
	asJSON := flag.Bool("json", false, "print raw JSON response")
	flag.Parse()

	query := strings.Join(flag.Args(), " ")
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: search [flags] <query terms>")
		os.Exit(2)
	}

	snap, err := index.ReadFile(*snapPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load snapshot: %v\n", err)
		os.Exit(1)
	}

	resp := search.Query(snap, query, *limit, *offset)
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "failed to encode response: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%d result(s) for %q\n", resp.Total, query)
	for i, result := range resp.Results {
		fmt.Printf("%2d. %-40s %8.4f  [%s]\n",
			*offset+i+1,
			result.Title,
			result.Score,
			strings.Join(result.MatchedTerms, ", "),
		)
		fmt.Printf("    %s\n", result.DocID)
	}
}
