package main

import (
	"fmt"

	"github.com/fwojciec/rufus"
)

// Run executes the query command.
func (c *QueryCmd) Run(deps *Dependencies) error {
	// The service falls back to default chunking on a zero size, so reject
	// bad flags here.
	if err := rufus.ValidateChunking(c.ChunkSize, c.ChunkOverlap); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
		return err
	}

	if c.Answer {
		return c.answer(deps)
	}

	result, build, err := deps.Retrieval.BuildAndQuery(deps.Ctx, c.Seeds, c.Query, c.K)
	if build != nil {
		printBuild(deps, build)
	}
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
		return err
	}

	if result.Len() == 0 {
		fmt.Fprintln(deps.Stderr, "no matching chunks")
		return nil
	}
	fmt.Fprintln(deps.Stdout, rufus.FormatResult(result))
	return nil
}

func (c *QueryCmd) answer(deps *Dependencies) error {
	build, err := deps.Retrieval.BuildIndex(deps.Ctx, c.Seeds, c.ChunkSize, c.ChunkOverlap)
	if err != nil && rufus.ErrorCode(err) != rufus.EEMPTY {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
		return err
	}
	printBuild(deps, build)

	answer, err := deps.Asker.Ask(deps.Ctx, c.Query, c.K)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
		return err
	}
	fmt.Fprintln(deps.Stdout, answer)
	return nil
}

func printBuild(deps *Dependencies, build *rufus.BuildResult) {
	printSkipped(deps, build.Skipped)
	fmt.Fprintln(deps.Stderr, rufus.FormatBuildSummary(build))
}

func printSkipped(deps *Dependencies, skipped []rufus.SkippedURL) {
	for _, s := range skipped {
		fmt.Fprintf(deps.Stderr, "skip %s: %s\n", rufus.TruncateURL(s.URL, 80), rufus.ErrorMessage(s.Err))
	}
}
