package main

import (
	"fmt"
	"strings"

	"github.com/fwojciec/rufus"
)

// Run executes the crawl command.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	result, err := deps.Crawler.Crawl(deps.Ctx, c.Seeds)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
		return err
	}

	printSkipped(deps, result.Skipped)
	fmt.Fprintf(deps.Stderr, "Fetched %d URLs (%s)\n", len(result.Fetched)-len(result.Skipped), rufus.FormatBytes(len(result.Corpus)))

	if deps.Pages != nil {
		if err := savePages(deps, result.Pages); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", rufus.ErrorMessage(err))
			return err
		}
	}

	if strings.TrimSpace(result.Corpus) == "" {
		return nil
	}
	fmt.Fprint(deps.Stdout, result.Corpus)
	return nil
}

func savePages(deps *Dependencies, pages []rufus.PageResult) error {
	for i := range pages {
		if err := deps.Pages.Save(deps.Ctx, &pages[i]); err != nil {
			_ = deps.Pages.Abort()
			return err
		}
	}
	return deps.Pages.Commit()
}
