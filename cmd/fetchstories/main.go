// Command fetchstories populates testdata/stories/ with real .z3-.z8
// story files scraped from the IF Archive, for use by the
// dictionary-parser and detector test suites. It is a development
// fixture tool, not part of the shipped library.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	flag "github.com/spf13/pflag"
)

const indexURL = "https://www.ifarchive.org/indexes/if-archive/games/zcode/"

func main() {
	outputDir := flag.StringP("output", "o", "testdata/stories", "directory to write downloaded story files to")
	limit := flag.IntP("limit", "n", 0, "stop after downloading this many files (0 = no limit)")
	flag.Parse()

	if err := run(*outputDir, *limit); err != nil {
		fmt.Fprintf(os.Stderr, "fetchstories: %v\n", err)
		os.Exit(1)
	}
}

type storyLink struct {
	name string
	url  string
}

func run(outputDir string, limit int) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	c := &http.Client{Timeout: 30 * time.Second}
	res, err := c.Get(indexURL)
	if err != nil {
		return fmt.Errorf("fetch index: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch index: bad status code %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return fmt.Errorf("parse index HTML: %w", err)
	}

	links := findStoryLinks(doc)
	if limit > 0 && len(links) > limit {
		links = links[:limit]
	}

	fmt.Printf("Found %d story files to download\n", len(links))

	downloaded, skipped, failed := downloadAll(c, outputDir, links)
	fmt.Printf("\nDone! Downloaded: %d, Skipped: %d, Failed: %d\n", downloaded, skipped, failed)

	return writeManifest(outputDir, links)
}

func findStoryLinks(doc *goquery.Document) []storyLink {
	var links []storyLink
	extPattern := regexp.MustCompile(`\.z[12345678]$`)

	doc.Find("dl dt").Each(func(i int, sel *goquery.Selection) {
		href, exists := sel.Find("a").Attr("href")
		if !exists || !extPattern.MatchString(href) {
			return
		}
		links = append(links, storyLink{
			name: filepath.Base(href),
			url:  "https://www.ifarchive.org" + href,
		})
	})

	return links
}

func downloadAll(c *http.Client, outputDir string, links []storyLink) (downloaded, skipped, failed int) {
	for i, link := range links {
		destPath := filepath.Join(outputDir, link.name)

		if _, err := os.Stat(destPath); err == nil {
			fmt.Printf("[%d/%d] skipping %s (already exists)\n", i+1, len(links), link.name)
			skipped++
			continue
		}

		fmt.Printf("[%d/%d] downloading %s... ", i+1, len(links), link.name)

		n, err := download(c, link.url, destPath)
		if err != nil {
			fmt.Printf("failed: %v\n", err)
			failed++
			continue
		}

		fmt.Printf("ok (%d bytes)\n", n)
		downloaded++

		time.Sleep(100 * time.Millisecond)
	}
	return
}

func download(c *http.Client, url, destPath string) (int, error) {
	resp, err := c.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}

	if err := os.WriteFile(destPath, data, 0o644); err != nil {
		return 0, err
	}

	return len(data), nil
}

func writeManifest(outputDir string, links []storyLink) error {
	var manifest strings.Builder
	for _, link := range links {
		manifest.WriteString(link.name + "\n")
	}

	manifestPath := filepath.Join(outputDir, "manifest.txt")
	if err := os.WriteFile(manifestPath, []byte(manifest.String()), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	fmt.Printf("wrote manifest to %s\n", manifestPath)
	return nil
}
