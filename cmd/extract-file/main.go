// Command extract-file runs comment extraction over a saved HTML file and
// prints the records, for offline selector debugging.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/reviewguard/reviewguard/internal/extraction"
	"github.com/reviewguard/reviewguard/internal/page"
)

func main() {
	var (
		path   = flag.String("file", "", "path to a saved product page HTML file")
		rawURL = flag.String("url", "http://localhost/saved-page", "URL to attribute the page to")
		asJSON = flag.Bool("json", false, "print records as JSON")
	)
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(2)
	}

	html, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *path, err)
	}

	doc, err := page.ParseHTML(string(html), *rawURL)
	if err != nil {
		log.Fatalf("Failed to parse HTML: %v", err)
	}

	builder := extraction.NewRecordBuilder(page.DefaultSelectors())
	records := builder.Build(doc)

	fmt.Printf("Page identity: %s\n", page.Identity(*rawURL))
	fmt.Printf("Extracted %d comments\n\n", len(records))

	if *asJSON {
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			log.Fatalf("Failed to marshal records: %v", err)
		}
		fmt.Println(string(data))
		return
	}

	for i, record := range records {
		fmt.Printf("%d. %s (%d stars) %s\n", i+1, record.Username, record.StarRating, record.Timestamp)
		if record.Variation != "" {
			fmt.Printf("   Variation: %s\n", record.Variation)
		}
		if record.Location != "" {
			fmt.Printf("   Location: %s\n", record.Location)
		}
		fmt.Printf("   %s\n", record.Text)
	}
}
