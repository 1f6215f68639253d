// indexctl is the offline companion to the service: it builds index
// snapshots from corpus files and answers queries against them without a
// running server.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pradiptarakha/corpusindex/internal/corpus"
	"github.com/pradiptarakha/corpusindex/internal/index"
	"github.com/pradiptarakha/corpusindex/internal/search"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "search":
		err = runSearch(os.Args[2:])
	case "vocab":
		err = runVocab(os.Args[2:])
	case "term":
		err = runTerm(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "indexctl: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  indexctl build  -in corpus.txt [-csv -column text] [-out index.json] [analyzer flags]
  indexctl search -index index.json -q QUERY [-mode boolean|phrase]
  indexctl vocab  -index index.json [-out vocabulary.csv]
  indexctl term   -index index.json -t TERM`)
}

func analyzerFlags(fs *flag.FlagSet) *index.Options {
	opts := &index.Options{}
	fs.BoolVar(&opts.Lowercase, "lowercase", true, "fold case before other steps")
	fs.BoolVar(&opts.RemoveDigits, "remove-digits", false, "strip digit runs")
	fs.BoolVar(&opts.RemovePunctuation, "remove-punct", true, "strip punctuation")
	fs.StringVar(&opts.Language, "lang", "en", "stopword language (en or id)")
	fs.BoolVar(&opts.FilterStopwords, "stopwords", true, "drop stopwords")
	return opts
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	in := fs.String("in", "", "corpus file (one document per line, or CSV with -csv)")
	isCSV := fs.Bool("csv", false, "treat input as CSV")
	column := fs.String("column", "text", "CSV text column")
	out := fs.String("out", "index.json", "snapshot output path")
	opts := analyzerFlags(fs)
	fs.Parse(args)

	if *in == "" {
		return fmt.Errorf("-in is required")
	}
	f, err := os.Open(*in)
	if err != nil {
		return err
	}
	defer f.Close()

	var docs []string
	if *isCSV {
		docs, err = corpus.FromCSV(f, *column)
	} else {
		docs, err = corpus.FromLines(f)
	}
	if err != nil {
		return err
	}

	idx := index.Build(docs, *opts)
	data, err := idx.MarshalSnapshot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, data, 0644); err != nil {
		return err
	}
	fmt.Printf("built index: %d documents, %d terms -> %s\n", idx.NumDocs(), idx.NumTerms(), *out)
	return nil
}

func loadIndex(path string) (*index.Index, error) {
	if path == "" {
		return nil, fmt.Errorf("-index is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return index.LoadSnapshot(data)
}

func runSearch(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	indexPath := fs.String("index", "", "snapshot path")
	query := fs.String("q", "", "query string")
	mode := fs.String("mode", "boolean", "boolean or phrase")
	fs.Parse(args)

	idx, err := loadIndex(*indexPath)
	if err != nil {
		return err
	}
	if *query == "" {
		return fmt.Errorf("-q is required")
	}

	var hits search.DocSet
	switch *mode {
	case "boolean":
		hits = search.EvalBoolean(*query, idx)
	case "phrase":
		words := strings.Fields(strings.Trim(strings.TrimSpace(*query), `"`))
		hits = search.EvalPhrase(words, idx)
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}

	ids := hits.Sorted()
	fmt.Printf("%d documents\n", len(ids))
	for _, id := range ids {
		fmt.Printf("doc_%d\n", id)
	}
	return nil
}

func runVocab(args []string) error {
	fs := flag.NewFlagSet("vocab", flag.ExitOnError)
	indexPath := fs.String("index", "", "snapshot path")
	out := fs.String("out", "", "CSV output path (default stdout)")
	fs.Parse(args)

	idx, err := loadIndex(*indexPath)
	if err != nil {
		return err
	}

	dest := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		dest = f
	}
	w := csv.NewWriter(dest)
	w.Write([]string{"term", "df", "cf"})
	for _, row := range idx.Stats() {
		w.Write([]string{row.Term, strconv.Itoa(row.DF), strconv.Itoa(row.CF)})
	}
	w.Flush()
	return w.Error()
}

func runTerm(args []string) error {
	fs := flag.NewFlagSet("term", flag.ExitOnError)
	indexPath := fs.String("index", "", "snapshot path")
	term := fs.String("t", "", "term to look up")
	fs.Parse(args)

	idx, err := loadIndex(*indexPath)
	if err != nil {
		return err
	}
	if *term == "" {
		return fmt.Errorf("-t is required")
	}
	if !idx.HasTerm(*term) {
		fmt.Printf("term %q not found\n", *term)
		return nil
	}
	fmt.Printf("%s df=%d cf=%d\n", *term, idx.DocFrequency(*term), idx.CollectionFrequency(*term))
	for _, docID := range idx.Docs(*term) {
		fmt.Printf("  doc_%d: %v\n", docID, idx.Positions(*term, docID))
	}
	return nil
}
