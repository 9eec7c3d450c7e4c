package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shaycrk/drain/aggregate"
	"github.com/shaycrk/drain/aggregation"
	"github.com/shaycrk/drain/helpers"
	"github.com/shaycrk/drain/pipeline"
	"github.com/shaycrk/drain/table"
)

// ============================================================================
// DRAIN CLI — Run One Aggregation over a CSV File
// ============================================================================

const version = "0.1.0"

func main() {
	filePath := flag.String("file", "", "Path to CSV data file (required)")
	indexesStr := flag.String("indexes", "", "Comma-separated index column names (required)")
	statsStr := flag.String("stats", "count", "Comma-separated statistics: count, sum:<col>, mean:<col>, min:<col>, max:<col>")
	datesStr := flag.String("dates", "", "Comma-separated end dates (YYYY-MM-DD); enables the spacetime variant")
	deltasStr := flag.String("deltas", "all", "Comma-separated deltas applied to every index (spacetime)")
	dateColumn := flag.String("date-column", "", "Column holding each row's date (spacetime)")
	censorStr := flag.String("censor-columns", "", "Comma-separated <column>:<date-column> pairs censored past each end date (spacetime)")
	insertStr := flag.String("insert", "", "Comma-separated argument names inserted as columns: index, date, delta")
	parallel := flag.Bool("parallel", false, "Decompose into independent children")
	disjoint := flag.Bool("disjoint", false, "Return per-argument tables instead of concatenating")
	format := flag.String("format", "json", "Output format: json, pretty, csv")
	outFile := flag.String("out", "", "Write output to file instead of stdout")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `drain — grouped aggregation over tabular data

Usage:
  drain --file data.csv --indexes city,region --stats count,sum:amount
  drain --file events.csv --indexes city --stats count \
      --dates 2020-01-01,2020-07-01 --deltas 1y,all --date-column date \
      --insert date,delta --format csv

Flags:
`)
		flag.PrintDefaults()
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("drain %s\n", version)
		os.Exit(0)
	}
	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "Error: --file is required")
		flag.Usage()
		os.Exit(1)
	}
	if *indexesStr == "" {
		fmt.Fprintln(os.Stderr, "Error: --indexes is required")
		flag.Usage()
		os.Exit(1)
	}

	writer := os.Stdout
	if *outFile != "" {
		f, err := os.Create(*outFile)
		if err != nil {
			fatalf("Failed to create output file: %v", err)
		}
		defer f.Close()
		writer = f
	}

	data, err := os.ReadFile(*filePath)
	if err != nil {
		fatalf("Failed to read file: %v", err)
	}
	src, err := helpers.ParseCSV(data)
	if err != nil {
		fatalf("Failed to parse CSV: %v", err)
	}

	stats, err := parseStats(*statsStr)
	if err != nil {
		fatalf("Bad --stats: %v", err)
	}

	var opts []aggregation.Option
	if *parallel {
		opts = append(opts, aggregation.WithParallel())
	}
	if *disjoint {
		opts = append(opts, aggregation.WithDisjoint())
	}
	if *insertStr != "" {
		opts = append(opts, aggregation.WithInsertArgs(splitList(*insertStr)...))
	}

	source := pipeline.NewSource("csv:"+*filePath, src)
	indexes := splitList(*indexesStr)

	var agg *aggregation.Aggregation
	if *datesStr == "" {
		agg, err = aggregation.NewSimple("cli", aggregation.SimpleConfig{
			Inputs:     []pipeline.Step{source},
			Indexes:    aggregation.IndexColumns(indexes...),
			Statistics: stats,
		}, opts...)
	} else {
		dates, derr := parseDates(*datesStr)
		if derr != nil {
			fatalf("Bad --dates: %v", derr)
		}
		censor, cerr := parseCensor(*censorStr)
		if cerr != nil {
			fatalf("Bad --censor-columns: %v", cerr)
		}
		deltas := splitList(*deltasStr)
		spacedeltas := make(map[string]aggregation.Spacedelta, len(indexes))
		for _, idx := range indexes {
			spacedeltas[idx] = aggregation.Spacedelta{
				Index:  aggregate.ColumnIndex(idx),
				Deltas: deltas,
			}
		}
		agg, err = aggregation.NewSpacetime("cli", aggregation.SpacetimeConfig{
			Inputs:        []pipeline.Step{source},
			Spacedeltas:   spacedeltas,
			Dates:         dates,
			DateColumn:    *dateColumn,
			CensorColumns: censor,
			Statistics:    stats,
		}, opts...)
	}
	if err != nil {
		fatalf("Failed to build aggregation: %v", err)
	}

	if _, err := pipeline.NewRunner().Run(context.Background(), agg); err != nil {
		fatalf("Run failed: %v", err)
	}
	result := agg.Result()

	switch *format {
	case "csv":
		if err := writeResultCSV(writer, "", result); err != nil {
			fatalf("Failed to write CSV: %v", err)
		}
	case "pretty":
		writeJSON(writer, resultJSON(result), true)
	default:
		writeJSON(writer, resultJSON(result), false)
	}
}

// ============================================================================
// FLAG PARSING
// ============================================================================

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseStats(s string) ([]aggregate.Statistic, error) {
	var stats []aggregate.Statistic
	for _, item := range splitList(s) {
		kind, column, _ := strings.Cut(item, ":")
		switch kind {
		case "count":
			stats = append(stats, aggregate.Count())
		case "sum":
			stats = append(stats, aggregate.Sum(column))
		case "mean":
			stats = append(stats, aggregate.Mean(column))
		case "min":
			stats = append(stats, aggregate.Min(column))
		case "max":
			stats = append(stats, aggregate.Max(column))
		default:
			return nil, fmt.Errorf("unknown statistic %q", item)
		}
	}
	return stats, nil
}

func parseCensor(s string) (map[string]string, error) {
	items := splitList(s)
	if len(items) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(items))
	for _, item := range items {
		col, dateCol, ok := strings.Cut(item, ":")
		if !ok || col == "" || dateCol == "" {
			return nil, fmt.Errorf("want <column>:<date-column>, got %q", item)
		}
		m[col] = dateCol
	}
	return m, nil
}

func parseDates(s string) ([]time.Time, error) {
	var dates []time.Time
	for _, item := range splitList(s) {
		d, err := time.Parse(aggregation.DateFormat, item)
		if err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ============================================================================
// OUTPUT
// ============================================================================

func resultJSON(r *aggregation.Result) any {
	switch {
	case r.Children != nil:
		children := make([]map[string]any, 0, len(r.Children))
		for _, c := range r.Children {
			children = append(children, map[string]any{
				"label":  c.Label,
				"result": resultJSON(c.Result),
			})
		}
		return map[string]any{"children": children}
	case r.Combined != nil:
		combined := make(map[string]any, len(r.Combined))
		for name, t := range r.Combined {
			combined[name] = t.Rows()
		}
		return map[string]any{"combined": combined}
	default:
		disjoint := make([]any, 0, len(r.Disjoint))
		for _, t := range r.Disjoint {
			disjoint = append(disjoint, t.Rows())
		}
		return map[string]any{"disjoint": disjoint}
	}
}

func writeResultCSV(w *os.File, prefix string, r *aggregation.Result) error {
	writeTable := func(header string, t *table.Table) error {
		if _, err := fmt.Fprintf(w, "# %s\n", header); err != nil {
			return err
		}
		return helpers.WriteCSV(w, t)
	}

	switch {
	case r.Children != nil:
		for _, c := range r.Children {
			label := c.Label
			if prefix != "" {
				label = prefix + " " + label
			}
			if err := writeResultCSV(w, label, c.Result); err != nil {
				return err
			}
		}
	case r.Combined != nil:
		for name, t := range r.Combined {
			header := "index=" + name
			if prefix != "" {
				header = prefix + " " + header
			}
			if err := writeTable(header, t); err != nil {
				return err
			}
		}
	default:
		for i, t := range r.Disjoint {
			header := fmt.Sprintf("argument=%d", i)
			if prefix != "" {
				header = prefix + " " + header
			}
			if err := writeTable(header, t); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeJSON(w *os.File, v any, pretty bool) {
	var out []byte
	var err error
	if pretty {
		out, err = json.MarshalIndent(v, "", "  ")
	} else {
		out, err = json.Marshal(v)
	}
	if err != nil {
		fatalf("Failed to marshal output: %v", err)
	}
	fmt.Fprintln(w, string(out))
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
