package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/fatih/color"

	api "github.com/kailas-cloud/vecmatch/internal/transport/chi"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func okMark() string  { return green("✓") }
func errMark() string { return red("✗") }

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(w io.Writer, results []api.SearchResultItem) {
	if len(results) == 0 {
		fmt.Fprintln(w, yellow("no results"))
		return
	}
	for i, r := range results {
		fmt.Fprintf(w, "%2d. %s  %s  %s\n", i+1, green(fmt.Sprintf("%.4f", r.Score)), cyan(r.ID), faint(payloadSummary(r.Payload)))
	}
}

// payloadSummary renders a payload as sorted key=value pairs.
func payloadSummary(p map[string]any) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s=%v", k, p[k])
	}
	return out
}

func printError(w io.Writer, err error) {
	var ae *apiError
	if errors.As(err, &ae) {
		fmt.Fprintf(w, "%s %s %s\n", errMark(), red(string(ae.Code)), ae.Message)
		return
	}
	fmt.Fprintf(w, "%s %v\n", errMark(), err)
}
