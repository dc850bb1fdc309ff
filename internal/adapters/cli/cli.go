package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"finance-analytics/internal/app"
	"finance-analytics/internal/store"
)

// Usage lists the one-shot commands.
const Usage = `Usage: app <command> [args]

  analyze <record-kind> <analysis> [key=value ...]   run one analysis
  all <record-kind>                                  run every single-kind analysis
  info <record-kind>                                 describe a loaded table
  summary                                            summary statistics per record kind
  reload [record-kind]                               re-read tables from the source
  kinds                                              list record and analysis kinds
  cache [clear]                                      show or clear the result cache`

// Run executes a one-shot CLI command, writing its output to out.
// args is os.Args[1:]; the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", Usage)
	}

	switch args[0] {
	case "analyze", "an", "a":
		if len(args) < 3 {
			return fmt.Errorf("usage: app analyze <record-kind> <analysis> [key=value ...]")
		}
		params, err := parseParams(args[3:])
		if err != nil {
			return err
		}
		res, err := svc.Analyze(ctx, app.AnalyzeRequest{
			RecordKind:   args[1],
			AnalysisKind: args[2],
			Params:       params,
		})
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		return writeIndented(out, res.Result.Serialize())

	case "all":
		if len(args) < 2 {
			return fmt.Errorf("usage: app all <record-kind>")
		}
		res, err := svc.AnalyzeAll(ctx, args[1])
		if err != nil {
			return fmt.Errorf("analyses failed: %w", err)
		}
		for _, id := range res.IDs() {
			fmt.Fprintf(out, "== %s ==\n", id)
			if err := writeIndented(out, res.Results[id].Data); err != nil {
				return err
			}
		}
		return nil

	case "info":
		if len(args) < 2 {
			return fmt.Errorf("usage: app info <record-kind>")
		}
		res, err := svc.FileInfo(ctx, args[1])
		if err != nil {
			return fmt.Errorf("file info: %w", err)
		}
		printFileInfo(out, res.Info)
		return nil

	case "summary", "sum":
		res, err := svc.Summary(ctx)
		if err != nil {
			return fmt.Errorf("summary: %w", err)
		}
		for _, id := range res.IDs() {
			fmt.Fprintf(out, "== %s ==\n", id)
			if err := writeIndented(out, res.Kinds[id]); err != nil {
				return err
			}
		}
		return nil

	case "reload":
		kind := ""
		if len(args) > 1 {
			kind = args[1]
		}
		res, err := svc.Reload(ctx, kind)
		if err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		for _, info := range res.Files {
			printFileInfo(out, info)
		}
		if len(res.Failed) > 0 {
			fmt.Fprintf(out, "Not loaded: %s\n", strings.Join(res.Failed, ", "))
		}
		return nil

	case "kinds":
		k := svc.ListKinds()
		fmt.Fprintln(out, "Record kinds:")
		for _, rk := range k.RecordKinds {
			fmt.Fprintf(out, "  %-12s %s\n", rk.Slug(), rk.Label())
		}
		fmt.Fprintln(out, "Analyses:")
		for _, ak := range k.AnalysisKinds {
			fmt.Fprintf(out, "  %-24s %s\n", ak.ID(), ak.Label())
		}
		return nil

	case "cache":
		if len(args) > 1 && args[1] == "clear" {
			if err := svc.ClearCache(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(out, "Cache cleared.")
			return nil
		}
		return writeIndented(out, svc.CacheInfo(ctx))

	default:
		return fmt.Errorf("unknown command: %s\n%s", args[0], Usage)
	}
}

// parseParams turns key=value arguments into analysis parameters.
func parseParams(args []string) (map[string]any, error) {
	if len(args) == 0 {
		return nil, nil
	}
	params := make(map[string]any, len(args))
	for _, a := range args {
		k, v, ok := strings.Cut(a, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid parameter %q, want key=value", a)
		}
		params[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return params, nil
}

func writeIndented(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func printFileInfo(out io.Writer, info *store.FileInfo) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  %-58s\n", info.Kind.Label()+" ("+info.Kind.ID()+")")
	fmt.Fprintf(out, "  Source   : %s\n", info.Source)
	fmt.Fprintf(out, "  Loaded   : %s\n", info.LoadedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(out, strings.Repeat("=", 62))
	fmt.Fprintf(out, "  Rows     : %d\n", info.Rows)
	fmt.Fprintf(out, "  Columns  : %d\n", info.Columns)
	fmt.Fprintf(out, "  Memory   : %.3f MB\n", info.MemoryMB)
	for _, c := range info.ColumnNames {
		fmt.Fprintf(out, "    - %s\n", c)
	}
	fmt.Fprintln(out, strings.Repeat("=", 62))
}
