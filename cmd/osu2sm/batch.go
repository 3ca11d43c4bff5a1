package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/james-see/osu2sm/pkg/analyze"
	"github.com/james-see/osu2sm/pkg/batch"
	"github.com/james-see/osu2sm/pkg/config"
	"github.com/james-see/osu2sm/pkg/store"
	"github.com/james-see/osu2sm/pkg/tempo"
)

var (
	dbPath    string
	historyDB string
	maxFiles  int
	workers   int
	logPath   string
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Convert every .osu file under a directory to .sm",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

var tempoCheckCmd = &cobra.Command{
	Use:   "tempocheck <dir>",
	Short: "Compare declared .sm tempos with an estimate from the audio",
	Args:  cobra.ExactArgs(1),
	RunE:  runTempoCheck,
}

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs, or the results of one run",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <dir|log>",
	Short: "Histogram the measure widths of .sm files or of a width log",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	for _, cmd := range []*cobra.Command{batchCmd, tempoCheckCmd} {
		cmd.Flags().StringVar(&dbPath, "db", "", "Record the run in this database")
		cmd.Flags().IntVar(&maxFiles, "max", 0, "Stop after this many files (0 = all)")
		cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Parallel jobs (default from config, 5)")
	}
	historyCmd.Flags().StringVar(&historyDB, "db", "osu2sm.db", "Run database")
	analyzeCmd.Flags().StringVar(&logPath, "log", "", "Also write the width log to this file")

	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(tempoCheckCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(analyzeCmd)
}

func progressPrinter(done, total int) {
	fmt.Printf("\rdone %.1f%%", float64(done)*100.0/float64(total))
	if done == total {
		fmt.Println()
	}
}

func poolSize(cfg config.Config) int {
	if workers > 0 {
		return workers
	}
	return cfg.Workers
}

// recordRun saves a finished run when --db is set
func recordRun[T any](kind, root string, results []batch.Result[T], record func(batch.Result[T]) store.Record) error {
	if dbPath == "" {
		return nil
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	run := store.NewRun(kind, root)
	run.Total = len(results)
	for _, r := range results {
		if !r.OK() {
			run.Failed++
		}
	}
	if err := db.SaveRun(run); err != nil {
		return err
	}
	for _, r := range results {
		if err := db.SaveResult(run.ID, record(r)); err != nil {
			return err
		}
	}
	fmt.Printf("Recorded run %s in %s\n", run.ID, dbPath)
	return nil
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func runBatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths, err := batch.Gather(root, []string{".osu"}, maxFiles)
	if err != nil {
		return err
	}
	fmt.Printf("Converting %d beatmaps with %d workers\n", len(paths), poolSize(cfg))

	results, err := batch.Run(cmd.Context(), paths, poolSize(cfg), func(_ context.Context, path string) (string, error) {
		conv, err := cfg.NewConverter()
		if err != nil {
			return "", err
		}
		output := strings.TrimSuffix(path, filepath.Ext(path)) + ".sm"
		return output, conv.ConvertFile(path, output)
	}, progressPrinter)
	if err != nil {
		return err
	}

	converted := 0
	for _, r := range results {
		if r.OK() {
			converted++
		} else {
			fmt.Printf("Skipping %v because: %v\n", r.Path, r.Err)
		}
	}
	fmt.Printf("Converted %d of %d beatmaps\n", converted, len(results))

	return recordRun("batch", root, results, func(r batch.Result[string]) store.Record {
		return store.Record{Path: r.Path, Output: r.Value, Error: errorString(r.Err)}
	})
}

func runTempoCheck(cmd *cobra.Command, args []string) error {
	root := args[0]
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	paths, err := batch.Gather(root, []string{".sm"}, maxFiles)
	if err != nil {
		return err
	}

	est := &tempo.CommandEstimator{Command: cfg.Tempo.Command, Args: cfg.Tempo.Args}
	results, err := batch.Run(cmd.Context(), paths, poolSize(cfg), func(ctx context.Context, path string) (tempo.Result, error) {
		return tempo.Check(ctx, est, path)
	}, progressPrinter)
	if err != nil {
		return err
	}

	for _, r := range results {
		if !r.OK() {
			fmt.Printf("Skipping %v because: %v\n", r.Path, r.Err)
			continue
		}
		v := r.Value
		fmt.Printf("%s: %.3f declared, %.3f corrected (x%s) %+.4f%%\n", v.Path, v.Declared, v.Corrected, v.Ratio, v.Accuracy)
	}

	return recordRun("tempocheck", root, results, func(r batch.Result[tempo.Result]) store.Record {
		rec := store.Record{Path: r.Path, Error: errorString(r.Err)}
		if r.OK() {
			rec.Output = r.Value.Ratio
			rec.Values = map[string]float64{
				"estimated": r.Value.Estimated,
				"corrected": r.Value.Corrected,
				"declared":  r.Value.Declared,
				"accuracy":  r.Value.Accuracy,
			}
		}
		return rec
	})
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(historyDB)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		runs, err := db.Runs()
		if err != nil {
			return err
		}
		for _, r := range runs {
			fmt.Printf("%s  %-10s %s  %d files, %d failed  %s\n", r.ID, r.Kind, r.StartedAt.Format("2006-01-02 15:04:05"), r.Total, r.Failed, r.Root)
		}
		return nil
	}

	records, err := db.Results(args[0])
	if err != nil {
		return err
	}
	for _, rec := range records {
		switch {
		case rec.Error != "":
			fmt.Printf("%s: error: %s\n", rec.Path, rec.Error)
		case rec.Values != nil:
			fmt.Printf("%s: %s %v\n", rec.Path, rec.Output, rec.Values)
		default:
			fmt.Printf("%s -> %s\n", rec.Path, rec.Output)
		}
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	target := args[0]
	info, err := os.Stat(target)
	if err != nil {
		return err
	}

	var lists [][]int
	if info.IsDir() {
		paths, err := batch.Gather(target, []string{".sm"}, 0)
		if err != nil {
			return err
		}
		var lines []string
		for _, path := range paths {
			l, err := analyze.FromSM(path)
			if err != nil {
				fmt.Printf("Skipping %v because: %v\n", path, err)
				continue
			}
			lines = append(lines, l...)
		}
		log := strings.Join(lines, "\n")
		if logPath != "" {
			if err := os.WriteFile(logPath, []byte(log+"\n"), 0644); err != nil {
				return err
			}
		}
		if lists, err = analyze.ParseWidthLog(strings.NewReader(log)); err != nil {
			return err
		}
	} else {
		f, err := os.Open(target)
		if err != nil {
			return err
		}
		defer f.Close()
		if lists, err = analyze.ParseWidthLog(f); err != nil {
			return err
		}
	}

	h := analyze.Histogram{}
	h.Add(lists...)
	fmt.Printf("%d measures in %d charts\n", h.Total(), len(lists))
	for _, bin := range h.Sorted() {
		mark := ""
		if !bin.Regriddable {
			mark = "  (not regriddable)"
		}
		fmt.Printf("%6d  %8d  %s%s\n", bin.Width, bin.Count, analyze.FormatFactors(bin.Factors), mark)
	}
	return nil
}
