// Package main is the entry point for osu2sm CLI
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/james-see/osu2sm/pkg/api"
	"github.com/james-see/osu2sm/pkg/config"
	"github.com/james-see/osu2sm/pkg/converter"
	"github.com/james-see/osu2sm/pkg/preview"
	"github.com/james-see/osu2sm/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile    string
	outputFile string
	lanesName  string
	seed       int64
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "osu2sm",
	Short: "Convert osu! beatmaps to StepMania simfiles",
	Long: `osu2sm converts osu! beatmaps (.osu) into StepMania simfiles (.sm).

Notes are quantized onto 4/4 measures of 16 rows; lanes are picked at
random (seedable) or from the note's horizontal position.

Examples:
  osu2sm osu2sm song.osu -o song.sm
  osu2sm convert song.osu -o song.mid
  osu2sm encode song.sm
  osu2sm batch ~/Songs --db runs.db
  osu2sm tempocheck ~/Packs
  osu2sm tui
  osu2sm serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var osu2smCmd = &cobra.Command{
	Use:   "osu2sm <input.osu>",
	Short: "Convert .osu to .sm format",
	Args:  cobra.ExactArgs(1),
	RunE:  runOsuToSM,
}

var osu2midCmd = &cobra.Command{
	Use:   "osu2mid <input.osu>",
	Short: "Convert .osu to a MIDI drum track",
	Args:  cobra.ExactArgs(1),
	RunE:  runOsuToMIDI,
}

var mid2smCmd = &cobra.Command{
	Use:   "mid2sm <input.mid>",
	Short: "Convert MIDI to .sm format",
	Args:  cobra.ExactArgs(1),
	RunE:  runMIDIToSM,
}

var encodeCmd = &cobra.Command{
	Use:   "encode <input.sm>",
	Short: "Re-encode .sm charts on a 192-row grid",
	Args:  cobra.ExactArgs(1),
	RunE:  runEncode,
}

var previewCmd = &cobra.Command{
	Use:   "preview <input.osu>",
	Short: "Render the converted chart as a PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runPreview,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&lanesName, "lanes", "l", "", "Lane strategy (random, column)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "Seed for the random lane strategy")

	// Convert command
	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	osu2smCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .sm file path")
	osu2midCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")
	mid2smCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .sm file path")
	encodeCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .txt file path")
	previewCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .png file path")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "Server port (default from config, 8080)")

	// Add commands
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(osu2smCmd)
	rootCmd.AddCommand(osu2midCmd)
	rootCmd.AddCommand(mid2smCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// loadConfig reads --config and applies the flags the user set on top
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("lanes") {
		cfg.Lanes = lanesName
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
	return cfg, cfg.Validate()
}

func getConverter(cmd *cobra.Command) (*converter.Converter, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cfg.NewConverter()
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := conv.ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

// runBytes reads input, converts it and writes the result to the output path
func runBytes(cmd *cobra.Command, input, defaultExt string, convert func(*converter.Converter, []byte) ([]byte, error)) error {
	output := getOutputPath(input, defaultExt)

	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	result, err := convert(conv, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, result, 0644); err != nil {
		return err
	}

	fmt.Printf("Converted %s -> %s\n", input, output)
	return nil
}

func runOsuToSM(cmd *cobra.Command, args []string) error {
	return runBytes(cmd, args[0], ".sm", (*converter.Converter).OsuToSM)
}

func runOsuToMIDI(cmd *cobra.Command, args []string) error {
	return runBytes(cmd, args[0], ".mid", (*converter.Converter).OsuToMIDI)
}

func runMIDIToSM(cmd *cobra.Command, args []string) error {
	return runBytes(cmd, args[0], ".sm", (*converter.Converter).MIDIToSM)
}

func runEncode(cmd *cobra.Command, args []string) error {
	return runBytes(cmd, args[0], ".txt", (*converter.Converter).SMToEncoded)
}

func runPreview(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".png")

	conv, err := getConverter(cmd)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}
	chart, err := conv.OsuToChart(data)
	if err != nil {
		return err
	}
	if err := preview.WritePNG(chart, preview.DefaultOptions(), output); err != nil {
		return err
	}

	fmt.Printf("Rendered %s -> %s (%d measures)\n", input, output, len(chart.Measures))
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return tui.Run(cfg)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	return api.StartServer(cfg)
}
