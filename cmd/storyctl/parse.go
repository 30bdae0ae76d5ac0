package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"khrafet/internal/storygen"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var parsePriorChapters int

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a raw model response into a chapter (reads stdin when no file or '-')",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().IntVar(&parsePriorChapters, "prior-chapters", 0, "Number of chapters before this one (sets chapter and choice ids)")
}

func runParse(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer f.Close()
		in = f
	}

	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("read model output: %w", err)
	}

	chunk, strategy, err := storygen.ParseWithStrategies(string(raw), storygen.DefaultStrategies)
	if err != nil {
		return err
	}
	log.Debug().Str("strategy", strategy).Int("choices", len(chunk.Choices)).Msg("model output parsed")

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(storygen.AssembleChapter(parsePriorChapters, chunk))
}
