package main

import (
	"fmt"

	"khrafet/internal/storygen"

	"github.com/spf13/cobra"
)

var promptReq storygen.GenerationRequest

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt that would be sent to the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), promptReq.Prompt())
		return err
	},
}

func init() {
	promptCmd.Flags().StringVar(&promptReq.Genre, "genre", "fantasy", "Story genre")
	promptCmd.Flags().StringVar(&promptReq.Tone, "tone", "funny", "Story tone")
	promptCmd.Flags().StringVar(&promptReq.StorySoFar, "story-so-far", "", "Text of all previous chapters")
	promptCmd.Flags().StringVar(&promptReq.LastChoice, "last-choice", "", "Choice the reader made last")
}
