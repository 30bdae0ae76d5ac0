package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"khrafet/internal/config"
	"khrafet/internal/session"
	"khrafet/internal/storygen"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var playParams session.StartParams

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play an interactive story in the terminal",
	RunE:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playParams.Genre, "genre", "fantasy", "Story genre (fantasy, sci-fi, mystery, romance, horror, adventure)")
	playCmd.Flags().StringVar(&playParams.Tone, "tone", "mysterious", "Story tone (funny, dark, romantic, serious, mysterious, uplifting)")
	playCmd.Flags().StringVar(&playParams.Length, "length", string(session.LengthShort), "Story length: short, medium or long")
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return err
	}
	log.Info().Str("client", cfg.AIClientType).Str("model", cfg.AIModel).Msg("configuration loaded")

	// Ядро логирует через zap; в CLI его логи не нужны.
	completer, err := storygen.NewCompleter(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	generator := storygen.NewGenerator(completer, zap.NewNop())
	svc := session.NewService(generator, session.NewMemoryStore(24*time.Hour, 0), zap.NewNop())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	return play(ctx, svc, playParams, cmd.InOrStdin(), cmd.OutOrStdout())
}

// storyPlayer - часть session.Service, нужная игровому циклу.
type storyPlayer interface {
	Start(ctx context.Context, params session.StartParams) (*session.Session, error)
	Choose(ctx context.Context, id uuid.UUID, choiceID string) (*session.Session, error)
	Retry(ctx context.Context, id uuid.UUID) (*session.Session, error)
	Transcript(ctx context.Context, id uuid.UUID) (*session.Transcript, error)
}

// play ведёт историю до конца бюджета. Конец ввода завершает игру без ошибки.
func play(ctx context.Context, svc storyPlayer, params session.StartParams, in io.Reader, out io.Writer) error {
	input := bufio.NewScanner(in)

	fmt.Fprintf(out, "Generating your %s story...\n", params.Genre)
	sess, err := svc.Start(ctx, params)
	for err != nil {
		if !askRetry(input, out, err) {
			return err
		}
		sess, err = svc.Start(ctx, params)
	}

	for {
		chapter, _ := sess.CurrentChapter()
		printChapter(out, sess, chapter)
		if sess.Status == session.StatusCompleted {
			return printEnding(ctx, svc, sess.ID, out)
		}

		choiceID, ok := readChoice(input, out, chapter)
		if !ok {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		next, err := svc.Choose(ctx, sess.ID, choiceID)
		for err != nil {
			if !askRetry(input, out, err) {
				return err
			}
			next, err = svc.Retry(ctx, sess.ID)
		}

		if next.Status == session.StatusCompleted && len(next.Chapters) == len(sess.Chapters) {
			return printEnding(ctx, svc, next.ID, out)
		}
		sess = next
	}
}

func printChapter(out io.Writer, sess *session.Session, chapter storygen.Chapter) {
	fmt.Fprintf(out, "\n--- Chapter %s of %d ---\n\n%s\n\n", chapter.ID, sess.Budget, chapter.Text)
	for i, ch := range chapter.Choices {
		fmt.Fprintf(out, "  %d) %s\n", i+1, ch.Text)
	}
}

func printEnding(ctx context.Context, svc storyPlayer, id uuid.UUID, out io.Writer) error {
	transcript, err := svc.Transcript(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n=== THE END ===\n\n%s\n\n%s\n", transcript.Text, transcript.ShareTitle)
	return nil
}

// readChoice принимает номер (1..n), id ("2b") или букву ("b").
func readChoice(input *bufio.Scanner, out io.Writer, chapter storygen.Chapter) (string, bool) {
	for {
		fmt.Fprint(out, "\nYour choice: ")
		if !input.Scan() {
			return "", false
		}
		answer := strings.ToLower(strings.TrimSpace(input.Text()))
		if answer == "q" || answer == "quit" {
			return "", false
		}
		if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(chapter.Choices) {
			return chapter.Choices[n-1].ID, true
		}
		for _, candidate := range []string{answer, chapter.ID + answer} {
			if choice, ok := chapter.FindChoice(candidate); ok {
				return choice.ID, true
			}
		}
		fmt.Fprintf(out, "Please pick one of 1-%d (or q to quit).\n", len(chapter.Choices))
	}
}

// askRetry спрашивает о повторе только для ошибок, которые имеет смысл повторять.
func askRetry(input *bufio.Scanner, out io.Writer, err error) bool {
	if !storygen.IsRetryable(err) {
		return false
	}
	fmt.Fprintf(out, "Generation failed: %v\nRetry? [Y/n] ", err)
	if !input.Scan() {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(input.Text()))
	return answer == "" || answer == "y" || answer == "yes"
}
