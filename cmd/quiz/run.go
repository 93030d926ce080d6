package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"

	"adaptivequiz/internal/app"
	"adaptivequiz/internal/client"
	"adaptivequiz/internal/completion"
	"adaptivequiz/internal/config"
	"adaptivequiz/internal/logging"
	"adaptivequiz/internal/model"
	"adaptivequiz/internal/questionbank"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func defaultTimings() timingFlags {
	d := client.DefaultTimings()
	return timingFlags{
		AutoAdvanceAfter: d.AutoAdvanceAfter,
		AbortAfter:       d.AbortAfter,
		ConfirmDelay:     d.ConfirmDelay,
	}
}

func newLogger() (*zap.Logger, error) {
	if verbose {
		return logging.New("debug", true)
	}
	return logging.New("error", false)
}

// backend is where the session gets its catalog, selections and persistence
type backend struct {
	catalog   []model.Question
	selector  client.Selector
	submitter client.Submitter
	close     func()
}

func runQuiz(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var b *backend
	if offline {
		b, err = offlineBackend(ctx, logger)
	} else {
		b, err = serverBackend(ctx)
	}
	if err != nil {
		return err
	}
	defer b.close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d questions. Answer with the number of an option.\n\n", len(b.catalog))

	changes := make(chan struct{}, 1)
	o := client.New(b.catalog, b.selector, b.submitter, client.Config{
		Timings: client.Timings{
			AbortAfter:       timings.AbortAfter,
			AutoAdvanceAfter: timings.AutoAdvanceAfter,
			ConfirmDelay:     timings.ConfirmDelay,
		},
		RespondentID: respondentID,
		Logger:       logger,
		OnChange: func(client.Snapshot) {
			select {
			case changes <- struct{}{}:
			default:
			}
		},
	})
	defer o.Close()

	return session(ctx, o, readLines(cmd.InOrStdin()), changes, out)
}

func offlineBackend(ctx context.Context, logger *zap.Logger) (*backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	var questions []model.Question
	if bankFile == "" {
		questions, err = questionbank.Default()
	} else {
		questions, err = questionbank.LoadFile(bankFile)
	}
	if err != nil {
		return nil, err
	}

	llm, err := completion.New(ctx, cfg.Completion, logger)
	if err != nil {
		return nil, err
	}
	a := app.NewInMemory(cfg, logger, llm, questions)

	if respondentID == "" {
		respondentID = "local"
	}
	local := &client.Local{
		Selection:    a.SelectionService,
		Results:      a.ResultService,
		RespondentID: respondentID,
	}
	return &backend{
		catalog:   questions,
		selector:  local,
		submitter: local,
		close:     func() { a.Close(context.Background()) },
	}, nil
}

func serverBackend(ctx context.Context) (*backend, error) {
	api := client.NewAPI(serverURL, nil)
	tok, err := api.Authenticate(ctx, respondentID)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	respondentID = tok.RespondentID

	catalog, err := api.Questions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("server has no questions; run seed first")
	}
	return &backend{catalog: catalog, selector: api, submitter: api, close: func() {}}, nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	if respondentID == "" {
		return fmt.Errorf("--respondent is required")
	}
	api := client.NewAPI(serverURL, nil)
	if _, err := api.Authenticate(cmd.Context(), respondentID); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	results, err := api.Recent(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No results yet.")
		return nil
	}
	for _, r := range results {
		mode := "standard"
		if r.UsedAdaptive {
			mode = "personalized"
		}
		fmt.Fprintf(out, "%s  %d answers, %s\n", r.CompletedAt.Local().Format("2006-01-02 15:04"), len(r.Answers), mode)
		printScores(out, r.TraitScores)
	}
	return nil
}

func readLines(r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()
	return lines
}

// session renders snapshots and feeds input into the orchestrator until the
// test is completed or input ends. Notices are dismissed once printed.
func session(ctx context.Context, o *client.Orchestrator, lines <-chan string, changes <-chan struct{}, out io.Writer) error {
	shownState := client.StateAnsweringStandard
	shownQuestion := -1
	var submitErr error

	for {
		snap := o.Snapshot()
		for _, n := range snap.Notices {
			fmt.Fprintf(out, "  ! %s\n", n.Message)
			o.DismissNotice(n.ID)
		}
		if snap.State != shownState {
			shownState = snap.State
			announce(out, snap.State)
		}

		switch {
		case snap.State == client.StateCompleted:
			fmt.Fprintln(out, "\nDone. Your trait scores:")
			printScores(out, snap.Result.TraitScores)
			return submitErr

		case snap.Current == nil:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changes:
			case line, ok := <-lines:
				if !ok {
					return io.ErrUnexpectedEOF
				}
				if !strings.EqualFold(line, "s") {
					fmt.Fprintln(out, "  please wait")
					continue
				}
				if err := o.SkipPersonalization(); errors.Is(err, client.ErrSkipNotAvailable) {
					fmt.Fprintln(out, "  personalization already finished, nothing to skip")
				}
			}

		default:
			if shownQuestion != snap.Answered {
				shownQuestion = snap.Answered
				printQuestion(out, snap)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-changes:
			case line, ok := <-lines:
				if !ok {
					return io.ErrUnexpectedEOF
				}
				value, err := strconv.Atoi(line)
				if err != nil {
					fmt.Fprintln(out, "  enter the number of an option")
					continue
				}
				if err := o.Answer(ctx, value); err != nil {
					if o.Snapshot().State == client.StateCompleted {
						submitErr = err
						continue
					}
					fmt.Fprintf(out, "  %v\n", err)
				}
			}
		}
	}
}

func announce(out io.Writer, state client.State) {
	switch state {
	case client.StateAwaitingAdaptive:
		fmt.Fprintln(out, "\nPersonalizing your next questions... (s + Enter to skip)")
	case client.StateAnsweringAdaptive:
		fmt.Fprintln(out, "\nAdaptive mode: your next questions were picked for you (marked *).")
	}
}

func printQuestion(out io.Writer, snap client.Snapshot) {
	q := snap.Current
	marker := ""
	if snap.AdaptiveMode {
		marker = " *"
	}
	fmt.Fprintf(out, "\n[%d/%d]%s %s\n", snap.Answered+1, snap.Total, marker, q.Text)
	for _, opt := range q.Options {
		fmt.Fprintf(out, "   %d) %s\n", opt.Value, opt.Text)
	}
	fmt.Fprint(out, "> ")
}

func printScores(out io.Writer, scores map[model.Trait]model.TraitScore) {
	traits := make([]model.Trait, 0, len(scores))
	for t := range scores {
		traits = append(traits, t)
	}
	sort.Slice(traits, func(i, j int) bool { return traits[i] < traits[j] })
	for _, t := range traits {
		s := scores[t]
		fmt.Fprintf(out, "  %-18s %.2f (%d answers)\n", t, s.Score, s.Count)
	}
}
