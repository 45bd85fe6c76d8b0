// Command planner turns a trip request typed on stdin into a holiday package,
// asking clarification questions on the terminal.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trip_planner/internal/adapters/observability"
	"trip_planner/internal/app"
	"trip_planner/internal/bootstrap"
	"trip_planner/internal/shared"
)

// lineAsker asks on out and reads one line from in.
type lineAsker struct {
	in  *bufio.Reader
	out io.Writer
}

func (a lineAsker) Ask(ctx context.Context, st app.Step) (string, error) {
	if st.Notice != "" {
		fmt.Fprintln(a.out, st.Notice)
	}
	fmt.Fprintf(a.out, "%s\n> ", st.Question.Text)
	return readLine(ctx, a.in)
}

func readLine(ctx context.Context, in *bufio.Reader) (string, error) {
	type result struct {
		s   string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := in.ReadString('\n')
		if errors.Is(err, io.EOF) && s != "" {
			err = nil
		}
		ch <- result{strings.TrimSpace(s), err}
	}()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-ch:
		return r.s, r.err
	}
}

func main() {
	cfg := shared.Load()
	if cfg.AppEnv == "prod" {
		cfg.AppEnv = "dev"
	}
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if err := run(ctx, a.Planner, cfg.MaxRounds, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("planning failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, p *app.Planner, rounds int, stdin io.Reader, stdout io.Writer) error {
	in := bufio.NewReader(stdin)
	asker := lineAsker{in: in, out: stdout}

	fmt.Fprint(stdout, "Where would you like to go?\n> ")
	text, err := readLine(ctx, in)
	if err != nil {
		return err
	}
	raw, err := p.Extract(ctx, text)
	if err != nil {
		return err
	}

	s := app.NewSession(uuid.NewString(), app.SessionOptions{MaxRounds: rounds})
	q, err := app.Drive(ctx, s, raw, asker)
	for {
		if err != nil {
			return err
		}
		pkg, perr := p.Plan(ctx, q)
		var nf *app.NoFlightsError
		if !errors.As(perr, &nf) {
			if perr != nil {
				return perr
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(pkg)
		}
		fmt.Fprintf(stdout, "No %s flights from %s to %s on %s.\n", nf.Leg, nf.From, nf.To, nf.Date)
		if _, err = s.ReopenNoFlights(); err != nil {
			return err
		}
		q, err = app.Resume(ctx, s, asker)
	}
}
