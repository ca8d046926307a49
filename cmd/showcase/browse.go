package main

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/product-showcase/internal/domain/loadstate"
	"github.com/xenking/product-showcase/internal/domain/product"
	"github.com/xenking/product-showcase/internal/loader"
	"github.com/xenking/product-showcase/internal/wire"
)

func newBrowseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Read product ids from stdin and print every state transition",
		Long: `Browse keeps one detail view open and points it at each product id read
from stdin, one per line. Every applied transition is printed as a JSON line.
A new id supersedes a load still in flight, so its result is never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			lg, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := zctx.Base(cmd.Context(), lg)
			return browse(ctx, client, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func browse(ctx context.Context, repo product.Repository, in io.Reader, out io.Writer) error {
	lg := zctx.From(ctx)

	var (
		mu       sync.Mutex
		writeErr error
	)
	ld := loader.NewDetail(repo, loader.Options[*product.Record]{
		Logger: lg,
		OnChange: func(s loadstate.State[*product.Record]) {
			var e jx.Encoder
			wire.EncodeDetail(&e, s)

			mu.Lock()
			defer mu.Unlock()
			if writeErr == nil {
				writeErr = writeLine(out, &e)
			}
		},
	})
	defer ld.Close()

	ids := make(chan int)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(ids)
		return scanIDs(gCtx, in, ids)
	})
	g.Go(func() error {
		for id := range ids {
			ld.Load(gCtx, id)
		}
		if _, ok := ld.Input(); !ok {
			return nil
		}
		if _, err := ld.Wait(gCtx); err != nil {
			return errors.Wrap(err, "wait")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	return writeErr
}

// scanIDs sends every valid id line to ids. Blank lines are ignored and
// malformed ones are logged and skipped.
func scanIDs(ctx context.Context, in io.Reader, ids chan<- int) error {
	lg := zctx.From(ctx)
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, err := strconv.Atoi(line)
		if err != nil || id < 1 {
			lg.Warn("Skipping invalid product id", zap.String("line", line))
			continue
		}
		select {
		case ids <- id:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if err := sc.Err(); err != nil {
		return errors.Wrap(err, "read ids")
	}
	return nil
}
