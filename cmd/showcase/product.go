package main

import (
	"strconv"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/spf13/cobra"

	"github.com/xenking/product-showcase/internal/domain/product"
	"github.com/xenking/product-showcase/internal/loader"
	"github.com/xenking/product-showcase/internal/wire"
)

func newProductCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Print the settled load state of one product as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id < 1 {
				return errors.Errorf("invalid product id %q", args[0])
			}

			lg, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := zctx.Base(cmd.Context(), lg)

			ld := loader.NewDetail(client, loader.Options[*product.Record]{Logger: lg})
			defer ld.Close()
			ld.Load(ctx, id)
			st, err := ld.Wait(ctx)
			if err != nil {
				return errors.Wrap(err, "wait")
			}

			var e jx.Encoder
			wire.EncodeDetail(&e, st)
			if err := writeLine(cmd.OutOrStdout(), &e); err != nil {
				return err
			}
			return settledError(st.Message)
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the settled load state of the product collection as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 1 {
				return errors.Errorf("limit %d must be positive", limit)
			}

			lg, err := opts.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client, err := opts.client()
			if err != nil {
				return err
			}
			ctx := zctx.Base(cmd.Context(), lg)

			ld := loader.NewCollection(client, loader.Options[[]product.Record]{Logger: lg})
			defer ld.Close()
			ld.Load(ctx, limit)
			st, err := ld.Wait(ctx)
			if err != nil {
				return errors.Wrap(err, "wait")
			}

			var e jx.Encoder
			wire.EncodeCollection(&e, st)
			if err := writeLine(cmd.OutOrStdout(), &e); err != nil {
				return err
			}
			return settledError(st.Message)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", loader.DefaultLimit, "number of products to fetch")
	return cmd
}

// settledError turns a failed state into a command error so the exit code
// reflects it.
func settledError(message func() (string, bool)) error {
	if msg, failed := message(); failed {
		return errors.New(msg)
	}
	return nil
}
