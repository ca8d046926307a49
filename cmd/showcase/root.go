package main

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xenking/product-showcase/internal/dummyjson"
)

type rootOptions struct {
	baseURL  string
	timeout  time.Duration
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "showcase",
		Short:         "Query the product catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.baseURL, "base-url", dummyjson.DefaultBaseURL, "catalog API base URL")
	flags.DurationVar(&opts.timeout, "timeout", 0, "per-request timeout, 0 disables it")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(
		newProductCmd(opts),
		newListCmd(opts),
		newBrowseCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger(w io.Writer) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(o.logLevel)
	if err != nil {
		return nil, errors.Wrap(err, "parse log level")
	}
	enc := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), lvl)
	return zap.New(core), nil
}

func (o *rootOptions) client() (*dummyjson.Client, error) {
	c, err := dummyjson.New(o.baseURL, dummyjson.Options{
		HTTPClient: &http.Client{Timeout: o.timeout},
		UserAgent:  "showcase-cli",
	})
	if err != nil {
		return nil, errors.Wrap(err, "create client")
	}
	return c, nil
}

func writeLine(w io.Writer, e *jx.Encoder) error {
	b := append(e.Bytes(), '\n')
	if _, err := w.Write(b); err != nil {
		return errors.Wrap(err, "write")
	}
	return nil
}
