package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trickstertwo/xtrack"
)

var captureSession string

var captureCmd = &cobra.Command{
	Use:   "capture URL",
	Short: "Capture click identifiers from a landing URL",
	Long: `Parse fbclid, ttclid and rdt_cid from the URL's query string and store
them in the configured session store.

With session.store=redis the identifiers survive the process, so a later
"xtrack dispatch --session ID" attributes its event to this landing.

Examples:
  xtrack capture 'https://shop.example/?fbclid=abc&rdt_cid=123' --session tab-1`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVar(&captureSession, "session", "", "session id for the redis session store")
}

func runCapture(cmd *cobra.Command, args []string) error {
	w, err := newWiring(cfg, newLogger())
	if err != nil {
		return err
	}
	defer w.Close()

	d, err := w.dispatcher(session{ID: captureSession})
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}
	defer d.Close(context.Background())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	d.Capture(ctx, args[0])

	attr := d.Attribution(ctx)
	out := cmd.OutOrStdout()
	for _, k := range xtrack.ClickIDKeys {
		v := attr[k]
		if v == "" {
			v = "-"
		}
		fmt.Fprintf(out, "%-8s %s\n", k, v)
	}
	return nil
}
