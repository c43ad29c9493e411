package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trickstertwo/xtrack"
)

var (
	dispatchEvent        string
	dispatchValue        float64
	dispatchCurrency     string
	dispatchContentIDs   []string
	dispatchContentNames []string
	dispatchEmail        string
	dispatchPhone        string
	dispatchFirstName    string
	dispatchLastName     string
	dispatchSourceURL    string
	dispatchLandingURL   string
	dispatchUserAgent    string
	dispatchSession      string
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Send one conversion event through every channel",
	Long: `Build one envelope, hand it to every enabled pixel and relay it to the
configured sink. The shared event ID and each pixel call are printed.

Examples:
  xtrack dispatch --event Purchase --value 79.99 --currency USD --content-ids 1 \
      --email shopper@example.com --landing 'https://shop.example/?rdt_cid=123'`,
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	f := dispatchCmd.Flags()
	f.StringVar(&dispatchEvent, "event", string(xtrack.ViewContent), "event name: ViewContent, AddToCart, Purchase, Lead")
	f.Float64Var(&dispatchValue, "value", 0, "order value (omitted when 0)")
	f.StringVar(&dispatchCurrency, "currency", "", "ISO currency code")
	f.StringSliceVar(&dispatchContentIDs, "content-ids", nil, "product ids")
	f.StringSliceVar(&dispatchContentNames, "content-names", nil, "product names, aligned with --content-ids")
	f.StringVar(&dispatchEmail, "email", "", "shopper email (hashed before it leaves)")
	f.StringVar(&dispatchPhone, "phone", "", "shopper phone (hashed before it leaves)")
	f.StringVar(&dispatchFirstName, "first-name", "", "shopper first name")
	f.StringVar(&dispatchLastName, "last-name", "", "shopper last name")
	f.StringVar(&dispatchSourceURL, "url", "", "page the event fires on (defaults to --landing)")
	f.StringVar(&dispatchLandingURL, "landing", "", "landing URL whose click identifiers are captured first")
	f.StringVar(&dispatchUserAgent, "user-agent", "xtrack-cli/"+version, "browser user agent sent with the relay")
	f.StringVar(&dispatchSession, "session", "", "session id for the redis session store")
}

func dispatchRequest() xtrack.Request {
	ud := xtrack.UserData{}
	for k, v := range map[string]string{
		xtrack.FieldEmail:     dispatchEmail,
		xtrack.FieldPhone:     dispatchPhone,
		xtrack.FieldFirstName: strings.ToLower(dispatchFirstName),
		xtrack.FieldLastName:  strings.ToLower(dispatchLastName),
	} {
		if v != "" {
			ud[k] = v
		}
	}

	cd := xtrack.CustomData{}
	if len(dispatchContentIDs) > 0 {
		cd[xtrack.KeyContentType] = xtrack.DefaultContentType
		cd[xtrack.KeyContentIDs] = dispatchContentIDs
	}
	if len(dispatchContentNames) > 0 {
		cd[xtrack.KeyContentNames] = dispatchContentNames
	}
	if dispatchCurrency != "" {
		cd[xtrack.KeyCurrency] = dispatchCurrency
	}
	if dispatchValue != 0 {
		cd[xtrack.KeyValue] = dispatchValue
	}

	return xtrack.Request{
		EventName:  xtrack.EventName(dispatchEvent),
		SourceURL:  dispatchSourceURL,
		UserData:   ud,
		CustomData: cd,
	}
}

func runDispatch(cmd *cobra.Command, args []string) error {
	w, err := newWiring(cfg, newLogger())
	if err != nil {
		return err
	}
	defer w.Close()

	d, err := w.dispatcher(session{
		ID:         dispatchSession,
		LandingURL: dispatchLandingURL,
		UserAgent:  dispatchUserAgent,
	})
	if err != nil {
		return fmt.Errorf("failed to build dispatcher: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	env := d.Track(ctx, dispatchRequest())
	if err := d.Close(ctx); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "event_id   %s\n", env.EventID)
	fmt.Fprintf(out, "event_name %s\n", env.EventName)
	if env.ClickID != "" {
		fmt.Fprintf(out, "click_id   %s\n", env.ClickID)
	}
	for _, c := range w.recorder.Calls() {
		fmt.Fprintf(out, "  %-7s %-9s %-16s %s\n", c.Platform, c.Method, c.Event, c.Payload)
	}

	m := d.GetMetrics()
	fmt.Fprintf(out, "relayed=%d relay_errors=%d adapter_errors=%d skipped=%d\n",
		m.Relayed, m.RelayErrors, m.AdapterErrors, m.AdapterSkipped)
	return nil
}
