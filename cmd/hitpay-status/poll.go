package main

import (
	"encoding/json"
	"fmt"
	"time"

	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/presenter"

	"github.com/spf13/cobra"
)

func pollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Wait for the webhook outcome of an order like the thank-you page does",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("url")
			orderID, _ := cmd.Flags().GetInt64("order")
			interval, _ := cmd.Flags().GetDuration("interval")
			maxAttempts, _ := cmd.Flags().GetInt("max-attempts")
			asJSON, _ := cmd.Flags().GetBool("json")

			out := cmd.OutOrStdout()
			poller := &presenter.Poller{
				Fetcher:     presenter.NewHTTPStatusFetcher(baseURL, 10*time.Second),
				Interval:    interval,
				MaxAttempts: maxAttempts,
				OnAttempt: func(attempt int, resp models.PollResponse, err error) {
					if asJSON {
						return
					}
					if err != nil {
						fmt.Fprintf(out, "  attempt %d: %v\n", attempt, err)
						return
					}
					fmt.Fprintf(out, "  attempt %d: %s\n", attempt, resp.Status)
				},
			}

			resp, err := poller.Run(cmd.Context(), orderID)

			if asJSON {
				b, jerr := json.Marshal(resp)
				if jerr != nil {
					return jerr
				}
				fmt.Fprintln(out, string(b))
			} else {
				view := presenter.NewView(models.PollStatusWait, "").Reveal(resp.Status)
				fmt.Fprintf(out, "Order %d: %s\n", orderID, view.Message)
			}
			return err
		},
	}

	cmd.Flags().StringP("url", "u", "http://localhost:8080", "Base URL of the gateway")
	cmd.Flags().Int64P("order", "o", 0, "Order id")
	cmd.Flags().Duration("interval", presenter.DefaultPollInterval, "Delay between polls")
	cmd.Flags().Int("max-attempts", presenter.DefaultPollMaxAttempts, "Give up after this many polls")
	cmd.Flags().BoolP("json", "j", false, "Print the final status as JSON")
	_ = cmd.MarkFlagRequired("order")

	return cmd
}
