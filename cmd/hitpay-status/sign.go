package main

import (
	"fmt"
	"net/url"
	"strings"

	"hitpay-gateway/internal/models"
	"hitpay-gateway/internal/signature"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign key=value...",
		Short: "Compute the webhook hmac for a set of fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			salt, _ := cmd.Flags().GetString("salt")
			asForm, _ := cmd.Flags().GetBool("form")

			fields, err := parseFields(args)
			if err != nil {
				return err
			}

			mac := signature.Sign(salt, fields)
			if !asForm {
				fmt.Fprintln(cmd.OutOrStdout(), mac)
				return nil
			}

			form := url.Values{}
			for k, v := range fields {
				form.Set(k, v)
			}
			form.Set(models.FieldHMAC, mac)
			fmt.Fprintln(cmd.OutOrStdout(), form.Encode())
			return nil
		},
	}

	cmd.Flags().StringP("salt", "s", "", "Merchant salt")
	cmd.Flags().Bool("form", false, "Print a ready to post form body")
	_ = cmd.MarkFlagRequired("salt")

	return cmd
}

func parseFields(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		if key == models.FieldHMAC {
			continue
		}
		fields[key] = value
	}
	return fields, nil
}
