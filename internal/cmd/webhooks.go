package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beyond-api/beyond-cli/internal/validation"
)

func newWebhooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "webhooks",
		Aliases: []string{"webhook", "wh"},
		Short:   "Manage webhook subscriptions",
	}

	cmd.AddCommand(newWebhooksListCmd())
	cmd.AddCommand(newWebhooksGetCmd())
	cmd.AddCommand(newWebhooksCreateCmd())
	cmd.AddCommand(newWebhooksToggleCmd("activate", "Resume delivery to a subscription"))
	cmd.AddCommand(newWebhooksToggleCmd("deactivate", "Pause delivery to a subscription"))
	cmd.AddCommand(newWebhooksDeleteCmd())
	return cmd
}

func newWebhooksListCmd() *cobra.Command {
	var lf listFlags

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List webhook subscriptions",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			query, err := lf.query(cmd)
			if err != nil {
				return err
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.WebhookSubscriptions(ac.Session).All(cmdContext(cmd), query)
			return printServiceResult(cmd, v, err)
		}),
	}

	lf.register(cmd)
	return cmd
}

func newWebhooksGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <id>",
		Aliases: []string{"g"},
		Short:   "Get a webhook subscription",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.WebhookSubscriptions(ac.Session).Find(cmdContext(cmd), args[0])
			return printServiceResult(cmd, v, err)
		}),
	}
}

func newWebhooksCreateCmd() *cobra.Command {
	var (
		callbackURL string
		events      []string
	)

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Subscribe a callback URL to events",
		Example: "  beyond webhooks create --url https://hooks.example.com/beyond --event order.created --event product.updated",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(callbackURL) == "" {
				return fmt.Errorf("--url is required")
			}
			if len(events) == 0 {
				return fmt.Errorf("at least one --event is required")
			}
			if err := validation.ValidateCallbackURL(cmdContext(cmd), callbackURL); err != nil {
				return fmt.Errorf("invalid --url: %w", err)
			}
			ac, err := newClientFactory().load(true)
			if err != nil {
				return err
			}
			v, err := ac.Client.WebhookSubscriptions(ac.Session).Create(cmdContext(cmd), callbackURL, events)
			return printServiceResult(cmd, v, err)
		}),
	}

	cmd.Flags().StringVar(&callbackURL, "url", "", "Callback URL")
	cmd.Flags().StringSliceVar(&events, "event", nil, "Event type (repeatable or comma-separated)")
	return cmd
}

func newWebhooksToggleCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			svc := ac.Client.WebhookSubscriptions(ac.Session)
			toggle := svc.Deactivate
			if action == "activate" {
				toggle = svc.Activate
			}
			v, err := toggle(cmdContext(cmd), args[0])
			return printDone(cmd, v, err, "Webhook subscription %s %sd.\n", args[0], action)
		}),
	}
}

func newWebhooksDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a webhook subscription",
		Args:    cobra.ExactArgs(1),
		RunE: withAPI(func(cmd *cobra.Command, args []string, ac *apiContext) error {
			v, err := ac.Client.WebhookSubscriptions(ac.Session).Delete(cmdContext(cmd), args[0])
			return printDone(cmd, v, err, "Webhook subscription %s deleted.\n", args[0])
		}),
	}
}
