package cli

import (
	"github.com/spf13/cobra"

	"github.com/diillson/energy-usage-dashboard-go/internal/domain/entity"
	"github.com/diillson/energy-usage-dashboard-go/pkg/console"
)

func (app *CLIApp) newAlertsCmd() *cobra.Command {
	status := func(cmd *cobra.Command, _ []string) error {
		app.services.Subscription.CheckSubscription(cmd.Context())
		app.displaySubscription(app.services.Subscription.State())
		return nil
	}

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "Manage e-mail alerts for threshold breaches",
		RunE:  status,
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show the e-mail alert subscription status",
			RunE:  status,
		},
		&cobra.Command{
			Use:   "subscribe",
			Short: "Subscribe to threshold alerts by e-mail",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if _, err := app.services.Subscription.Subscribe(cmd.Context()); err != nil {
					return err
				}
				app.console.LogSuccess("Subscribed. Check your inbox to confirm the subscription.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "unsubscribe",
			Short: "Stop receiving threshold alerts",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := app.services.Subscription.Unsubscribe(cmd.Context()); err != nil {
					return err
				}
				app.console.LogSuccess("Unsubscribed from alerts")
				return nil
			},
		},
		&cobra.Command{
			Use:   "toggle",
			Short: "Subscribe when unsubscribed, unsubscribe otherwise",
			RunE: func(cmd *cobra.Command, _ []string) error {
				// cada execução começa em Unknown; reconcilia antes de inverter
				app.services.Subscription.CheckSubscription(cmd.Context())

				state, err := app.services.Subscription.Toggle(cmd.Context())
				if err != nil {
					return err
				}
				app.displaySubscription(state)
				return nil
			},
		},
	)

	return cmd
}

func (app *CLIApp) displaySubscription(state entity.SubscriptionState) {
	if state.Subscribed() {
		app.console.Println("Alerts: " + console.BrightGreen("subscribed"))
		return
	}
	app.console.Println("Alerts: " + console.BrightYellow("not subscribed"))
}
