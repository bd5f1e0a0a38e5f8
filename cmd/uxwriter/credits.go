package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"example.com/uxwriter/internal/billing"
	"example.com/uxwriter/internal/models"
)

func newCreditsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "Show the credit balance and transaction history",
		Args:  cobra.NoArgs,
		RunE:  runCredits,
	}
	cmd.Flags().Bool("json", false, "Print balance and history as JSON")
	return cmd
}

func runCredits(cmd *cobra.Command, _ []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	account, err := app.ledger(cmd.Context())
	if err != nil {
		return err
	}

	balance, history := account.Snapshot()
	out := cmd.OutOrStdout()

	if asJSON {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(struct {
			Balance int64                      `json:"balance"`
			History []models.CreditTransaction `json:"history"`
		}{Balance: balance, History: history})
	}

	fmt.Fprintf(out, "Balance: %d credits\n", balance)
	if len(history) == 0 {
		return nil
	}

	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tAMOUNT\tREASON")
	for _, tx := range history {
		fmt.Fprintf(w, "%s\t%+d\t%s\n", tx.Date.Local().Format(time.DateTime), tx.Amount, tx.Reason)
	}
	return w.Flush()
}

func newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy PLAN_ID",
		Short: "Buy a credit plan through the simulated checkout",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuy,
	}
}

func runBuy(cmd *cobra.Command, args []string) error {
	planID, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("plan id must be a number: %q", args[0])
	}

	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	catalog, err := billing.LoadCatalog(app.cfg.Credits.PlansFile)
	if err != nil {
		return err
	}

	account, err := app.ledger(cmd.Context())
	if err != nil {
		return err
	}

	plan, err := billing.NewCheckout(catalog, app.cfg.Credits.CheckoutDelay).Purchase(cmd.Context(), account, planID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%d credits have been added to your account. Balance: %d\n", plan.Amount, account.Balance())
	return nil
}

func newPlansCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plans",
		Short: "List credit plans",
		Args:  cobra.NoArgs,
		RunE:  runPlans,
	}
}

func runPlans(cmd *cobra.Command, _ []string) error {
	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	catalog, err := billing.LoadCatalog(app.cfg.Credits.PlansFile)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREDITS\tPRICE\tPER CREDIT\tNOTE")
	for _, plan := range catalog.Plans() {
		note := plan.Savings
		if plan.Popular {
			note = "Most popular " + note
		}
		fmt.Fprintf(w, "%d\t%d\t$%s\t$%s\t%s\n", plan.ID, plan.Amount, plan.Price.StringFixed(2), plan.PricePerCredit().StringFixed(2), note)
	}
	return w.Flush()
}
