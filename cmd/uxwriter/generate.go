package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"example.com/uxwriter/internal/ai"
	"example.com/uxwriter/internal/models"
	"example.com/uxwriter/internal/secrets"
	"example.com/uxwriter/internal/studio"
)

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List content categories and their example prompts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLABEL\tEXAMPLE")
			for _, category := range models.Categories() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", category, category.Label(), category.ExamplePrompt())
			}
			return w.Flush()
		},
	}
}

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [PROMPT...]",
		Short: "Generate Content (1 Credit)",
		Long: `Generate UX copy for a category. The prompt is taken from the arguments;
with --example the category's example prompt is used instead.`,
		RunE: runGenerate,
	}
	cmd.Flags().StringP("category", "c", string(models.CategoryMicrocopy), "Content category: microcopy, errors, onboarding, tooltips")
	cmd.Flags().Bool("example", false, "Use the category's example prompt")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	rawCategory, _ := cmd.Flags().GetString("category")
	useExample, _ := cmd.Flags().GetBool("example")

	category, err := models.ParseCategory(rawCategory)
	if err != nil {
		return fmt.Errorf("%w: %q", err, rawCategory)
	}

	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	client, err := ai.NewClient(app.cfg.AI)
	if err != nil {
		return err
	}

	account, err := app.ledger(cmd.Context())
	if err != nil {
		return err
	}

	s := studio.New(ai.NewGenerator(client), nil, app.logger)

	prompt := strings.Join(args, " ")
	if useExample {
		prompt, err = s.SelectCategory(uuid.Nil, category)
		if err != nil {
			return err
		}
	}

	credentials := secrets.Chain{secrets.NewStoreSource(app.store), secrets.Static(app.cfg.AI.APIKey)}
	outcome, err := s.Generate(cmd.Context(), account, credentials, studio.Request{
		DeviceID: uuid.Nil,
		Category: category,
		Prompt:   prompt,
	})
	if err != nil {
		return generateError(err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, outcome.Result.Content)
	fmt.Fprintf(cmd.ErrOrStderr(), "Credits remaining: %d\n", outcome.Balance)
	return nil
}

func generateError(err error) error {
	var providerErr *ai.ProviderError
	switch {
	case errors.Is(err, studio.ErrEmptyPrompt):
		return fmt.Errorf("empty prompt: please provide a description of the content you need")
	case errors.Is(err, studio.ErrInsufficientCredits):
		return fmt.Errorf("no credits remaining: run 'uxwriter buy PLAN_ID' to purchase more")
	case errors.Is(err, ai.ErrMissingCredential):
		return fmt.Errorf("API key is required: run 'uxwriter credential set' or set AI_API_KEY")
	case errors.As(err, &providerErr):
		return fmt.Errorf("generation failed: %s", providerErr.Message)
	default:
		return err
	}
}
