package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"example.com/uxwriter/internal/secrets"
)

func newCredentialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage the stored provider API key",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [API_KEY]",
			Short: "Store the provider API key (read from stdin when omitted)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runCredentialSet,
		},
		&cobra.Command{
			Use:   "show",
			Short: "Show whether a key is stored and its fingerprint",
			Args:  cobra.NoArgs,
			RunE:  runCredentialShow,
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored key",
			Args:  cobra.NoArgs,
			RunE:  runCredentialClear,
		},
	)

	return cmd
}

func runCredentialSet(cmd *cobra.Command, args []string) error {
	var key string
	if len(args) == 1 {
		key = args[0]
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read API key from stdin: %w", err)
		}
		key = line
	}

	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := secrets.NewStoreSource(app.store).Save(cmd.Context(), key); err != nil {
		if errors.Is(err, secrets.ErrNoCredential) {
			return fmt.Errorf("API key must not be blank")
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "API key stored (fingerprint %s)\n", secrets.Fingerprint(strings.TrimSpace(key)))
	return nil
}

func runCredentialShow(cmd *cobra.Command, _ []string) error {
	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	out := cmd.OutOrStdout()
	value, err := secrets.NewStoreSource(app.store).Credential(cmd.Context())
	switch {
	case err == nil:
		fmt.Fprintf(out, "API key stored (fingerprint %s)\n", secrets.Fingerprint(value))
	case errors.Is(err, secrets.ErrNoCredential):
		if app.cfg.AI.APIKey != "" {
			fmt.Fprintf(out, "Using AI_API_KEY from the environment (fingerprint %s)\n", secrets.Fingerprint(app.cfg.AI.APIKey))
			return nil
		}
		fmt.Fprintln(out, "No API key stored")
	default:
		return err
	}
	return nil
}

func runCredentialClear(cmd *cobra.Command, _ []string) error {
	app, err := openLocal(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	if err := secrets.NewStoreSource(app.store).Clear(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
	return nil
}
