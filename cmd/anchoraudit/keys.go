package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/dsablic/anchoraudit/internal/auth"
	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/ui"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage stored API keys for custom providers",
	}

	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Store an API key (read from stdin, or prompted on a terminal)",
		RunE:  runKeysSet,
	}
	setCmd.Flags().String("provider", "", "Provider to store the key for (gemini-custom, claude, groq)")
	setCmd.MarkFlagRequired("provider")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored API keys",
		RunE:  runKeysList,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove a stored API key",
		RunE:  runKeysDelete,
	}
	deleteCmd.Flags().String("provider", "", "Provider to remove the key for")
	deleteCmd.MarkFlagRequired("provider")

	cmd.AddCommand(setCmd, listCmd, deleteCmd)
	return cmd
}

func customProvider(cmd *cobra.Command) (provider.ID, error) {
	name, _ := cmd.Flags().GetString("provider")
	if !provider.Known(name) || !provider.ID(name).RequiresCredential() {
		return "", fmt.Errorf("unsupported provider: %s (use gemini-custom, claude or groq)", name)
	}
	return provider.ID(name), nil
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	id, err := customProvider(cmd)
	if err != nil {
		return err
	}

	var key string
	if term.IsTerminal(os.Stdin.Fd()) {
		err = huh.NewInput().
			Title(fmt.Sprintf("API key for %s", id.Label())).
			EchoMode(huh.EchoModePassword).
			Validate(ui.ValidateAPIKey).
			Value(&key).
			Run()
		if err != nil {
			return err
		}
	} else {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read API key from stdin: %w", err)
		}
		key = line
	}
	key = strings.TrimSpace(key)
	if err := ui.ValidateAPIKey(key); err != nil {
		return err
	}

	store := auth.NewFileStore(auth.DefaultStorePath())
	if err := store.Save(string(id), auth.Credentials{APIKey: key}); err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Stored API key for %s in %s\n", id, store.Path())
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	store := auth.NewFileStore(auth.DefaultStorePath())
	names, all, err := store.List()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, "No stored API keys.")
		return nil
	}
	for _, name := range names {
		cred := all[name]
		line := fmt.Sprintf("%-14s %s", name, cred.Masked())
		if !cred.SavedAt.IsZero() {
			line += "  saved " + cred.SavedAt.Format("2006-01-02")
		}
		if os.Getenv(auth.EnvKey(name)) != "" {
			line += "  (overridden by " + auth.EnvKey(name) + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	id, err := customProvider(cmd)
	if err != nil {
		return err
	}
	store := auth.NewFileStore(auth.DefaultStorePath())
	if err := store.Delete(string(id)); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Removed API key for %s\n", id)
	return nil
}
