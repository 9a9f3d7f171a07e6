package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dsablic/anchoraudit/internal/audit"
	"github.com/dsablic/anchoraudit/internal/auth"
	"github.com/dsablic/anchoraudit/internal/model"
	"github.com/dsablic/anchoraudit/internal/output"
	"github.com/dsablic/anchoraudit/internal/provider"
	"github.com/dsablic/anchoraudit/internal/resolver"
	"github.com/dsablic/anchoraudit/internal/telemetry"
	"github.com/dsablic/anchoraudit/internal/ui"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit <github-url>",
		Short: "Audit the Anchor programs of a public GitHub repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAudit(cmd, args[0])
		},
	}
	cmd.Flags().String("provider", string(provider.Default), "AI provider id (run anchoraudit providers to list them)")
	cmd.Flags().String("api-key", "", "API key for a custom provider (defaults to the stored key)")
	cmd.Flags().String("format", "markdown", "Output format: markdown or json")
	cmd.Flags().String("output", "", "Write the result to a file instead of stdout")
	cmd.Flags().BoolP("interactive", "i", false, "Choose the provider and key with a form")
	return cmd
}

func (a *app) runAudit(cmd *cobra.Command, repoURL string) error {
	defer a.logger.Sync()

	format, _ := cmd.Flags().GetString("format")
	if format != "markdown" && format != "json" {
		return fmt.Errorf("unsupported format: %s (use markdown or json)", format)
	}
	providerFlag, _ := cmd.Flags().GetString("provider")
	apiKey, _ := cmd.Flags().GetString("api-key")
	interactive, _ := cmd.Flags().GetBool("interactive")
	outputPath, _ := cmd.Flags().GetString("output")

	if providerFlag != "" && !provider.Known(providerFlag) {
		return fmt.Errorf("unknown provider: %s", providerFlag)
	}
	id := provider.ParseID(providerFlag)

	ref, err := resolver.Resolve(repoURL)
	if err != nil {
		return err
	}

	store := auth.NewFileStore(auth.DefaultStorePath())
	if interactive {
		sel, err := ui.PromptProvider(ui.Selection{Provider: id, APIKey: apiKey}, knownKeys(store))
		if err != nil {
			return fmt.Errorf("provider selection: %w", err)
		}
		id, apiKey = sel.Provider, sel.APIKey
	}
	if apiKey == "" && id.RequiresCredential() {
		cred, err := store.LoadWithEnv(string(id))
		if err != nil && !errors.Is(err, auth.ErrNoCredentials) {
			return err
		}
		apiKey = cred.APIKey
	}

	token := a.cfg.GitHub.Token
	if token == "" {
		token, _ = auth.GhCLIToken()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	tel, err := telemetry.Setup(ctx, a.cfg.Telemetry())
	if err != nil {
		return fmt.Errorf("failed to initialize otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		tel.Shutdown(shutdownCtx)
	}()

	useTUI := ui.IsTTY()
	logger := a.logger
	if useTUI {
		// Log lines would tear the TUI; keep only errors.
		logger = a.logger.WithOptions(zap.IncreaseLevel(zap.ErrorLevel))
	}
	pipeline, err := a.newPipeline(token, logger)
	if err != nil {
		return err
	}

	req := audit.Request{URL: repoURL, Provider: id, Credential: apiKey}
	var result audit.Result
	if useTUI {
		program := ui.RunTUI(ref.String())
		done := make(chan struct{})
		go func() {
			defer close(done)
			result, err = pipeline.Run(ctx, req, func(stage model.Stage, stageErr error) {
				program.Send(ui.StageMsg{Stage: stage, Err: stageErr})
			})
			program.Send(ui.DoneMsg{})
		}()
		_, runErr := program.Run()
		// ctrl+c quits the program before the pipeline finishes.
		stop()
		<-done
		if runErr != nil {
			return fmt.Errorf("progress display: %w", runErr)
		}
	} else {
		progress := ui.NewPlainProgress(ref.String(), func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		})
		result, err = pipeline.Run(ctx, req, progress.Stage)
	}
	if err != nil {
		return err
	}

	w := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	record := result.Record(time.Now())
	if format == "json" {
		err = output.WriteJSON(w, record)
	} else {
		err = output.WriteMarkdown(w, record)
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputPath)
	}
	return nil
}

func knownKeys(store *auth.FileStore) map[provider.ID]bool {
	known := make(map[provider.ID]bool)
	for _, id := range provider.IDs() {
		if !id.RequiresCredential() {
			continue
		}
		if _, err := store.LoadWithEnv(string(id)); err == nil {
			known[id] = true
		}
	}
	return known
}
