package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	llmx "github.com/tanpawarit/support-dispatch/agent/llm"
	configx "github.com/tanpawarit/support-dispatch/pkg/config"
	openrouterx "github.com/tanpawarit/support-dispatch/pkg/openrouter"
	"github.com/tanpawarit/support-dispatch/server"
)

func newServeCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			srvCfg, err := configx.New[server.Config]("SERVER")
			if err != nil {
				return err
			}

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			if seed {
				n, err := seedAll(ctx, a.db)
				if err != nil {
					return fmt.Errorf("seed: %w", err)
				}
				log.Info().Int("knowledge_documents", n).Msg("sample data loaded")
			}

			srv, err := server.New(*srvCfg, server.Deps{
				Dispatcher: a.orchestrator,
				Sessions:   a.conversations,
				Usage:      a.models.Usage(),
				Ready:      a.db.PingContext,
			})
			if err != nil {
				return err
			}
			return srv.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&seed, "seed", false, "load the sample data before serving")
	return cmd
}

func newAskCmd() *cobra.Command {
	var (
		domain   string
		fields   map[string]string
		asJSON   bool
		showCost bool
	)

	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Route one query and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var override *contractx.Domain
			if domain != "" {
				d, err := contractx.ParseDomain(domain)
				if err != nil {
					return err
				}
				override = &d
			}

			a, err := buildApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			resp := a.orchestrator.RouteAndRespond(ctx, strings.Join(args, " "), fields, override)

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "[%s/%s, %s confidence] %s\n", resp.Domain, resp.SpecialistRole, resp.Confidence, resp.RoutingReason)
				for _, ex := range resp.ToolCalls {
					fmt.Fprintf(out, "  tool %s(%s) -> %s\n", ex.Call.Name, strings.Join(ex.Call.Args, ", "), ex.Result.Text)
				}
				fmt.Fprintf(out, "\n%s\n", resp.ResponseText)
			}

			if showCost {
				snap := a.models.Usage().Snapshot()
				fmt.Fprintf(out, "\ncalls=%d prompt_tokens=%d completion_tokens=%d\n",
					snap.Total.Calls, snap.Total.PromptTokens, snap.Total.CompletionTokens)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&domain, "domain", "", "force a domain: ecommerce, banking or telecom")
	cmd.Flags().StringToStringVar(&fields, "ctx", nil, "customer context entries as key=value")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	cmd.Flags().BoolVar(&showCost, "usage", false, "print token usage after the answer")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create tables and load the sample customers, orders, accounts and knowledge",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := openDatabase(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := seedAll(ctx, db)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sample data loaded (%d knowledge documents)\n", n)
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that every configured completion model answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := configx.New[llmx.Config]("LLM")
			if err != nil {
				return err
			}

			seen := map[string]bool{}
			for _, role := range []llmx.Role{llmx.RoleClassifier, llmx.RoleIntent, llmx.RoleSpecialist} {
				orCfg := cfg.OpenRouterFor(role)
				if seen[orCfg.Model] {
					continue
				}
				seen[orCfg.Model] = true

				reply, err := openrouterx.Ping(ctx, openrouterx.NewClient(orCfg), orCfg.Model)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %q\n", orCfg.Model, role, reply)
			}
			return nil
		},
	}
}
