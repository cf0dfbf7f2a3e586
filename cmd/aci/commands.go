package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skosovsky/aci"
)

func (c *cli) functionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "functions",
		Short: "Search, describe and execute functions",
	}

	search := &cobra.Command{
		Use:   "search",
		Short: "Search functions by intent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			params := aci.SearchFunctionsParams{Format: format}
			params.Intent, _ = f.GetString("intent")
			params.AppNames, _ = f.GetStringSlice("app")
			params.AllowedOnly, _ = f.GetBool("allowed-only")
			params.Limit = intFlag(cmd, "limit")
			params.Offset = intFlag(cmd, "offset")

			client, err := c.client()
			if err != nil {
				return err
			}
			defs, err := client.Functions.Search(cmd.Context(), params)
			if err != nil {
				return err
			}
			return c.print(defs)
		},
	}
	search.Flags().String("intent", "", "what the functions should do")
	search.Flags().StringSlice("app", nil, "restrict to these apps (repeatable)")
	search.Flags().Bool("allowed-only", false, "only functions the agent may use")
	search.Flags().String("format", string(aci.FormatOpenAI), "definition format: openai, openai_responses, anthropic, basic")
	search.Flags().Int("limit", 0, "maximum number of results")
	search.Flags().Int("offset", 0, "pagination offset")

	definition := &cobra.Command{
		Use:   "definition NAME",
		Short: "Print the definition of a function",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			def, err := client.Functions.GetDefinition(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			return c.print(def)
		},
	}
	definition.Flags().String("format", string(aci.FormatOpenAI), "definition format: openai, openai_responses, anthropic, basic")

	execute := &cobra.Command{
		Use:   "execute NAME",
		Short: "Execute a function with the linked account of an owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, _ := cmd.Flags().GetString("owner")
			raw, _ := cmd.Flags().GetString("args")
			var params map[string]any
			if err := json.Unmarshal([]byte(raw), &params); err != nil {
				return fmt.Errorf("--args must be a JSON object: %w", err)
			}
			client, err := c.client()
			if err != nil {
				return err
			}
			res, err := client.Functions.Execute(cmd.Context(), aci.ExecuteParams{
				FunctionName:         args[0],
				FunctionParameters:   params,
				LinkedAccountOwnerID: owner,
			})
			if err != nil {
				return err
			}
			return c.print(res)
		},
	}
	execute.Flags().String("owner", "", "linked account owner id")
	execute.Flags().String("args", "{}", "function arguments as a JSON object")
	_ = execute.MarkFlagRequired("owner")

	cmd.AddCommand(search, definition, execute)
	return cmd
}

func (c *cli) appsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Search and describe apps",
	}

	search := &cobra.Command{
		Use:   "search",
		Short: "Search apps by intent or category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			var params aci.SearchAppsParams
			params.Intent, _ = f.GetString("intent")
			params.Categories, _ = f.GetStringSlice("category")
			params.AllowedAppsOnly, _ = f.GetBool("allowed-only")
			params.IncludeFunctions, _ = f.GetBool("include-functions")
			params.Limit = intFlag(cmd, "limit")
			params.Offset = intFlag(cmd, "offset")

			client, err := c.client()
			if err != nil {
				return err
			}
			apps, err := client.Apps.Search(cmd.Context(), params)
			if err != nil {
				return err
			}
			return c.print(apps)
		},
	}
	search.Flags().String("intent", "", "what the app should do")
	search.Flags().StringSlice("category", nil, "restrict to these categories (repeatable)")
	search.Flags().Bool("allowed-only", false, "only apps the agent may use")
	search.Flags().Bool("include-functions", false, "include the functions of each app")
	search.Flags().Int("limit", 0, "maximum number of results")
	search.Flags().Int("offset", 0, "pagination offset")

	get := &cobra.Command{
		Use:   "get NAME",
		Short: "Print an app with its functions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := c.client()
			if err != nil {
				return err
			}
			app, err := client.Apps.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.print(app)
		},
	}

	cmd.AddCommand(search, get)
	return cmd
}

func (c *cli) linkedAccountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linked-accounts",
		Short: "Inspect linked accounts",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List linked accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var params aci.ListLinkedAccountsParams
			params.AppName, _ = cmd.Flags().GetString("app")
			params.LinkedAccountOwnerID, _ = cmd.Flags().GetString("owner")
			client, err := c.client()
			if err != nil {
				return err
			}
			accounts, err := client.LinkedAccounts.List(cmd.Context(), params)
			if err != nil {
				return err
			}
			return c.print(accounts)
		},
	}
	list.Flags().String("app", "", "filter by app name")
	list.Flags().String("owner", "", "filter by linked account owner id")
	cmd.AddCommand(list)
	return cmd
}

func (c *cli) metaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Meta functions for LLM agents",
	}
	schema := &cobra.Command{
		Use:   "schema",
		Short: "Print the search and execute meta function schemas",
		Long:  "Print ACI_SEARCH_FUNCTIONS and ACI_EXECUTE_FUNCTION rendered in the given format. No API key is needed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := formatFlag(cmd)
			if err != nil {
				return err
			}
			return c.print(aci.FormattedMetaFunctions(format))
		},
	}
	schema.Flags().String("format", string(aci.FormatOpenAI), "schema format: openai, openai_responses, anthropic, basic")
	cmd.AddCommand(schema)
	return cmd
}

func formatFlag(cmd *cobra.Command) (aci.Format, error) {
	raw, _ := cmd.Flags().GetString("format")
	return aci.ParseFormat(raw)
}

// intFlag returns the flag value only when it was set on the command line.
func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return aci.Int(v)
}
