package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/skosovsky/aci"
)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	v          *viper.Viper
	stdout     io.Writer
	stderr     io.Writer
	httpClient *http.Client
}

// newRootCmd builds the command tree. A nil httpClient means one built from --timeout.
func newRootCmd(stdout, stderr io.Writer, httpClient *http.Client) *cobra.Command {
	c := &cli{v: viper.New(), stdout: stdout, stderr: stderr, httpClient: httpClient}

	root := &cobra.Command{
		Use:   "aci",
		Short: "ACI client - search and execute functions of third-party apps",
		Long: `Search the ACI function catalog, fetch function definitions in any
LLM tool format, and execute functions with the linked accounts of an end user.

Settings come from flags, ACI_* environment variables, or a config file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.readConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.String("api-key", "", "API key (env ACI_API_KEY)")
	flags.String("base-url", aci.DefaultBaseURL, "API base URL (env ACI_BASE_URL)")
	flags.StringP("config", "c", "", "configuration file (yaml or json)")
	flags.StringP("output", "o", "json", "output format: json or yaml")
	flags.Int("max-retries", aci.DefaultMaxRetries, "retries after the first attempt, -1 disables retrying")
	flags.Duration("timeout", aci.DefaultTimeout, "timeout of a single HTTP attempt")
	flags.BoolP("verbose", "v", false, "log requests to stderr")

	c.v.SetEnvPrefix("ACI")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	for _, name := range []string{"api-key", "base-url", "config", "output", "max-retries", "timeout", "verbose"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}

	root.AddCommand(
		c.functionsCmd(),
		c.appsCmd(),
		c.linkedAccountsCmd(),
		c.metaCmd(),
	)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

// readConfig merges the optional config file below flags and environment.
func (c *cli) readConfig() error {
	file := c.v.GetString("config")
	if file == "" {
		return nil
	}
	c.v.SetConfigFile(file)
	if err := c.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// clientConfig builds the library configuration from the merged settings.
// Config file keys use the flag names: api-key, base-url, max-retries, timeout.
func (c *cli) clientConfig() aci.Config {
	retries := c.v.GetInt("max-retries")
	if retries == 0 {
		retries = aci.NoRetries
	}
	return aci.Config{
		APIKey:     c.v.GetString("api-key"),
		BaseURL:    c.v.GetString("base-url"),
		MaxRetries: retries,
		Timeout:    c.v.GetDuration("timeout"),
	}
}

func (c *cli) logger() *slog.Logger {
	level := slog.LevelWarn
	if c.v.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
}

func (c *cli) client() (*aci.Client, error) {
	client, err := aci.New(c.clientConfig(),
		aci.WithLogger(c.logger()),
		aci.WithUserAgent("aci-cli/"+aci.Version),
		aci.WithHTTPClient(c.httpClient),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

func (c *cli) print(v any) error {
	return writeOutput(c.stdout, c.v.GetString("output"), v)
}
