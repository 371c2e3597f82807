package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/greentrace/carbonledger/internal/identity"
	"github.com/greentrace/carbonledger/pkg/client"
)

// version is overridden by goreleaser via -ldflags "-X main.version=...".
var version = "dev"

var (
	serverURL string
	token     string
	cfgFile   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "carbon",
	Short: "Carbonledger CLI",
	Long: `carbon is the command-line interface for the carbonledger service.

It lets you create your emissions profile, log emission events, and query
running totals for any actor.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(home + "/.carbon")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
		viper.AutomaticEnv()
		_ = viper.ReadInConfig()

		if serverURL == "" {
			serverURL = viper.GetString("server_url")
		}
		if serverURL == "" {
			serverURL = "http://localhost:8080"
		}
		if token == "" {
			token = viper.GetString("token")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.carbon/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "carbonledger URL (default http://localhost:8080)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "actor token for mutating commands")

	profileCmd.AddCommand(profileCreateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(totalCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(byCategoryCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func apiClient() *client.Client {
	opts := []client.Option{}
	if token != "" {
		opts = append(opts, client.WithBearerToken(token))
	}
	return client.New(serverURL, opts...)
}

func cmdContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 15*time.Second)
}

// ── profile ──────────────────────────────────────────────────────────────────

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage your emissions profile",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create the calling actor's profile (once per actor)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		res, err := apiClient().CreateProfile(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("profile created for %s\n", res.Actor)
		return nil
	},
}

// ── log ──────────────────────────────────────────────────────────────────────

var logCmd = &cobra.Command{
	Use:   "log <units> <category>",
	Short: "Log an emission event (units 1-9999; category transportation|energy|diet)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		units, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("units must be a positive integer: %w", err)
		}

		ctx, cancel := cmdContext()
		defer cancel()

		res, err := apiClient().LogEmission(ctx, units, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged %d units of %s at logical time %d\n", units, args[1], res.LogicalTime)
		return nil
	},
}

// ── queries ──────────────────────────────────────────────────────────────────

var totalCmd = &cobra.Command{
	Use:   "total <actor>",
	Short: "Show an actor's running emissions total",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		res, err := apiClient().TotalEmissions(ctx, args[0])
		if err != nil {
			return err
		}
		printTotals(res.Actor, res.TotalEmissions)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <actor>",
	Short: "Show an actor's emission history (currently the running total only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		res, err := apiClient().EmissionHistory(ctx, args[0])
		if err != nil {
			return err
		}
		printTotals(res.Actor, res.TotalEmissions)
		return nil
	},
}

var byCategoryCmd = &cobra.Command{
	Use:   "by-category <actor> <category>",
	Short: "Show an actor's total for one category (known gap: reports 0)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := cmdContext()
		defer cancel()

		res, err := apiClient().EmissionsByCategory(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\t%d\n", res.Actor, res.Category, res.TotalEmissions)
		return nil
	},
}

func printTotals(actor string, total uint64) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "ACTOR\tTOTAL\n%s\t%d\n", actor, total)
	_ = w.Flush()
}

// ── token ────────────────────────────────────────────────────────────────────

var tokenKeyDir string

var tokenCmd = &cobra.Command{
	Use:   "token <actor>",
	Short: "Mint an actor token using the server's signing key (operator use)",
	Long: `token signs an actor token with the key in --key-dir. It must run on the
host that owns the server's signing key; callers cannot mint their own.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := identity.LoadOrCreateKey(tokenKeyDir)
		if err != nil {
			return fmt.Errorf("load signing key: %w", err)
		}

		tok, err := identity.NewIssuer(key, serverURL, 24*time.Hour).Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenKeyDir, "key-dir", "keys", "directory holding the server signing key")
}

// ── version ──────────────────────────────────────────────────────────────────

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the CLI version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("carbon", version)
	},
}
