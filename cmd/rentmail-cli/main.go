package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/corvusHold/rentmail/internal/auth/verifier"
)

var (
	cfgFile   string
	apiURL    string
	apiToken  string
	verbose   bool
	outputFmt string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "rentmail-cli",
	Short:         "rentmail CLI - submit contracts and manage users",
	Long:          `rentmail-cli talks to the rentmail API: health checks, contract submissions and admin user actions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			fmt.Printf("API URL: %s\n", apiURL)
		}
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rentmail-cli.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "rentmail API base URL")
	rootCmd.PersistentFlags().StringVar(&apiToken, "token", "", "bearer token (identity provider ID token)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "table", "output format (table, json)")

	// Bind flags to viper
	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
	_ = viper.BindPFlag("api_token", rootCmd.PersistentFlags().Lookup("token"))

	sendCmd.Flags().String("attach", "", "file to attach (uses /sendEmailWithAttachment)")
	tokenCmd.Flags().String("uid", "", "subject uid")
	tokenCmd.Flags().String("email", "", "email claim")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	tokenCmd.Flags().String("signing-key", "", "HS256 key (default $JWT_SIGNING_KEY)")
	_ = tokenCmd.MarkFlagRequired("uid")

	usersCmd.AddCommand(usersDeleteCmd)
	configCmd.AddCommand(configShowCmd)

	rootCmd.AddCommand(pingCmd, healthCmd, sendCmd, usersCmd, tokenCmd, configCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".rentmail-cli")
	}

	// Environment variables
	viper.SetEnvPrefix("RENTMAIL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Printf("Using config file: %s\n", viper.ConfigFileUsed())
	}

	if apiURL == "" {
		apiURL = viper.GetString("api_url")
	}
	if apiToken == "" {
		apiToken = viper.GetString("api_token")
	}
	if apiURL == "" {
		apiURL = "http://localhost:5000"
	}
}

func newClient() *Client { return NewClient(apiURL, apiToken) }

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 2*time.Minute)
}

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check the API answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		msg, err := newClient().Ping(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show database and cache health",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		h, err := newClient().Health(ctx)
		if h.Status == "" {
			return err
		}
		if outputFmt == "json" {
			if ferr := formatJSON(cmd, h); ferr != nil {
				return ferr
			}
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Status:  %s\n", h.Status)
		fmt.Fprintf(out, "DB:      %s\n", h.DB)
		fmt.Fprintf(out, "Cache:   %s\n", h.Cache)
		fmt.Fprintf(out, "Version: %s\n", h.Version)
		return err
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <contract.json>",
	Short: "Submit a contract and trigger the notification emails",
	Long: `Submit a contract file (either the bare contract or a {"contractData": ...} envelope).
With --attach the customer receives the contract summary with the file attached; without it
admins and the customer receive the submission emails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contract, err := loadContract(args[0])
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()
		attach, _ := cmd.Flags().GetString("attach")
		c := newClient()
		if attach != "" {
			err = c.SendContractWithFile(ctx, contract, attach)
		} else {
			err = c.SendContract(ctx, contract)
		}
		if err != nil {
			return err
		}
		if attach != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Contract sent with %s\n", filepath.Base(attach))
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "Contract submitted")
		}
		return nil
	},
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Admin user management",
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <uid>",
	Short: "Delete a user (requires an admin token)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		if err := newClient().DeleteUser(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted\n", args[0])
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an HS256 token for servers running AUTH_PROVIDER=jwt",
	RunE: func(cmd *cobra.Command, args []string) error {
		uid, _ := cmd.Flags().GetString("uid")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")
		key, _ := cmd.Flags().GetString("signing-key")
		if key == "" {
			key = os.Getenv("JWT_SIGNING_KEY")
		}
		if key == "" {
			return fmt.Errorf("signing key is required (--signing-key or JWT_SIGNING_KEY)")
		}
		tok, err := verifier.NewHS256(key).Sign(uid, email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "CLI configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Current Configuration:")
		fmt.Fprintf(out, "API URL: %s\n", apiURL)
		fmt.Fprintf(out, "API Token: %s\n", maskToken(apiToken))
		if viper.ConfigFileUsed() != "" {
			fmt.Fprintf(out, "Config file: %s\n", viper.ConfigFileUsed())
		}
		return nil
	},
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

func formatJSON(cmd *cobra.Command, data any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func logVerbose(format string, args ...any) {
	if verbose {
		log.Printf("[VERBOSE] "+format, args...)
	}
}
