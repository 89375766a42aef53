package cli

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	infraauth "github.com/amirhosseinghanipour/scaffold/internal/infrastructure/auth"
	"github.com/amirhosseinghanipour/scaffold/internal/infrastructure/security"
)

func (a *app) projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List your projects, most recently active first",
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, err := a.client().ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(projects) == 0 {
				fmt.Fprintln(out, "No projects")
				return nil
			}
			for _, p := range projects {
				marker := " "
				if p.ID == a.cfg.ProjectID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %s  %-28s  %s\n", marker, p.ID, p.Name, p.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func (a *app) templatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "Show starter prompts",
		RunE: func(cmd *cobra.Command, args []string) error {
			templates, err := a.client().Templates(cmd.Context())
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(templates); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}

func (a *app) usageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show remaining credits",
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := a.client().Usage(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d credits remaining, resets %s\n", u.Remaining, u.ResetAt.Local().Format(time.DateTime))
			return nil
		},
	}
}

func (a *app) tokenCmd() *cobra.Command {
	var (
		userID  string
		plan    string
		ttl     time.Duration
		keyPath string
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development access token with a local RSA key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			if keyPath == "" {
				keyPath = a.cfg.KeyPath
			}
			pemBytes, err := os.ReadFile(keyPath)
			if err != nil {
				return fmt.Errorf("read signing key: %w", err)
			}
			key, err := infraauth.LoadRSAPrivateKeyFromPEM(pemBytes)
			if err != nil {
				return err
			}
			issuer, _ := cmd.Flags().GetString("issuer")
			audience, _ := cmd.Flags().GetString("audience")
			tok, err := infraauth.NewTokenIssuer(key, issuer, audience).IssueAccessToken(userID, plan, int64(ttl.Seconds()))
			if err != nil {
				return err
			}
			if save {
				a.cfg.Token = tok
				if err := SaveConfig(a.cfg, a.cfgFile); err != nil {
					return err
				}
				fmt.Fprintln(cmd.ErrOrStderr(), "Saved token to config")
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id (sub claim)")
	cmd.Flags().StringVar(&plan, "plan", "free", "plan claim: free or pro")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	cmd.Flags().StringVar(&keyPath, "key", "", "RSA private key PEM (default: key_path from config)")
	cmd.Flags().String("issuer", "", "iss claim; must match the server's JWT_ISSUER")
	cmd.Flags().String("audience", "", "aud claim; must match the server's JWT_AUDIENCE")
	cmd.Flags().BoolVar(&save, "save", false, "store the token in the config file")
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Operator commands (need admin_secret)",
	}
	var plan string
	grant := &cobra.Command{
		Use:   "grant <user-id> <amount>",
		Short: "Add credits to a user's balance",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return fmt.Errorf("amount must be a positive integer, got %q", args[1])
			}
			if a.cfg.AdminSecret == "" {
				return errors.New("admin_secret is not configured (SCAFFOLD_ADMIN_SECRET)")
			}
			u, err := a.client().GrantCredits(cmd.Context(), args[0], amount, plan)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ %s now has %d credits\n", args[0], u.Remaining)
			return nil
		},
	}
	grant.Flags().StringVar(&plan, "plan", "", "plan used if the user has no ledger entry yet")
	admin.AddCommand(grant)
	return admin
}

func (a *app) hashSecretCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print an argon2id encoding of an admin secret for ADMIN_SECRET",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			encoded, err := security.HashSecret(args[0], security.DefaultArgon2Params())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), encoded)
			return nil
		},
	}
}

func (a *app) configCmd() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "View or set scaffoldctl configuration",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "api_url: %s\n", a.cfg.APIURL)
			fmt.Fprintf(out, "token: %s\n", mask(a.cfg.Token))
			fmt.Fprintf(out, "project_id: %s\n", a.cfg.ProjectID)
			fmt.Fprintf(out, "admin_secret: %s\n", mask(a.cfg.AdminSecret))
			fmt.Fprintf(out, "key_path: %s\n", a.cfg.KeyPath)
			fmt.Fprintf(out, "poll_interval_sec: %d\n", a.cfg.PollIntervalSec)
			fmt.Fprintf(out, "max_attempts: %d\n", a.cfg.MaxAttempts)
			fmt.Fprintf(out, "http_timeout_sec: %d\n", a.cfg.HTTPTimeoutSec)
			return nil
		},
	}
	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a config value and save to disk",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, val := args[0], args[1]
			switch key {
			case "api_url":
				a.cfg.APIURL = val
			case "token":
				a.cfg.Token = val
			case "project_id":
				a.cfg.ProjectID = val
			case "admin_secret":
				a.cfg.AdminSecret = val
			case "key_path":
				a.cfg.KeyPath = val
			case "poll_interval_sec", "max_attempts", "http_timeout_sec":
				i, err := strconv.Atoi(val)
				if err != nil || i <= 0 {
					return fmt.Errorf("invalid positive int for %s: %v", key, val)
				}
				switch key {
				case "poll_interval_sec":
					a.cfg.PollIntervalSec = i
				case "max_attempts":
					a.cfg.MaxAttempts = i
				default:
					a.cfg.HTTPTimeoutSec = i
				}
			default:
				return fmt.Errorf("unknown key: %s", key)
			}
			if err := SaveConfig(a.cfg, a.cfgFile); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
			return nil
		},
	}
	cfgCmd.AddCommand(show, set)
	return cfgCmd
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
