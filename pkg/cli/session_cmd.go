package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sqlguard/internal/domain"
	"sqlguard/internal/session"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage access tokens in the session store",
	}
	cmd.AddCommand(newSessionIssueCmd())
	cmd.AddCommand(newSessionShowCmd())
	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionRevokeCmd())
	return cmd
}

func newSessionIssueCmd() *cobra.Command {
	var (
		p      domain.Principal
		scopes []string
	)

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue an access token for a principal",
		Example: `  sqlguard session issue --user-id 1 --org-id 1 --username admin
  sqlguard session issue --user-id 2 --scope data:all`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			a, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			p.Scopes = scopes
			token, err := a.Resolver.Issue(cmd.Context(), &p)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"token":       token,
					"ttl_seconds": int64(rt.cfg.Session.TTL / time.Second),
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().Int64Var(&p.ID, "user-id", 0, "Principal id (required)")
	cmd.Flags().Int64Var(&p.OrgID, "org-id", 0, "Organisation of the principal")
	cmd.Flags().StringVar(&p.Username, "username", "", "Display name of the principal")
	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Granted scope tokens (repeatable)")
	_ = cmd.MarkFlagRequired("user-id")
	return cmd
}

func newSessionShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show TOKEN",
		Short: "Show the principal behind a token and its remaining lifetime",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			a, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			p, err := a.Store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return domain.ErrNotFound("token is unknown or expired")
			}
			ttl, _, err := a.Store.TTL(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			fields := map[string]any{
				"id":       p.ID,
				"username": p.Username,
				"org_id":   p.OrgID,
				"scopes":   p.Scopes,
				"ttl":      formatTTL(ttl),
			}
			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), fields)
			}
			return printDetail(cmd.OutOrStdout(), []string{"id", "username", "org_id", "scopes", "ttl"}, fields)
		},
	}
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [PATTERN]",
		Short: "List active tokens, optionally matching a glob pattern",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			a, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			tokens, err := a.Store.ListActiveTokens(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]any{"tokens": tokens})
			}
			rows := make([]map[string]any, len(tokens))
			for i, t := range tokens {
				rows[i] = map[string]any{"token": t}
			}
			return printTable(cmd.OutOrStdout(), []string{"token"}, rows)
		},
	}
}

func newSessionRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke TOKEN",
		Short: "Revoke an access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			a, err := rt.wire(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Resolver.Revoke(cmd.Context(), args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "revoked")
			return nil
		},
	}
}

func formatTTL(ttl time.Duration) string {
	if ttl == session.NoExpiry {
		return "no expiry"
	}
	return ttl.Round(time.Second).String()
}
