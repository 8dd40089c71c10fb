package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"sqlguard/internal/domain"
	"sqlguard/internal/engine"
)

func newExecCmd() *cobra.Command {
	var (
		scope           string
		limit           int64
		pageToken       string
		withTotal       bool
		expectedVersion int64
		token           string
	)

	cmd := &cobra.Command{
		Use:   "exec SQL [ARG...]",
		Short: "Run one statement through the interceptor chain",
		Long: `Run one statement through the data scope, pagination, optimistic lock,
and full-table mutation guard, then print the result.

Positional arguments after the statement are bound to its placeholders.
Integral values bind as integers, everything else as text.`,
		Example: `  # First page of users of organisation 2, with the total count
  sqlguard exec "SELECT id, username FROM sys_user ORDER BY id" --scope "org_id = 2" --limit 10 --total

  # Versioned update on behalf of a session
  sqlguard exec "UPDATE sys_user SET real_name = ? WHERE id = ?" "Ann" 7 --expected-version 3 --token $TOKEN`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime()
			if err != nil {
				return err
			}
			defer rt.close()

			ctx := cmd.Context()
			a, err := rt.wire(ctx)
			if err != nil {
				return err
			}

			if token != "" {
				p, err := a.Resolver.Resolve(ctx, token)
				if err != nil {
					return fmt.Errorf("resolve token: %w", err)
				}
				if p == nil {
					return fmt.Errorf("token is unknown or expired")
				}
				ctx = domain.WithPrincipal(ctx, p)
			}

			var opts []engine.Option
			if scope != "" {
				opts = append(opts, engine.WithScope(domain.DataScope{SQLFilter: scope}))
			}
			if cmd.Flags().Changed("limit") {
				opts = append(opts, engine.WithPage(domain.PageRequestFromToken(pageToken, limit, withTotal)))
			}
			if cmd.Flags().Changed("expected-version") {
				opts = append(opts, engine.WithExpectedVersion(expectedVersion))
			}

			res, err := a.Engine.Execute(ctx, args[0], bindArgs(args[1:]), opts...)
			if err != nil {
				return err
			}
			return printResult(cmd, res)
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "", "Data scope filter ANDed into the statement")
	cmd.Flags().Int64Var(&limit, "limit", 0, "Page size; enables pagination")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Token of the page to fetch")
	cmd.Flags().BoolVar(&withTotal, "total", false, "Also count the rows across all pages")
	cmd.Flags().Int64Var(&expectedVersion, "expected-version", 0, "Version the updated row must still have")
	cmd.Flags().StringVar(&token, "token", "", "Access token of the acting principal")
	return cmd
}

func bindArgs(raw []string) []any {
	out := make([]any, len(raw))
	for i, s := range raw {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			out[i] = n
			continue
		}
		out[i] = s
	}
	return out
}

func printResult(cmd *cobra.Command, res *engine.Result) error {
	w := cmd.OutOrStdout()
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, res)
	}
	if res.Columns == nil {
		_, _ = fmt.Fprintf(w, "%d row(s) affected\n", res.RowsAffected)
		return nil
	}
	if err := printTable(w, res.Columns, res.Rows); err != nil {
		return err
	}
	if res.Total != nil {
		_, _ = fmt.Fprintf(w, "\n%d of %d row(s)\n", len(res.Rows), *res.Total)
	}
	if res.NextPageToken != "" {
		_, _ = fmt.Fprintf(w, "next page: --page-token %s\n", res.NextPageToken)
	}
	return nil
}
