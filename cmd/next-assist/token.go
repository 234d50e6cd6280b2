package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ashwinyue/next-assist/internal/config"
	"github.com/ashwinyue/next-assist/internal/service/auth"
	"github.com/ashwinyue/next-assist/internal/service/catalog"
)

var (
	tokenTenant   string
	tokenOperator string
	tokenRole     string
	tokenCustomer string
	tokenTTL      time.Duration
)

// tokenCmd 签发测试用访问令牌
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a caller identity",
	Long: `Issue a signed access token using the configured auth.jwtSecret.

Examples:
  next-assist token --tenant t1 --customer c1
  next-assist token --tenant t1 --operator op1 --role adm`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenTenant, "tenant", "", "Tenant ID (required)")
	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "", "Operator ID")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "", "Operator role: master, adm or reseller")
	tokenCmd.Flags().StringVar(&tokenCustomer, "customer", "", "Customer ID")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", auth.DefaultTokenTTL, "Token lifetime")
	_ = tokenCmd.MarkFlagRequired("tenant")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwtSecret must be set to issue tokens")
	}

	id := catalog.Identity{
		TenantID:     tokenTenant,
		OperatorID:   tokenOperator,
		OperatorRole: tokenRole,
		CustomerID:   tokenCustomer,
	}
	role, ok := catalog.ResolveRole(id)
	if !ok {
		return fmt.Errorf("identity has no resolvable role: pass --customer or --operator with --role")
	}

	tokens, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		return err
	}
	token, err := tokens.Issue(id, tokenTTL)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "role=%s caller=%s expires_in=%s\n", role, id.CallerID(), tokenTTL)
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
