package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sitepunch.app/sitepunch/account"
	"sitepunch.app/sitepunch/model"
	"sitepunch.app/sitepunch/security"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(bootstrapCmd)
	rootCmd.AddCommand(tokenCmd)

	bootstrapCmd.Flags().String("code", "", "company code employees sign in with")
	bootstrapCmd.Flags().String("name", "", "company name")
	bootstrapCmd.Flags().String("email", "", "first administrator email")
	bootstrapCmd.Flags().String("password", "", "first administrator password")
	bootstrapCmd.Flags().String("first-name", "", "administrator first name")
	bootstrapCmd.Flags().String("last-name", "", "administrator last name")
	for _, f := range []string{"code", "name", "email", "password"} {
		_ = bootstrapCmd.MarkFlagRequired(f)
	}

	tokenCmd.Flags().String("employee", "", "employee or admin id")
	tokenCmd.Flags().String("company", "", "company id")
	tokenCmd.Flags().String("role", model.RoleEmployee, "employee or admin")
	tokenCmd.Flags().Duration("ttl", time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("employee")
	_ = tokenCmd.MarkFlagRequired("company")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create tables and indexes for the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close(cmd.Context())

		if err := env.backend.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Migrated %s store\n", env.cfg.Store.Driver)
		return nil
	},
}

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create a company and its first administrator",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnvironment(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close(cmd.Context())

		secret, err := env.cfg.Auth.SigningKey()
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		in := account.BootstrapInput{}
		in.CompanyCode, _ = flags.GetString("code")
		in.CompanyName, _ = flags.GetString("name")
		in.AdminEmail, _ = flags.GetString("email")
		in.AdminPassword, _ = flags.GetString("password")
		in.FirstName, _ = flags.GetString("first-name")
		in.LastName, _ = flags.GetString("last-name")

		svc := account.NewService(env.backend, secret, env.cfg.Auth.TokenTTL, env.logger)
		company, admin, err := svc.Bootstrap(cmd.Context(), in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Company %s (%s)\nAdmin   %s (%s)\n", company.Code, company.ID, admin.Email, admin.ID)
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed identity token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		secret, err := cfg.Auth.SigningKey()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		identity := security.Identity{}
		identity.EmployeeID, _ = flags.GetString("employee")
		identity.CompanyID, _ = flags.GetString("company")
		identity.Role, _ = flags.GetString("role")
		ttl, _ := flags.GetDuration("ttl")
		if identity.Role != model.RoleEmployee && identity.Role != model.RoleAdmin {
			return fmt.Errorf("role must be %s or %s", model.RoleEmployee, model.RoleAdmin)
		}

		token, err := security.CreateIdentityToken(identity, secret, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}
