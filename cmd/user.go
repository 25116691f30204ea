/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/techzara/platform/config"
	"github.com/techzara/platform/internal/db"
	"github.com/techzara/platform/internal/mq"
	"github.com/techzara/platform/internal/services"
	"github.com/techzara/platform/internal/store"
	"github.com/techzara/platform/types"
	"go.uber.org/zap"
)

var userCreateFlags struct {
	username  string
	password  string
	roles     []string
	firstname string
	lastname  string
}

// userCmd groups account administration commands.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long: `Creates a user account directly in the database. Usage:

	techzara user create --username admin --password secret --role ROLE_ADMIN
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		log, err := newLogger(cfg)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() {
			_ = log.Sync()
		}()

		ctx := cmd.Context()
		conn, err := db.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer conn.Close()

		broker, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return fmt.Errorf("open mq: %w", err)
		}
		if broker != nil {
			defer broker.Close()
		}

		userService := services.NewUserService(
			store.NewUserRepository(conn),
			services.NewBcryptHasher(),
			services.NewEventPublisher(broker),
		)

		user := types.NewUser().
			SetUsername(userCreateFlags.username).
			SetPlainPassword(userCreateFlags.password).
			SetRoles(userCreateFlags.roles).
			SetFirstname(optionalString(userCreateFlags.firstname)).
			SetLastname(optionalString(userCreateFlags.lastname))

		created, err := userService.Create(ctx, user)
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		log.Info("user created",
			zap.Int("id", created.ID),
			zap.String("username", created.Username),
			zap.Strings("roles", created.Roles()),
		)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(userCreateCmd)

	flags := userCreateCmd.Flags()
	flags.StringVar(&userCreateFlags.username, "username", "", "login name")
	flags.StringVar(&userCreateFlags.password, "password", "", "plain password, hashed before it is stored")
	flags.StringSliceVar(&userCreateFlags.roles, "role", nil, "role to grant, repeatable (default ROLE_USER)")
	flags.StringVar(&userCreateFlags.firstname, "firstname", "", "given name")
	flags.StringVar(&userCreateFlags.lastname, "lastname", "", "family name")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
