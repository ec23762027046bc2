package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lorrc/chamados/internal/core/domain"
	"github.com/lorrc/chamados/internal/core/services"
)

// cliActor is the identity maintenance commands act as.
var cliActor = domain.Actor{Username: "cli", Role: domain.RoleAdmin}

var (
	resetConfirm bool

	createUserName     string
	createUserPassword string
	createUserRole     string
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete every ticket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStorage(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.close()

		clock := domain.WallClock(cfg.Location())
		ticketService := services.NewTicketService(store.tickets, services.NewAuthorizationService(),
			nil, nil, nil, clock, logger)

		deleted, err := ticketService.ResetTickets(ctx, cliActor, resetConfirm)
		if err != nil {
			return err
		}

		logger.Warn("ticket store reset", zap.Int64("deleted", deleted))
		fmt.Fprintf(cmd.OutOrStdout(), "%d tickets deleted\n", deleted)
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a login account",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		store, err := openStorage(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.close()

		authService := services.NewAuthService(store.users, services.NewAuthorizationService(),
			domain.WallClock(cfg.Location()))

		user, err := authService.CreateUser(ctx, cliActor, domain.UserParams{
			Username: createUserName,
			Password: createUserPassword,
			Role:     domain.Role(createUserRole),
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "user %q created with role %s\n", user.Username, user.Role)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetConfirm, "yes", false, "confirm deletion of every ticket")

	createUserCmd.Flags().StringVar(&createUserName, "username", "", "login name")
	createUserCmd.Flags().StringVar(&createUserPassword, "password", "", "password (6 to 72 characters)")
	createUserCmd.Flags().StringVar(&createUserRole, "role", string(domain.RoleUser), "admin or usuario")
	_ = createUserCmd.MarkFlagRequired("username")
	_ = createUserCmd.MarkFlagRequired("password")

	rootCmd.AddCommand(resetCmd, createUserCmd)
}
