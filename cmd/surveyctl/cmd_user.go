package main

import (
	"fmt"

	"github.com/spf13/cobra"

	pgRepo "github.com/yourusername/survey-api/internal/repository/postgres"
	"github.com/yourusername/survey-api/internal/service"
	"github.com/yourusername/survey-api/pkg/auth"
)

var (
	userEmail    string
	userName     string
	userPassword string
	userAdmin    bool
)

// userCmd - родительская команда управления пользователями
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

// userCreateCmd создает пользователя; так заводится первый администратор
var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Args:  cobra.NoArgs,
	RunE:  runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "User email")
	userCreateCmd.Flags().StringVar(&userName, "username", "", "Username")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "Password (at least 8 characters)")
	userCreateCmd.Flags().BoolVar(&userAdmin, "admin", false, "Grant the admin role")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("username")
	_ = userCreateCmd.MarkFlagRequired("password")
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	jwtService, err := auth.NewJWTService(e.cfg.JWT.Secret, e.cfg.JWT.ExpirationHrs)
	if err != nil {
		return err
	}
	authService := service.NewAuthService(pgRepo.NewUserRepo(e.db), jwtService, e.log)

	user, err := authService.CreateUser(service.CreateUserInput{
		Username: userName,
		Email:    userEmail,
		Password: userPassword,
		Admin:    userAdmin,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "created user %d (%s, role %s)\n", user.ID, user.Email, user.Role)
	return nil
}
