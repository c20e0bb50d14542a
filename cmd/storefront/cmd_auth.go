package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jewelry-storefront/internal/api"
)

var (
	authEmail     string
	authPassword  string
	authFirstName string
	authLastName  string
	newPassword   string
)

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		out, err := client.SignUp(ctx, api.SignUpRequest{
			Email: authEmail, Password: password(), FirstName: authFirstName, LastName: authLastName,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out.Msg)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in",
	Long:  `Signs in and keeps the session on disk. The password may be given in STOREFRONT_PASSWORD.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		u, err := client.Login(ctx, authEmail, password())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", u.Email)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		if err := client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		u, ok := client.Session().User()
		if !ok || !client.Session().IsAuthenticated() {
			fmt.Fprintln(cmd.OutOrStdout(), "not signed in")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s <%s>\n", u.FirstName, u.LastName, u.Email)
		return nil
	},
}

var forgotCmd = &cobra.Command{
	Use:   "forgot-password",
	Short: "Request a verification code by email",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		msg, err := client.ForgotPassword(ctx, authEmail)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify-code <code>",
	Short: "Check a verification code, optionally setting a new password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		var (
			msg string
			err error
		)
		if newPassword != "" {
			msg, err = client.ResetPassword(ctx, authEmail, args[0], newPassword)
		} else {
			msg, err = client.VerifyCode(ctx, authEmail, args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), msg)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{signupCmd, loginCmd, forgotCmd, verifyCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		_ = c.MarkFlagRequired("email")
	}
	for _, c := range []*cobra.Command{signupCmd, loginCmd} {
		c.Flags().StringVar(&authPassword, "password", "", "Password (or set STOREFRONT_PASSWORD)")
	}
	verifyCmd.Flags().StringVar(&newPassword, "new-password", "", "Replace the password once the code is accepted")
	signupCmd.Flags().StringVar(&authFirstName, "first-name", "", "First name")
	signupCmd.Flags().StringVar(&authLastName, "last-name", "", "Last name")
}

func password() string {
	if authPassword != "" {
		return authPassword
	}
	return os.Getenv("STOREFRONT_PASSWORD")
}
