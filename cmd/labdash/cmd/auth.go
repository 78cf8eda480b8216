package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the lab backend",
	Args:  cobra.NoArgs,
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	Args:  cobra.NoArgs,
	RunE:  runWhoami,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	loginCmd.Flags().String("email", "", "account email")
	loginCmd.Flags().String("password", "", "account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")

	token, err := a.client.Login(cmd.Context(), email, password)
	if err != nil {
		return err
	}
	if err := a.auth.SignIn(cmd.Context(), token.AccessToken); err != nil {
		return err
	}
	a.printer.Success("Signed in as %s", email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.auth.SignOut(cmd.Context()); err != nil {
		return err
	}
	a.printer.Success("Signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.auth.SignedIn() {
		return errors.New("not signed in; run labdash login")
	}

	user, err := a.client.Profile(cmd.Context())
	if err != nil {
		return err
	}
	a.printer.Print("%s <%s>", a.printer.Bold(user.Name), user.Email)

	if claims, err := a.auth.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
		a.printer.Print("%s", a.printer.Dim("token expires "+claims.ExpiresAt.Local().Format(time.RFC1123)))
	}
	return nil
}
