package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// readPassword returns the --password flag, or the first line of stdin.
func readPassword(flag string, in io.Reader) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("hangang: reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLoginCmd(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <id>",
		Short: "Log in and remember the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			sess, err := a.session.Login(cmd.Context(), args[0], pw)
			if err != nil {
				return err
			}
			a.printf("Logged in as %s.\n", sess.UserID)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	return cmd
}

func newSignUpCmd(a *app) *cobra.Command {
	var password, phone string
	cmd := &cobra.Command{
		Use:   "signup <id>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := a.session.SignUp(cmd.Context(), args[0], pw, phone); err != nil {
				return err
			}
			a.printf("Account %s created. Run: hangang login %s\n", args[0], args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (read from stdin when omitted)")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a.session.Logout(cmd.Context())
			a.printf("Logged out.\n")
			return nil
		},
	}
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.session.Current()
			if !sess.IsAuthenticated {
				a.printf("Not logged in.\n")
				return nil
			}
			a.printf("%s", sess.UserID)
			if sess.Phone != "" {
				a.printf(" (%s)", sess.Phone)
			}
			a.printf("\n")
			return nil
		},
	}
}
