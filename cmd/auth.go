package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jfmyers9/mpvctl/internal/config"
	"github.com/jfmyers9/mpvctl/pkg/mpvremote"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authenticate with the server",
	Long: `Authenticate with the server's password.

The session cookie the server hands out is saved under the data
directory and reused by every other command until the server forgets
it. When stdin is not a terminal the password is read from its first
line. With --remember, the server URL is also written to the config
file so later commands no longer need --server.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the saved session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var changePasswordCmd = &cobra.Command{
	Use:   "change-password",
	Short: "Change the server password",
	Long:  `Change the server password. Requires a logged in session.`,
	Args:  cobra.NoArgs,
	RunE:  runChangePassword,
}

var authStatusCmd = &cobra.Command{
	Use:   "auth-status",
	Short: "Check whether the saved session is authenticated",
	Long: `Check whether the saved session is accepted by the server.

Exit codes:
  0 - Authenticated
  1 - Not authenticated or server unreachable`,
	Args: cobra.NoArgs,
	RunE: runAuthStatus,
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(changePasswordCmd)
	rootCmd.AddCommand(authStatusCmd)

	loginCmd.Flags().Bool("remember", false, "Save the server URL to the config file")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin, "Password: ")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.client.Authenticate(ctx, password); err != nil {
		if errors.Is(err, mpvremote.ErrUnauthorized) {
			return fmt.Errorf("wrong password")
		}
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := a.saveCookies(); err != nil {
		return err
	}

	fmt.Println("✓ Logged in")

	if remember, _ := cmd.Flags().GetBool("remember"); remember {
		if err := rememberServer(a.client.BaseURL()); err != nil {
			return err
		}
		fmt.Printf("✓ Server saved to %s/config.yaml\n", config.GetConfigDir())
	}
	return nil
}

// rememberServer saves server to the config file, leaving other flag
// overrides out of it.
func rememberServer(server string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Server.URL = server
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	if err := a.state.Reset(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	fmt.Println("✓ Logged out")
	return nil
}

func runChangePassword(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	password, err := readPassword(os.Stdin, "New password: ")
	if err != nil {
		return err
	}
	if term.IsTerminal(int(os.Stdin.Fd())) {
		confirm, err := readPassword(os.Stdin, "Confirm password: ")
		if err != nil {
			return err
		}
		if confirm != password {
			return fmt.Errorf("passwords do not match")
		}
	}
	if password == "" {
		return fmt.Errorf("password must not be empty")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.client.ChangePassword(ctx, password); err != nil {
		return commandError("change password", err)
	}

	fmt.Println("✓ Password changed")
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ok, err := a.client.IsAuthenticated(ctx)
	if err != nil {
		return fmt.Errorf("failed to check authentication: %w", err)
	}

	if !ok {
		fmt.Printf("✗ Not authenticated with %s\n", a.client.BaseURL())
		os.Exit(1)
	}

	fmt.Printf("✓ Authenticated with %s\n", a.client.BaseURL())
	return nil
}

// readPassword prompts for a password without echo on a terminal, and
// reads one line otherwise.
func readPassword(f *os.File, prompt string) (string, error) {
	if term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	return readLine(f)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
