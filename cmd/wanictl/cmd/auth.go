package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	wani "github.com/PDAC95/wani"
	"github.com/PDAC95/wani/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Authenticate against the Wani API and persist the session so
subsequent commands run authenticated.

Examples:
  wanictl login --email you@example.com
  wanictl login --email you@example.com --password-stdin < pw.txt`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long: `Invalidate the tokens server-side and clear the local session.
The local session is always cleared, even when the server or the
storage backend cannot be reached.`,
	RunE: runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated user",
	RunE:  runWhoami,
}

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Session utilities",
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local session state",
	Long: `Show the local session state without calling the API.

Token expiry is decoded from the access token for display only; the
client never checks expiry before a request — an expired token is
refreshed reactively when the server answers 401.`,
	RunE: runAuthStatus,
}

func init() {
	loginCmd.Flags().StringP("email", "e", "", "account email")
	loginCmd.Flags().Bool("password-stdin", false, "read the password from stdin instead of prompting")

	registerCmd.Flags().StringP("email", "e", "", "account email")
	registerCmd.Flags().StringP("name", "n", "", "full name")
	registerCmd.Flags().String("phone", "", "phone number (optional)")

	authCmd.AddCommand(authStatusCmd)

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(authCmd)
}

// readPassword prompts without echo, or reads one line from stdin
// when --password-stdin is set.
func readPassword(cmd *cobra.Command, prompt string) (string, error) {
	if fromStdin, _ := cmd.Flags().GetBool("password-stdin"); fromStdin {
		var pw string
		if _, err := fmt.Fscanln(os.Stdin, &pw); err != nil {
			return "", fmt.Errorf("read password from stdin: %w", err)
		}
		return pw, nil
	}

	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(raw), nil
}

func promptIfEmpty(value, prompt string) (string, error) {
	if value != "" {
		return value, nil
	}
	fmt.Fprint(os.Stderr, prompt)
	var in string
	if _, err := fmt.Fscanln(os.Stdin, &in); err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(in), nil
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	email, err := promptIfEmpty(email, "Email: ")
	if err != nil {
		return err
	}
	if email == "" {
		return fmt.Errorf("email is required")
	}

	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	if password == "" {
		return fmt.Errorf("password is required")
	}

	sess, err := getSession()
	if err != nil {
		return err
	}
	client := getClient(sess)

	user, tokens, err := client.Auth.Login(context.Background(), email, password)
	if err != nil {
		return err
	}

	// A persistence fault leaves the session usable for this run.
	if err := sess.Login(*user, *tokens); err != nil && errors.Is(err, session.ErrPersist) {
		fmt.Fprintln(os.Stderr, "Warning: session could not be persisted; you will need to log in again next time.")
	}

	if jsonOut {
		return printJSON(map[string]interface{}{"user": user})
	}
	fmt.Printf("Logged in as %s (%s)\n", user.FullName, user.Email)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	client := getClient(sess)

	// Best-effort server-side invalidation; the local session is
	// cleared no matter what.
	if sess.IsAuthenticated() {
		if err := client.Auth.Logout(context.Background()); err != nil {
			fmt.Fprintln(os.Stderr, "Warning: server-side logout failed, clearing local session anyway.")
		}
	}

	if err := sess.Logout(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: stored session could not be fully cleared.")
	}

	fmt.Println("Logged out")
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	email, err := promptIfEmpty(email, "Email: ")
	if err != nil {
		return err
	}
	name, _ := cmd.Flags().GetString("name")
	name, err = promptIfEmpty(name, "Full name: ")
	if err != nil {
		return err
	}
	phone, _ := cmd.Flags().GetString("phone")

	password, err := readPassword(cmd, "Password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword(cmd, "Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}

	sess, err := getSession()
	if err != nil {
		return err
	}
	client := getClient(sess)

	user, tokens, err := client.Auth.Register(context.Background(), wani.RegisterRequest{
		Email:    email,
		Password: password,
		FullName: name,
		Phone:    phone,
	})
	if err != nil {
		return err
	}

	// Tokens are optional on register: deployments requiring email
	// verification return the user only.
	if tokens == nil {
		fmt.Printf("Account created for %s. Check your email to verify the account, then run: wanictl login\n", user.Email)
		return nil
	}

	if err := sess.Login(*user, *tokens); err != nil && errors.Is(err, session.ErrPersist) {
		fmt.Fprintln(os.Stderr, "Warning: session could not be persisted; you will need to log in again next time.")
	}
	fmt.Printf("Account created, logged in as %s\n", user.Email)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	user, err := client.Auth.Me(context.Background())
	if err != nil {
		return err
	}
	// Restored sessions only carry id/email until this point.
	sess.SetUser(*user)

	if jsonOut {
		return printJSON(user)
	}

	w := newTable()
	printTableHeader(w, "ID", "EMAIL", "NAME", "VERIFIED", "KYC")
	fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%d\n",
		truncate(user.ID, 12), user.Email, user.FullName, user.IsVerified, user.KYCLevel)
	return w.Flush()
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	snap := sess.Snapshot()

	status := map[string]interface{}{
		"authenticated": snap.Authenticated,
		"store":         storeKind,
	}
	if snap.User != nil {
		status["email"] = snap.User.Email
	}
	if snap.Tokens != nil {
		if exp, ok := tokenExpiry(snap.Tokens.AccessToken); ok {
			status["access_token_expires"] = exp.UTC().Format(time.RFC3339)
		}
	}

	if jsonOut {
		return printJSON(status)
	}

	if !snap.Authenticated {
		fmt.Println("Not logged in")
		return nil
	}
	fmt.Printf("Logged in as %s\n", status["email"])
	if exp, ok := status["access_token_expires"]; ok {
		fmt.Printf("Access token expires: %s\n", exp)
	}
	return nil
}

// tokenExpiry decodes the access token's exp claim without verifying
// the signature. Display only — never used to gate or preempt a
// request.
func tokenExpiry(accessToken string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(accessToken, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
