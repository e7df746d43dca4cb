// Package cmd implements the wanictl command tree.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	wani "github.com/PDAC95/wani"
	"github.com/PDAC95/wani/session"
	"github.com/PDAC95/wani/store"
)

const defaultAPIURL = "http://localhost:8000"

var (
	cfgFile   string
	jsonOut   bool
	verbose   bool
	storeKind string
)

var rootCmd = &cobra.Command{
	Use:   "wanictl",
	Short: "Wani cross-border payments CLI",
	Long: `wanictl is the command-line client for the Wani cross-border
payments API: authentication, wallet balances, and transfers.

Configuration is resolved from flags, WANI_* environment variables,
and ~/.wani/config.yaml, in that order.

Examples:
  wanictl login --email you@example.com
  wanictl wallet balance
  wanictl wallet send --to maria@example.com --amount 25 --currency USD
  wanictl tx list --limit 10`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.wani/config.yaml)")
	rootCmd.PersistentFlags().String("api-url", "", "API base URL (default "+defaultAPIURL+")")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&storeKind, "store", "keyring", "session storage backend (keyring, file)")

	_ = viper.BindPFlag("api_url", rootCmd.PersistentFlags().Lookup("api-url"))
}

func initConfig() {
	// A local .env is a development convenience, absence is normal.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("WANI")
	viper.AutomaticEnv()
	viper.SetDefault("api_url", defaultAPIURL)

	_ = viper.ReadInConfig()
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".wani")
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// newStore picks the session storage backend. The keyring backend is
// the default; when it can't be opened (headless hosts without a
// secret service) the file backend takes over and the session simply
// lives in ~/.wani/session.json.
func newStore(logger *zap.Logger) (store.Store, error) {
	dir := configDir()

	switch storeKind {
	case "file":
		return store.NewFileStore(filepath.Join(dir, "session.json"))
	case "keyring":
		ks, err := store.NewKeyringStore(dir)
		if err == nil {
			return ks, nil
		}
		logger.Warn("keyring unavailable, falling back to file store", zap.Error(err))
		return store.NewFileStore(filepath.Join(dir, "session.json"))
	default:
		return nil, fmt.Errorf("unknown store backend %q (want keyring or file)", storeKind)
	}
}

// getSession builds the session and restores it from storage. Restore
// runs exactly once per process, before any command logic.
func getSession() (*session.Session, error) {
	logger := newLogger()
	st, err := newStore(logger)
	if err != nil {
		return nil, err
	}

	sess := session.New(st, session.WithLogger(logger))
	if err := sess.Restore(); err != nil {
		return nil, err
	}
	return sess, nil
}

// getClient builds the API client around an already-restored session.
func getClient(sess *session.Session) *wani.Client {
	return wani.NewClient(
		viper.GetString("api_url"),
		sess,
		wani.WithLogger(newLogger()),
		wani.WithPlatform("cli"),
	)
}

// requireAuth fails fast with a friendly message instead of letting
// the server reject the call.
func requireAuth(sess *session.Session) error {
	if !sess.IsAuthenticated() {
		return fmt.Errorf("not logged in (run: wanictl login)")
	}
	return nil
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func printTableHeader(w *tabwriter.Writer, cols ...string) {
	for i, col := range cols {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, col)
	}
	fmt.Fprintln(w)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

// printError resolves every failure to a human-readable message. Raw
// codes and details only show up with --verbose.
func printError(err error) {
	if apiErr, ok := wani.IsAPIError(err); ok {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apiErr.Message)
		if verbose && apiErr.Code != "" {
			fmt.Fprintf(os.Stderr, "  code: %s status: %d\n", apiErr.Code, apiErr.Status)
		}
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
