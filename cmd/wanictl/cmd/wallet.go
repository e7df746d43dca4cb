package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	wani "github.com/PDAC95/wani"
)

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Wallet and transfers",
	Long: `Wallet commands: balance and outgoing transfers.

Examples:
  wanictl wallet balance
  wanictl wallet show
  wanictl wallet send --to maria@example.com --amount 25.50 --currency USD --note "rent"`,
}

var walletBalanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Show the wallet balance",
	RunE:  runWalletBalance,
}

var walletShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show wallet details",
	RunE:  runWalletShow,
}

var walletSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send money to a recipient",
	RunE:  runWalletSend,
}

func init() {
	walletSendCmd.Flags().String("to", "", "recipient (email or wallet address)")
	walletSendCmd.Flags().Float64("amount", 0, "amount to send")
	walletSendCmd.Flags().String("currency", "USD", "currency code")
	walletSendCmd.Flags().String("note", "", "note attached to the transfer")

	walletCmd.AddCommand(walletBalanceCmd)
	walletCmd.AddCommand(walletShowCmd)
	walletCmd.AddCommand(walletSendCmd)

	rootCmd.AddCommand(walletCmd)
}

func runWalletBalance(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	balance, err := client.Wallet.Balance(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(balance)
	}

	w := newTable()
	printTableHeader(w, "AVAILABLE", "PENDING", "TOTAL", "CURRENCY")
	fmt.Fprintf(w, "%.2f\t%.2f\t%.2f\t%s\n",
		balance.Available, balance.Pending, balance.Total, balance.Currency)
	return w.Flush()
}

func runWalletShow(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	wallet, err := client.Wallet.Get(context.Background())
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(wallet)
	}

	w := newTable()
	printTableHeader(w, "ID", "PUBLIC KEY", "ACTIVATED", "AVAILABLE", "CURRENCY")
	fmt.Fprintf(w, "%s\t%s\t%t\t%.2f\t%s\n",
		truncate(wallet.ID.String(), 12), truncate(wallet.PublicKey, 16),
		wallet.IsActivated, wallet.Balance.Available, wallet.Balance.Currency)
	return w.Flush()
}

func runWalletSend(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	amount, _ := cmd.Flags().GetFloat64("amount")
	currency, _ := cmd.Flags().GetString("currency")
	note, _ := cmd.Flags().GetString("note")

	// Validation failures never reach the network.
	if to == "" {
		return fmt.Errorf("--to is required")
	}
	if amount <= 0 {
		return fmt.Errorf("--amount must be positive")
	}

	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	req := wani.NewSendRequest(to, amount, currency)
	req.Note = note

	tx, err := client.Wallet.Send(context.Background(), req)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(tx)
	}
	fmt.Printf("Sent %.2f %s to %s (transaction %s, %s)\n",
		tx.Amount, tx.Currency, tx.Counterparty, truncate(tx.ID.String(), 12), tx.Status)
	return nil
}
