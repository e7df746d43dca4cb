package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	wani "github.com/PDAC95/wani"
)

var txCmd = &cobra.Command{
	Use:   "tx",
	Short: "Transaction history",
	Long: `Browse the transaction history.

Examples:
  wanictl tx list
  wanictl tx list --limit 10 --type sent --status pending
  wanictl tx get 123e4567-e89b-12d3-a456-426614174000`,
}

var txListCmd = &cobra.Command{
	Use:   "list",
	Short: "List transactions",
	RunE:  runTxList,
}

var txGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a single transaction",
	Args:  cobra.ExactArgs(1),
	RunE:  runTxGet,
}

func init() {
	txListCmd.Flags().Int("limit", 20, "maximum number of transactions")
	txListCmd.Flags().Int("offset", 0, "offset into the history")
	txListCmd.Flags().String("type", "", "filter by type (sent, received)")
	txListCmd.Flags().String("status", "", "filter by status (pending, completed, failed)")

	txCmd.AddCommand(txListCmd)
	txCmd.AddCommand(txGetCmd)

	rootCmd.AddCommand(txCmd)
}

func runTxList(cmd *cobra.Command, args []string) error {
	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	txType, _ := cmd.Flags().GetString("type")
	txStatus, _ := cmd.Flags().GetString("status")

	txs, total, err := client.Transactions.List(context.Background(), wani.ListTransactionsOptions{
		Limit:  limit,
		Offset: offset,
		Type:   wani.TransactionType(txType),
		Status: wani.TransactionStatus(txStatus),
	})
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(map[string]interface{}{
			"transactions": txs,
			"total":        total,
		})
	}

	if len(txs) == 0 {
		fmt.Println("No transactions found")
		return nil
	}

	w := newTable()
	printTableHeader(w, "ID", "TYPE", "COUNTERPARTY", "AMOUNT", "STATUS", "DATE")
	for _, tx := range txs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(tx.ID.String(), 12), tx.Type, truncate(tx.Counterparty, 24),
			formatAmount(tx), tx.Status, tx.CreatedAt.Local().Format(time.DateOnly))
	}
	return w.Flush()
}

func runTxGet(cmd *cobra.Command, args []string) error {
	id, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid transaction id: %w", err)
	}

	sess, err := getSession()
	if err != nil {
		return err
	}
	if err := requireAuth(sess); err != nil {
		return err
	}
	client := getClient(sess)

	tx, err := client.Transactions.Get(context.Background(), id)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(tx)
	}

	w := newTable()
	printTableHeader(w, "ID", "TYPE", "COUNTERPARTY", "AMOUNT", "STATUS", "NOTE", "DATE")
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		tx.ID, tx.Type, tx.Counterparty, formatAmount(*tx), tx.Status,
		truncate(tx.Note, 24), tx.CreatedAt.Local().Format(time.RFC822))
	return w.Flush()
}

func formatAmount(tx wani.Transaction) string {
	prefix := "-"
	if tx.Type == wani.TransactionReceived {
		prefix = "+"
	}
	return fmt.Sprintf("%s%.2f %s", prefix, tx.Amount, tx.Currency)
}
