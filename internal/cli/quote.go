package cli

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"loan-engine/internal/domain/amortization"
)

const dateLayout = "2006-01-02"

func newQuoteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print the EMI and amortization schedule for a set of loan terms",
		Example: `  loan-engine quote --principal 500000 --rate 10.5 --tenure 12
  loan-engine quote --principal 250000 --rate 8.5 --tenure 360 --start 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: runQuote,
	}
	cmd.Flags().String("principal", "", "Loan principal")
	cmd.Flags().String("rate", "0", "Annual interest rate in percent")
	cmd.Flags().Int("tenure", 0, "Tenure in months")
	cmd.Flags().String("start", "", "Disbursement date (YYYY-MM-DD), defaults to today")
	cmd.Flags().Bool("summary", false, "Print only the installment and totals")
	_ = cmd.MarkFlagRequired("principal")
	_ = cmd.MarkFlagRequired("tenure")
	return cmd
}

func runQuote(cmd *cobra.Command, _ []string) error {
	principalFlag, _ := cmd.Flags().GetString("principal")
	rateFlag, _ := cmd.Flags().GetString("rate")
	tenure, _ := cmd.Flags().GetInt("tenure")
	startFlag, _ := cmd.Flags().GetString("start")
	summaryOnly, _ := cmd.Flags().GetBool("summary")

	principal, err := decimal.NewFromString(principalFlag)
	if err != nil {
		return fmt.Errorf("invalid --principal %q: %w", principalFlag, err)
	}
	rate, err := decimal.NewFromString(rateFlag)
	if err != nil {
		return fmt.Errorf("invalid --rate %q: %w", rateFlag, err)
	}

	start := time.Now()
	if startFlag != "" {
		start, err = time.Parse(dateLayout, startFlag)
		if err != nil {
			return fmt.Errorf("invalid --start %q (use YYYY-MM-DD): %w", startFlag, err)
		}
	}
	start = amortization.DateOf(start, time.UTC)

	terms, err := amortization.NewLoanTerms(principal, rate, tenure)
	if err != nil {
		return err
	}
	q, err := amortization.Quote(terms, start)
	if err != nil {
		return err
	}

	return printQuotation(cmd.OutOrStdout(), q, summaryOnly)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

func printQuotation(w io.Writer, q amortization.Quotation, summaryOnly bool) error {
	if _, err := fmt.Fprintf(w, "Monthly installment: %s\nTotal payable:       %s\nTotal interest:      %s\n",
		q.MonthlyInstallment.StringFixed(2), q.TotalPayable.StringFixed(2), q.TotalInterest.StringFixed(2)); err != nil {
		return err
	}
	if summaryOnly {
		return nil
	}

	rows := make([][]string, 0, len(q.Schedule))
	for _, row := range q.Schedule {
		rows = append(rows, []string{
			strconv.Itoa(row.InstallmentNumber),
			row.DueDate.Format(dateLayout),
			row.TotalAmount.StringFixed(2),
			row.PrincipalComponent.StringFixed(2),
			row.InterestComponent.StringFixed(2),
			row.RemainingBalance.StringFixed(2),
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "DUE DATE", "EMI", "PRINCIPAL", "INTEREST", "BALANCE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 || col == 1 {
				return cellStyle
			}
			return cellStyle.Align(lipgloss.Right)
		})

	_, err := fmt.Fprintln(w, t.Render())
	return err
}
