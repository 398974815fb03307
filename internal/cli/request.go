package cli

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldops/companion/internal/core/domain"
	"github.com/fieldops/companion/internal/core/ports"
)

var requestCmd = &cobra.Command{
	Use:   "request",
	Short: "Submit and list employee requests",
}

// --- tool cart -------------------------------------------------------------

var toolCmd = &cobra.Command{
	Use:   "tool",
	Short: "Tool requests (cart-based)",
}

var toolAddCmd = &cobra.Command{
	Use:   "add <catalog-id> <name> [quantity]",
	Short: "Add a catalog item to the tool cart",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		qty := 1
		if len(args) == 3 {
			if qty, err = strconv.Atoi(args[2]); err != nil {
				return err
			}
		}
		item := domain.CartItem{CatalogID: args[0], Name: args[1], Quantity: qty}
		if err := app.WorkOrders.CartAdd(cmd.Context(), item); err != nil {
			return err
		}
		printf("Added %dx %s to the cart\n", qty, args[1])
		return nil
	},
}

var toolCartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Show the tool cart draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		items, err := app.WorkOrders.CartItems(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(items)
		}
		if len(items) == 0 {
			printf("Cart is empty\n")
			return nil
		}
		for _, it := range items {
			printf("%dx %s (%s)\n", it.Quantity, it.Name, it.CatalogID)
		}
		return nil
	},
}

var toolClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Discard the tool cart draft",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		if err := app.WorkOrders.CartClear(cmd.Context()); err != nil {
			return err
		}
		printf("Cart cleared\n")
		return nil
	},
}

var (
	toolUrgency string
	toolNotes   string
)

var toolSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the tool cart as a request",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		items, err := app.WorkOrders.CartItems(cmd.Context())
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitTool(cmd.Context(), ports.ToolRequestInput{
			Items:   items,
			Urgency: toolUrgency,
			Notes:   toolNotes,
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

// --- simple form workflows -------------------------------------------------

var (
	clothingSize     string
	clothingQuantity int
)

var clothingCmd = &cobra.Command{
	Use:   "clothing <item>",
	Short: "Request work clothing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitClothing(cmd.Context(), ports.ClothingRequestInput{
			Item:     args[0],
			Size:     clothingSize,
			Quantity: clothingQuantity,
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var (
	expenseAmount      float64
	expenseCurrency    string
	expenseCategory    string
	expenseDescription string
	expenseReceipt     string
	expenseDate        string
)

var expenseCmd = &cobra.Command{
	Use:   "expense",
	Short: "Submit an expense, optionally attaching a receipt image",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}

		in := ports.ExpenseInput{
			Amount:      expenseAmount,
			Currency:    expenseCurrency,
			Category:    expenseCategory,
			Description: expenseDescription,
		}
		if expenseDate != "" {
			if in.IncurredOn, err = time.Parse("2006-01-02", expenseDate); err != nil {
				return err
			}
		}
		if expenseReceipt != "" {
			if in.Receipt, err = os.ReadFile(expenseReceipt); err != nil {
				return err
			}
			in.ReceiptFilename = filepath.Base(expenseReceipt)
		}

		order, err := app.WorkOrders.SubmitExpense(cmd.Context(), in)
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var spiffAmount float64
var spiffNotes string

var spiffCmd = &cobra.Command{
	Use:   "spiff <job-number>",
	Short: "Claim a sales spiff",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitSpiff(cmd.Context(), ports.SpiffInput{
			JobNumber: args[0],
			Amount:    spiffAmount,
			Notes:     spiffNotes,
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var (
	timeOffKind   string
	timeOffReason string
)

var timeOffCmd = &cobra.Command{
	Use:   "timeoff <start> <end>",
	Short: "Request time off between two dates (YYYY-MM-DD)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		start, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return err
		}
		end, err := time.Parse("2006-01-02", args[1])
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitTimeOff(cmd.Context(), ports.TimeOffInput{
			Start:  start,
			End:    end,
			Kind:   timeOffKind,
			Reason: timeOffReason,
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var suggestionCmd = &cobra.Command{
	Use:   "suggestion <subject> <body>",
	Short: "File an improvement suggestion",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitSuggestion(cmd.Context(), ports.SuggestionInput{
			Subject: args[0],
			Body:    args[1],
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var (
	referralPhone string
	referralEmail string
	referralNotes string
)

var referralCmd = &cobra.Command{
	Use:   "referral <name>",
	Short: "Refer a candidate for hire",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		order, err := app.WorkOrders.SubmitReferral(cmd.Context(), ports.ReferralInput{
			Name:  args[0],
			Phone: referralPhone,
			Email: referralEmail,
			Notes: referralNotes,
		})
		if err != nil {
			return err
		}
		return printOrder(order)
	},
}

var (
	listKind  string
	listPage  int
	listLimit int
)

var requestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List my submitted requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		page, err := app.WorkOrders.ListMine(cmd.Context(), ports.ListRequestsInput{
			Kind:  domain.RequestKind(listKind),
			Page:  listPage,
			Limit: listLimit,
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(page)
		}
		printf("page %d/%d (%d total)\n", page.Page, page.TotalPages, page.Total)
		for _, o := range page.Items {
			printf("%s  %-10s %-9s %s\n", o.SubmittedAt.Format("2006-01-02"), o.Kind, o.Status, o.Title)
		}
		return nil
	},
}

func printOrder(order *domain.WorkOrder) error {
	if jsonOutput {
		return printJSON(order)
	}
	printf("Submitted %s request %s (status: %s)\n", order.Kind, order.ID, order.Status)
	return nil
}

func init() {
	toolSubmitCmd.Flags().StringVar(&toolUrgency, "urgency", "", "low, normal, or high")
	toolSubmitCmd.Flags().StringVar(&toolNotes, "notes", "", "Free-form notes")
	toolCmd.AddCommand(toolAddCmd, toolCartCmd, toolClearCmd, toolSubmitCmd)

	clothingCmd.Flags().StringVar(&clothingSize, "size", "", "Clothing size")
	clothingCmd.Flags().IntVar(&clothingQuantity, "quantity", 1, "Quantity")

	expenseCmd.Flags().Float64Var(&expenseAmount, "amount", 0, "Expense amount")
	expenseCmd.Flags().StringVar(&expenseCurrency, "currency", "USD", "Currency code")
	expenseCmd.Flags().StringVar(&expenseCategory, "category", "", "Expense category")
	expenseCmd.Flags().StringVar(&expenseDescription, "description", "", "What the expense was for")
	expenseCmd.Flags().StringVar(&expenseReceipt, "receipt", "", "Path to a receipt image")
	expenseCmd.Flags().StringVar(&expenseDate, "date", "", "Date incurred (YYYY-MM-DD)")

	spiffCmd.Flags().Float64Var(&spiffAmount, "amount", 0, "Spiff amount")
	spiffCmd.Flags().StringVar(&spiffNotes, "notes", "", "Free-form notes")

	timeOffCmd.Flags().StringVar(&timeOffKind, "kind", "vacation", "vacation, sick, personal, or unpaid")
	timeOffCmd.Flags().StringVar(&timeOffReason, "reason", "", "Reason for the request")

	referralCmd.Flags().StringVar(&referralPhone, "phone", "", "Candidate phone")
	referralCmd.Flags().StringVar(&referralEmail, "email", "", "Candidate email")
	referralCmd.Flags().StringVar(&referralNotes, "notes", "", "Free-form notes")

	requestListCmd.Flags().StringVar(&listKind, "kind", "", "Filter by kind")
	requestListCmd.Flags().IntVar(&listPage, "page", 1, "Page number")
	requestListCmd.Flags().IntVar(&listLimit, "limit", 0, "Page size")

	requestCmd.AddCommand(toolCmd, clothingCmd, expenseCmd, spiffCmd, timeOffCmd, suggestionCmd, referralCmd, requestListCmd)
	rootCmd.AddCommand(requestCmd)
}
