package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"starter-server/apiclient"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

const requestTimeout = 30 * time.Second

// AdminCommandHandler holds the API client and token store shared by all
// subcommands.
type AdminCommandHandler struct {
	client *apiclient.Client
	tokens *TokenStore

	apiURL    string
	tokenFile string
}

// Init registers every subcommand on rootCmd.
func Init(rootCmd *cobra.Command) error {
	h := &AdminCommandHandler{}

	rootCmd.PersistentFlags().StringVar(&h.apiURL, "api-url", "", "API base URL (defaults to the environment)")
	rootCmd.PersistentFlags().StringVar(&h.tokenFile, "token-file", "", "path of the stored session token")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return h.setup()
	}

	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE:  h.LoginCmd,
	}
	loginCmd.Flags().String("email", "", "account email (required)")
	loginCmd.Flags().String("password", "", "account password (or STARTER_ADMIN_PASSWORD, or stdin)")
	if err := loginCmd.MarkFlagRequired("email"); err != nil {
		return err
	}

	usersCmd := &cobra.Command{Use: "users", Short: "Manage users"}
	usersListCmd := &cobra.Command{Use: "list", Short: "List users", RunE: h.ListUsersCmd}
	addListFlags(usersListCmd)
	usersCmd.AddCommand(usersListCmd)

	customersCmd := &cobra.Command{Use: "customers", Short: "Manage customers"}
	customersListCmd := &cobra.Command{Use: "list", Short: "List customers", RunE: h.ListCustomersCmd}
	addListFlags(customersListCmd)
	customersCmd.AddCommand(customersListCmd)

	reportCmd := &cobra.Command{
		Use:       "report <users|customers|invoices|usage>",
		Short:     "Download a report",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"users", "customers", "invoices", "usage"},
		RunE:      h.ReportCmd,
	}
	reportCmd.Flags().String("format", "csv", "csv or json")
	reportCmd.Flags().String("out", "", "output file (defaults to the server's file name)")

	rootCmd.AddCommand(
		loginCmd,
		&cobra.Command{Use: "logout", Short: "Revoke the stored session", RunE: h.LogoutCmd},
		&cobra.Command{Use: "whoami", Short: "Show the logged in user", RunE: h.WhoAmICmd},
		usersCmd,
		customersCmd,
		&cobra.Command{Use: "stats", Short: "Show dashboard statistics", RunE: h.StatsCmd},
		reportCmd,
		&cobra.Command{Use: "dashboard", Short: "Interactive dashboard", RunE: h.DashboardCmd},
	)
	return nil
}

func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("search", "", "search term")
	cmd.Flags().String("status", "", "status filter")
	cmd.Flags().Int("limit", 20, "page size (max 100)")
	cmd.Flags().Int("offset", 0, "rows to skip")
}

func (h *AdminCommandHandler) setup() error {
	baseURL := h.apiURL
	var err error
	if baseURL == "" {
		baseURL, err = apiclient.ResolveBaseURL(os.LookupEnv)
	} else {
		baseURL, err = apiclient.ResolveBaseURL(func(key string) (string, bool) {
			if key == "API_BASE_URL" {
				return h.apiURL, true
			}
			return "", false
		})
	}
	if err != nil {
		return err
	}

	if h.tokenFile != "" {
		h.tokens = &TokenStore{Path: h.tokenFile}
	} else if h.tokens, err = DefaultTokenStore(); err != nil {
		return err
	}
	token, err := h.tokens.Load()
	if err != nil {
		return err
	}

	h.client = apiclient.New(baseURL, apiclient.WithToken(token), apiclient.WithTimeout(requestTimeout))
	return nil
}

func (h *AdminCommandHandler) requireToken() error {
	if h.client.Token() == "" {
		return errors.New("not logged in: run starter-admin login")
	}
	return nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, requestTimeout)
}

// LoginCmd authenticates and persists the session token.
func (h *AdminCommandHandler) LoginCmd(cmd *cobra.Command, _ []string) error {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("STARTER_ADMIN_PASSWORD")
	}
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()
	res, err := h.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := h.tokens.Save(res.Token); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s), session valid until %s\n",
		res.User.Email, res.User.Role, res.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

func (h *AdminCommandHandler) LogoutCmd(cmd *cobra.Command, _ []string) error {
	if h.client.Token() == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
		return nil
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	callErr := h.client.Logout(ctx)
	if err := h.tokens.Clear(); err != nil {
		return err
	}
	var apiErr *apiclient.APIError
	if callErr != nil && !(errors.As(callErr, &apiErr) && apiErr.Status == 401) {
		return callErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}

func (h *AdminCommandHandler) WhoAmICmd(cmd *cobra.Command, _ []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	me, err := h.client.Me(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\nrole:   %s\nstatus: %s\nid:     %s\n", me.Name, me.Email, me.Role, me.Status, me.ID)
	return nil
}

func listOptions(cmd *cobra.Command) apiclient.ListOptions {
	search, _ := cmd.Flags().GetString("search")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")
	return apiclient.ListOptions{Search: search, Status: status, Limit: limit, Offset: offset}
}

func (h *AdminCommandHandler) ListUsersCmd(cmd *cobra.Command, _ []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	page, err := h.client.ListUsers(ctx, listOptions(cmd))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(page.Items))
	for _, u := range page.Items {
		rows = append(rows, []string{u.ID, u.Name, u.Email, u.Role, u.Status})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ROLE", "STATUS"}, rows, page.Count, page.Total)
	return nil
}

func (h *AdminCommandHandler) ListCustomersCmd(cmd *cobra.Command, _ []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	page, err := h.client.ListCustomers(ctx, listOptions(cmd))
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(page.Items))
	for _, c := range page.Items {
		rows = append(rows, []string{c.ID, c.Name, c.Company, c.Status, c.Plan, formatCents(c.MonthlyRevenueCents)})
	}
	printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "COMPANY", "STATUS", "PLAN", "MRR"}, rows, page.Count, page.Total)
	return nil
}

func (h *AdminCommandHandler) StatsCmd(cmd *cobra.Command, _ []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd)
	defer cancel()

	stats, err := h.client.DashboardStats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderStats(stats))
	return nil
}

func (h *AdminCommandHandler) ReportCmd(cmd *cobra.Command, args []string) error {
	if err := h.requireToken(); err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	ctx, cancel := commandContext(cmd)
	defer cancel()
	report, err := h.client.DownloadReport(ctx, args[0], format)
	if err != nil {
		return err
	}

	if out == "" {
		out = filepath.Base(report.Filename)
		if out == "." || out == "" {
			out = args[0] + "." + format
		}
	}
	if out == "-" {
		_, err := cmd.OutOrStdout().Write(report.Data)
		return err
	}
	if err := os.WriteFile(out, report.Data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	msg := fmt.Sprintf("Wrote %d rows to %s", report.Rows, out)
	if report.Truncated {
		msg += " (truncated)"
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)
	return nil
}

func printTable(w io.Writer, headers []string, rows [][]string, count int, total int64) {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d\n", count, total)
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return sign + "$" + strconv.FormatInt(cents/100, 10) + "." + fmt.Sprintf("%02d", cents%100)
}
