package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"starter-server/entities"
)

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	User      entities.User `json:"user"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items []T
	Count int
	Total int64
}

// ListOptions are the common list query parameters.
type ListOptions struct {
	Search string
	Status string
	Limit  int
	Offset int
	Sort   string
	Order  string
}

func (o ListOptions) encode() string {
	v := url.Values{}
	if o.Search != "" {
		v.Set("q", o.Search)
	}
	if o.Status != "" {
		v.Set("status", o.Status)
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		v.Set("offset", strconv.Itoa(o.Offset))
	}
	if o.Sort != "" {
		v.Set("sort", o.Sort)
	}
	if o.Order != "" {
		v.Set("order", o.Order)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

type CustomerInput struct {
	Name                string `json:"name"`
	Email               string `json:"email,omitempty"`
	Company             string `json:"company,omitempty"`
	Phone               string `json:"phone,omitempty"`
	Status              string `json:"status,omitempty"`
	Plan                string `json:"plan,omitempty"`
	MonthlyRevenueCents int64  `json:"monthly_revenue_cents,omitempty"`
}

// SettingsPatch updates only the non-nil fields.
type SettingsPatch struct {
	Theme              *string `json:"theme,omitempty"`
	Language           *string `json:"language,omitempty"`
	Timezone           *string `json:"timezone,omitempty"`
	EmailNotifications *bool   `json:"email_notifications,omitempty"`
	MarketingEmails    *bool   `json:"marketing_emails,omitempty"`
}

type UsageSummary struct {
	Days   int                   `json:"days"`
	Since  time.Time             `json:"since"`
	Totals []entities.UsageTotal `json:"totals"`
}

// Report is a downloaded export.
type Report struct {
	Filename    string
	ContentType string
	Rows        int
	Truncated   bool
	Data        []byte
}

func list[T any](ctx context.Context, c *Client, path string) (*Page[T], error) {
	resp, err := c.send(ctx, http.MethodGet, path, nil, "", false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var items []T
	env, err := decode(resp, &items)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Items: items, Count: len(items)}
	if env.Count != nil {
		page.Count = *env.Count
	}
	if env.Total != nil {
		page.Total = *env.Total
	}
	return page, nil
}

// Register creates an account and keeps its token.
func (c *Client) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var res AuthResult
	if err := c.Post(ctx, "/auth/register", map[string]string{"name": name, "email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Login authenticates and keeps the session token for later calls.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	if err := c.Post(ctx, "/auth/login", map[string]string{"email": email, "password": password}, &res); err != nil {
		return nil, err
	}
	c.SetToken(res.Token)
	return &res, nil
}

// Logout revokes the current session. The token is cleared even when the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Post(ctx, "/auth/logout", nil, nil)
	c.SetToken("")
	return err
}

func (c *Client) Me(ctx context.Context) (*entities.User, error) {
	var user entities.User
	if err := c.Get(ctx, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ListUsers(ctx context.Context, opts ListOptions) (*Page[entities.User], error) {
	return list[entities.User](ctx, c, "/users"+opts.encode())
}

func (c *Client) ListCustomers(ctx context.Context, opts ListOptions) (*Page[entities.Customer], error) {
	return list[entities.Customer](ctx, c, "/customers"+opts.encode())
}

func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (*entities.Customer, error) {
	var customer entities.Customer
	if err := c.Post(ctx, "/customers", in, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *Client) GetSettings(ctx context.Context) (*entities.Settings, error) {
	var settings entities.Settings
	if err := c.Get(ctx, "/settings", &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, patch SettingsPatch) (*entities.Settings, error) {
	var settings entities.Settings
	if err := c.Put(ctx, "/settings", patch, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool, opts ListOptions) (*Page[entities.Notification], error) {
	path := "/notifications" + opts.encode()
	if unreadOnly {
		sep := "?"
		if opts.encode() != "" {
			sep = "&"
		}
		path += sep + "unread=true"
	}
	return list[entities.Notification](ctx, c, path)
}

func (c *Client) DashboardStats(ctx context.Context) (*entities.DashboardStats, error) {
	var stats entities.DashboardStats
	if err := c.Get(ctx, "/stats/dashboard", &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) UsageSummary(ctx context.Context, days int) (*UsageSummary, error) {
	path := "/usage/summary"
	if days > 0 {
		path += "?days=" + strconv.Itoa(days)
	}
	var summary UsageSummary
	if err := c.Get(ctx, path, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// UploadFile sends r as the multipart field "file".
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*entities.Upload, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart body: %w", err)
	}

	resp, err := c.send(ctx, http.MethodPost, "/uploads", &body, mw.FormDataContentType(), true)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var upload entities.Upload
	if _, err := decode(resp, &upload); err != nil {
		return nil, err
	}
	return &upload, nil
}

// DownloadReport fetches an export; format is csv or json.
func (c *Client) DownloadReport(ctx context.Context, kind, format string) (*Report, error) {
	path := "/reports/" + url.PathEscape(kind)
	if format != "" {
		path += "?format=" + url.QueryEscape(format)
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil, "", false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp.StatusCode, raw)
	}

	report := &Report{
		ContentType: resp.Header.Get("Content-Type"),
		Data:        raw,
		Truncated:   resp.Header.Get("X-Report-Truncated") == "true",
	}
	report.Rows, _ = strconv.Atoi(resp.Header.Get("X-Report-Rows"))
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
		report.Filename = params["filename"]
	}
	return report, nil
}
