// Package client is the consumer side of the cvhub REST API: session and
// auth calls, the CV submission gateway, the paginated listing with live
// refresh, and the role-based guard.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cvhub/internal/cv"
	"cvhub/internal/role"
)

// APIError carries the server-provided message verbatim when one was
// present, otherwise a generic fallback.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// ErrUnauthenticated reports a 401 from the session endpoint.
var ErrUnauthenticated = &APIError{Status: http.StatusUnauthorized, Message: "unauthenticated"}

// SessionUser is the canonical session shape. Roles live directly on the
// user; there is exactly one place to look them up.
type SessionUser struct {
	ID        uint     `json:"id"`
	Email     string   `json:"email"`
	FirstName string   `json:"firstName,omitempty"`
	LastName  string   `json:"lastName,omitempty"`
	Roles     []string `json:"roles"`
}

// HasAnyRole reports whether the user carries at least one of the wanted
// roles.
func (u SessionUser) HasAnyRole(wanted ...string) bool {
	return role.ContainsAny(u.Roles, wanted)
}

// CVRecord is one stored CV as served by the API.
type CVRecord struct {
	ID        uint        `json:"id"`
	UserID    uint        `json:"userId"`
	Document  cv.Document `json:"document"`
	PhotoURL  string      `json:"photoUrl,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// CVPage is one page of the listing. TotalPages is authoritative for
// client-side clamping.
type CVPage struct {
	Data       []CVRecord `json:"data"`
	Total      int64      `json:"total"`
	TotalPages int        `json:"totalPages"`
}

// ListQuery are the listing parameters sent as query string values.
type ListQuery struct {
	Search string
	Page   int
	Limit  int
}

// Client talks to the cvhub API. The zero value is not usable; construct
// with New.
type Client struct {
	baseURL    string
	httpClient *http.Client

	token string
}

// New builds a client for the given base URL. A nil httpClient falls back
// to a default with a sane timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// SetToken installs the bearer token used on authenticated calls.
func (c *Client) SetToken(token string) { c.token = token }

// Token returns the currently installed bearer token.
func (c *Client) Token() string { return c.token }

type loginResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	User        SessionUser `json:"user"`
}

// Login exchanges credentials for a session. On success the access token is
// installed on the client.
func (c *Client) Login(ctx context.Context, email, password string) (*SessionUser, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	c.token = resp.AccessToken
	return &resp.User, nil
}

// Logout invalidates the session server-side and clears the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.token = ""
	return err
}

// Me fetches the current session user. A 401 maps to ErrUnauthenticated.
func (c *Client) Me(ctx context.Context) (*SessionUser, error) {
	var user SessionUser
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &user); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	return &user, nil
}

// RefreshToken rotates the session using the refresh cookie and installs the
// new access token.
func (c *Client) RefreshToken(ctx context.Context) error {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/refresh-token", nil, &resp); err != nil {
		return err
	}
	c.token = resp.AccessToken
	return nil
}

// ForgotPassword requests a password-reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword redeems a reset token for a new password.
func (c *Client) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/reset-password/"+url.PathEscape(resetToken),
		map[string]string{"newPassword": newPassword}, nil)
}

// ListCVs fetches one page of CV summaries.
func (c *Client) ListCVs(ctx context.Context, q ListQuery) (*CVPage, error) {
	values := url.Values{}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("limit", strconv.Itoa(q.Limit))

	var page CVPage
	if err := c.doJSON(ctx, http.MethodGet, "/cv?"+values.Encode(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type myCVResponse struct {
	Data CVRecord `json:"data"`
}

// MyCV fetches the current candidate's own CV.
func (c *Client) MyCV(ctx context.Context) (*CVRecord, error) {
	var resp myCVResponse
	if err := c.doJSON(ctx, http.MethodGet, "/cv/myCv", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ListUsers fetches all user accounts (admin only).
func (c *Client) ListUsers(ctx context.Context) ([]SessionUser, error) {
	var resp struct {
		Data []SessionUser `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CreateUserRequest is the admin user-creation payload.
type CreateUserRequest struct {
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Roles     []string `json:"roles"`
}

// CreateUser creates an account (admin only).
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*SessionUser, error) {
	var user SessionUser
	if err := c.doJSON(ctx, http.MethodPost, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUser fetches one account by id.
func (c *Client) GetUser(ctx context.Context, id uint) (*SessionUser, error) {
	var user SessionUser
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRequest carries the mutable account fields; nil fields are left
// unchanged.
type UpdateUserRequest struct {
	FirstName *string  `json:"firstName,omitempty"`
	LastName  *string  `json:"lastName,omitempty"`
	Roles     []string `json:"roles,omitempty"`
}

// UpdateUser patches one account (admin only).
func (c *Client) UpdateUser(ctx context.Context, id uint, req UpdateUserRequest) (*SessionUser, error) {
	var user SessionUser
	if err := c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/users/%d", id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes one account (admin only).
func (c *Client) DeleteUser(ctx context.Context, id uint) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError surfaces the server's own message when the body carries one,
// otherwise a generic fallback string.
func decodeError(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err := json.Unmarshal(data, &body); err == nil && body.Error != "" {
		return &APIError{Status: resp.StatusCode, Message: body.Error}
	}
	return &APIError{Status: resp.StatusCode, Message: "request failed with status " + strconv.Itoa(resp.StatusCode)}
}
