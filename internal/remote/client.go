package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"quickthrift/internal/domain"
)

// AuthResult is the backend's answer to sign-in and sign-up.
type AuthResult struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

type signUpBody struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Client talks to the storefront REST backend. A nil Client or an empty base
// URL behaves as a permanently unavailable backend.
type Client struct {
	base    string
	timeout time.Duration
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), timeout: timeout}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, fiber.MethodPost, "/auth/signin", "", fiber.Map{"email": email, "password": password}, &out)
	if err == nil && (out.Token == "" || out.User == nil) {
		err = &NetworkError{Op: "POST /auth/signin", Err: errors.New("incomplete auth response")}
	}
	return out, err
}

func (c *Client) SignUp(ctx context.Context, p domain.Profile) (AuthResult, error) {
	var out AuthResult
	err := c.do(ctx, fiber.MethodPost, "/auth/signup", "", signUpBody{Username: p.Username, Email: p.Email, Password: p.Password}, &out)
	if err == nil && (out.Token == "" || out.User == nil) {
		err = &NetworkError{Op: "POST /auth/signup", Err: errors.New("incomplete auth response")}
	}
	return out, err
}

func (c *Client) FetchProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.do(ctx, fiber.MethodGet, "/products", "", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddProduct(ctx context.Context, token string, p domain.Product) (domain.Product, error) {
	var out domain.Product
	err := c.do(ctx, fiber.MethodPost, "/products", token, p, &out)
	return out, err
}

type result struct {
	code int
	body []byte
	errs []error
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	op := method + " " + path
	if c == nil || c.base == "" {
		return &NetworkError{Op: op, Err: ErrNotConfigured}
	}
	if err := ctx.Err(); err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 {
		return &NetworkError{Op: op, Err: context.DeadlineExceeded}
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.base + path)
	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return &NetworkError{Op: op, Err: err}
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if in != nil {
		a.JSON(in)
	}
	a.Timeout(timeout)

	// Bytes releases the agent; the goroutine ends once the agent's own
	// timeout fires even if ctx is cancelled first.
	done := make(chan result, 1)
	go func() {
		code, body, errs := a.Bytes()
		done <- result{code: code, body: body, errs: errs}
	}()

	var r result
	select {
	case <-ctx.Done():
		return &NetworkError{Op: op, Err: ctx.Err()}
	case r = <-done:
	}

	if len(r.errs) > 0 {
		return &NetworkError{Op: op, Err: errors.Join(r.errs...)}
	}
	if r.code >= 500 {
		return &NetworkError{Op: op, Err: fmt.Errorf("status %d", r.code)}
	}
	if r.code >= 400 {
		return &StatusError{Op: op, Code: r.code, Message: errorMessage(r.body)}
	}
	if out == nil || len(r.body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.body, out); err != nil {
		return &NetworkError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// errorMessage extracts {"error": ...} or {"message": ...} from a 4xx body.
func errorMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &m) == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
