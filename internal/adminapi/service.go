package adminapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/waynex/admin/internal/client"
	"github.com/waynex/admin/internal/logging"
	"github.com/waynex/admin/internal/session"
	"github.com/waynex/admin/internal/swr"
)

// Validation errors, worded as the dashboard forms show them.
var (
	ErrMissingCredentials = errors.New("Please enter both email and password")
	ErrMissingFields      = errors.New("All fields are required")
	ErrInvalidAmount      = errors.New("Please enter a valid amount")
	ErrInvalidStatus      = errors.New("payment status must be Approved or Rejected")
	ErrMissingFile        = errors.New("Please select a file to upload")
)

// Service runs the admin write operations. Each one calls the mutation
// executor and, only when it succeeds, revalidates the keys it affects.
type Service struct {
	client  *client.Client
	fetcher *swr.Fetcher
	session *session.Store
}

// NewService wires the service to its dependencies.
func NewService(c *client.Client, f *swr.Fetcher, s *session.Store) *Service {
	return &Service{client: c, fetcher: f, session: s}
}

// Fetcher returns the fetcher backing the read views.
func (s *Service) Fetcher() *swr.Fetcher {
	return s.fetcher
}

// Session returns the session store.
func (s *Service) Session() *session.Store {
	return s.session
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User *session.Session `json:"user"`
}

// Login signs in and stores the returned user as the session. On failure
// the current session is left as it was.
func (s *Service) Login(ctx context.Context, email, password string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	body, err := s.client.MutateJSON(ctx, http.MethodPost, LoginPath, loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if body == nil || json.Unmarshal(body, &resp) != nil || !resp.User.Authenticated() {
		return nil, &client.APIError{Message: "Invalid login response"}
	}
	if err := s.session.Set(*resp.User); err != nil {
		return nil, err
	}
	logging.Info("signed in", logging.String("email", resp.User.Email))
	return s.session.Get(), nil
}

// Logout clears the session.
func (s *Service) Logout() error {
	return s.session.Clear()
}

// NewEmployee is the employee creation form.
type NewEmployee struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (e NewEmployee) validate() error {
	for _, v := range []string{e.FirstName, e.LastName, e.Email, e.Password} {
		if strings.TrimSpace(v) == "" {
			return ErrMissingFields
		}
	}
	return nil
}

// CreateEmployee adds an employee account.
func (s *Service) CreateEmployee(ctx context.Context, e NewEmployee) error {
	if err := e.validate(); err != nil {
		return err
	}
	if _, err := s.client.MutateJSON(ctx, http.MethodPost, EmployeesPath, e); err != nil {
		return err
	}
	s.fetcher.RevalidatePath(ctx, EmployeesPath)
	return nil
}

// DeleteEmployee removes an employee account.
func (s *Service) DeleteEmployee(ctx context.Context, id int) error {
	return s.delete(ctx, EmployeesPath, id)
}

type newBalanceCode struct {
	Amount float64 `json:"amount"`
}

// CreateBalanceCode generates a top-up code worth amount and returns it.
func (s *Service) CreateBalanceCode(ctx context.Context, amount float64) (*BalanceCode, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	body, err := s.client.MutateJSON(ctx, http.MethodPost, BalanceCodesPath, newBalanceCode{Amount: amount})
	if err != nil {
		return nil, err
	}
	s.fetcher.RevalidatePath(ctx, BalanceCodesPath)

	if body == nil {
		return nil, nil
	}
	var code BalanceCode
	if err := json.Unmarshal(body, &code); err != nil {
		return nil, fmt.Errorf("decode balance code: %w", err)
	}
	return &code, nil
}

// DeleteBalanceCode removes a balance code.
func (s *Service) DeleteBalanceCode(ctx context.Context, id int) error {
	return s.delete(ctx, BalanceCodesPath, id)
}

func (s *Service) delete(ctx context.Context, path string, id int) error {
	target := path + "/" + strconv.Itoa(id)
	if _, err := s.client.Mutate(ctx, target, client.MutateOptions{Method: http.MethodDelete}); err != nil {
		return err
	}
	s.fetcher.RevalidatePath(ctx, path)
	return nil
}

type paymentStatusUpdate struct {
	Status PaymentStatus `json:"status"`
}

// SetPaymentStatus approves or rejects a payment request.
func (s *Service) SetPaymentStatus(ctx context.Context, id int, status PaymentStatus) error {
	if status != PaymentApproved && status != PaymentRejected {
		return ErrInvalidStatus
	}
	target := fmt.Sprintf("%s/%d/status", PaymentsPath, id)
	if _, err := s.client.MutateJSON(ctx, http.MethodPut, target, paymentStatusUpdate{Status: status}); err != nil {
		return err
	}
	s.fetcher.RevalidatePath(ctx, PaymentsPath)
	// Approving a payment changes the pending count on the dashboard.
	s.fetcher.RevalidatePath(ctx, AnalyticsPath)
	return nil
}

// RateUpload is an international rate sheet with optional markups applied
// by the server. Empty markups are not sent.
type RateUpload struct {
	Filename string
	Content  io.Reader
	Percent  string
	Flat     string
}

// UploadInternationalRates replaces the international rate sheet.
func (s *Service) UploadInternationalRates(ctx context.Context, u RateUpload) (*RateUploadResult, error) {
	if u.Content == nil || u.Filename == "" {
		return nil, ErrMissingFile
	}
	body, err := s.client.MutateMultipart(ctx, RatesUploadPath,
		client.FormFile{Field: "file", Filename: u.Filename, Content: u.Content},
		map[string]string{"percent": u.Percent, "flat": u.Flat},
	)
	if err != nil {
		return nil, err
	}

	var res RateUploadResult
	if body != nil {
		if err := json.Unmarshal(body, &res); err != nil {
			return nil, fmt.Errorf("decode upload result: %w", err)
		}
	}
	return &res, nil
}
