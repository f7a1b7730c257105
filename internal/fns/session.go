package fns

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/zombor/fns-bill/internal/metrics"
)

type state int

const (
	stateUnauthenticated state = iota
	stateAuthorized
	stateTicketCreated
	stateBillFetched
)

func (s state) String() string {
	switch s {
	case stateUnauthenticated:
		return "unauthenticated"
	case stateAuthorized:
		return "authorized"
	case stateTicketCreated:
		return "ticket_created"
	case stateBillFetched:
		return "bill_fetched"
	default:
		return "unknown"
	}
}

// session drives one authorize -> create ticket -> fetch bill run.
// It is never shared between resolutions.
type session struct {
	settings Settings
	headers  http.Header
	client   *http.Client
	logger   *slog.Logger
	state    state
}

func newSession(settings Settings, client *http.Client, logger *slog.Logger) *session {
	headers := make(http.Header)
	headers.Set(headerDeviceOS, settings.DeviceOS)
	headers.Set(headerDeviceID, settings.DeviceID)
	return &session{
		settings: settings,
		headers:  headers,
		client:   client,
		logger:   logger,
		state:    stateUnauthenticated,
	}
}

// fetchBillInfo runs the whole workflow and builds the bill
func (s *session) fetchBillInfo(ctx context.Context, query string) (*Bill, error) {
	auth, err := s.authorize(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Authorized", "name", auth.Name)
	s.headers.Set(headerSessionID, auth.SessionID)
	s.state = stateAuthorized

	ticket, err := s.createTicket(ctx, query)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Ticket created", "ticket_id", ticket.ID)
	s.logger.Debug("Ticket status", "kind", ticket.Kind, "status", ticket.Status, "status_real", ticket.StatusReal)
	s.state = stateTicketCreated

	resp, err := s.fetchBill(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}

	bill, err := buildBill(resp.Ticket.Document.Receipt.Items)
	if err != nil {
		return nil, s.fail(KindBillFetching, "Bill fetching failed", err)
	}
	s.state = stateBillFetched
	return bill, nil
}

// buildBill flattens receipt items in order. Negative quantities and
// amounts that overflow int64 are rejected.
func buildBill(items []receiptItem) (*Bill, error) {
	bill := NewBill()
	var total int64
	for i, item := range items {
		if item.Quantity < 0 {
			return nil, fmt.Errorf("item %d has negative quantity %d", i, item.Quantity)
		}
		line := item.Price * item.Quantity
		if item.Quantity != 0 && line/item.Quantity != item.Price {
			return nil, fmt.Errorf("item %d amount overflows", i)
		}
		if (line > 0 && total > math.MaxInt64-line) || (line < 0 && total < math.MinInt64-line) {
			return nil, fmt.Errorf("bill total overflows at item %d", i)
		}
		total += line
		bill.Add(NewRecord(item.Name, item.Quantity, item.Price))
	}
	return bill, nil
}

func (s *session) authorize(ctx context.Context) (*authResponse, error) {
	s.logger.Info("Starting authorization")
	req, err := s.newRequest(ctx, http.MethodPost, authPath, authRequest{
		INN:          s.settings.INN,
		Password:     s.settings.Password,
		ClientSecret: s.settings.ClientSecret,
	})
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := s.send(req, "authorize", &resp); err != nil {
		return nil, s.fail(KindAuthorization, "Authorization failed", err)
	}
	if resp.SessionID == "" {
		return nil, s.fail(KindAuthorization, "Authorization failed", errors.New("response has no sessionId"))
	}
	return &resp, nil
}

func (s *session) createTicket(ctx context.Context, query string) (*ticketResponse, error) {
	s.logger.Info("Creating ticket")
	req, err := s.newRequest(ctx, http.MethodPost, ticketPath, ticketRequest{QR: query})
	if err != nil {
		return nil, err
	}

	var resp ticketResponse
	if err := s.send(req, "create_ticket", &resp); err != nil {
		return nil, s.fail(KindTicketCreation, "Ticket creation failed", err)
	}
	if resp.ID == "" {
		return nil, s.fail(KindTicketCreation, "Ticket creation failed", errors.New("response has no ticket id"))
	}
	return &resp, nil
}

func (s *session) fetchBill(ctx context.Context, ticketID string) (*billResponse, error) {
	s.logger.Info("Fetching bill", "ticket_id", ticketID)
	req, err := s.newRequest(ctx, http.MethodGet, ticketsPath+url.PathEscape(ticketID), nil)
	if err != nil {
		return nil, err
	}

	var resp billResponse
	if err := s.send(req, "fetch_bill", &resp); err != nil {
		return nil, s.fail(KindBillFetching, "Bill fetching failed", err)
	}
	return &resp, nil
}

// newRequest builds a request carrying the current session headers.
// Failures here never reach the wire and map to KindHTTP.
func (s *session) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, httpError(fmt.Errorf("marshaling request: %w", err))
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.settings.baseURL()+path, r)
	if err != nil {
		return nil, httpError(fmt.Errorf("creating request: %w", err))
	}
	req.Header = s.headers.Clone()
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// send performs the request and decodes a 2xx JSON body into out
func (s *session) send(req *http.Request, step string, out any) error {
	start := time.Now()
	err := s.roundTrip(req, out)
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	metrics.StepDuration.WithLabelValues(step, outcome).Observe(time.Since(start).Seconds())
	return err
}

func (s *session) roundTrip(req *http.Request, out any) error {
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("unexpected status %d for %s: %s", resp.StatusCode, req.URL.Path, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (s *session) fail(kind Kind, msg string, err error) error {
	return stepError(s.logger.With("state", s.state.String()), kind, msg, err)
}
