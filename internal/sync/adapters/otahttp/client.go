// Package otahttp implements the generic JSON-over-HTTP channel adapter used
// by OTAs that expose a REST availability/rate/reservation API. Channels with
// bespoke protocols get their own adapter; this one covers the common shape.
package otahttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lagunahotels/channelsync-backend/internal/sync"
	pkgerrors "github.com/lagunahotels/channelsync-backend/pkg/errors"
)

const (
	availabilityPath = "/availability"
	ratesPath        = "/rates"
	reservationsPath = "/reservations"

	credentialAPIKey  = "api_key"
	credentialHotelID = "hotel_id"
)

// Client speaks the generic OTA JSON protocol. One instance serves every
// connection that uses the protocol; per-channel endpoint and credentials
// arrive with each call.
type Client struct {
	httpClient *http.Client
}

// New builds the adapter. timeout bounds the full request/response cycle and
// is a second line of defense behind the caller's context deadline.
func New(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

type pushResponse struct {
	Processed int      `json:"processed"`
	Errors    []string `json:"errors"`
}

type reservationsResponse struct {
	Reservations []struct {
		ID        string  `json:"id"`
		RoomID    string  `json:"room_id"`
		CheckIn   string  `json:"check_in"`
		CheckOut  string  `json:"check_out"`
		Rooms     int     `json:"rooms"`
		GuestName string  `json:"guest_name"`
		Email     string  `json:"email"`
		Total     float64 `json:"total"`
	} `json:"reservations"`
}

// PushAvailability sends per-night quantities for the mapped rooms.
func (c *Client) PushAvailability(ctx context.Context, channel sync.ChannelContext, updates []sync.AvailabilityUpdate) (*sync.Result, error) {
	type item struct {
		RoomID   string `json:"room_id"`
		Date     string `json:"date"`
		Quantity int    `json:"quantity"`
	}
	items := make([]item, 0, len(updates))
	for _, update := range updates {
		items = append(items, item{
			RoomID:   update.ExternalRoomID,
			Date:     update.Date.UTC().Format("2006-01-02"),
			Quantity: update.Quantity,
		})
	}
	body := map[string]any{"hotel_id": channel.Credentials[credentialHotelID], "availability": items}

	var resp pushResponse
	if err := c.post(ctx, channel, availabilityPath, body, &resp); err != nil {
		return nil, err
	}
	return &sync.Result{Processed: resp.Processed, ItemErrors: resp.Errors}, nil
}

// PushRates sends per-night rates for the mapped rate plans.
func (c *Client) PushRates(ctx context.Context, channel sync.ChannelContext, updates []sync.RateUpdate) (*sync.Result, error) {
	type item struct {
		RoomID string `json:"room_id"`
		RateID string `json:"rate_id"`
		Date   string `json:"date"`
		Rate   string `json:"rate"`
	}
	items := make([]item, 0, len(updates))
	for _, update := range updates {
		items = append(items, item{
			RoomID: update.ExternalRoomID,
			RateID: update.ExternalRateID,
			Date:   update.Date.UTC().Format("2006-01-02"),
			Rate:   update.Rate.StringFixed(2),
		})
	}
	body := map[string]any{"hotel_id": channel.Credentials[credentialHotelID], "rates": items}

	var resp pushResponse
	if err := c.post(ctx, channel, ratesPath, body, &resp); err != nil {
		return nil, err
	}
	return &sync.Result{Processed: resp.Processed, ItemErrors: resp.Errors}, nil
}

// PullReservations fetches reservations the channel reports as new or changed.
func (c *Client) PullReservations(ctx context.Context, channel sync.ChannelContext) ([]sync.ExternalReservation, error) {
	endpoint, err := buildURL(channel, reservationsPath)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	c.authorize(req, channel)

	var resp reservationsResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}

	reservations := make([]sync.ExternalReservation, 0, len(resp.Reservations))
	for _, raw := range resp.Reservations {
		checkIn, err := time.Parse("2006-01-02", raw.CheckIn)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("reservation %s has malformed check-in %q", raw.ID, raw.CheckIn))
		}
		checkOut, err := time.Parse("2006-01-02", raw.CheckOut)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err,
				fmt.Sprintf("reservation %s has malformed check-out %q", raw.ID, raw.CheckOut))
		}
		reservations = append(reservations, sync.ExternalReservation{
			ExternalRef:    raw.ID,
			ExternalRoomID: raw.RoomID,
			CheckIn:        checkIn,
			CheckOut:       checkOut,
			Rooms:          raw.Rooms,
			GuestName:      raw.GuestName,
			GuestEmail:     raw.Email,
			Total:          floatToDecimal(raw.Total),
		})
	}
	return reservations, nil
}

func (c *Client) post(ctx context.Context, channel sync.ChannelContext, path string, body any, out any) error {
	endpoint, err := buildURL(channel, path)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req, channel)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "channel request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reading channel response")
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return pkgerrors.New(pkgerrors.CodeCredential,
			fmt.Sprintf("channel rejected credentials (status %d)", resp.StatusCode))
	case resp.StatusCode >= 400:
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("channel returned status %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decoding channel response")
	}
	return nil
}

func (c *Client) authorize(req *http.Request, channel sync.ChannelContext) {
	if key := channel.Credentials[credentialAPIKey]; key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
}

func buildURL(channel sync.ChannelContext, path string) (string, error) {
	if channel.Connection == nil || strings.TrimSpace(channel.Connection.APIEndpoint) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "channel connection has no api endpoint")
	}
	return strings.TrimRight(channel.Connection.APIEndpoint, "/") + path, nil
}

func floatToDecimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
