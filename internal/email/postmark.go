package email

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
)

const defaultAPIURL = "https://api.postmarkapp.com/email"

// ErrNotConfigured is returned by every send when no server token is set.
var ErrNotConfigured = errors.New("email client not configured: missing server token")

type Client struct {
	serverToken string
	fromEmail   string
	apiURL      string
	httpClient  *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithAPIURL points the client at a different Postmark endpoint.
func WithAPIURL(url string) Option {
	return func(cl *Client) {
		cl.apiURL = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		apiURL:      defaultAPIURL,
		httpClient:  http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From          string `json:"From"`
	To            string `json:"To"`
	Subject       string `json:"Subject"`
	HtmlBody      string `json:"HtmlBody"`
	TextBody      string `json:"TextBody"`
	MessageStream string `json:"MessageStream,omitempty"`
	Tag           string `json:"Tag,omitempty"`
}

type postmarkError struct {
	ErrorCode int    `json:"ErrorCode"`
	Message   string `json:"Message"`
}

// Invitation is the content of a network invitation email.
type Invitation struct {
	To            string
	NetworkName   string
	HouseholdName string
	AcceptURL     string
	RejectURL     string
}

// SendNetworkInvitation asks a household owner to accept or reject joining
// a network. Each link resolves the invitation on its own.
func (c *Client) SendNetworkInvitation(inv Invitation) error {
	subject := fmt.Sprintf("%s has been invited to %s", inv.HouseholdName, inv.NetworkName)
	textBody := fmt.Sprintf(
		"Your household %s has been invited to join the network %s on Meal Plannr.\n\nAccept: %s\nDecline: %s\n",
		inv.HouseholdName, inv.NetworkName, inv.AcceptURL, inv.RejectURL,
	)
	htmlBody := fmt.Sprintf(
		`<p>Your household <strong>%s</strong> has been invited to join the network <strong>%s</strong> on Meal Plannr.</p>`+
			`<p><a href="%s">Accept</a> &middot; <a href="%s">Decline</a></p>`,
		html.EscapeString(inv.HouseholdName), html.EscapeString(inv.NetworkName),
		html.EscapeString(inv.AcceptURL), html.EscapeString(inv.RejectURL),
	)
	return c.send(postmarkEmail{
		To:       inv.To,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "network-invitation",
	})
}

// SendInvitationResolved tells the network owner how an invitation ended.
func (c *Client) SendInvitationResolved(to, networkName, householdName, status string) error {
	subject := fmt.Sprintf("%s %s your invitation to %s", householdName, status, networkName)
	textBody := fmt.Sprintf("The household %s has %s the invitation to join %s.\n", householdName, status, networkName)
	htmlBody := fmt.Sprintf(
		`<p>The household <strong>%s</strong> has %s the invitation to join <strong>%s</strong>.</p>`,
		html.EscapeString(householdName), html.EscapeString(status), html.EscapeString(networkName),
	)
	return c.send(postmarkEmail{
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "invitation-resolved",
	})
}

// SendHouseholdRemoved tells a household owner their household left a
// network.
func (c *Client) SendHouseholdRemoved(to, networkName, householdName string) error {
	subject := fmt.Sprintf("%s was removed from %s", householdName, networkName)
	textBody := fmt.Sprintf("Your household %s is no longer part of the network %s.\n", householdName, networkName)
	htmlBody := fmt.Sprintf(
		`<p>Your household <strong>%s</strong> is no longer part of the network <strong>%s</strong>.</p>`,
		html.EscapeString(householdName), html.EscapeString(networkName),
	)
	return c.send(postmarkEmail{
		To:       to,
		Subject:  subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
		Tag:      "household-removed",
	})
}

func (c *Client) send(payload postmarkEmail) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	payload.From = c.fromEmail
	payload.MessageStream = "outbound"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var pe postmarkError
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &pe) == nil && pe.Message != "" {
			return fmt.Errorf("postmark API error: status %d: %s (code %d)", resp.StatusCode, pe.Message, pe.ErrorCode)
		}
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
