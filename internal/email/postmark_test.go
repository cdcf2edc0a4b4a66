package email

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, status int, received *postmarkEmail, gotToken *string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if gotToken != nil {
			*gotToken = r.Header.Get("X-Postmark-Server-Token")
		}
		if received != nil {
			if err := json.NewDecoder(r.Body).Decode(received); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.WriteHeader(status)
		if status >= 400 {
			w.Write([]byte(`{"ErrorCode": 300, "Message": "Invalid email request"}`))
			return
		}
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestSendNetworkInvitation(t *testing.T) {
	var received postmarkEmail
	var gotToken string
	server := newTestServer(t, http.StatusOK, &received, &gotToken)

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL), WithHTTPClient(server.Client()))
	err := client.SendNetworkInvitation(Invitation{
		To:            "bob@example.com",
		NetworkName:   "Supper Club",
		HouseholdName: "Smith <Family>",
		AcceptURL:     "https://meals.test/invitations/respond?token=a",
		RejectURL:     "https://meals.test/invitations/respond?token=r",
	})
	if err != nil {
		t.Fatalf("send invitation: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "bob@example.com" {
		t.Errorf("To = %q, want %q", received.To, "bob@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "Smith <Family> has been invited to Supper Club" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "token=a") || !strings.Contains(received.TextBody, "token=r") {
		t.Errorf("TextBody missing links: %q", received.TextBody)
	}
	if strings.Contains(received.HtmlBody, "<Family>") {
		t.Errorf("HtmlBody not escaped: %q", received.HtmlBody)
	}
}

func TestSendHouseholdRemoved(t *testing.T) {
	var received postmarkEmail
	server := newTestServer(t, http.StatusOK, &received, nil)

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.SendHouseholdRemoved("bob@example.com", "Supper Club", "Smiths"); err != nil {
		t.Fatalf("send removed: %v", err)
	}
	if received.Subject != "Smiths was removed from Supper Club" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if received.Tag != "household-removed" {
		t.Errorf("Tag = %q, want %q", received.Tag, "household-removed")
	}
}

func TestSendInvitationResolved(t *testing.T) {
	var received postmarkEmail
	server := newTestServer(t, http.StatusOK, &received, nil)

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	if err := client.SendInvitationResolved("alice@example.com", "Supper Club", "Smiths", "accepted"); err != nil {
		t.Fatalf("send resolved: %v", err)
	}
	if received.Subject != "Smiths accepted your invitation to Supper Club" {
		t.Errorf("Subject = %q", received.Subject)
	}
}

func TestSendAPIError(t *testing.T) {
	server := newTestServer(t, http.StatusUnprocessableEntity, nil, nil)

	client := NewClient("test-token", "noreply@example.com", WithAPIURL(server.URL))
	err := client.SendHouseholdRemoved("bob@example.com", "Supper Club", "Smiths")
	if err == nil {
		t.Fatal("expected error for 422 response")
	}
	if !strings.Contains(err.Error(), "Invalid email request") {
		t.Errorf("error = %v, want postmark message", err)
	}
}

func TestSendNotConfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com")

	err := client.SendHouseholdRemoved("alice@example.com", "Club", "Home")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}
