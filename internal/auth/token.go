package auth

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/hkdf"
)

const (
	issuerName       = "mealplannr"
	sessionAudience  = "api"
	linkAudience     = "invitation-link"
	minSecretLength  = 16
	derivedKeyLength = 32
)

var ErrWeakSecret = errors.New("secret must be at least 16 characters")

// SessionClaims are carried by bearer tokens.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c *SessionClaims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// LinkClaims are carried by the accept/reject links in invitation emails.
// The registered ID is the single-use jti.
type LinkClaims struct {
	InvitationID int64  `json:"inv"`
	Action       string `json:"act"`
	UserID       int64  `json:"uid"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies bearer and link tokens. Each kind uses its own
// key derived from one secret, so a link token never passes as a bearer
// token.
type Issuer struct {
	sessionKey []byte
	linkKey    []byte
	sessionTTL time.Duration
	linkTTL    time.Duration
	now        func() time.Time
}

func NewIssuer(secret string, sessionTTL, linkTTL time.Duration) (*Issuer, error) {
	if len(secret) < minSecretLength {
		return nil, ErrWeakSecret
	}
	sessionKey, err := deriveKey(secret, "session")
	if err != nil {
		return nil, err
	}
	linkKey, err := deriveKey(secret, "invitation-link")
	if err != nil {
		return nil, err
	}
	return &Issuer{
		sessionKey: sessionKey,
		linkKey:    linkKey,
		sessionTTL: sessionTTL,
		linkTTL:    linkTTL,
		now:        time.Now,
	}, nil
}

func deriveKey(secret, purpose string) ([]byte, error) {
	key := make([]byte, derivedKeyLength)
	r := hkdf.New(sha256.New, []byte(secret), []byte(issuerName), []byte(purpose))
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive %s key: %w", purpose, err)
	}
	return key, nil
}

// IssueSession returns a bearer token for userID and its expiry.
func (i *Issuer) IssueSession(userID int64) (string, time.Time, error) {
	now := i.now()
	expires := now.Add(i.sessionTTL)
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{sessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.sessionKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expires, nil
}

func (i *Issuer) ParseSession(token string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := i.parse(token, &claims, i.sessionKey, sessionAudience); err != nil {
		return nil, err
	}
	return &claims, nil
}

// IssueLink returns a signed link token for one action on one invitation,
// along with its jti and expiry.
func (i *Issuer) IssueLink(invitationID int64, action string, userID int64) (token, jti string, expires time.Time, err error) {
	now := i.now()
	expires = now.Add(i.linkTTL)
	jti = uuid.NewString()
	claims := LinkClaims{
		InvitationID: invitationID,
		Action:       action,
		UserID:       userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuerName,
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{linkAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
			ID:        jti,
		},
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.linkKey)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign link token: %w", err)
	}
	return token, jti, expires, nil
}

func (i *Issuer) ParseLink(token string) (*LinkClaims, error) {
	var claims LinkClaims
	if err := i.parse(token, &claims, i.linkKey, linkAudience); err != nil {
		return nil, err
	}
	if claims.ID == "" || claims.InvitationID == 0 {
		return nil, errors.New("link token missing claims")
	}
	return &claims, nil
}

func (i *Issuer) parse(token string, claims jwt.Claims, key []byte, audience string) error {
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuerName),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return fmt.Errorf("parse token: %w", err)
	}
	return nil
}
