package security

import (
	"context"
	"crypto"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"userpool-emulator/internal/clock"
	userpooldomain "userpool-emulator/internal/userpool/domain"
)

var (
	// ErrInvalidToken is returned when a token is malformed or invalid.
	ErrInvalidToken = errors.New("invalid token")
)

// Token use values carried in the token_use claim.
const (
	TokenUseAccess  = "access"
	TokenUseID      = "id"
	TokenUseRefresh = "refresh"
)

const accessScope = "aws.cognito.signin.user.admin"

// AccessClaims holds JWT claims for the access token.
type AccessClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	EventID  string `json:"event_id"`
	AuthTime int64  `json:"auth_time"`
	Scope    string `json:"scope"`
}

// IDClaims holds JWT claims for the ID token. The audience is the app client id.
type IDClaims struct {
	jwt.RegisteredClaims
	TokenUse        string `json:"token_use"`
	CognitoUsername string `json:"cognito:username"`
	EventID         string `json:"event_id"`
	AuthTime        int64  `json:"auth_time"`
	Email           string `json:"email,omitempty"`
	PhoneNumber     string `json:"phone_number,omitempty"`
}

// RefreshClaims holds JWT claims for the refresh token.
type RefreshClaims struct {
	jwt.RegisteredClaims
	TokenUse string `json:"token_use"`
	Username string `json:"username"`
}

// TTLs are the lifetimes of the issued token kinds.
type TTLs struct {
	Access  time.Duration
	ID      time.Duration
	Refresh time.Duration
}

// TokenProvider issues and validates the access, ID and refresh JWTs returned when authentication completes.
// It signs with RS256, or with ES256/ES384/ES512 matching the ECDSA curve. Each pool gets its own issuer, issuerBase/<poolId>.
type TokenProvider struct {
	privateKey crypto.Signer
	publicKey  crypto.PublicKey
	method     jwt.SigningMethod
	keyID      string
	issuerBase string
	ttl        TTLs
	clock      clock.Clock
}

// NewTokenProvider returns a TokenProvider that signs with privateKey and verifies with publicKey.
func NewTokenProvider(privateKey crypto.Signer, publicKey crypto.PublicKey, issuerBase string, ttl TTLs, clk clock.Clock) (*TokenProvider, error) {
	alg := KeyAlg(privateKey.Public())
	if alg == "" || KeyAlg(publicKey) != alg {
		return nil, ErrInvalidKey
	}
	kid, err := KeyID(publicKey)
	if err != nil {
		return nil, err
	}
	return &TokenProvider{
		privateKey: privateKey,
		publicKey:  publicKey,
		method:     jwt.GetSigningMethod(alg),
		keyID:      kid,
		issuerBase: strings.TrimRight(issuerBase, "/"),
		ttl:        ttl,
		clock:      clk,
	}, nil
}

// Issuer returns the iss claim for tokens of userPoolID.
func (p *TokenProvider) Issuer(userPoolID string) string {
	return p.issuerBase + "/" + userPoolID
}

// IssueTokens issues a fresh access, ID and refresh token for user. The sub claim is the user's sub attribute,
// falling back to the username.
func (p *TokenProvider) IssueTokens(_ context.Context, user *userpooldomain.User, clientID, userPoolID string) (*userpooldomain.AuthenticationResult, error) {
	now := p.clock.Now()
	issuer := p.Issuer(userPoolID)
	eventID := uuid.NewString()
	subject := user.Username
	if sub, ok := user.Attribute("sub"); ok && sub != "" {
		subject = sub
	}

	access, err := p.sign(AccessClaims{
		RegisteredClaims: p.registered(subject, issuer, nil, now, p.ttl.Access),
		TokenUse:         TokenUseAccess,
		ClientID:         clientID,
		Username:         user.Username,
		EventID:          eventID,
		AuthTime:         now.Unix(),
		Scope:            accessScope,
	})
	if err != nil {
		return nil, err
	}

	email, _ := user.Attribute(userpooldomain.UsernameAttributeEmail)
	phone, _ := user.Attribute(userpooldomain.UsernameAttributePhoneNumber)
	id, err := p.sign(IDClaims{
		RegisteredClaims: p.registered(subject, issuer, jwt.ClaimStrings{clientID}, now, p.ttl.ID),
		TokenUse:         TokenUseID,
		CognitoUsername:  user.Username,
		EventID:          eventID,
		AuthTime:         now.Unix(),
		Email:            email,
		PhoneNumber:      phone,
	})
	if err != nil {
		return nil, err
	}

	refresh, err := p.sign(RefreshClaims{
		RegisteredClaims: p.registered(subject, issuer, jwt.ClaimStrings{clientID}, now, p.ttl.Refresh),
		TokenUse:         TokenUseRefresh,
		Username:         user.Username,
	})
	if err != nil {
		return nil, err
	}

	return &userpooldomain.AuthenticationResult{
		AccessToken:  access,
		IdToken:      id,
		RefreshToken: refresh,
		ExpiresIn:    int64(p.ttl.Access / time.Second),
		TokenType:    "Bearer",
	}, nil
}

func (p *TokenProvider) registered(subject, issuer string, audience jwt.ClaimStrings, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   subject,
		Issuer:    issuer,
		Audience:  audience,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (p *TokenProvider) sign(claims jwt.Claims) (string, error) {
	t := jwt.NewWithClaims(p.method, claims)
	t.Header["kid"] = p.keyID
	return t.SignedString(p.privateKey)
}

// ValidateAccess parses and validates an access token issued for userPoolID (signature, exp, iss, token_use).
func (p *TokenProvider) ValidateAccess(tokenString, userPoolID string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := p.parse(tokenString, claims, userPoolID, ""); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseAccess {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateID parses and validates an ID token issued for userPoolID and clientID.
func (p *TokenProvider) ValidateID(tokenString, userPoolID, clientID string) (*IDClaims, error) {
	claims := &IDClaims{}
	if err := p.parse(tokenString, claims, userPoolID, clientID); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseID {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ValidateRefresh parses and validates a refresh token issued for userPoolID and clientID.
func (p *TokenProvider) ValidateRefresh(tokenString, userPoolID, clientID string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := p.parse(tokenString, claims, userPoolID, clientID); err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseRefresh {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (p *TokenProvider) parse(tokenString string, claims jwt.Claims, userPoolID, audience string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{p.method.Alg()}),
		jwt.WithIssuer(p.Issuer(userPoolID)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.clock.Now),
	}
	if audience != "" {
		opts = append(opts, jwt.WithAudience(audience))
	}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return p.publicKey, nil
	}, opts...)
	if err != nil || !token.Valid {
		return ErrInvalidToken
	}
	return nil
}
