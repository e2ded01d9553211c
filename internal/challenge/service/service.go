// Package service completes outstanding authentication challenges.
package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"userpool-emulator/internal/apierror"
	"userpool-emulator/internal/challenge/domain"
	"userpool-emulator/internal/mfa"
	userpooldomain "userpool-emulator/internal/userpool/domain"
	userpoolservice "userpool-emulator/internal/userpool/service"
)

const instrumentationName = "userpool-emulator/challenge"

// PoolResolver resolves the pool that owns an app client.
type PoolResolver interface {
	GetUserPoolForClientID(ctx context.Context, clientID string) (userpoolservice.UserPool, error)
}

// TokenIssuer issues the credential set for an authenticated user.
type TokenIssuer interface {
	IssueTokens(ctx context.Context, user *userpooldomain.User, clientID, userPoolID string) (*userpooldomain.AuthenticationResult, error)
}

// PasswordEncoder turns a new password into the value stored on the user.
type PasswordEncoder interface {
	Encode(password string) (string, error)
}

// PlainPasswords stores passwords as supplied.
type PlainPasswords struct{}

// Encode returns password unchanged.
func (PlainPasswords) Encode(password string) (string, error) {
	return password, nil
}

// Option configures a Service.
type Option func(*Service)

// WithPasswordEncoder sets the encoder applied to NEW_PASSWORD before it is stored.
func WithPasswordEncoder(enc PasswordEncoder) Option {
	return func(s *Service) {
		if enc != nil {
			s.passwords = enc
		}
	}
}

// Service is the challenge-response completion engine. It holds no per-session state.
//
// UserLastModifiedDate is stamped by the pool handle's SaveUser.
//
// Two concurrent responses for the same user both read the stored record and the later save wins.
type Service struct {
	pools     PoolResolver
	tokens    TokenIssuer
	passwords PasswordEncoder
	logger    *zap.Logger
	tracer    trace.Tracer
	responses metric.Int64Counter
}

// NewService returns a Service. A nil logger discards output. Telemetry goes to the global providers
// installed at the time of the call.
func NewService(pools PoolResolver, tokens TokenIssuer, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		pools:     pools,
		tokens:    tokens,
		passwords: PlainPasswords{},
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
	}
	for _, opt := range opts {
		opt(s)
	}
	counter, err := otel.Meter(instrumentationName).Int64Counter("challenge.responses",
		metric.WithDescription("Challenge responses by challenge name and outcome"))
	if err != nil {
		logger.Warn("challenge responses counter unavailable", zap.Error(err))
	}
	s.responses = counter
	return s
}

// RespondToAuthChallenge validates the response to one outstanding challenge, persists the resulting user
// state and returns freshly issued tokens.
//
// Request validation happens before anything is read. A user that does not exist yields NotAuthorized.
// Any rejection leaves the stored user untouched.
func (s *Service) RespondToAuthChallenge(ctx context.Context, req *domain.Request) (resp *domain.Response, err error) {
	ctx, span := s.tracer.Start(ctx, "Challenge.RespondToAuthChallenge")
	defer span.End()

	var challengeName string
	if req != nil {
		challengeName = req.ChallengeName
		span.SetAttributes(
			attribute.String("client_id", req.ClientID),
			attribute.String("challenge", challengeName),
		)
	}
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = apierror.KindOf(err).Name()
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		}
		if s.responses != nil {
			s.responses.Add(ctx, 1, metric.WithAttributes(
				attribute.String("challenge", challengeName),
				attribute.String("outcome", outcome),
			))
		}
	}()

	if req == nil || len(req.ChallengeResponses) == 0 {
		return nil, apierror.MissingParameter("ChallengeResponses")
	}
	username := req.ChallengeResponses[domain.ResponseUsername]
	if username == "" {
		return nil, apierror.MissingParameter(domain.ResponseUsername)
	}
	if req.Session == "" {
		return nil, apierror.MissingParameter("Session")
	}

	pool, err := s.pools.GetUserPoolForClientID(ctx, req.ClientID)
	if err != nil {
		return nil, apierror.Internal("resolve user pool", err)
	}
	poolID := pool.Config().Id
	logger := s.logger.With(
		zap.String("user_pool_id", poolID),
		zap.String("client_id", req.ClientID),
		zap.String("challenge", challengeName),
	)

	user, err := pool.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, apierror.Internal("get user", err)
	}
	if user == nil {
		logger.Info("challenge rejected", zap.String("reason", apierror.KindNotAuthorized.Name()))
		return nil, apierror.NotAuthorized()
	}

	updated, err := s.apply(req, user)
	if err != nil {
		logger.Info("challenge rejected", zap.String("username", user.Username), zap.String("reason", apierror.KindOf(err).Name()))
		return nil, err
	}

	if err := pool.SaveUser(ctx, updated); err != nil {
		return nil, apierror.Internal("save user", err)
	}

	result, err := s.tokens.IssueTokens(ctx, updated, req.ClientID, poolID)
	if err != nil {
		return nil, apierror.Internal("issue tokens", err)
	}
	logger.Info("challenge satisfied", zap.String("username", updated.Username))
	return &domain.Response{
		ChallengeParameters:  map[string]string{},
		AuthenticationResult: result,
	}, nil
}

// apply validates the response against user and returns the updated copy. user itself is never modified.
func (s *Service) apply(req *domain.Request, user *userpooldomain.User) (*userpooldomain.User, error) {
	name, ok := domain.ParseChallengeName(req.ChallengeName)
	if !ok {
		return nil, apierror.Unsupported("respondToAuthChallenge with ChallengeName=" + req.ChallengeName)
	}

	updated := user.Clone()
	switch name {
	case domain.ChallengeSMSMFA:
		pending, ok := user.MFACode.Get()
		if !ok || !mfa.CodeEqual(req.ChallengeResponses[domain.ResponseSMSMFACode], pending) {
			return nil, apierror.CodeMismatch()
		}
		updated.MFACode = userpooldomain.NoPendingCode
	case domain.ChallengeNewPasswordRequired:
		newPassword := req.ChallengeResponses[domain.ResponseNewPassword]
		if newPassword == "" {
			return nil, apierror.MissingParameter(domain.ResponseNewPassword)
		}
		encoded, err := s.passwords.Encode(newPassword)
		if err != nil {
			return nil, apierror.Internal("encode password", err)
		}
		updated.Password = encoded
		updated.UserStatus = userpooldomain.UserStatusConfirmed
	default:
		return nil, apierror.Unsupported("respondToAuthChallenge with ChallengeName=" + req.ChallengeName)
	}
	return updated, nil
}
