// Package service implements the per-pool user-management handle.
package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	appclientdomain "userpool-emulator/internal/appclient/domain"
	"userpool-emulator/internal/clock"
	"userpool-emulator/internal/datastore"
	"userpool-emulator/internal/userpool/domain"
)

// UserPool is the handle the resolver returns for one pool.
type UserPool interface {
	// Config returns the pool configuration; Config().Id is the pool id.
	Config() domain.Config
	// GetUserByUsername returns the user, or nil if not found.
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	// SaveUser persists user and sets its UserLastModifiedDate to the current time.
	SaveUser(ctx context.Context, user *domain.User) error
	// SaveAppClient registers client in the shared clients namespace.
	SaveAppClient(ctx context.Context, client *appclientdomain.AppClient) error
}

type poolSeed struct {
	Users   map[string]domain.User `json:"Users"`
	Options domain.Config          `json:"Options"`
}

// Service is a lightweight view over a pool namespace. Building several Services for the same pool is safe;
// they all read and write the same namespace.
type Service struct {
	clients datastore.Store
	users   datastore.Store
	clock   clock.Clock
	config  domain.Config
	logger  *zap.Logger
}

// New acquires the namespace named after cfg.Id (seeded with an empty user set and the pool options) and
// returns a handle over it. clients is the shared client registration namespace.
func New(ctx context.Context, clients datastore.Store, clk clock.Clock, createStore datastore.Factory, cfg domain.Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	users, err := createStore(ctx, cfg.Id, poolSeed{Users: map[string]domain.User{}, Options: cfg})
	if err != nil {
		return nil, fmt.Errorf("userpool %s: open store: %w", cfg.Id, err)
	}
	return &Service{
		clients: clients,
		users:   users,
		clock:   clk,
		config:  cfg,
		logger:  logger.With(zap.String("user_pool_id", cfg.Id)),
	}, nil
}

// Config returns the pool configuration.
func (s *Service) Config() domain.Config {
	return s.config
}

// GetUserByUsername looks the user up by username first. On a miss it scans users for a matching sub attribute,
// then for email or phone_number when those are configured as username attributes.
// It returns nil, nil when no user matches, and also when the alias matches more than one user.
func (s *Service) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	found, err := s.users.Get(ctx, []string{"Users", username}, &user)
	if err != nil {
		return nil, fmt.Errorf("userpool %s: get user: %w", s.config.Id, err)
	}
	if found {
		return &user, nil
	}

	var all map[string]domain.User
	if _, err := s.users.Get(ctx, []string{"Users"}, &all); err != nil {
		return nil, fmt.Errorf("userpool %s: list users: %w", s.config.Id, err)
	}
	aliasEmail := s.config.AllowsUsernameAttribute(domain.UsernameAttributeEmail)
	aliasPhone := s.config.AllowsUsernameAttribute(domain.UsernameAttributePhoneNumber)
	var matches []string
	for key, u := range all {
		if attributeEquals(&u, "sub", username) ||
			(aliasEmail && attributeEquals(&u, domain.UsernameAttributeEmail, username)) ||
			(aliasPhone && attributeEquals(&u, domain.UsernameAttributePhoneNumber, username)) {
			matches = append(matches, key)
		}
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		match := all[matches[0]]
		return &match, nil
	default:
		sort.Strings(matches)
		s.logger.Warn("ambiguous username alias", zap.Strings("usernames", matches))
		return nil, nil
	}
}

// SaveUser stores user under its username. UserLastModifiedDate is set to the current time on user itself,
// so the caller holds exactly what was stored.
func (s *Service) SaveUser(ctx context.Context, user *domain.User) error {
	user.UserLastModifiedDate = s.clock.Now()
	s.logger.Debug("save user", zap.String("username", user.Username))
	if err := s.users.Set(ctx, []string{"Users", user.Username}, user); err != nil {
		return fmt.Errorf("userpool %s: save user: %w", s.config.Id, err)
	}
	return nil
}

// SaveAppClient stores client under Clients.<ClientId>.
func (s *Service) SaveAppClient(ctx context.Context, client *appclientdomain.AppClient) error {
	if err := client.Validate(); err != nil {
		return err
	}
	s.logger.Debug("save app client", zap.String("client_id", client.ClientId))
	if err := s.clients.Set(ctx, []string{"Clients", client.ClientId}, client); err != nil {
		return fmt.Errorf("userpool %s: save app client: %w", s.config.Id, err)
	}
	return nil
}

func attributeEquals(u *domain.User, name, value string) bool {
	v, ok := u.Attribute(name)
	return ok && v == value
}
