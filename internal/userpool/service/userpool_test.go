package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	appclientdomain "userpool-emulator/internal/appclient/domain"
	"userpool-emulator/internal/clock"
	"userpool-emulator/internal/datastore"
	"userpool-emulator/internal/userpool/domain"
)

var testNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestPool(t *testing.T, factory *datastore.MemoryFactory, clk clock.Clock, cfg domain.Config) *Service {
	t.Helper()
	ctx := context.Background()
	clients, err := factory.Create(ctx, "clients", map[string]any{"Clients": map[string]any{}})
	if err != nil {
		t.Fatalf("clients store: %v", err)
	}
	p, err := New(ctx, clients, clk, factory.Create, cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p
}

func TestNew_SeedsPoolNamespace(t *testing.T) {
	factory := datastore.NewMemoryFactory()
	cfg := domain.NewConfig(domain.DefaultConfig{UsernameAttributes: []string{"email"}}, "local_pool")
	newTestPool(t, factory, clock.NewFake(testNow), cfg)

	ctx := context.Background()
	s, err := factory.Create(ctx, "local_pool", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	var opts domain.Config
	found, err := s.Get(ctx, []string{"Options"}, &opts)
	if err != nil || !found {
		t.Fatalf("Options = %v, %v; want stored", found, err)
	}
	if opts.Id != "local_pool" {
		t.Errorf("Options.Id = %q, want local_pool", opts.Id)
	}
}

func TestNew_StoreFactoryError(t *testing.T) {
	boom := errors.New("boom")
	failing := func(context.Context, string, any) (datastore.Store, error) { return nil, boom }
	_, err := New(context.Background(), nil, clock.System{}, failing, domain.NewConfig(domain.DefaultConfig{}, "p"), nil)
	if !errors.Is(err, boom) {
		t.Errorf("New err = %v, want wrapped boom", err)
	}
}

func TestSaveUser_RefreshesLastModified(t *testing.T) {
	clk := clock.NewFake(testNow)
	p := newTestPool(t, datastore.NewMemoryFactory(), clk, domain.NewConfig(domain.DefaultConfig{}, "p1"))
	ctx := context.Background()

	u := &domain.User{Username: "alice", UserStatus: domain.UserStatusConfirmed, UserLastModifiedDate: testNow.Add(-time.Hour)}
	clk.Advance(5 * time.Minute)
	if err := p.SaveUser(ctx, u); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	want := testNow.Add(5 * time.Minute)
	if !u.UserLastModifiedDate.Equal(want) {
		t.Errorf("caller copy UserLastModifiedDate = %v, want %v", u.UserLastModifiedDate, want)
	}
	got, err := p.GetUserByUsername(ctx, "alice")
	if err != nil || got == nil {
		t.Fatalf("GetUserByUsername = %v, %v", got, err)
	}
	if !got.UserLastModifiedDate.Equal(want) {
		t.Errorf("stored UserLastModifiedDate = %v, want %v", got.UserLastModifiedDate, want)
	}
}

func TestGetUserByUsername(t *testing.T) {
	ctx := context.Background()
	alice := &domain.User{
		Username:   "alice",
		Attributes: []domain.Attribute{{Name: "sub", Value: "sub-alice"}, {Name: "email", Value: "alice@example.com"}, {Name: "phone_number", Value: "+15550100"}},
	}

	tests := []struct {
		name     string
		aliases  []string
		lookup   string
		wantUser bool
	}{
		{"by username", nil, "alice", true},
		{"by sub", nil, "sub-alice", true},
		{"email alias disabled", nil, "alice@example.com", false},
		{"email alias enabled", []string{"email"}, "alice@example.com", true},
		{"phone alias enabled", []string{"phone_number"}, "+15550100", true},
		{"phone alias disabled", []string{"email"}, "+15550100", false},
		{"unknown", []string{"email", "phone_number"}, "bob", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.NewConfig(domain.DefaultConfig{UsernameAttributes: tt.aliases}, "pool")
			p := newTestPool(t, datastore.NewMemoryFactory(), clock.NewFake(testNow), cfg)
			if err := p.SaveUser(ctx, alice.Clone()); err != nil {
				t.Fatalf("SaveUser: %v", err)
			}
			got, err := p.GetUserByUsername(ctx, tt.lookup)
			if err != nil {
				t.Fatalf("GetUserByUsername: %v", err)
			}
			if (got != nil) != tt.wantUser {
				t.Fatalf("GetUserByUsername(%q) = %v, want found=%v", tt.lookup, got, tt.wantUser)
			}
			if got != nil && got.Username != "alice" {
				t.Errorf("Username = %q, want alice", got.Username)
			}
		})
	}
}

func TestGetUserByUsername_AmbiguousAlias(t *testing.T) {
	ctx := context.Background()
	cfg := domain.NewConfig(domain.DefaultConfig{UsernameAttributes: []string{"email"}}, "pool")
	p := newTestPool(t, datastore.NewMemoryFactory(), clock.NewFake(testNow), cfg)
	for _, name := range []string{"a", "b", "c", "d"} {
		u := &domain.User{Username: name, Attributes: []domain.Attribute{{Name: "email", Value: "x@example.com"}}}
		if err := p.SaveUser(ctx, u); err != nil {
			t.Fatalf("SaveUser(%s): %v", name, err)
		}
	}

	for i := 0; i < 50; i++ {
		got, err := p.GetUserByUsername(ctx, "x@example.com")
		if err != nil {
			t.Fatalf("GetUserByUsername: %v", err)
		}
		if got != nil {
			t.Fatalf("lookup %d = %q, want no user for a shared email", i, got.Username)
		}
	}

	got, err := p.GetUserByUsername(ctx, "b")
	if err != nil || got == nil || got.Username != "b" {
		t.Errorf("exact username lookup = %v, %v; want b", got, err)
	}
}

func TestHandlesShareStorage(t *testing.T) {
	factory := datastore.NewMemoryFactory()
	clk := clock.NewFake(testNow)
	cfg := domain.NewConfig(domain.DefaultConfig{}, "shared")
	a := newTestPool(t, factory, clk, cfg)
	b := newTestPool(t, factory, clk, cfg)
	ctx := context.Background()

	if err := a.SaveUser(ctx, &domain.User{Username: "carol"}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	got, err := b.GetUserByUsername(ctx, "carol")
	if err != nil || got == nil {
		t.Fatalf("second handle GetUserByUsername = %v, %v; want carol", got, err)
	}
}

func TestSaveAppClient(t *testing.T) {
	factory := datastore.NewMemoryFactory()
	p := newTestPool(t, factory, clock.NewFake(testNow), domain.NewConfig(domain.DefaultConfig{}, "p1"))
	ctx := context.Background()

	c, err := appclientdomain.NewAppClient("client-1", "web", "p1", testNow)
	if err != nil {
		t.Fatalf("NewAppClient: %v", err)
	}
	if err := p.SaveAppClient(ctx, c); err != nil {
		t.Fatalf("SaveAppClient: %v", err)
	}
	clients, _ := factory.Create(ctx, "clients", nil)
	var got appclientdomain.AppClient
	found, err := clients.Get(ctx, []string{"Clients", "client-1"}, &got)
	if err != nil || !found {
		t.Fatalf("stored client = %v, %v", found, err)
	}
	if got.UserPoolId != "p1" {
		t.Errorf("UserPoolId = %q, want p1", got.UserPoolId)
	}

	if err := p.SaveAppClient(ctx, &appclientdomain.AppClient{ClientId: "x"}); err == nil {
		t.Error("SaveAppClient without user pool id should fail")
	}
}
