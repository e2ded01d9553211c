// seed registers a development app client and two users that each have a challenge outstanding:
// one must set a new password and one has a pending SMS code. Re-running overwrites them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"userpool-emulator/internal/app"
	appclientdomain "userpool-emulator/internal/appclient/domain"
	"userpool-emulator/internal/config"
	"userpool-emulator/internal/logging"
	"userpool-emulator/internal/mfa"
	userpooldomain "userpool-emulator/internal/userpool/domain"
)

const (
	devClientID        = "dev-client-001"
	devPoolID          = "local_pool"
	devNewPasswordUser = "dev@example.com"
	devTempPassword    = "TempPassword1!"
	devMFAUser         = "mfa@example.com"
	devPhoneNumber     = "+15555550100"
)

func main() {
	clientID := flag.String("client-id", devClientID, "App client id to register")
	poolID := flag.String("pool-id", devPoolID, "User pool the client belongs to")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logging: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn("STORE_BACKEND=memory; seeded data is lost when this process exits")
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("app", zap.Error(err))
	}
	defer a.Close()

	pool, err := a.Resolver.GetUserPool(ctx, *poolID)
	if err != nil {
		logger.Fatal("user pool", zap.Error(err))
	}
	now := a.Clock.Now()

	client, err := appclientdomain.NewAppClient(*clientID, "dev", *poolID, now)
	if err != nil {
		logger.Fatal("app client", zap.Error(err))
	}
	if err := pool.SaveAppClient(ctx, client); err != nil {
		logger.Fatal("save app client", zap.Error(err))
	}

	code, err := mfa.GenerateOTP()
	if err != nil {
		logger.Fatal("generate otp", zap.Error(err))
	}
	users := []userpooldomain.User{
		{
			Username:   devNewPasswordUser,
			Password:   devTempPassword,
			Enabled:    true,
			UserStatus: userpooldomain.UserStatusForceChangePassword,
			Attributes: []userpooldomain.Attribute{
				{Name: "sub", Value: uuid.NewString()},
				{Name: userpooldomain.UsernameAttributeEmail, Value: devNewPasswordUser},
			},
			UserCreateDate: now,
		},
		{
			Username:   devMFAUser,
			Enabled:    true,
			UserStatus: userpooldomain.UserStatusConfirmed,
			MFACode:    userpooldomain.NewPendingCode(code),
			Attributes: []userpooldomain.Attribute{
				{Name: "sub", Value: uuid.NewString()},
				{Name: userpooldomain.UsernameAttributeEmail, Value: devMFAUser},
				{Name: userpooldomain.UsernameAttributePhoneNumber, Value: devPhoneNumber},
			},
			UserCreateDate: now,
		},
	}
	for i := range users {
		if err := pool.SaveUser(ctx, &users[i]); err != nil {
			logger.Fatal("save user", zap.String("username", users[i].Username), zap.Error(err))
		}
	}

	fmt.Printf("client %s registered in pool %s\n", *clientID, *poolID)
	fmt.Printf("  %s: NEW_PASSWORD_REQUIRED (temporary password %s)\n", devNewPasswordUser, devTempPassword)
	fmt.Printf("  %s: SMS_MFA (code %s)\n", devMFAUser, code)
}
