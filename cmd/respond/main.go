// respond answers one authentication challenge and prints the response as JSON.
//
// It needs STORE_BACKEND=redis or postgres holding clients and users written by cmd/seed; a memory store
// starts empty in every process, so it is refused.
//
//	STORE_BACKEND=redis REDIS_ADDR=localhost:6379 go run ./cmd/seed
//	STORE_BACKEND=redis REDIS_ADDR=localhost:6379 go run ./cmd/respond -client-id dev-client-001 -challenge SMS_MFA -username mfa@example.com -code 123456
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"userpool-emulator/internal/apierror"
	"userpool-emulator/internal/app"
	challengedomain "userpool-emulator/internal/challenge/domain"
	"userpool-emulator/internal/config"
	"userpool-emulator/internal/logging"
	"userpool-emulator/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	clientID := flag.String("client-id", "", "App client id")
	challenge := flag.String("challenge", string(challengedomain.ChallengeSMSMFA), "Challenge name (SMS_MFA or NEW_PASSWORD_REQUIRED)")
	session := flag.String("session", "cli", "Session token from the challenge")
	username := flag.String("username", "", "USERNAME response")
	code := flag.String("code", "", "SMS_MFA_CODE response")
	newPassword := flag.String("new-password", "", "NEW_PASSWORD response")
	flag.Parse()

	os.Exit(run(*clientID, *challenge, *session, *username, *code, *newPassword))
}

func run(clientID, challenge, session, username, code, newPassword string) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("config: %v", err)
		return 1
	}
	if err := checkBackend(cfg); err != nil {
		log.Printf("respond: %v", err)
		return 1
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Printf("logging: %v", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()
	providers, err := telemetry.NewProviders(ctx, cfg.OTelEndpoint, "userpool-emulator", cfg.OTelInsecure, logger)
	if err != nil {
		logger.Error("telemetry", zap.Error(err))
		return 1
	}
	providers.SetGlobal()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = providers.Shutdown(shutdownCtx)
	}()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("app", zap.Error(err))
		return 1
	}
	defer a.Close()

	responses := map[string]string{}
	for k, v := range map[string]string{
		challengedomain.ResponseUsername:    username,
		challengedomain.ResponseSMSMFACode:  code,
		challengedomain.ResponseNewPassword: newPassword,
	} {
		if v != "" {
			responses[k] = v
		}
	}
	resp, err := a.Challenges.RespondToAuthChallenge(ctx, &challengedomain.Request{
		ClientID:           clientID,
		ChallengeName:      challenge,
		Session:            session,
		ChallengeResponses: responses,
	})
	if err != nil {
		kind := apierror.KindOf(err)
		fmt.Fprintf(os.Stderr, "%s (%s): %v\n", kind.Name(), kind.GRPCCode(), err)
		return 2
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		logger.Error("encode response", zap.Error(err))
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// checkBackend rejects the memory backend, which holds no seeded clients in a fresh process.
func checkBackend(cfg *config.Config) error {
	if cfg.StoreBackend == config.BackendMemory {
		return errors.New("STORE_BACKEND=memory starts empty in every process; use redis or postgres after running cmd/seed")
	}
	return nil
}
