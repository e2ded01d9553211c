// Package domain holds the challenge-response request and result types.
package domain

import (
	userpooldomain "userpool-emulator/internal/userpool/domain"
)

// ChallengeName identifies an authentication challenge. Only the constants below are supported.
type ChallengeName string

const (
	ChallengeSMSMFA              ChallengeName = "SMS_MFA"
	ChallengeNewPasswordRequired ChallengeName = "NEW_PASSWORD_REQUIRED"
)

// Challenges lists every supported challenge.
var Challenges = []ChallengeName{ChallengeSMSMFA, ChallengeNewPasswordRequired}

// ParseChallengeName maps s onto a supported challenge. ok is false for anything else.
func ParseChallengeName(s string) (name ChallengeName, ok bool) {
	for _, c := range Challenges {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

// Challenge response field names.
const (
	ResponseUsername    = "USERNAME"
	ResponseSMSMFACode  = "SMS_MFA_CODE"
	ResponseNewPassword = "NEW_PASSWORD"
)

// Request is one RespondToAuthChallenge call.
type Request struct {
	ClientID           string            `json:"ClientId"`
	ChallengeName      string            `json:"ChallengeName"`
	Session            string            `json:"Session"`
	ChallengeResponses map[string]string `json:"ChallengeResponses"`
}

// Response is returned when a challenge is satisfied.
type Response struct {
	ChallengeParameters  map[string]string                    `json:"ChallengeParameters"`
	AuthenticationResult *userpooldomain.AuthenticationResult `json:"AuthenticationResult"`
}
