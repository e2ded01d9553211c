package domain

import (
	"errors"
	"time"
)

// AppClient is an application registered against exactly one user pool.
// Stored under Clients.<ClientId> in the clients namespace; the resolver only reads it.
type AppClient struct {
	ClientId         string    `json:"ClientId"`
	ClientName       string    `json:"ClientName"`
	UserPoolId       string    `json:"UserPoolId"`
	CreationDate     time.Time `json:"CreationDate"`
	LastModifiedDate time.Time `json:"LastModifiedDate"`
}

// NewAppClient builds a client registration created at now.
func NewAppClient(clientID, name, userPoolID string, now time.Time) (*AppClient, error) {
	c := &AppClient{
		ClientId:         clientID,
		ClientName:       name,
		UserPoolId:       userPoolID,
		CreationDate:     now,
		LastModifiedDate: now,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate reports the first missing identifier.
func (c *AppClient) Validate() error {
	if c.ClientId == "" {
		return errors.New("client id is required")
	}
	if c.UserPoolId == "" {
		return errors.New("user pool id is required")
	}
	return nil
}
