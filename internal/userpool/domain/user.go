package domain

import (
	"encoding/json"
	"time"
)

// UserStatus is the lifecycle state of a user.
type UserStatus string

const (
	UserStatusUnconfirmed         UserStatus = "UNCONFIRMED"
	UserStatusConfirmed           UserStatus = "CONFIRMED"
	UserStatusArchived            UserStatus = "ARCHIVED"
	UserStatusCompromised         UserStatus = "COMPROMISED"
	UserStatusUnknown             UserStatus = "UNKNOWN"
	UserStatusResetRequired       UserStatus = "RESET_REQUIRED"
	UserStatusForceChangePassword UserStatus = "FORCE_CHANGE_PASSWORD"
)

// Attribute is a single user attribute such as sub or email.
type Attribute struct {
	Name  string `json:"Name"`
	Value string `json:"Value"`
}

// User is one end-user within a pool. Stored under Users.<Username> in the pool namespace.
//
// Password holds whatever the password encoder produced; with the default encoder that is the value the user supplied.
type User struct {
	Username             string      `json:"Username"`
	Password             string      `json:"Password"`
	Attributes           []Attribute `json:"Attributes"`
	Enabled              bool        `json:"Enabled"`
	UserStatus           UserStatus  `json:"UserStatus"`
	MFACode              PendingCode `json:"MFACode"`
	UserCreateDate       time.Time   `json:"UserCreateDate"`
	UserLastModifiedDate time.Time   `json:"UserLastModifiedDate"`
}

// Attribute returns the value of the named attribute.
func (u *User) Attribute(name string) (string, bool) {
	for _, a := range u.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Clone returns a copy that shares no slices with u.
func (u *User) Clone() *User {
	c := *u
	if u.Attributes != nil {
		c.Attributes = append([]Attribute(nil), u.Attributes...)
	}
	return &c
}

// PendingCode is an MFA code that may or may not be outstanding.
// The zero value means no challenge is pending. It encodes as a JSON string or null.
type PendingCode struct {
	code    string
	pending bool
}

// NoPendingCode is the state after a challenge has been satisfied.
var NoPendingCode = PendingCode{}

// NewPendingCode marks code as the outstanding MFA code.
func NewPendingCode(code string) PendingCode {
	return PendingCode{code: code, pending: true}
}

// Get returns the pending code and whether one is pending.
func (p PendingCode) Get() (string, bool) {
	return p.code, p.pending
}

// IsPending reports whether a code is outstanding.
func (p PendingCode) IsPending() bool {
	return p.pending
}

// MarshalJSON encodes a pending code as its string value and no code as null.
func (p PendingCode) MarshalJSON() ([]byte, error) {
	if !p.pending {
		return []byte("null"), nil
	}
	return json.Marshal(p.code)
}

// UnmarshalJSON accepts a string or null.
func (p *PendingCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = NoPendingCode
		return nil
	}
	var code string
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*p = NewPendingCode(code)
	return nil
}
