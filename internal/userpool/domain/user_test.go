package domain

import (
	"encoding/json"
	"testing"
)

func TestPendingCode_JSON(t *testing.T) {
	u := User{Username: "alice", MFACode: NewPendingCode("123456")}
	data, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var back User
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	code, ok := back.MFACode.Get()
	if !ok || code != "123456" {
		t.Errorf("MFACode = %q, %v; want 123456, true", code, ok)
	}

	u.MFACode = NoPendingCode
	data, err = json.Marshal(u)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal raw: %v", err)
	}
	if v, present := raw["MFACode"]; !present || v != nil {
		t.Errorf("cleared MFACode encodes as %v, want null", v)
	}
}

func TestPendingCode_EmptyStringIsStillPending(t *testing.T) {
	var p PendingCode
	if err := json.Unmarshal([]byte(`""`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !p.IsPending() {
		t.Error("an explicit empty code is a pending state distinct from no code")
	}
}

func TestPendingCode_MissingFieldIsNotPending(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"Username":"bob"}`), &u); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if u.MFACode.IsPending() {
		t.Error("missing MFACode should decode as not pending")
	}
}

func TestUser_AttributeAndClone(t *testing.T) {
	u := &User{Username: "alice", Attributes: []Attribute{{Name: "sub", Value: "abc"}, {Name: "email", Value: "a@example.com"}}}
	if v, ok := u.Attribute("email"); !ok || v != "a@example.com" {
		t.Errorf("Attribute(email) = %q, %v", v, ok)
	}
	if _, ok := u.Attribute("phone_number"); ok {
		t.Error("Attribute(phone_number) should be absent")
	}
	c := u.Clone()
	c.Attributes[0].Value = "changed"
	if u.Attributes[0].Value != "abc" {
		t.Error("Clone must not share attributes with the original")
	}
}

func TestNewConfig(t *testing.T) {
	defaults := DefaultConfig{UsernameAttributes: []string{UsernameAttributeEmail}}
	cfg := NewConfig(defaults, "local_abc")
	if cfg.Id != "local_abc" {
		t.Errorf("Id = %q, want local_abc", cfg.Id)
	}
	if cfg.MfaConfiguration != MFAOff {
		t.Errorf("MfaConfiguration = %q, want OFF", cfg.MfaConfiguration)
	}
	if !cfg.AllowsUsernameAttribute(UsernameAttributeEmail) || cfg.AllowsUsernameAttribute(UsernameAttributePhoneNumber) {
		t.Errorf("unexpected username attributes %v", cfg.UsernameAttributes)
	}
	cfg.UsernameAttributes[0] = "mutated"
	if defaults.UsernameAttributes[0] != UsernameAttributeEmail {
		t.Error("NewConfig must copy slices from defaults")
	}
}
