package domain

// MFAConfiguration is the pool-level MFA mode.
type MFAConfiguration string

const (
	MFAOff      MFAConfiguration = "OFF"
	MFAOn       MFAConfiguration = "ON"
	MFAOptional MFAConfiguration = "OPTIONAL"
)

// Username attributes that may be used in place of the username when looking up a user.
const (
	UsernameAttributeEmail       = "email"
	UsernameAttributePhoneNumber = "phone_number"
)

// DefaultConfig carries every pool setting except the pool id. It is shared by all pools a resolver builds.
type DefaultConfig struct {
	UsernameAttributes     []string         `json:"UsernameAttributes,omitempty"`
	MfaConfiguration       MFAConfiguration `json:"MfaConfiguration,omitempty"`
	AutoVerifiedAttributes []string         `json:"AutoVerifiedAttributes,omitempty"`
}

// Config is the full configuration of one user pool.
type Config struct {
	Id string `json:"Id"`
	DefaultConfig
}

// NewConfig merges defaults with id. Id is always taken from the argument; every other field comes from defaults.
// Slices are copied so pools never share backing arrays with the defaults.
func NewConfig(defaults DefaultConfig, id string) Config {
	d := defaults
	d.UsernameAttributes = append([]string(nil), defaults.UsernameAttributes...)
	d.AutoVerifiedAttributes = append([]string(nil), defaults.AutoVerifiedAttributes...)
	if d.MfaConfiguration == "" {
		d.MfaConfiguration = MFAOff
	}
	return Config{Id: id, DefaultConfig: d}
}

// AllowsUsernameAttribute reports whether attr is configured as a username alias.
func (c Config) AllowsUsernameAttribute(attr string) bool {
	for _, a := range c.UsernameAttributes {
		if a == attr {
			return true
		}
	}
	return false
}
