package opcua

import (
	"fmt"

	"github.com/gopcua/opcua/ua"
)

// SecurityPolicy is the closed set of supported security policies, resolved
// at configuration time instead of by runtime name lookup.
type SecurityPolicy int

const (
	PolicyNone SecurityPolicy = iota
	PolicyBasic256
	PolicyBasic256Sha256
	PolicyAes128Sha256RsaOaep
	PolicyAes256Sha256RsaPss
)

const policyURIPrefix = "http://opcfoundation.org/UA/SecurityPolicy#"

func (p SecurityPolicy) String() string {
	switch p {
	case PolicyNone:
		return "None"
	case PolicyBasic256:
		return "Basic256"
	case PolicyBasic256Sha256:
		return "Basic256Sha256"
	case PolicyAes128Sha256RsaOaep:
		return "Aes128_Sha256_RsaOaep"
	case PolicyAes256Sha256RsaPss:
		return "Aes256_Sha256_RsaPss"
	default:
		return fmt.Sprintf("SecurityPolicy(%d)", int(p))
	}
}

// URI returns the full OPC UA security policy URI.
func (p SecurityPolicy) URI() string { return policyURIPrefix + p.String() }

// ParsePolicy maps a configured policy name to its enum value.
func ParsePolicy(name string) (SecurityPolicy, error) {
	switch name {
	case "", "None":
		return PolicyNone, nil
	case "Basic256":
		return PolicyBasic256, nil
	case "Basic256Sha256":
		return PolicyBasic256Sha256, nil
	case "Aes128_Sha256_RsaOaep":
		return PolicyAes128Sha256RsaOaep, nil
	case "Aes256_Sha256_RsaPss":
		return PolicyAes256Sha256RsaPss, nil
	default:
		return PolicyNone, fmt.Errorf("unsupported security policy %q", name)
	}
}

// SecurityMode is the closed set of supported message security modes.
type SecurityMode int

const (
	ModeNone SecurityMode = iota
	ModeSign
	ModeSignAndEncrypt
)

func (m SecurityMode) String() string {
	switch m {
	case ModeNone:
		return "None"
	case ModeSign:
		return "Sign"
	case ModeSignAndEncrypt:
		return "SignAndEncrypt"
	default:
		return fmt.Sprintf("SecurityMode(%d)", int(m))
	}
}

func (m SecurityMode) uaMode() ua.MessageSecurityMode {
	switch m {
	case ModeSign:
		return ua.MessageSecurityModeSign
	case ModeSignAndEncrypt:
		return ua.MessageSecurityModeSignAndEncrypt
	default:
		return ua.MessageSecurityModeNone
	}
}

// ParseMode maps a configured mode name to its enum value.
func ParseMode(name string) (SecurityMode, error) {
	switch name {
	case "", "None":
		return ModeNone, nil
	case "Sign":
		return ModeSign, nil
	case "SignAndEncrypt":
		return ModeSignAndEncrypt, nil
	default:
		return ModeNone, fmt.Errorf("unsupported security mode %q", name)
	}
}
