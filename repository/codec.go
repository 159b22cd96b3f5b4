package repository

import (
	"encoding/json"
	"fmt"
)

// envelope is the persisted form of a credential.
type envelope struct {
	Kind Kind            `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// EncodeCredentials serializes a credential together with its kind.
func EncodeCredentials(c Credentials) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("repository: encode nil credentials")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("repository: encode %s credentials: %w", c.Kind(), err)
	}
	return json.Marshal(envelope{Kind: c.Kind(), Data: data})
}

// DecodeCredentials restores a credential written by EncodeCredentials.
func DecodeCredentials(raw []byte) (Credentials, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("repository: decode credentials: %w", err)
	}
	switch env.Kind {
	case KindUser:
		return decodeAs[UserCredentials](env)
	case KindCertificate:
		return decodeAs[CertificateCredentials](env)
	case KindOpenID:
		return decodeAs[OpenIDCredentials](env)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}

func decodeAs[T Credentials](env envelope) (Credentials, error) {
	var v T
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return nil, fmt.Errorf("repository: decode %s credentials: %w", env.Kind, err)
	}
	return v, nil
}
