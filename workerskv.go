package workerskv

import (
	"fmt"
	"net/http"
)

const (
	// DefaultHost is the Cloudflare API host used when Config.Host is empty.
	DefaultHost = "api.cloudflare.com"

	// basePathFormat is the account scoped root of all namespace routes.
	basePathFormat = "/client/v4/accounts/%s/storage/kv/namespaces"
)

// Header names used for authentication.
const (
	HeaderAuthorization = "Authorization"
	HeaderAuthEmail     = "X-Auth-Email"
	HeaderAuthKey       = "X-Auth-Key"
)

// Config provides the construction inputs for a Workers KV client.
type Config struct {
	// AccountID is the Cloudflare account owning the namespaces. Required.
	AccountID string

	// Email and AuthKey authenticate with a global API key. Both must be set
	// to use this scheme.
	Email   string
	AuthKey string

	// AuthToken authenticates with an API token. It takes priority over
	// Email and AuthKey when set.
	AuthToken string

	// NamespaceID is the default namespace used when an operation does not
	// name one.
	NamespaceID string

	// Host overrides the API host. If empty, DefaultHost is used.
	Host string
}

// RuntimeConfig is the immutable configuration shared by capability clients.
type RuntimeConfig struct {
	// AccountID is the Cloudflare account owning the namespaces.
	AccountID string

	// NamespaceID is the default namespace, possibly empty.
	NamespaceID string

	// Host is the API host requests are sent to.
	Host string

	// BasePath is the account scoped namespaces path.
	BasePath string

	// AuthHeaders holds the resolved authentication headers.
	AuthHeaders http.Header
}

// SDK holds the resolved runtime configuration.
type SDK struct {
	runtime RuntimeConfig
}

// Credentials selects one authentication scheme.
type Credentials struct {
	Email     string
	AuthKey   string
	AuthToken string
}

// Headers resolves the credentials into request headers. A token yields a
// bearer Authorization header; otherwise email and key yield the X-Auth-Email
// and X-Auth-Key pair.
func (c Credentials) Headers() (http.Header, error) {
	h := make(http.Header)
	if c.AuthToken != "" {
		h.Set(HeaderAuthorization, "Bearer "+c.AuthToken)
		return h, nil
	}

	if c.Email != "" && c.AuthKey != "" {
		h.Set(HeaderAuthEmail, c.Email)
		h.Set(HeaderAuthKey, c.AuthKey)
		return h, nil
	}

	return nil, ErrCredentialsRequired
}

// New validates the configuration and resolves authentication once.
func New(config Config) (*SDK, error) {
	// Validate AccountID is not empty
	if config.AccountID == "" {
		return nil, ErrAccountIDRequired
	}

	headers, err := Credentials{
		Email:     config.Email,
		AuthKey:   config.AuthKey,
		AuthToken: config.AuthToken,
	}.Headers()
	if err != nil {
		return nil, err
	}

	// Create runtime configuration with defaults
	cfg := RuntimeConfig{
		AccountID:   config.AccountID,
		NamespaceID: config.NamespaceID,
		Host:        DefaultHost,
		BasePath:    BasePath(config.AccountID),
		AuthHeaders: headers,
	}

	// Override defaults with provided configuration
	if config.Host != "" {
		cfg.Host = config.Host
	}

	return &SDK{runtime: cfg}, nil
}

// BasePath returns the namespaces route for an account.
func BasePath(accountID string) string {
	return fmt.Sprintf(basePathFormat, accountID)
}

// Config returns a copy of the runtime configuration snapshot.
func (s *SDK) Config() RuntimeConfig { return s.runtime.clone() }

func (r RuntimeConfig) clone() RuntimeConfig {
	r.AuthHeaders = r.AuthHeaders.Clone()
	return r
}
