package oauth2client

// AppSecrets holds the application credentials used to sign token requests.
// It is immutable after construction.
type AppSecrets struct {
	clientID     string
	clientSecret *string
}

// NewAppSecrets creates secrets for a confidential application.
func NewAppSecrets(clientID, clientSecret string) AppSecrets {
	return AppSecrets{clientID: clientID, clientSecret: &clientSecret}
}

// NewPublicAppSecrets creates secrets for an application without a client secret
// (installed apps). The secret half of the Basic credentials is sent empty.
func NewPublicAppSecrets(clientID string) AppSecrets {
	return AppSecrets{clientID: clientID}
}

// ClientID returns the OAuth2 client identifier.
func (s AppSecrets) ClientID() string {
	return s.clientID
}

// ClientSecret returns the client secret and whether one was configured.
func (s AppSecrets) ClientSecret() (string, bool) {
	if s.clientSecret == nil {
		return "", false
	}
	return *s.clientSecret, true
}

// valid reports whether the secrets can sign a request.
func (s AppSecrets) valid() bool {
	return s.clientID != ""
}
