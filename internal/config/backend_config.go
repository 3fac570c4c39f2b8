package config

const (
	apiBaseURLVar  = "API_BASE_URL"
	apiKeyVar      = "API_KEY"
	oidcIssuerVar  = "OIDC_ISSUER"
	httpTimeoutVar = "HTTP_TIMEOUT_SECONDS"
)

// Backend holds the connection settings for the remote identity provider
// and content store.
type Backend struct{}

var _ BackendConfig = Backend{}

// GetAPIBaseURL returns the base URL of the backend API
// (e.g., "https://project.example.co"). Auth and content endpoints hang
// off this URL.
func (Backend) GetAPIBaseURL() string {
	return GetEnv(apiBaseURLVar, "http://localhost:54321")
}

// GetAPIKey returns the publishable API key sent with every request.
func (Backend) GetAPIKey() string {
	return GetEnv(apiKeyVar, "")
}

// GetOIDCIssuer returns the OIDC issuer URL used to verify access tokens.
// Empty disables verification (claims are still parsed).
func (Backend) GetOIDCIssuer() string {
	return GetEnv(oidcIssuerVar, "")
}

func (Backend) GetHTTPTimeoutSeconds() int {
	return GetEnvInt(httpTimeoutVar, 30)
}
