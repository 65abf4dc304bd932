package authserver

// registrationRequest is the RFC 7591 dynamic client registration request
// body.
type registrationRequest struct {
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method,omitempty"`
}

// registrationResponse is the RFC 7591 registration response. ClientSecret
// is populated only on the single response where it is minted.
type registrationResponse struct {
	ClientID                string   `json:"client_id"`
	ClientSecret            string   `json:"client_secret,omitempty"`
	ClientSecretExpiresAt   int64    `json:"client_secret_expires_at"`
	RedirectURIs            []string `json:"redirect_uris"`
	ClientName              string   `json:"client_name,omitempty"`
	GrantTypes              []string `json:"grant_types"`
	ResponseTypes           []string `json:"response_types"`
	TokenEndpointAuthMethod string   `json:"token_endpoint_auth_method"`
}

// tokenResponse is the RFC 6749 §5.1 access token response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope"`
}

// oauthError is the RFC 6749 §5.2 error response body.
type oauthError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// introspectionResponse is the RFC 7662 response.
type introspectionResponse struct {
	Active   bool     `json:"active"`
	Issuer   string   `json:"iss,omitempty"`
	Subject  string   `json:"sub,omitempty"`
	Audience []string `json:"aud,omitempty"`
	ClientID string   `json:"client_id,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	ExpireAt int64    `json:"exp,omitempty"`
	IssuedAt int64    `json:"iat,omitempty"`
}

// authServerMetadata is the RFC 8414 discovery document.
type authServerMetadata struct {
	Issuer                              string   `json:"issuer"`
	AuthorizationEndpoint               string   `json:"authorization_endpoint"`
	TokenEndpoint                       string   `json:"token_endpoint"`
	RegistrationEndpoint                string   `json:"registration_endpoint"`
	IntrospectionEndpoint               string   `json:"introspection_endpoint"`
	ResponseTypesSupported              []string `json:"response_types_supported"`
	GrantTypesSupported                 []string `json:"grant_types_supported"`
	CodeChallengeMethodsSupported       []string `json:"code_challenge_methods_supported"`
	TokenEndpointAuthMethodsSupported   []string `json:"token_endpoint_auth_methods_supported"`
	ScopesSupported                     []string `json:"scopes_supported"`
	ClientIDMetadataDocumentSupported   bool     `json:"client_id_metadata_document_supported"`
}

// protectedResourceMetadata is the RFC 9728 discovery document.
type protectedResourceMetadata struct {
	Resource               string   `json:"resource"`
	AuthorizationServers   []string `json:"authorization_servers"`
	BearerMethodsSupported []string `json:"bearer_methods_supported"`
	ScopesSupported        []string `json:"scopes_supported"`
	ResourceDocumentation  string   `json:"resource_documentation,omitempty"`
}
