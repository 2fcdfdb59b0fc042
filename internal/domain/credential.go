package domain

// Credential is opaque to the session core and lives only for one connect call.
type Credential struct {
	AccessToken  string
	TransportURL string
}

func (c Credential) Complete() bool {
	return c.AccessToken != "" && c.TransportURL != ""
}
