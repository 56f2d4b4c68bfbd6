package types

// Config represents the application configuration that can be loaded from a file.
type Config struct {
	APIBaseURL            string         `json:"api_base_url" yaml:"api_base_url" toml:"api_base_url"`
	RequestTimeoutSeconds int            `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	PreviewRows           int            `json:"preview_rows" yaml:"preview_rows" toml:"preview_rows"`
	LegacyQuarterLabels   bool           `json:"legacy_quarter_labels" yaml:"legacy_quarter_labels" toml:"legacy_quarter_labels"`
	DefaultPeriod         string         `json:"default_period" yaml:"default_period" toml:"default_period"`
	ReportDir             string         `json:"report_dir" yaml:"report_dir" toml:"report_dir"`
	ReportType            []string       `json:"report_type" yaml:"report_type" toml:"report_type"`
	Identity              IdentityConfig `json:"identity" yaml:"identity" toml:"identity"`
	Staging               StagingConfig  `json:"staging" yaml:"staging" toml:"staging"`
}

// IdentityConfig configura como o token de identidade é obtido.
type IdentityConfig struct {
	// Mode: "static" (id_token fixo) ou "oauth2" (refresh token no token endpoint).
	Mode         string `json:"mode" yaml:"mode" toml:"mode"`
	IDToken      string `json:"id_token" yaml:"id_token" toml:"id_token"`
	Issuer       string `json:"issuer" yaml:"issuer" toml:"issuer"`
	ClientID     string `json:"client_id" yaml:"client_id" toml:"client_id"`
	ClientSecret string `json:"client_secret" yaml:"client_secret" toml:"client_secret"`
	TokenURL     string `json:"token_url" yaml:"token_url" toml:"token_url"`
	RefreshToken string `json:"refresh_token" yaml:"refresh_token" toml:"refresh_token"`
}

// StagingConfig configures how bulk files reach the staging bucket.
type StagingConfig struct {
	// Mode: "presigned" (PUT na URL temporária) ou "s3" (upload direto com credenciais AWS).
	Mode         string `json:"mode" yaml:"mode" toml:"mode"`
	Profile      string `json:"profile" yaml:"profile" toml:"profile"`
	Region       string `json:"region" yaml:"region" toml:"region"`
	Endpoint     string `json:"endpoint" yaml:"endpoint" toml:"endpoint"`
	AccessKeyID  string `json:"access_key_id" yaml:"access_key_id" toml:"access_key_id"`
	SecretKey    string `json:"secret_access_key" yaml:"secret_access_key" toml:"secret_access_key"`
	UsePathStyle bool   `json:"use_path_style" yaml:"use_path_style" toml:"use_path_style"`
}

// DefaultConfig devolve a configuração padrão usada antes de arquivo/env/flags.
func DefaultConfig() *Config {
	return &Config{
		RequestTimeoutSeconds: 30,
		PreviewRows:           5,
		DefaultPeriod:         "weekly",
		ReportType:            []string{"csv"},
		Identity:              IdentityConfig{Mode: "static"},
		Staging:               StagingConfig{Mode: "presigned", Region: "us-east-2"},
	}
}

// Merge sobrescreve os campos de c com os valores não-vazios de other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.APIBaseURL != "" {
		c.APIBaseURL = other.APIBaseURL
	}
	if other.RequestTimeoutSeconds > 0 {
		c.RequestTimeoutSeconds = other.RequestTimeoutSeconds
	}
	if other.PreviewRows > 0 {
		c.PreviewRows = other.PreviewRows
	}
	if other.LegacyQuarterLabels {
		c.LegacyQuarterLabels = true
	}
	if other.DefaultPeriod != "" {
		c.DefaultPeriod = other.DefaultPeriod
	}
	if other.ReportDir != "" {
		c.ReportDir = other.ReportDir
	}
	if len(other.ReportType) > 0 {
		c.ReportType = other.ReportType
	}

	id := other.Identity
	if id.Mode != "" {
		c.Identity.Mode = id.Mode
	}
	if id.IDToken != "" {
		c.Identity.IDToken = id.IDToken
	}
	if id.Issuer != "" {
		c.Identity.Issuer = id.Issuer
	}
	if id.ClientID != "" {
		c.Identity.ClientID = id.ClientID
	}
	if id.ClientSecret != "" {
		c.Identity.ClientSecret = id.ClientSecret
	}
	if id.TokenURL != "" {
		c.Identity.TokenURL = id.TokenURL
	}
	if id.RefreshToken != "" {
		c.Identity.RefreshToken = id.RefreshToken
	}

	st := other.Staging
	if st.Mode != "" {
		c.Staging.Mode = st.Mode
	}
	if st.Profile != "" {
		c.Staging.Profile = st.Profile
	}
	if st.Region != "" {
		c.Staging.Region = st.Region
	}
	if st.Endpoint != "" {
		c.Staging.Endpoint = st.Endpoint
	}
	if st.AccessKeyID != "" {
		c.Staging.AccessKeyID = st.AccessKeyID
	}
	if st.SecretKey != "" {
		c.Staging.SecretKey = st.SecretKey
	}
	if st.UsePathStyle {
		c.Staging.UsePathStyle = true
	}
}
