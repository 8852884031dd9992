package refresh

import (
	"slices"
	"strings"
)

// Persisted settings keys. They double as the form field identifiers.
const (
	KeyServer       = "settings-server"
	KeyEmailAddress = "settings-email-address"
	KeyPassword     = "settings-password"
	KeyPAT          = "settings-pat"
	KeySite         = "settings-site"
	KeyEntityName   = "settings-entity-name"
	KeyType         = "settings-type"
)

// Option identifiers stored under KeyType.
const (
	TypeDataSource = "settings-type-datasource"
	TypeWorkbook   = "settings-type-workbook"
)

// FieldKeys lists the free-text fields bound to the settings store, in form order.
func FieldKeys() []string {
	return []string{
		KeyServer,
		KeyEmailAddress,
		KeyPassword,
		KeyPAT,
		KeySite,
		KeyEntityName,
	}
}

// TypeOptions lists the exclusive choices bound to KeyType.
func TypeOptions() []string {
	return []string{TypeDataSource, TypeWorkbook}
}

// AllKeys lists every persisted key: the form fields followed by KeyType.
func AllKeys() []string {
	return append(FieldKeys(), KeyType)
}

// KnownKey reports whether key is one of the bound settings keys.
func KnownKey(key string) bool {
	return slices.Contains(AllKeys(), key)
}

// RefreshTarget selects what the upstream reload addresses.
type RefreshTarget string

const (
	TargetUnset      RefreshTarget = ""
	TargetDataSource RefreshTarget = "datasource"
	TargetWorkbook   RefreshTarget = "workbook"
)

// SettingsConfig is a typed snapshot of the persisted settings.
type SettingsConfig struct {
	Server     string
	Email      string
	Password   string
	PAT        string
	Site       string
	EntityName string
	Type       string
}

// LoadSettingsConfig reads every bound key from settings.
func LoadSettingsConfig(settings Settings) SettingsConfig {
	if settings == nil {
		return SettingsConfig{}
	}
	return SettingsConfig{
		Server:     settings.Get(KeyServer),
		Email:      settings.Get(KeyEmailAddress),
		Password:   settings.Get(KeyPassword),
		PAT:        settings.Get(KeyPAT),
		Site:       settings.Get(KeySite),
		EntityName: settings.Get(KeyEntityName),
		Type:       settings.Get(KeyType),
	}
}

// Configured reports whether any credential or target hint is present:
// email with password, a personal access token, a site, or an entity name.
func (c SettingsConfig) Configured() bool {
	return (c.Email != "" && c.Password != "") ||
		c.PAT != "" ||
		c.Site != "" ||
		c.EntityName != ""
}

// Target resolves the type selector.
func (c SettingsConfig) Target() RefreshTarget {
	switch strings.TrimSpace(c.Type) {
	case TypeDataSource:
		return TargetDataSource
	case TypeWorkbook:
		return TargetWorkbook
	default:
		return TargetUnset
	}
}

// IsDataSource reports whether the selector points at data-source mode.
func (c SettingsConfig) IsDataSource() bool {
	return c.Target() == TargetDataSource
}
