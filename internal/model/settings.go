package model

import "fmt"

// SettingSiteName is the backend key holding the site title.
const SettingSiteName = "site_name"

// SettingsFromMap converts the loosely typed settings dictionary of the site
// info endpoint. The UI keys take precedence over the backend's storage keys.
func SettingsFromMap(m map[string]any) Settings {
	get := func(keys ...string) string {
		for _, k := range keys {
			if v, ok := m[k]; ok && v != nil {
				return fmt.Sprint(v)
			}
		}
		return ""
	}

	return Settings{
		SiteTitle:         get("site_title", SettingSiteName),
		AllowRegistration: get("allow_registration", "allow_registrations") == "true",
	}
}
