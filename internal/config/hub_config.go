package config

type HubConfig interface {
	GetAPIBaseURL() string
	GetAccountURL() string
	GetActivityLimit() int
}

type Hub struct {
	file *File
}

var _ HubConfig = Hub{}

func (h Hub) GetAPIBaseURL() string {
	return GetEnv("API_BASE_URL", h.file.Hub.APIBaseURL, "https://api.nightcord.de5.net")
}

// GetAccountURL is where the "account settings" button sends the user.
func (h Hub) GetAccountURL() string {
	return GetEnv("ACCOUNT_URL", h.file.Hub.AccountURL, defaultIdentityURL)
}

func (h Hub) GetActivityLimit() int {
	return getEnvInt("ACTIVITY_LIMIT", h.file.Hub.ActivityLimit, 20)
}
