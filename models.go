package gateway

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// User is derived exclusively from a valid token plus provider-specific
// enrichment (e.g. the GitHub avatar fetch). Created on successful
// login/verify/refresh, cleared on logout or invalidation.
type User struct {
	Username  string `json:"username"`
	IsAdmin   bool   `json:"is_admin,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PluginConfig is created by a plugin route-registration message, keyed
// uniquely by Link. Duplicate Link registrations are rejected and logged,
// never silently merged.
type PluginConfig struct {
	Plugin       string `json:"plugin"`
	Link         string `json:"link"`
	Section      string `json:"section"`
	DisplayName  string `json:"displayName"`
	Order        int    `json:"order"`
	Admin        bool   `json:"admin,omitempty"`
	Unauthorised bool   `json:"unauthorised,omitempty"`
	HideFromMenu bool   `json:"hideFromMenu,omitempty"`
	LogoLightURL string `json:"logoLightMode,omitempty"`
	LogoDarkURL  string `json:"logoDarkMode,omitempty"`
	LogoAltText  string `json:"logoAltText,omitempty"`
	HelpText     string `json:"helpText,omitempty"`
}

// Validate enforces the minimum shape a registration must carry.
func (p PluginConfig) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Plugin, validation.Required),
		validation.Field(&p.Link, validation.Required),
		validation.Field(&p.Section, validation.Required),
		validation.Field(&p.DisplayName, validation.Required),
	)
}

// NotificationSeverity levels understood by the shell.
type NotificationSeverity string

const (
	SeverityInfo    NotificationSeverity = "information"
	SeverityWarning NotificationSeverity = "warning"
	SeverityError   NotificationSeverity = "error"
)

// Notification is a user-facing message raised by the shell or forwarded
// from a plugin.
type Notification struct {
	Message  string               `json:"message"`
	Severity NotificationSeverity `json:"severity"`
}

// Toastable reports whether the notification should also surface as a
// transient toast.
func (n Notification) Toastable() bool {
	return n.Severity == SeverityError || n.Severity == SeverityWarning
}

// MaintenanceState mirrors the backend's maintenance documents. Both the
// live and the scheduled variants share this shape.
type MaintenanceState struct {
	Show    bool   `json:"show"`
	Message string `json:"message"`
}

// HelpTourStep is a guided-tour entry. Steps synthesized from plugin
// registrations key their target by a selector derived from the route.
type HelpTourStep struct {
	Target  string `json:"target"`
	Content string `json:"content"`
}

// PluginDef is one entry of the site configuration's plugin list.
type PluginDef struct {
	Name     string `json:"name"`
	Src      string `json:"src"`
	Enable   bool   `json:"enable"`
	Location string `json:"location"`
}

// Validate checks a plugin declaration before the loader touches it.
func (p PluginDef) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.Src, validation.Required, is.RequestURI),
	)
}

// DisplayPreferences holds the resolved dark-mode/high-contrast choice.
type DisplayPreferences struct {
	DarkMode     bool
	HighContrast bool
}
