package schemas

import (
	"encoding/json"
)

// -- Browser Persona Schemas --

// Persona describes the identity the in-process window presents to scripts
// (navigator fields and the initial viewport).
type Persona struct {
	UserAgent           string   `json:"userAgent" mapstructure:"user_agent"`
	Platform            string   `json:"platform" mapstructure:"platform"`
	Languages           []string `json:"languages" mapstructure:"languages"`
	Width               int64    `json:"width" mapstructure:"width"`
	Height              int64    `json:"height" mapstructure:"height"`
	DevicePixelRatio    float64  `json:"devicePixelRatio" mapstructure:"device_pixel_ratio"`
	HardwareConcurrency int64    `json:"hardwareConcurrency" mapstructure:"hardware_concurrency"`
}

// DefaultPersona provides a fallback persona if none is specified.
var DefaultPersona = Persona{
	UserAgent:           "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) webbind/1.0 Safari/537.36",
	Platform:            "Linux x86_64",
	Languages:           []string{"en-US", "en"},
	Width:               1024,
	Height:              768,
	DevicePixelRatio:    1,
	HardwareConcurrency: 4,
}

// -- History Schemas --

// HistoryEntry is a snapshot of one entry of the session history as seen by the host.
type HistoryEntry struct {
	State json.RawMessage `json:"state"`
	Title string          `json:"title"`
	URL   string          `json:"url"`
}

// ScrollRestoration mirrors History.scrollRestoration.
type ScrollRestoration string

const (
	ScrollRestorationAuto   ScrollRestoration = "auto"
	ScrollRestorationManual ScrollRestoration = "manual"
)

// -- Document Schemas --

// DocumentReadyState mirrors Document.readyState.
type DocumentReadyState string

const (
	ReadyStateLoading     DocumentReadyState = "loading"
	ReadyStateInteractive DocumentReadyState = "interactive"
	ReadyStateComplete    DocumentReadyState = "complete"
)

// VisibilityState mirrors Document.visibilityState.
type VisibilityState string

const (
	VisibilityVisible VisibilityState = "visible"
	VisibilityHidden  VisibilityState = "hidden"
)

// ScrollBehavior mirrors the behavior member of ScrollToOptions.
type ScrollBehavior string

const (
	ScrollBehaviorAuto    ScrollBehavior = "auto"
	ScrollBehaviorInstant ScrollBehavior = "instant"
	ScrollBehaviorSmooth  ScrollBehavior = "smooth"
)

// ScrollToOptions is the dictionary accepted by Window.scrollTo and scrollBy. A nil
// coordinate is left out, so scrollTo keeps that axis where it is.
type ScrollToOptions struct {
	Left     *float64       `json:"left,omitempty"`
	Top      *float64       `json:"top,omitempty"`
	Behavior ScrollBehavior `json:"behavior,omitempty"`
}

// ScrollIntoViewOptions is the dictionary accepted by Element.scrollIntoView.
type ScrollIntoViewOptions struct {
	Behavior ScrollBehavior `json:"behavior,omitempty"`
	Block    string         `json:"block,omitempty"`
	Inline   string         `json:"inline,omitempty"`
}

// DOMRect mirrors the value returned by Element.getBoundingClientRect.
type DOMRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// -- Permissions Schemas --

// PermissionState mirrors PermissionStatus.state.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionPrompt  PermissionState = "prompt"
)

// Valid reports whether s is one of the three states defined for PermissionStatus.
func (s PermissionState) Valid() bool {
	switch s {
	case PermissionGranted, PermissionDenied, PermissionPrompt:
		return true
	}
	return false
}

// PermissionNames lists the PermissionName values recognised by the in-process host.
var PermissionNames = []string{
	"accelerometer",
	"background-sync",
	"camera",
	"clipboard-read",
	"clipboard-write",
	"geolocation",
	"gyroscope",
	"idle-detection",
	"local-fonts",
	"magnetometer",
	"microphone",
	"midi",
	"notifications",
	"payment-handler",
	"persistent-storage",
	"push",
	"screen-wake-lock",
	"storage-access",
	"window-management",
}
