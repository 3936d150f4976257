package schemas

import "encoding/json"

// EventKind selects how the script side flattens a native event into a payload record.
// It is sent along with the listener registration so decoding never relies on sniffing
// the event object.
type EventKind string

const (
	KindEvent          EventKind = "event"
	KindMouse          EventKind = "mouse"
	KindPointer        EventKind = "pointer"
	KindWheel          EventKind = "wheel"
	KindKeyboard       EventKind = "keyboard"
	KindTouch          EventKind = "touch"
	KindFocus          EventKind = "focus"
	KindChange         EventKind = "change"
	KindProgress       EventKind = "progress"
	KindPopState       EventKind = "popstate"
	KindHashChange     EventKind = "hashchange"
	KindStorage        EventKind = "storage"
	KindError          EventKind = "error"
	KindPageTransition EventKind = "pagetransition"
)

// EventArgs holds the fields common to every event payload.
type EventArgs struct {
	Type             string  `json:"type"`
	TimeStamp        float64 `json:"timeStamp"`
	IsTrusted        bool    `json:"isTrusted"`
	Bubbles          bool    `json:"bubbles"`
	Cancelable       bool    `json:"cancelable"`
	DefaultPrevented bool    `json:"defaultPrevented"`
}

// Modifiers carries the modifier key flags shared by mouse, keyboard and touch events.
type Modifiers struct {
	CtrlKey  bool `json:"ctrlKey"`
	ShiftKey bool `json:"shiftKey"`
	AltKey   bool `json:"altKey"`
	MetaKey  bool `json:"metaKey"`
}

// MouseEventArgs is the payload of MouseEvent.
type MouseEventArgs struct {
	EventArgs
	Modifiers
	Detail    int64   `json:"detail"`
	ScreenX   float64 `json:"screenX"`
	ScreenY   float64 `json:"screenY"`
	ClientX   float64 `json:"clientX"`
	ClientY   float64 `json:"clientY"`
	OffsetX   float64 `json:"offsetX"`
	OffsetY   float64 `json:"offsetY"`
	PageX     float64 `json:"pageX"`
	PageY     float64 `json:"pageY"`
	MovementX float64 `json:"movementX"`
	MovementY float64 `json:"movementY"`
	Button    int64   `json:"button"`
	Buttons   int64   `json:"buttons"`
}

// PointerEventArgs is the payload of PointerEvent.
type PointerEventArgs struct {
	MouseEventArgs
	PointerID          int64   `json:"pointerId"`
	Width              float64 `json:"width"`
	Height             float64 `json:"height"`
	Pressure           float64 `json:"pressure"`
	TangentialPressure float64 `json:"tangentialPressure"`
	TiltX              float64 `json:"tiltX"`
	TiltY              float64 `json:"tiltY"`
	Twist              float64 `json:"twist"`
	PointerType        string  `json:"pointerType"`
	IsPrimary          bool    `json:"isPrimary"`
}

// WheelEventArgs is the payload of WheelEvent.
type WheelEventArgs struct {
	MouseEventArgs
	DeltaX    float64 `json:"deltaX"`
	DeltaY    float64 `json:"deltaY"`
	DeltaZ    float64 `json:"deltaZ"`
	DeltaMode int64   `json:"deltaMode"`
}

// KeyboardEventArgs is the payload of KeyboardEvent.
type KeyboardEventArgs struct {
	EventArgs
	Modifiers
	Key         string `json:"key"`
	Code        string `json:"code"`
	Location    int64  `json:"location"`
	Repeat      bool   `json:"repeat"`
	IsComposing bool   `json:"isComposing"`
}

// TouchPoint is one entry of a TouchList.
type TouchPoint struct {
	Identifier int64   `json:"identifier"`
	ScreenX    float64 `json:"screenX"`
	ScreenY    float64 `json:"screenY"`
	ClientX    float64 `json:"clientX"`
	ClientY    float64 `json:"clientY"`
	PageX      float64 `json:"pageX"`
	PageY      float64 `json:"pageY"`
}

// TouchEventArgs is the payload of TouchEvent.
type TouchEventArgs struct {
	EventArgs
	Modifiers
	Detail         int64        `json:"detail"`
	Touches        []TouchPoint `json:"touches"`
	TargetTouches  []TouchPoint `json:"targetTouches"`
	ChangedTouches []TouchPoint `json:"changedTouches"`
}

// FocusEventArgs is the payload of FocusEvent.
type FocusEventArgs struct {
	EventArgs
}

// ChangeEventArgs is the payload of input and change events. Value is the target's
// value at dispatch time, kept raw because checkboxes report booleans.
type ChangeEventArgs struct {
	EventArgs
	Value json.RawMessage `json:"value"`
}

// ProgressEventArgs is the payload of ProgressEvent.
type ProgressEventArgs struct {
	EventArgs
	LengthComputable bool    `json:"lengthComputable"`
	Loaded           float64 `json:"loaded"`
	Total            float64 `json:"total"`
}

// PopStateEventArgs is the payload of PopStateEvent.
type PopStateEventArgs struct {
	EventArgs
	State json.RawMessage `json:"state"`
}

// HashChangeEventArgs is the payload of HashChangeEvent.
type HashChangeEventArgs struct {
	EventArgs
	OldURL string `json:"oldURL"`
	NewURL string `json:"newURL"`
}

// StorageEventArgs is the payload of StorageEvent. Key and values are nullable natively.
type StorageEventArgs struct {
	EventArgs
	Key      *string `json:"key"`
	OldValue *string `json:"oldValue"`
	NewValue *string `json:"newValue"`
	URL      string  `json:"url"`
}

// ErrorEventArgs is the payload of ErrorEvent.
type ErrorEventArgs struct {
	EventArgs
	Message  string `json:"message"`
	Filename string `json:"filename"`
	Lineno   int64  `json:"lineno"`
	Colno    int64  `json:"colno"`
}

// PageTransitionEventArgs is the payload of PageTransitionEvent.
type PageTransitionEventArgs struct {
	EventArgs
	Persisted bool `json:"persisted"`
}
