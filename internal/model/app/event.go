package app

// InteractionEvent is a single user-initiated UI action: the id of the
// activated element plus whatever form field values the shell captured.
// Events are transient; they only exist long enough to be rendered into a
// user turn.
type InteractionEvent struct {
	ElementID  string            `json:"elementId"`
	FormFields map[string]string `json:"formFields"`
}

// ViewResult is the next thing to render: either an HTML fragment or error
// markup. Never persisted, only transmitted.
type ViewResult struct {
	HTML    string `json:"html"`
	IsError bool   `json:"isError"`
}
