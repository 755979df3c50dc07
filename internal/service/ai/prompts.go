package ai

import (
	"fmt"
	"sort"
	"strings"

	"github.com/figmentlabs/figment/internal/model/app"
)

// systemInstructions is the fixed contract with the model: simulate the
// described application and answer with renderable HTML.
const systemInstructions = `You are simulating an application for a user in their browser. On every turn you generate the HTML for the current view of the application.

Rules:
- Generate standard HTML only. No external dependencies; inline CSS is fine.
- Assign a unique id attribute to every interactive element (buttons, links, form submissions). When the user activates an element with an id, that interaction is sent back to you so you can update the application state and generate the next view.
- If an interaction requires no visible change, respond with exactly NO_CHANGE.
- Output ONLY the HTML code (or NO_CHANGE), without markdown formatting or explanation.`

// SystemInstructions exposes the fixed instruction string the chain binds as
// the system message.
func SystemInstructions() string {
	return systemInstructions
}

// InitialPrompt renders the user's application description into the opening
// user turn.
func InitialPrompt(description string) string {
	return fmt.Sprintf(`You're an application with the following purpose: %s

Generate the home screen of this application.`, strings.TrimSpace(description))
}

// InteractionPrompt serializes an interaction event into a user turn. The
// encoding is deterministic: one line for the element id, then one line per
// form field in sorted key order. The model conditions on this structure, so
// it must stay stable across releases.
func InteractionPrompt(event app.InteractionEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The user has just activated the element with id %q.", event.ElementID)

	if len(event.FormFields) > 0 {
		b.WriteString("\n\nCurrent form field values:")
		names := make([]string, 0, len(event.FormFields))
		for name := range event.FormFields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "\n%s: %s", name, event.FormFields[name])
		}
	}

	b.WriteString("\n\nProcess this interaction and generate the updated view, or respond NO_CHANGE if the view should not change.")
	return b.String()
}
