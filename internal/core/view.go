package core

import "github.com/valter-silva-au/taskcard/pkg/models"

// TriggerLabel is the caption of the button that requests the next task.
const TriggerLabel = "Get Task"

// View is the content of the three display regions of the card.
type View struct {
	Title          string
	Body           string
	TriggerEnabled bool
}

// WelcomeView is shown before the first transition has been rendered.
func WelcomeView() View {
	return View{
		Title:          "Welcome!",
		Body:           "Press the button to get a task.",
		TriggerEnabled: true,
	}
}

// RenderView maps a snapshot onto the card regions. A snapshot that does not
// form a valid state renders like the fallback error snapshot.
func RenderView(s models.Snapshot) View {
	state, err := s.Variant()
	if err != nil {
		state = models.Failed{Message: FallbackMessage}
	}

	switch st := state.(type) {
	case models.Start:
		return View{Title: "Welcome again", Body: "Press the button to get a task.", TriggerEnabled: true}
	case models.Fetching:
		return View{Title: "Fetching Task", Body: "Please be patient.", TriggerEnabled: false}
	case models.GotTask:
		return View{Title: st.Task.Title, Body: st.Task.Description, TriggerEnabled: true}
	case models.Failed:
		return View{Title: "Ups ...", Body: st.Message, TriggerEnabled: true}
	default:
		return View{Title: "Ups ...", Body: FallbackMessage, TriggerEnabled: true}
	}
}

// Regions are the writable parts of a display.
type Regions interface {
	SetTitle(text string)
	SetBody(text string)
	SetTriggerEnabled(enabled bool)
}

// Display hands out its regions. ok is false while the regions do not exist,
// for example before a terminal card has been laid out.
type Display interface {
	Regions() (regions Regions, ok bool)
}

// ViewBinder renders snapshots onto a Display.
type ViewBinder struct {
	display  Display
	reporter *StateReporter
}

// NewViewBinder creates a ViewBinder. reporter receives the snapshots that
// could not be rendered.
func NewViewBinder(display Display, reporter *StateReporter) *ViewBinder {
	if reporter == nil {
		reporter = NewStateReporter(nil)
	}
	return &ViewBinder{display: display, reporter: reporter}
}

// Render writes the view for s into the display regions. When the display has
// no regions the snapshot is reported and nothing else happens.
func (b *ViewBinder) Render(s models.Snapshot) {
	var regions Regions
	ok := false
	if b.display != nil {
		regions, ok = b.display.Regions()
	}
	if !ok || regions == nil {
		b.reporter.Report("display regions not available", s)
		return
	}

	v := RenderView(s)
	regions.SetTitle(v.Title)
	regions.SetBody(v.Body)
	regions.SetTriggerEnabled(v.TriggerEnabled)
}
