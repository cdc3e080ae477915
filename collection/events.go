package collection

// Phase is a step of Collection.Load.
type Phase int

const (
	// PhaseList fires once refs are enumerated; Total is set.
	PhaseList Phase = iota
	// PhaseDocument fires after each document is initialized.
	PhaseDocument
	// PhaseDone fires when every document is loaded.
	PhaseDone
)

// Event is reported to the progress.Tracker passed to Load.
type Event struct {
	Phase Phase
	Ref   string
	// Index counts loaded documents, 1-based, in completion order.
	Index int
	Total int
}
