package document

import (
	"fmt"
	"strings"
	"time"
)

// DocType is the kind of engineering document.
type DocType string

const (
	DocTypePart    DocType = "PART"
	DocTypeAssy    DocType = "ASSY"
	DocTypeMachine DocType = "MACHINE"
	DocTypeGroup   DocType = "GROUP"
)

var docTypeAliases = map[string]DocType{
	"PART":    DocTypePart,
	"PRT":     DocTypePart,
	"SLDPRT":  DocTypePart,
	"ASSY":    DocTypeAssy,
	"ASM":     DocTypeAssy,
	"SLDASM":  DocTypeAssy,
	"MACHINE": DocTypeMachine,
	"GROUP":   DocTypeGroup,
}

// ParseDocType accepts the canonical names and the CAD aliases (PRT, SLDASM, ...).
func ParseDocType(s string) (DocType, error) {
	if t, ok := docTypeAliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("%w: unknown doc type %q", ErrInvalidInput, s)
}

// Versioned reports whether codes of this type come from a version counter.
func (t DocType) Versioned() bool {
	return t == DocTypeMachine || t == DocTypeGroup
}

// State is a lifecycle state.
type State string

const (
	StateWIP   State = "WIP"
	StateREL   State = "REL"
	StateInRev State = "IN_REV"
	StateOBS   State = "OBS"
)

// ParseState validates a state name.
func ParseState(s string) (State, error) {
	switch st := State(strings.ToUpper(strings.TrimSpace(s))); st {
	case StateWIP, StateREL, StateInRev, StateOBS:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown state %q", ErrInvalidInput, s)
}

// Restorable reports whether a document may return to this state from OBS.
func (s State) Restorable() bool {
	return s == StateWIP || s == StateREL || s == StateInRev
}

// Document is a catalog row.
type Document struct {
	ID           int64   `json:"id"`
	Code         string  `json:"code"`
	DocType      DocType `json:"doc_type"`
	MMM          string  `json:"mmm"`
	GGGG         string  `json:"gggg,omitempty"`
	Seq          int     `json:"seq"`
	VVV          string  `json:"vvv,omitempty"`
	Revision     int     `json:"revision"`
	State        State   `json:"state"`
	ObsPrevState State   `json:"obs_prev_state,omitempty"`
	Description  string  `json:"description,omitempty"`

	CheckedOut   bool       `json:"checked_out"`
	CheckoutUser string     `json:"checkout_owner_user,omitempty"`
	CheckoutHost string     `json:"checkout_owner_host,omitempty"`
	CheckoutAt   *time.Time `json:"checkout_at,omitempty"`

	WIPPath          string `json:"file_wip_path,omitempty"`
	RELPath          string `json:"file_rel_path,omitempty"`
	InRevPath        string `json:"file_inrev_path,omitempty"`
	WIPDrawingPath   string `json:"file_wip_drw_path,omitempty"`
	RELDrawingPath   string `json:"file_rel_drw_path,omitempty"`
	InRevDrawingPath string `json:"file_inrev_drw_path,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveModelPath returns the model path that is authoritative for the
// current state, falling back to the nearest populated one.
func (d *Document) ActiveModelPath() string {
	return pick(d.State, d.ObsPrevState, d.WIPPath, d.RELPath, d.InRevPath)
}

// ActiveDrawingPath is ActiveModelPath for the drawing.
func (d *Document) ActiveDrawingPath() string {
	return pick(d.State, d.ObsPrevState, d.WIPDrawingPath, d.RELDrawingPath, d.InRevDrawingPath)
}

func pick(state, prev State, wip, rel, inrev string) string {
	var order []string
	switch state {
	case StateWIP:
		order = []string{wip, rel, inrev}
	case StateInRev:
		order = []string{inrev, rel, wip}
	case StateOBS:
		if prev == StateWIP {
			order = []string{wip, rel, inrev}
		} else {
			order = []string{rel, inrev, wip}
		}
	default:
		order = []string{rel, wip, inrev}
	}
	for _, p := range order {
		if p != "" {
			return p
		}
	}
	return ""
}

// Paths returns every non-empty file path recorded on the document.
func (d *Document) Paths() []string {
	var out []string
	for _, p := range []string{d.WIPPath, d.RELPath, d.InRevPath, d.WIPDrawingPath, d.RELDrawingPath, d.InRevDrawingPath} {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EventType names the transition recorded by a state note.
type EventType string

const (
	EventRelease     EventType = "RELEASE"
	EventCreateInRev EventType = "CREATE_INREV"
	EventApprove     EventType = "APPROVE_INREV"
	EventCancel      EventType = "CANCEL_INREV"
	EventObsolete    EventType = "SET_OBSOLETE"
	EventRestore     EventType = "RESTORE_OBS"
)

// StateNote is an append-only audit record for one transition.
type StateNote struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	EventType EventType `json:"event_type"`
	FromState State     `json:"from_state"`
	ToState   State     `json:"to_state"`
	Note      string    `json:"note"`
	RevBefore int       `json:"rev_before"`
	RevAfter  int       `json:"rev_after"`
}

// SearchFilter narrows a catalog search. Zero values match everything;
// OBS documents are hidden unless IncludeObs is set or State asks for them.
type SearchFilter struct {
	Query      string
	MMM        string
	GGGG       string
	VVV        string
	State      State
	DocType    DocType
	IncludeObs bool
	Limit      int
}
