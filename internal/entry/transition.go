package entry

import "github.com/vidall28/trocasequebras/internal/model"

// Event is a lifecycle event applied to an entry group.
type Event string

// Lifecycle events.
const (
	EventFinalizeAsDraft   Event = "finalizeAsDraft"
	EventFinalizeAndSubmit Event = "finalizeAndSubmit"
	EventResumeEditing     Event = "resumeEditing"
	EventApprove           Event = "approve"
	EventReject            Event = "reject"
)

// Staged is the pseudo status of a group that lives only in a draft slot.
const Staged model.EntryStatus = ""

type edge struct {
	from  model.EntryStatus
	event Event
}

var transitions = map[edge]model.EntryStatus{
	{Staged, EventFinalizeAsDraft}:          model.StatusDraft,
	{Staged, EventFinalizeAndSubmit}:        model.StatusPending,
	{model.StatusDraft, EventResumeEditing}: Staged,
	{model.StatusPending, EventApprove}:     model.StatusApproved,
	{model.StatusPending, EventReject}:      model.StatusRejected,
}

// Transition returns the status reached by applying ev in status from. Pairs
// outside the lifecycle table fail with *model.InvalidTransitionError.
func Transition(from model.EntryStatus, ev Event) (model.EntryStatus, error) {
	to, ok := transitions[edge{from, ev}]
	if !ok {
		return from, &model.InvalidTransitionError{From: from, Event: string(ev)}
	}
	return to, nil
}

func transitionGroup(g *model.EntryGroup, ev Event) error {
	to, err := Transition(g.Status, ev)
	if err != nil {
		err.(*model.InvalidTransitionError).GroupID = g.ID
		return err
	}
	g.Status = to
	return nil
}
