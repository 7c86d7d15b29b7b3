package workflow

// State tracks an item's progress through the download machine. States
// only move forward; a failed edge jumps straight to StateFailed.
type State string

const (
	StatePending           State = "pending"
	StateNavigated         State = "navigated"
	StateMenuOpened        State = "menu_opened"
	StateSearchTriggered   State = "search_triggered"
	StateResultsCollected  State = "results_collected"
	StateCandidateChosen   State = "candidate_chosen"
	StateDownloadRequested State = "download_requested"
	StateSucceeded         State = "succeeded"
	StateFailed            State = "failed"
)

// Terminal reports whether the state absorbs further transitions.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
