package dispatch

import "time"

// State is a read-only snapshot of the dispatcher's current array, served
// by the monitor endpoint and inspected by tests.
type State struct {
	DispatchID string           `json:"dispatch_id"`
	Backend    string           `json:"backend"`
	RunCall    string           `json:"run_call"`
	Total      int              `json:"total"`
	Running    int              `json:"running"`
	MaxRunning int              `json:"max_running"`
	Completed  []DispatchResult `json:"completed"`
	FailedIDs  []int            `json:"failed_ids,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	Done       bool             `json:"done"`
}

func (d *Dispatcher) beginDispatch(dispatchID string, total int, runCall string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state = State{
		DispatchID: dispatchID,
		Backend:    d.bk.Name(),
		RunCall:    runCall,
		Total:      total,
		StartedAt:  time.Now(),
	}
}

func (d *Dispatcher) endDispatch(report *FailureReport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if report != nil {
		d.state.FailedIDs = append([]int(nil), report.TaskIDs...)
	}
	d.state.Done = true
}

func (d *Dispatcher) recordResult(res DispatchResult) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Completed = append(d.state.Completed, res)
}

func (d *Dispatcher) taskStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Running++
	if d.state.Running > d.state.MaxRunning {
		d.state.MaxRunning = d.state.Running
	}
}

func (d *Dispatcher) taskFinished() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.state.Running--
}

// Snapshot returns a copy of the current dispatch state.
func (d *Dispatcher) Snapshot() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.state
	st.Completed = append([]DispatchResult(nil), d.state.Completed...)
	st.FailedIDs = append([]int(nil), d.state.FailedIDs...)
	return st
}
