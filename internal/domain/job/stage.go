package job

// DeriveStage maps a status to its pipeline stage. prior is the record's
// current stage (0 for a new record) and is only consulted for Rejected.
func DeriveStage(status Status, prior int) (int, StageStatus) {
	switch status {
	case StatusApplied:
		return 1, StageActive
	case StatusShortlisted:
		return 2, StageActive
	case StatusInterviewScheduled:
		return 3, StageActive
	case StatusOfferReceived:
		return 4, StagePassed
	case StatusRejected:
		if prior < 1 || prior > 4 {
			return 1, StageFailed
		}
		return prior, StageFailed
	default:
		return 1, StageActive
	}
}

// ApplyStatus sets the status and the stage fields derived from it.
func (r *Record) ApplyStatus(status Status) {
	r.Stage, r.StageStatus = DeriveStage(status, r.Stage)
	r.Status = status
}
