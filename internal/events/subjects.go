package events

const (
	StreamName     = "TALLY_EVENTS"
	StreamSubjects = "tally.matrix.>"
	StreamMaxAge   = "720h" // 30 days
)

func SubjectMatrixCreated(matrixID string) string  { return "tally.matrix." + matrixID + ".created" }
func SubjectMatrixUpdated(matrixID string) string  { return "tally.matrix." + matrixID + ".updated" }
func SubjectMatrixDeleted(matrixID string) string  { return "tally.matrix." + matrixID + ".deleted" }
func SubjectMatrixShared(matrixID string) string   { return "tally.matrix." + matrixID + ".shared" }
func SubjectMatrixUnshared(matrixID string) string { return "tally.matrix." + matrixID + ".unshared" }

// Child changes are keyed by the owning matrix so one subscription covers them.
func SubjectCriteriaChanged(matrixID string) string {
	return "tally.matrix." + matrixID + ".criteria.changed"
}
func SubjectOptionsChanged(matrixID string) string {
	return "tally.matrix." + matrixID + ".options.changed"
}
func SubjectScoresChanged(matrixID string) string {
	return "tally.matrix." + matrixID + ".scores.changed"
}

func SubjectMatrixEvaluated(matrixID string) string { return "tally.matrix." + matrixID + ".evaluated" }
