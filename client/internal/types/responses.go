package types

// ------------------------------
// Response Types
// ------------------------------

// InsertResult is returned by a successful INSERT.
type InsertResult struct {
	LogID int64
	Count int
	// Replaced is true when the service overwrote a duplicate QSO.
	Replaced bool
}

// DeleteResult is returned by DELETE. NotFound lists ids the service
// reported as absent (RESULT=PARTIAL).
type DeleteResult struct {
	Deleted  int
	NotFound []int64
}

// StatusResult carries the logbook summary returned by STATUS.
type StatusResult struct {
	Data map[string]string
}

// FetchResult is one page of FETCH output. LogIDs[i] identifies Records[i]
// when both are present.
type FetchResult struct {
	Count   int
	LogIDs  []int64
	Records []QsoRecord
}

// EnqueueAck acknowledges an insert accepted by the async executor.
type EnqueueAck struct {
	JobID           string
	StationCallsign string
	Status          string
}
