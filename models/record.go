package models

// Record is a Result joined with its Call and RaceMeta. Build it with NewRecord so
// that the one-to-one associations are known to be present.
type Record struct {
	Result Result
	Call   Call
	Meta   RaceMeta
}

// NewRecord pairs a result with its override and metadata rows.
func NewRecord(r Result, call *Call, meta *RaceMeta) (Record, error) {
	if call == nil {
		return Record{}, &DataIntegrityError{ResultID: r.ID, Missing: "call"}
	}
	if meta == nil {
		return Record{}, &DataIntegrityError{ResultID: r.ID, Missing: "race_meta"}
	}
	r.Call, r.Meta = nil, nil
	return Record{Result: r, Call: *call, Meta: *meta}, nil
}

// RecordFromResult uses the relations loaded on r.
func RecordFromResult(r Result) (Record, error) {
	return NewRecord(r, r.Call, r.Meta)
}
