package listing

// RecruitStat counts how recruit headcounts were filled.
type RecruitStat struct {
	FromAPIOrCache int `json:"fromApiOrCache"`
	FromDetail     int `json:"fromDetail"`
	StillEmpty     int `json:"stillEmpty"`
}

// AppliedStat counts how applied headcounts were filled.
type AppliedStat struct {
	FromDetail int `json:"fromDetail"`
	StillEmpty int `json:"stillEmpty"`
}

// Stat summarizes enrichment of one run.
type Stat struct {
	Total       int         `json:"total"`
	TriedDetail int         `json:"triedDetail"`
	Recruit     RecruitStat `json:"recruit"`
	Applied     AppliedStat `json:"applied"`
}

// Snapshot is the published result of one run. It replaces the previous
// snapshot file wholesale.
type Snapshot struct {
	UpdatedAt string                 `json:"updatedAt"` // RFC3339
	RunID     string                 `json:"runId,omitempty"`
	Params    map[string]interface{} `json:"params"`
	Stat      Stat                   `json:"stat"`
	Count     int                    `json:"count"`
	Items     []Record               `json:"items"`
}

// NewSnapshot builds a snapshot over records. Items is never nil so the file
// always carries an array.
func NewSnapshot(records []Record, params map[string]interface{}, stat Stat, updatedAt string) *Snapshot {
	if records == nil {
		records = []Record{}
	}
	return &Snapshot{
		UpdatedAt: updatedAt,
		Params:    params,
		Stat:      stat,
		Count:     len(records),
		Items:     records,
	}
}
