package entity

type Outcome int

const (
	OutcomeSkipped Outcome = iota
	OutcomeUpdated
	OutcomeCreated
	OutcomeFailed
)

func (o Outcome) String() string {
	return [...]string{"skipped", "updated", "created", "failed"}[o]
}

type ExitStatus int

const (
	ExitOK                ExitStatus = 0
	ExitRootFolderMissing ExitStatus = 1
	ExitImportFailed      ExitStatus = 2
)

// Summary aggregates the outcome of one run.
type Summary struct {
	Processed         int
	Created           int
	Updated           int
	Skipped           int
	Failed            int
	BatchLimitReached bool
	Status            ExitStatus
}

func (s *Summary) Add(o Outcome) {
	switch o {
	case OutcomeCreated:
		s.Created++
	case OutcomeUpdated:
		s.Updated++
	case OutcomeSkipped:
		s.Skipped++
	case OutcomeFailed:
		s.Failed++
	}
}
