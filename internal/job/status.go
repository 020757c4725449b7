package job

import "fmt"

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusScheduled, StatusInProgress, StatusCompleted:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %s", s)
	}
}

var allowedTransitions = map[Status]map[Status]bool{
	StatusScheduled:  {StatusInProgress: true, StatusCompleted: true},
	StatusInProgress: {StatusScheduled: true, StatusCompleted: true},
	StatusCompleted:  {}, // completion issues an invoice and is final
}

func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	m, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return m[to]
}

type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

func ParseFrequency(s string) (Frequency, error) {
	switch Frequency(s) {
	case FrequencyOnce, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly:
		return Frequency(s), nil
	default:
		return "", fmt.Errorf("unknown frequency: %s", s)
	}
}
