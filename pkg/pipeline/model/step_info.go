package model

type stepType string

const (
	StartStepType stepType = "start"
	UnitStepType  stepType = "unit"
	EndStepType   stepType = "end"
)

type stepStatus string

const (
	StatusPending   stepStatus = "pending"
	StatusSucceeded stepStatus = "succeeded"
	StatusFailed    stepStatus = "failed"
)

// StepInfo describes one scheduled unit as seen by pipeline options.
type StepInfo struct {
	Type   stepType
	Index  int
	Unit   string
	Name   string
	Status stepStatus
}

var (
	StartStep = &StepInfo{Type: StartStepType, Index: -1, Name: "start"}
	EndStep   = &StepInfo{Type: EndStepType, Index: -1, Name: "end"}
)
