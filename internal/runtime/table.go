package runtime

import "github.com/aretw0/screener/pkg/domain"

// TransitionTable is the interview flow as pure data. collect_salary is the
// only branch point; every other stage has a single default successor.
func TransitionTable(threshold float64) map[domain.StageID]domain.Transition {
	return map[domain.StageID]domain.Transition{
		domain.StageGreeting:    {Default: domain.StageCollectName},
		domain.StageCollectName: {Default: domain.StageCollectSalary},
		domain.StageCollectSalary: {Branch: &domain.Branch{
			Field:     domain.ShapeSalary.Field(),
			Threshold: threshold,
			Above:     domain.StageRejection,
			AtOrBelow: domain.StageMotivation,
		}},
		domain.StageMotivation: {Default: domain.StageResolution},
		domain.StageResolution: {Default: domain.StageClosing},
		domain.StageRejection:  {Default: domain.StageClosing},
		domain.StageClosing:    {},
	}
}

// Expectations maps each stage to the shape of data it collects.
var Expectations = map[domain.StageID]domain.Shape{
	domain.StageGreeting:      domain.ShapeNone,
	domain.StageCollectName:   domain.ShapeName,
	domain.StageCollectSalary: domain.ShapeSalary,
	domain.StageMotivation:    domain.ShapeMotivation,
	domain.StageResolution:    domain.ShapeNone,
	domain.StageRejection:     domain.ShapeNone,
	domain.StageClosing:       domain.ShapeNone,
}

// outcomeOnEnter is the screening decision made when a stage is reached.
var outcomeOnEnter = map[domain.StageID]domain.Outcome{
	domain.StageRejection:  domain.OutcomeRejected,
	domain.StageResolution: domain.OutcomeAccepted,
}

// closedAfterRejection lists the stages a rejected candidate must never reach.
var closedAfterRejection = map[domain.StageID]bool{
	domain.StageMotivation: true,
	domain.StageResolution: true,
}
