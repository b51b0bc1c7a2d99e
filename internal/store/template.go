package store

import "github.com/AngelCh415/ockno-signals/internal/models"

type goalTemplate struct {
	stage       models.LeadStage
	name        string
	description string
	phoneEvent  string
	formEvent   string
	value       float64
}

var defaultGoals = []goalTemplate{
	{models.StageNew, "New Lead", "Fires when a new lead is created via phone or form.", "new_lead_phone_call", "new_lead_form_submit", 1},
	{models.StageQualified, "Qualified Lead", "Fires when a lead status changes to Qualified.", "qualified_lead_phone", "qualified_lead_form", 10},
	{models.StageConverted, "Converted Lead", "Fires when a lead marks as Converted (Sale).", "converted_lead_phone", "converted_lead_form", 100},
}

func newDefaultGoals(ids IDGenerator) []models.Goal {
	goals := make([]models.Goal, 0, len(defaultGoals))
	for _, t := range defaultGoals {
		goals = append(goals, models.Goal{
			ID:          ids.NewID("goal"),
			Stage:       t.stage,
			Name:        t.name,
			Description: t.description,
			Actions: []models.ConversionAction{
				{
					ID:         ids.NewID("action"),
					Name:       t.name + " - Phone Call",
					EventName:  t.phoneEvent,
					Stage:      t.stage,
					SourceType: models.SourcePhone,
					Value:      t.value,
					Enabled:    true,
				},
				{
					ID:         ids.NewID("action"),
					Name:       t.name + " - Form Submission",
					EventName:  t.formEvent,
					Stage:      t.stage,
					SourceType: models.SourceForm,
					Value:      t.value,
					Enabled:    true,
				},
			},
		})
	}
	return goals
}

// copyGoals keeps names, values and enabled flags but re-issues every id.
func copyGoals(ids IDGenerator, src []models.Goal) []models.Goal {
	goals := make([]models.Goal, 0, len(src))
	for _, g := range src {
		ng := g
		ng.ID = ids.NewID("goal")
		ng.Actions = make([]models.ConversionAction, 0, len(g.Actions))
		for _, a := range g.Actions {
			a.ID = ids.NewID("action")
			ng.Actions = append(ng.Actions, a)
		}
		goals = append(goals, ng)
	}
	return goals
}
