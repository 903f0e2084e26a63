package api

import "github.com/rickgao/ticket-tracker/internal/model"

// Event converts the first global metadata entry to model.Event.
// Missing values fall back to the configured production id and "Unknown".
func (r *ListingsResponse) Event(fallbackProductionID string) model.Event {
	ev := model.Event{
		ProductionID: fallbackProductionID,
		Name:         model.UnknownValue,
		Venue:        model.UnknownValue,
	}
	if len(r.Global) == 0 {
		return ev
	}

	g := r.Global[0]
	if !g.ProductionID.IsEmpty() {
		ev.ProductionID = g.ProductionID.String()
	}
	if g.ProductionName != "" {
		ev.Name = g.ProductionName
	}
	if g.MapTitle != "" {
		ev.Venue = g.MapTitle
	}
	return ev
}
