package display

import "github.com/rickgao/ticket-tracker/internal/model"

// Reporter receives poll results. Implementations must not block for long.
type Reporter interface {
	Event(model.Event)
	Results([]model.Listing)
	Changes([]model.PriceUpdate)
}

// Tee forwards every call to each reporter in order.
type Tee []Reporter

func (t Tee) Event(e model.Event) {
	for _, r := range t {
		r.Event(e)
	}
}

func (t Tee) Results(listings []model.Listing) {
	for _, r := range t {
		r.Results(listings)
	}
}

func (t Tee) Changes(updates []model.PriceUpdate) {
	for _, r := range t {
		r.Changes(updates)
	}
}
