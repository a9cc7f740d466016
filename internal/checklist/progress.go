package checklist

import "time"

// Completion is one per-item completion record for a job.
type Completion struct {
	Completed   bool       `json:"completed"`
	CompletedBy string     `json:"completedBy,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	Notes       string     `json:"notes,omitempty"`
}

type ItemProgress struct {
	Item
	Completion
}

type Report struct {
	Items                []ItemProgress `json:"items"`
	RequiredTotal        int            `json:"requiredTotal"`
	RequiredCompleted    int            `json:"requiredCompleted"`
	CompletionPercentage float64        `json:"completionPercentage"`
}

// Complete reports whether every required item is done. Optional items
// never gate completion.
func (r Report) Complete() bool {
	return r.RequiredCompleted == r.RequiredTotal
}

// Progress is a pure computation over a checklist template and the
// per-item completion records of one job.
//
// CompletionPercentage counts required items only; a checklist with no
// required items is 100% by definition.
func Progress(items []Item, completions map[string]Completion) Report {
	rep := Report{Items: make([]ItemProgress, 0, len(items))}

	for _, it := range items {
		c := completions[it.ID]
		rep.Items = append(rep.Items, ItemProgress{Item: it, Completion: c})

		if !it.Required {
			continue
		}
		rep.RequiredTotal++
		if c.Completed {
			rep.RequiredCompleted++
		}
	}

	if rep.RequiredTotal == 0 {
		rep.CompletionPercentage = 100
	} else {
		rep.CompletionPercentage = float64(rep.RequiredCompleted) / float64(rep.RequiredTotal) * 100
	}
	return rep
}
