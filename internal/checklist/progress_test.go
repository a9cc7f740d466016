package checklist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress_RequiredItemsOnly(t *testing.T) {
	items := []Item{
		{ID: "oil", Title: "Engine oil change", Required: true},
		{ID: "filter", Title: "Oil filter", Required: true},
		{ID: "wiper", Title: "Wiper check", Required: false},
		{ID: "tires", Title: "Tire rotation", Required: true},
	}
	completions := map[string]Completion{
		"oil":   {Completed: true},
		"wiper": {Completed: true}, // optional, must not move the needle
	}

	rep := Progress(items, completions)

	assert.Equal(t, 3, rep.RequiredTotal)
	assert.Equal(t, 1, rep.RequiredCompleted)
	assert.InDelta(t, 100.0/3.0, rep.CompletionPercentage, 0.001)
	assert.False(t, rep.Complete())
	assert.Len(t, rep.Items, 4)
}

func TestProgress_AllRequiredComplete(t *testing.T) {
	items := []Item{
		{ID: "a", Required: true},
		{ID: "b", Required: true},
		{ID: "c", Required: false},
	}
	completions := map[string]Completion{
		"a": {Completed: true},
		"b": {Completed: true},
	}

	rep := Progress(items, completions)

	assert.Equal(t, 100.0, rep.CompletionPercentage)
	assert.True(t, rep.Complete())
}

func TestProgress_NoRequiredItemsIsComplete(t *testing.T) {
	items := []Item{
		{ID: "a", Required: false},
		{ID: "b", Required: false},
	}

	rep := Progress(items, nil)

	assert.Equal(t, 100.0, rep.CompletionPercentage)
	assert.True(t, rep.Complete())
}

func TestProgress_EmptyChecklist(t *testing.T) {
	rep := Progress(nil, nil)
	assert.True(t, rep.Complete())
	assert.Equal(t, 100.0, rep.CompletionPercentage)
	assert.Empty(t, rep.Items)
}

func TestProgress_UnknownCompletionsIgnored(t *testing.T) {
	items := []Item{{ID: "a", Required: true}}
	completions := map[string]Completion{
		"ghost": {Completed: true}, // not part of the template
	}

	rep := Progress(items, completions)

	assert.Equal(t, 0, rep.RequiredCompleted)
	assert.False(t, rep.Complete())
}
