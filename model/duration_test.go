package model_test

import (
	"testing"

	"ewintr.nl/tubedigest/model"
	"github.com/stretchr/testify/assert"
)

func TestParseISODuration(t *testing.T) {
	for _, tc := range []struct {
		name  string
		input string
		exp   int
	}{
		{name: "minutes and seconds", input: "PT15M33S", exp: 933},
		{name: "hours and minutes", input: "PT1H30M", exp: 5400},
		{name: "seconds only", input: "PT45S", exp: 45},
		{name: "hours only", input: "PT2H", exp: 7200},
		{name: "full", input: "PT1H2M3S", exp: 3723},
		{name: "with days", input: "P1DT2H", exp: 93600},
		{name: "zero", input: "PT0S", exp: 0},
		{name: "garbage", input: "five minutes", exp: 0},
		{name: "empty", input: "", exp: 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.exp, model.ParseISODuration(tc.input))
		})
	}
}

func TestFormatClock(t *testing.T) {
	for _, tc := range []struct {
		seconds int
		exp     string
	}{
		{seconds: 0, exp: "0:00"},
		{seconds: 59, exp: "0:59"},
		{seconds: 245, exp: "4:05"},
		{seconds: 3723, exp: "1:02:03"},
		{seconds: 36000, exp: "10:00:00"},
	} {
		assert.Equal(t, tc.exp, model.FormatClock(tc.seconds))
	}
}

func TestFormatHuman(t *testing.T) {
	for _, tc := range []struct {
		seconds int
		exp     string
	}{
		{seconds: 0, exp: "0min"},
		{seconds: 59, exp: "0min"},
		{seconds: 1020, exp: "17min"},
		{seconds: 7500, exp: "2h 5min"},
	} {
		assert.Equal(t, tc.exp, model.FormatHuman(tc.seconds))
	}
}

func TestParseCategory(t *testing.T) {
	c, err := model.ParseCategory("Claude Code")
	assert.NoError(t, err)
	assert.Equal(t, model.CategoryClaudeCode, c)

	_, err = model.ParseCategory("Kochen")
	assert.Error(t, err)
}

func TestCategoryPriority(t *testing.T) {
	assert.Equal(t, 0, model.CategoryClaudeCode.Priority())
	assert.Equal(t, 99, model.CategorySonstige.Priority())
	assert.Equal(t, 50, model.Category("Unbekannt").Priority())
}
