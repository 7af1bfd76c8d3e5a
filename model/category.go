package model

import "fmt"

// Category is the closed set of digest categories. The summarizer instructs
// the model to pick one of these and rejects anything outside the set.
type Category string

const (
	CategoryClaudeCode  Category = "Claude Code"
	CategoryCodingAI    Category = "Coding/AI Allgemein"
	CategoryBrettspiele Category = "Brettspiele"
	CategoryGesundheit  Category = "Gesundheit"
	CategorySport       Category = "Sport"
	CategoryBeziehung   Category = "Beziehung/Sexualität"
	CategoryBeachvolley Category = "Beachvolleyball"
	CategorySonstige    Category = "Sonstige"
)

// categoryPriority orders digest sections, lower first. Categories outside
// the table sort between the listed ones and Sonstige.
var categoryPriority = map[Category]int{
	CategoryClaudeCode:  0,
	CategoryCodingAI:    1,
	CategoryBrettspiele: 2,
	CategoryGesundheit:  3,
	CategorySport:       4,
	CategoryBeziehung:   5,
	CategoryBeachvolley: 6,
	CategorySonstige:    99,
}

func Categories() []Category {
	return []Category{
		CategoryClaudeCode,
		CategoryCodingAI,
		CategoryBrettspiele,
		CategoryGesundheit,
		CategorySport,
		CategoryBeziehung,
		CategoryBeachvolley,
		CategorySonstige,
	}
}

func ParseCategory(s string) (Category, error) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}

	return "", fmt.Errorf("unknown category: %q", s)
}

func (c Category) Valid() bool {
	_, err := ParseCategory(string(c))
	return err == nil
}

func (c Category) Priority() int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}

	return 50
}
