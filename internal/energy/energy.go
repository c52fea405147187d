// Package energy tiers tasks by effort and narrows a task list to what fits
// a member's energy on a given day.
package energy

import (
	"fmt"
	"strings"

	"github.com/bayitbeseder/bayit/internal/model"
)

type Difficulty int

const (
	Light    Difficulty = 1
	Moderate Difficulty = 2
	Heavy    Difficulty = 3
)

type Level string

const (
	LevelAll      Level = "all"
	LevelModerate Level = "moderate"
	LevelLight    Level = "light"
)

// ParseLevel parses an energy level. The empty string means all.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelAll:
		return LevelAll, nil
	case LevelModerate:
		return LevelModerate, nil
	case LevelLight:
		return LevelLight, nil
	}
	return "", fmt.Errorf("unknown energy level: %q", s)
}

// maxDifficulty is the hardest tier each level keeps.
func (l Level) maxDifficulty() Difficulty {
	switch l {
	case LevelModerate:
		return Moderate
	case LevelLight:
		return Light
	}
	return Heavy
}

var heavyKeywords = []string{
	"deep clean", "scrub", "mop", "ironing", "oven", "windows", "fridge",
	"refrigerator", "grout", "closet", "balcony",
	"ניקוי יסודי", "שטיפת רצפה", "גיהוץ", "תנור", "חלונות", "מקרר", "ארון", "מרפסת",
}

var lightKeywords = []string{
	"wipe", "water plants", "trash", "make bed", "feed", "dishwasher", "tidy",
	"ניגוב", "השקיית", "זבל", "סידור מיטה", "האכלת", "מדיח", "סידור",
}

// InferDifficulty ranks a task 1-3. Heavy keywords win over light ones, and
// either keyword set wins over the duration estimate.
func InferDifficulty(task model.Task) Difficulty {
	title := strings.ToLower(task.Title)
	if containsAny(title, heavyKeywords) {
		return Heavy
	}
	if containsAny(title, lightKeywords) {
		return Light
	}

	switch {
	case task.EstimatedMinutes <= 5:
		return Light
	case task.EstimatedMinutes >= 20:
		return Heavy
	default:
		return Moderate
	}
}

// Filter returns the tasks whose difficulty fits the level, preserving order.
// The input slice is never modified.
func Filter(tasks []model.Task, level Level) []model.Task {
	limit := level.maxDifficulty()
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if InferDifficulty(t) <= limit {
			out = append(out, t)
		}
	}
	return out
}

// CrisisMode keeps only the tasks that belong to the reduced emergency set.
func CrisisMode(tasks []model.Task) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Emergency {
			out = append(out, t)
		}
	}
	return out
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
