package balance

import (
	"strings"

	"github.com/bayitbeseder/bayit/internal/model"
)

type Zone string

const (
	ZoneKitchen  Zone = "kitchen"
	ZoneBathroom Zone = "bathroom"
	ZoneLiving   Zone = "living"
	ZoneBedroom  Zone = "bedroom"
	ZoneLaundry  Zone = "laundry"
	ZoneOutdoor  Zone = "outdoor"
	ZonePets     Zone = "pets"
	ZoneGeneral  Zone = "general"
)

// zoneOrder fixes iteration order wherever zones are listed.
var zoneOrder = []Zone{
	ZoneKitchen, ZoneBathroom, ZoneLiving, ZoneBedroom,
	ZoneLaundry, ZoneOutdoor, ZonePets, ZoneGeneral,
}

// Classifier estimates the minutes a task takes and the zone it belongs to.
type Classifier interface {
	Minutes(t model.Task) int
	Zone(t model.Task) Zone
}

type keywordRule struct {
	keyword string
	minutes int
}

// Ordered longest-effort first: the first match wins.
var minuteRules = []keywordRule{
	{"deep clean", 30},
	{"ironing", 30},
	{"laundry", 30},
	{"folding", 30},
	{"mop", 30},
	{"ניקוי יסודי", 30},
	{"גיהוץ", 30},
	{"כביסה", 30},
	{"קיפול", 30},
	{"שטיפת רצפה", 30},
	{"clean", 15},
	{"vacuum", 15},
	{"shower", 15},
	{"stovetop", 15},
	{"bedding", 15},
	{"ניקוי", 15},
	{"שאיבת אבק", 15},
	{"מקלחת", 15},
	{"כיריים", 15},
	{"מצעים", 15},
}

const defaultMinutes = 5

type zoneRule struct {
	keyword string
	zone    Zone
}

// Ordered so that multi-word and more specific keywords are checked first.
var zoneRules = []zoneRule{
	{"living room", ZoneLiving},
	{"חדר שינה", ZoneBedroom},
	{"kitchen", ZoneKitchen},
	{"dishes", ZoneKitchen},
	{"stovetop", ZoneKitchen},
	{"oven", ZoneKitchen},
	{"fridge", ZoneKitchen},
	{"counter", ZoneKitchen},
	{"מטבח", ZoneKitchen},
	{"כלים", ZoneKitchen},
	{"כיריים", ZoneKitchen},
	{"תנור", ZoneKitchen},
	{"מקרר", ZoneKitchen},
	{"bathroom", ZoneBathroom},
	{"toilet", ZoneBathroom},
	{"shower", ZoneBathroom},
	{"sink", ZoneBathroom},
	{"bath", ZoneBathroom},
	{"אמבטיה", ZoneBathroom},
	{"שירותים", ZoneBathroom},
	{"מקלחת", ZoneBathroom},
	{"כיור", ZoneBathroom},
	{"living", ZoneLiving},
	{"sofa", ZoneLiving},
	{"couch", ZoneLiving},
	{"סלון", ZoneLiving},
	{"ספה", ZoneLiving},
	{"bedroom", ZoneBedroom},
	{"bedding", ZoneBedroom},
	{"sheets", ZoneBedroom},
	{"bed", ZoneBedroom},
	{"מיטה", ZoneBedroom},
	{"מצעים", ZoneBedroom},
	{"laundry", ZoneLaundry},
	{"ironing", ZoneLaundry},
	{"folding", ZoneLaundry},
	{"כביסה", ZoneLaundry},
	{"גיהוץ", ZoneLaundry},
	{"garden", ZoneOutdoor},
	{"balcony", ZoneOutdoor},
	{"yard", ZoneOutdoor},
	{"plants", ZoneOutdoor},
	{"מרפסת", ZoneOutdoor},
	{"גינה", ZoneOutdoor},
	{"עציצים", ZoneOutdoor},
	{"litter", ZonePets},
	{"dog", ZonePets},
	{"cat food", ZonePets},
	{"aquarium", ZonePets},
	{"חתול", ZonePets},
	{"כלב", ZonePets},
}

// KeywordClassifier infers minutes and zone from the task title alone.
type KeywordClassifier struct{}

func (KeywordClassifier) Minutes(t model.Task) int {
	title := strings.ToLower(t.Title)
	for _, r := range minuteRules {
		if strings.Contains(title, r.keyword) {
			return r.minutes
		}
	}
	return defaultMinutes
}

func (KeywordClassifier) Zone(t model.Task) Zone {
	title := strings.ToLower(t.Title)
	for _, r := range zoneRules {
		if strings.Contains(title, r.keyword) {
			return r.zone
		}
	}
	return ZoneGeneral
}

// FieldClassifier trusts the template's estimated minutes and category and
// falls back to title keywords only where those fields are empty.
type FieldClassifier struct {
	Fallback KeywordClassifier
}

func (c FieldClassifier) Minutes(t model.Task) int {
	if t.EstimatedMinutes > 0 {
		return t.EstimatedMinutes
	}
	return c.Fallback.Minutes(t)
}

func (c FieldClassifier) Zone(t model.Task) Zone {
	if t.Category != "" && t.Category != model.CategoryGeneral && t.Category.Valid() {
		return Zone(t.Category)
	}
	return c.Fallback.Zone(t)
}
