package domain

import "strings"

// ContentTypeOptions is the enumerated list of repository content type labels.
func ContentTypeOptions() []string {
	return []string{
		"Arbeitsblatt",
		"Audio",
		"Bild",
		"Interaktives Medium",
		"Kurs",
		"Lernspiel",
		"Präsentation",
		"Quelle",
		"Simulation",
		"Text",
		"Tool",
		"Übung",
		"Unterrichtsplanung",
		"Video",
		"Webseite",
	}
}

// DisciplineOptions is the enumerated list of repository discipline labels.
func DisciplineOptions() []string {
	return []string{
		"Biologie",
		"Chemie",
		"Deutsch",
		"Englisch",
		"Ethik",
		"Französisch",
		"Geografie",
		"Geschichte",
		"Informatik",
		"Kunst",
		"Mathematik",
		"Musik",
		"Philosophie",
		"Physik",
		"Politik",
		"Religion",
		"Sachunterricht",
		"Spanisch",
		"Sport",
		"Wirtschaft",
	}
}

// EducationalContextOptions is the enumerated list of educational level labels.
func EducationalContextOptions() []string {
	return []string{
		"Elementarbereich",
		"Primarstufe",
		"Sekundarstufe I",
		"Sekundarstufe II",
		"Hochschule",
		"Berufliche Bildung",
		"Fortbildung",
		"Erwachsenenbildung",
	}
}

// materialContentTypes maps lowercase material types to content type labels.
var materialContentTypes = map[string]string{
	"arbeitsblatt":       "Arbeitsblatt",
	"worksheet":          "Arbeitsblatt",
	"audio":              "Audio",
	"podcast":            "Audio",
	"bild":               "Bild",
	"image":              "Bild",
	"grafik":             "Bild",
	"interaktiv":         "Interaktives Medium",
	"interactive":        "Interaktives Medium",
	"kurs":               "Kurs",
	"course":             "Kurs",
	"spiel":              "Lernspiel",
	"lernspiel":          "Lernspiel",
	"game":               "Lernspiel",
	"präsentation":       "Präsentation",
	"presentation":       "Präsentation",
	"folien":             "Präsentation",
	"slides":             "Präsentation",
	"quelle":             "Quelle",
	"source":             "Quelle",
	"simulation":         "Simulation",
	"text":               "Text",
	"artikel":            "Text",
	"article":            "Text",
	"übung":              "Übung",
	"exercise":           "Übung",
	"quiz":               "Übung",
	"unterrichtsplanung": "Unterrichtsplanung",
	"lesson plan":        "Unterrichtsplanung",
	"video":              "Video",
	"film":               "Video",
	"webseite":           "Webseite",
	"website":            "Webseite",
	"tool":               "Tool",
	"software":           "Tool",
}

// disciplineLabels maps lowercase subject names to discipline labels.
var disciplineLabels = map[string]string{
	"biologie":       "Biologie",
	"biology":        "Biologie",
	"chemie":         "Chemie",
	"chemistry":      "Chemie",
	"deutsch":        "Deutsch",
	"german":         "Deutsch",
	"englisch":       "Englisch",
	"english":        "Englisch",
	"ethik":          "Ethik",
	"ethics":         "Ethik",
	"französisch":    "Französisch",
	"french":         "Französisch",
	"geografie":      "Geografie",
	"geographie":     "Geografie",
	"erdkunde":       "Geografie",
	"geography":      "Geografie",
	"geschichte":     "Geschichte",
	"history":        "Geschichte",
	"informatik":     "Informatik",
	"kunst":          "Kunst",
	"art":            "Kunst",
	"mathematik":     "Mathematik",
	"mathe":          "Mathematik",
	"mathematics":    "Mathematik",
	"math":           "Mathematik",
	"musik":          "Musik",
	"music":          "Musik",
	"philosophie":    "Philosophie",
	"philosophy":     "Philosophie",
	"physik":         "Physik",
	"physics":        "Physik",
	"politik":        "Politik",
	"politics":       "Politik",
	"religion":       "Religion",
	"sachunterricht": "Sachunterricht",
	"spanisch":       "Spanisch",
	"spanish":        "Spanisch",
	"sport":          "Sport",
	"wirtschaft":     "Wirtschaft",
	"economics":      "Wirtschaft",

	"computer science": "Informatik",
}

// LookupContentType returns the content type label for a material type.
func LookupContentType(materialType string) (string, bool) {
	label, ok := materialContentTypes[normaliseKey(materialType)]
	return label, ok
}

// LookupDiscipline returns the discipline label for a subject.
func LookupDiscipline(subject string) (string, bool) {
	label, ok := disciplineLabels[normaliseKey(subject)]
	return label, ok
}

// MatchOption returns the option equal (case-insensitively) to answer.
// Surrounding quotes and a trailing period are ignored.
func MatchOption(answer string, options []string) (string, bool) {
	answer = strings.Trim(strings.TrimSpace(answer), `"'.`)
	for _, opt := range options {
		if strings.EqualFold(opt, answer) {
			return opt, true
		}
	}
	return "", false
}

func normaliseKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
