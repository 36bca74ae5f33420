package extract

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/rajasatyajit/SasmexMonitor/internal/models"
	"github.com/rajasatyajit/SasmexMonitor/pkg/utils"
)

// Details is what the heuristics recover from an entry's title and content
type Details struct {
	Magnitude   *float64
	Epicenter   string
	DepthKM     *float64
	Coordinates *models.Coordinates
	Title       string
	Description string
}

// Analyze runs every heuristic against one entry. It never fails; fields it
// cannot recover are left at their zero value.
func Analyze(rawTitle, content string) Details {
	d := Details{
		Epicenter:   Epicenter(content),
		Title:       CleanTitle(rawTitle, content),
		Description: CleanDescription(content),
	}
	if m, ok := Magnitude(content); ok {
		d.Magnitude = &m
	}
	if km, ok := Depth(content); ok {
		d.DepthKM = &km
	}
	if c, ok := Coordinates(content); ok {
		d.Coordinates = &c
	}
	return d
}

var magnitudePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:magnitud|magnitude|M\s*)[:.]?\s*(\d+\.\d+)`),
	regexp.MustCompile(`(?i)\b(\d\.\d)\s*(?:en|de|km|magnitud)`),
	regexp.MustCompile(`(?i)(\d+\.\d+)\s*\d+\s*km\s*al`),
}

// Magnitude returns the first magnitude-like decimal in text
func Magnitude(text string) (float64, bool) {
	for _, re := range magnitudePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

var (
	distanceBearingRe = regexp.MustCompile(`(?i)\d+\s*KM\s*AL\s*(?:SURESTE|SUROESTE|NORESTE|NOROESTE|SUR|NORTE|ESTE|OESTE)\s+DE\s+[^,\n]+,[ \t]*[A-ZÁÉÍÓÚÑ.]+`)
	explicitPlaceRe   = regexp.MustCompile(`(?i)(?:epicentro|epicento|ubicación|ubicacion|localización|localizacion)\s*[:.]?\s*([^\n.]{15,80})`)
	placeAfterEnRe    = regexp.MustCompile(`(?i)\ben\s+(.+)$`)
	eventInPlaceRe    = regexp.MustCompile(`(?i)(?:Sismo|Alerta|Evento)\s+(?:Moderado|Menor|Mayor|Fuerte)?\s*en\s+([A-Za-zÀ-ú\s]{4,50})`)
)

// Epicenter describes where the event originated, or "" when the text only
// names the city the alert was issued from
func Epicenter(text string) string {
	candidate := epicenterCandidate(text)
	if IsIssuingCity(candidate) {
		return ""
	}
	return candidate
}

func epicenterCandidate(text string) string {
	if m := distanceBearingRe.FindString(text); m != "" {
		return strings.ToUpper(strings.TrimSpace(m))
	}
	if m := explicitPlaceRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	if m := eventInPlaceRe.FindStringSubmatch(text); m != nil {
		if v := strings.TrimSpace(m[1]); v != "" && !IsIssuingCity(v) {
			return v
		}
	}
	if utils.ContainsFold(text, "en ") {
		if v, ok := HumanTitle(text); ok {
			n := utils.RuneLen(v)
			if n >= 15 && n <= 70 && !IsIssuingCity(v) && !IsIssuingCity(placeAfterEn(v)) {
				return v
			}
		}
	}
	return ""
}

// placeAfterEn returns what a headline names after its first "en"
func placeAfterEn(headline string) string {
	if m := placeAfterEnRe.FindStringSubmatch(headline); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

var depthPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:profundidad|depth)\s*[:.]?\s*(\d+)\s*km`),
	regexp.MustCompile(`(?i)(\d+)\s*km\s*(?:de\s+)?profundidad`),
}

// Depth returns the hypocentre depth in kilometres
func Depth(text string) (float64, bool) {
	for _, re := range depthPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return v, true
		}
	}
	return 0, false
}

var (
	pointRe       = regexp.MustCompile(`(?i)<(?:[\w.]+:)?point>\s*([-\d.]+)\s+([-\d.]+)\s*</(?:[\w.]+:)?point>`)
	circleRe      = regexp.MustCompile(`(?i)<(?:[\w.]+:)?circle>\s*([-\d.]+)\s*,\s*([-\d.]+)`)
	looseLatLonRe = regexp.MustCompile(`(?i)(?:latitude|lat)[^\d-]*(-?\d+\.\d+).*?(?:longitude|lon)[^\d-]*(-?\d+\.\d+)`)
)

// Coordinates returns a latitude/longitude pair. A pattern whose values do not
// both parse is skipped in favour of the next one.
func Coordinates(text string) (models.Coordinates, bool) {
	for _, re := range []*regexp.Regexp{pointRe, circleRe} {
		if c, ok := coordinatePair(re, text); ok {
			return c, true
		}
	}
	if strings.Contains(text, "lat") && strings.Contains(text, "lon") {
		return coordinatePair(looseLatLonRe, text)
	}
	return models.Coordinates{}, false
}

func coordinatePair(re *regexp.Regexp, text string) (models.Coordinates, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return models.Coordinates{}, false
	}
	lat, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	lon, err := strconv.ParseFloat(m[2], 64)
	if err != nil {
		return models.Coordinates{}, false
	}
	return models.Coordinates{Latitude: lat, Longitude: lon}, true
}

var (
	garbageTokenRe = regexp.MustCompile(`^[A-Za-z0-9]+.*ActualAlert|Publices|GeoSASM`)
	isoStampRe     = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}`)
)

// LooksLikeRawData reports whether s reads as machine output rather than a headline
func LooksLikeRawData(s string) bool {
	n := utils.RuneLen(s)
	switch {
	case n > 80:
		return true
	case strings.Contains(s, "cires.org.mx"):
		return true
	case strings.Contains(s, "CIRES") && hasDigit(s) && n > 30:
		return true
	case garbageTokenRe.MatchString(s):
		return true
	case isoStampRe.MatchString(s) && n > 40:
		return true
	}
	return false
}

func hasDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
