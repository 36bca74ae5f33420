package extract

import (
	"regexp"
	"strings"

	"github.com/rajasatyajit/SasmexMonitor/pkg/utils"
)

// DefaultTitle is used when no readable headline can be recovered
const DefaultTitle = "Alerta Sísmica SASMEX"

const (
	maxTitleLen       = 120
	maxHumanTitleLen  = 100
	maxDescriptionLen = 500
)

var humanTitlePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Sismo\s+(?:Moderado|Menor|Mayor|Fuerte)\s+en\s+[^\n.]+`),
	regexp.MustCompile(`(?i)(?:Sismo|Alerta)[^\n.]*en\s+[^\n.]+`),
	regexp.MustCompile(`(?i)Sismo\s+(?:en\s+)?[A-Za-zÀ-ú\s]{10,60}`),
	regexp.MustCompile(`(?i)Alerta\s+S[íi]smica[^\n]{5,80}`),
}

var lineSeparators = regexp.MustCompile(`[\n:;]`)

// HumanTitle recovers a readable headline from content
func HumanTitle(content string) (string, bool) {
	for _, re := range humanTitlePatterns {
		if m := re.FindString(content); m != "" {
			if v := utils.Truncate(strings.TrimSpace(m), maxHumanTitleLen); v != "" {
				return v, true
			}
		}
	}

	for _, line := range lineSeparators.Split(content, -1) {
		line = strings.TrimSpace(line)
		n := utils.RuneLen(line)
		if n < 10 || n > 90 {
			continue
		}
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "sismo") && !strings.Contains(lower, "alerta") {
			continue
		}
		if LooksLikeRawData(line) {
			continue
		}
		return line, true
	}
	return "", false
}

// CleanTitle turns a feed title into a headline fit for display
func CleanTitle(rawTitle, content string) string {
	title := strings.TrimSpace(rawTitle)
	if title == "" {
		return DefaultTitle
	}
	if LooksLikeRawData(title) {
		if v, ok := HumanTitle(content); ok {
			return v
		}
		return DefaultTitle
	}
	return utils.Truncate(title, maxTitleLen)
}

var (
	boilerplateHeaders = []string{"ALERTA SÍSMICA SASMEX", "Sistema de Alerta"}
	urlRe              = regexp.MustCompile(`https?://`)
	machineTokenRe     = regexp.MustCompile(`^[A-Z0-9]{20,}`)
	markupRe           = regexp.MustCompile(`<[^>]*>|&lt;|&gt;`)
)

// CleanDescription returns the first line of content that reads as prose.
// A line shorter than five characters is only used when no longer line
// qualifies. Raw data and markup are never returned.
func CleanDescription(content string) string {
	short := ""
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isBoilerplate(line) || LooksLikeRawData(line) || markupRe.MatchString(line) {
			continue
		}
		n := utils.RuneLen(line)
		if n > 150 {
			continue
		}
		if n < 5 {
			if short == "" {
				short = line
			}
			continue
		}
		return line
	}
	return short
}

func isBoilerplate(line string) bool {
	for _, h := range boilerplateHeaders {
		if utils.HasPrefixFold(line, h) {
			return true
		}
	}
	return urlRe.MatchString(line) || machineTokenRe.MatchString(line)
}

// TruncateHeadline caps a CAP headline at the display title length
func TruncateHeadline(s string) string {
	return utils.Truncate(strings.TrimSpace(s), maxTitleLen)
}

// TruncateDescription caps a CAP description at the display body length
func TruncateDescription(s string) string {
	return utils.Truncate(strings.TrimSpace(s), maxDescriptionLen)
}

// IsIssuingCity reports whether text refers only to Mexico City, where alerts
// are issued from, rather than to an epicenter
func IsIssuingCity(text string) bool {
	t := strings.Trim(utils.FoldAccents(strings.TrimSpace(text)), " .,;:")
	if t == "" {
		return false
	}
	switch {
	case t == "cdmx":
		return true
	case strings.HasPrefix(t, "cdmx "), strings.HasSuffix(t, " cdmx"):
		return true
	case strings.Contains(t, "ciudad de mexico"), strings.Contains(t, "distrito federal"):
		return true
	}
	return false
}
