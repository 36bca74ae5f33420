// Package extract pulls structured earthquake details out of SASMEX entry text.
//
// Nothing here parses XML. CAP payloads arrive embedded in entry content,
// sometimes escaped twice, and are read with tolerant tag patterns that ignore
// namespace prefixes.
package extract

import (
	"html"
	"regexp"
	"strings"
)

// CAP holds the Common Alerting Protocol fields found in an entry body
type CAP struct {
	Effective   string
	Sent        string
	AreaDescs   []string
	Headline    string
	Description string
}

// Empty reports whether no CAP field was found
func (c CAP) Empty() bool {
	return c.Effective == "" && c.Sent == "" && len(c.AreaDescs) == 0 &&
		c.Headline == "" && c.Description == ""
}

func capTag(tag string, allowEmpty bool) *regexp.Regexp {
	body := `[^<]+`
	if allowEmpty {
		body = `[^<]*`
	}
	return regexp.MustCompile(`(?i)<(?:[\w.]+:)?` + tag + `[^>]*>(` + body + `)</(?:[\w.]+:)?` + tag + `>`)
}

var (
	capEffectiveRe   = capTag("effective", false)
	capSentRe        = capTag("sent", false)
	capAreaDescRe    = capTag("areaDesc", false)
	capHeadlineRe    = capTag("headline", false)
	capDescriptionRe = capTag("description", true)
)

// ExtractCAP reads CAP fields from content. ok is false when none are present.
func ExtractCAP(content string) (CAP, bool) {
	if strings.TrimSpace(content) == "" {
		return CAP{}, false
	}

	c := scanCAP(content)
	if c.Empty() && strings.Contains(content, "&lt;") {
		c = scanCAP(html.UnescapeString(content))
	}
	return c, !c.Empty()
}

func scanCAP(content string) CAP {
	c := CAP{
		Effective:   firstGroup(capEffectiveRe, content),
		Sent:        firstGroup(capSentRe, content),
		Headline:    firstGroup(capHeadlineRe, content),
		Description: firstGroup(capDescriptionRe, content),
	}
	for _, m := range capAreaDescRe.FindAllStringSubmatch(content, -1) {
		if v := capValue(m[1]); v != "" {
			c.AreaDescs = append(c.AreaDescs, v)
		}
	}
	return c
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return capValue(m[1])
}

func capValue(raw string) string {
	return strings.TrimSpace(html.UnescapeString(raw))
}
