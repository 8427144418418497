package service

import "strings"

// deviceRule maps a set of case-insensitive substrings (all must match,
// negations prefixed with "!") to a display name. Rules are ordered: mobile
// platforms before desktop, browser-within-OS before bare browser.
type deviceRule struct {
	all  []string
	name string
}

var deviceRules = []deviceRule{
	{[]string{"iphone"}, "iPhone"},
	{[]string{"ipad"}, "iPad"},
	{[]string{"android", "mobile"}, "Android Phone"},
	{[]string{"android"}, "Android Tablet"},

	{[]string{"windows", "edge"}, "Windows PC (Edge)"},
	{[]string{"windows", "chrome"}, "Windows PC (Chrome)"},
	{[]string{"windows", "firefox"}, "Windows PC (Firefox)"},
	{[]string{"windows"}, "Windows PC"},

	{[]string{"macintosh", "safari", "!chrome"}, "Mac (Safari)"},
	{[]string{"mac os", "safari", "!chrome"}, "Mac (Safari)"},
	{[]string{"macintosh", "chrome"}, "Mac (Chrome)"},
	{[]string{"mac os", "chrome"}, "Mac (Chrome)"},
	{[]string{"macintosh", "firefox"}, "Mac (Firefox)"},
	{[]string{"mac os", "firefox"}, "Mac (Firefox)"},
	{[]string{"macintosh"}, "Mac"},
	{[]string{"mac os"}, "Mac"},

	{[]string{"linux", "chrome"}, "Linux PC (Chrome)"},
	{[]string{"linux", "firefox"}, "Linux PC (Firefox)"},
	{[]string{"linux"}, "Linux PC"},

	{[]string{"chrome"}, "Chrome Browser"},
	{[]string{"firefox"}, "Firefox Browser"},
	{[]string{"safari"}, "Safari Browser"},
	{[]string{"edge"}, "Edge Browser"},
}

const unknownDevice = "Unknown Device"

// ClassifyDevice derives a display name from a raw User-Agent string.
// First matching rule wins; empty or unmatched input yields "Unknown Device".
// Display only, never a security input.
func ClassifyDevice(userAgent string) string {
	if userAgent == "" {
		return unknownDevice
	}
	ua := strings.ToLower(userAgent)
	for _, rule := range deviceRules {
		if matchesRule(ua, rule.all) {
			return rule.name
		}
	}
	return unknownDevice
}

func matchesRule(ua string, terms []string) bool {
	for _, term := range terms {
		if negated, ok := strings.CutPrefix(term, "!"); ok {
			if strings.Contains(ua, negated) {
				return false
			}
			continue
		}
		if !strings.Contains(ua, term) {
			return false
		}
	}
	return true
}
