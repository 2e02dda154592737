package linkspam

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/purell"
)

var urlRegex = regexp.MustCompile(`(?:(?:https?|ftp):\/\/)?[\w/\-?=%.]+\.[\w/\-&?=%.]*[\w/\-&?=%]+`)

var trackingParams = []string{
	"_ga",
	"fbclid",
	"gclid",
	"igshid",
	"mc_eid",
	"msclkid",
	"si",
	"utm_campaign",
	"utm_content",
	"utm_id",
	"utm_medium",
	"utm_source",
	"utm_term",
}

// ExtractLinks returns the distinct normalized links of content, in order of
// appearance.
func ExtractLinks(content string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, raw := range urlRegex.FindAllString(content, -1) {
		link, ok := Normalize(raw)
		if !ok || seen[link] {
			continue
		}
		seen[link] = true
		out = append(out, link)
	}
	return out
}

// Normalize aggressively canonicalizes a link so trivial variations of the
// same URL compare equal. The result may not be directly usable.
func Normalize(raw string) (string, bool) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	clean, err := purell.NormalizeURLString(raw, purell.FlagsUsuallySafeGreedy|purell.FlagRemoveDirectoryIndex|purell.FlagRemoveFragment|purell.FlagRemoveDuplicateSlashes|purell.FlagRemoveWWW|purell.FlagSortQuery)
	if err != nil {
		return "", false
	}

	u, err := url.Parse(clean)
	if err != nil || !plausibleHost(u.Hostname()) {
		return "", false
	}
	if u.RawQuery == "" {
		return clean, true
	}
	params := u.Query()
	for _, p := range trackingParams {
		params.Del(p)
	}
	u.RawQuery = params.Encode()
	return u.String(), true
}

// plausibleHost rejects things like "v1.2" or "hola..." that the regex picks
// up from ordinary chat text.
func plausibleHost(host string) bool {
	i := strings.LastIndexByte(host, '.')
	if i <= 0 || i == len(host)-1 {
		return false
	}
	tld := host[i+1:]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
