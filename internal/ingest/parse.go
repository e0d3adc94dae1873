package ingest

import (
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/walfie-raid/petronel/internal/model"
)

// GameAppSource is the exact HTML anchor tag the game client stamps on
// every tweet it posts via the in-app "request help" button. Tweets
// from any other client are rejected even when their body matches one
// of the raid regexes below, since the daily auto-refresh tweet (posted
// via the web client) has a lookalike body.
//
// If this string ever changes upstream, every tweet will be rejected;
// it is exposed as a constant for exactly that reason.
const GameAppSource = `<a href="http://granbluefantasy.jp/" rel="nofollow">グランブルー ファンタジー</a>`

// createdAtLayout is Go's reference-time spelling of the upstream
// timestamp format "%a %b %e %H:%M:%S %z %Y".
const createdAtLayout = "Mon Jan _2 15:04:05 -0700 2006"

var (
	// Only the lead text may span lines; boss and url are single-line.
	japaneseRaid = regexp.MustCompile(`(?P<text>(?s:.*))(?P<id>[0-9A-F]{8}) :参戦ID\n参加者募集！\n(?P<boss>.+)\n?(?P<url>.*)`)
	englishRaid  = regexp.MustCompile(`(?P<text>(?s:.*))(?P<id>[0-9A-F]{8}) :Battle ID\nI need backup!\n(?P<boss>.+)\n?(?P<url>.*)`)
	imageURLForm = regexp.MustCompile(`^https?://[^ ]+$`)
)

// Parse applies the acceptance gate to tweet and returns the extracted
// Raid, or ok=false if the tweet is rejected. Rejections are silent:
// there is no error value, only a boolean, matching §7's "parse
// rejection is not an error to callers."
func Parse(tweet Tweet) (model.Raid, bool) {
	if tweet.Source != GameAppSource {
		return model.Raid{}, false
	}

	lang, match, ok := matchRaidText(tweet.Text)
	if !ok {
		return model.Raid{}, false
	}

	bossName := strings.TrimSpace(match["boss"])
	if strings.Contains(bossName, "http") {
		return model.Raid{}, false
	}

	url := match["url"]
	if url != "" && !imageURLForm.MatchString(url) {
		return model.Raid{}, false
	}

	bossName = decodeHTMLIfNeeded(bossName)

	text := strings.TrimSpace(match["text"])
	text = decodeHTMLIfNeeded(text)

	createdAt, err := time.Parse(createdAtLayout, tweet.CreatedAt)
	if err != nil {
		return model.Raid{}, false
	}

	raid := model.Raid{
		ID:            strings.TrimSpace(match["id"]),
		TweetID:       tweet.ID,
		UserName:      tweet.User.ScreenName,
		BossName:      model.Intern(bossName),
		CreatedAtText: tweet.CreatedAt,
		CreatedAt:     createdAt,
		Language:      lang,
	}

	if text != "" {
		raid.Text = text
		raid.HasText = true
	}

	if !tweet.User.DefaultProfileImage && !strings.Contains(tweet.User.ProfileImageURLHTTPS, "default_profile") {
		raid.UserImage = tweet.User.ProfileImageURLHTTPS
		raid.HasUserImage = true
	}

	if tweet.Entities.HasMedia {
		raid.ImageURL = model.Intern(tweet.Entities.MediaURL)
	}

	return raid, true
}

// matchRaidText tries the Japanese form then the English form and
// returns the named capture groups of whichever matched, or ok=false
// if neither regex accepted the text.
func matchRaidText(text string) (model.Language, map[string]string, bool) {
	if groups, ok := namedGroups(japaneseRaid, text); ok {
		return model.Japanese, groups, true
	}
	if groups, ok := namedGroups(englishRaid, text); ok {
		return model.English, groups, true
	}
	return 0, nil, false
}

func namedGroups(re *regexp.Regexp, text string) (map[string]string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return nil, false
	}
	out := make(map[string]string, len(m))
	for i, name := range re.SubexpNames() {
		if name == "" {
			continue
		}
		out[name] = m[i]
	}
	return out, true
}

func decodeHTMLIfNeeded(s string) string {
	if strings.Contains(s, "&") {
		return html.UnescapeString(s)
	}
	return s
}
