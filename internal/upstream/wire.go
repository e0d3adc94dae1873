package upstream

import (
	"strings"

	"github.com/walfie-raid/petronel/internal/ingest"
)

// wireTweet is the upstream's actual JSON shape for one status
// message (one per line of the stream). internal/ingest.Tweet stays
// free of wire-format concerns, so the adapter owns this mapping.
type wireTweet struct {
	IDStr     string `json:"id_str"`
	CreatedAt string `json:"created_at"`
	Text      string `json:"text"`
	Source    string `json:"source"`

	User struct {
		ScreenName           string `json:"screen_name"`
		DefaultProfileImage  bool   `json:"default_profile_image"`
		ProfileImageURLHTTPS string `json:"profile_image_url_https"`
	} `json:"user"`

	Entities struct {
		Media []struct {
			MediaURLHTTPS string `json:"media_url_https"`
		} `json:"media"`
	} `json:"entities"`
}

func (w wireTweet) toIngestTweet() ingest.Tweet {
	var id int64
	for _, r := range w.IDStr {
		if r < '0' || r > '9' {
			id = 0
			break
		}
		id = id*10 + int64(r-'0')
	}

	tweet := ingest.Tweet{
		ID:        id,
		CreatedAt: w.CreatedAt,
		Text:      w.Text,
		Source:    w.Source,
		User: ingest.TweetUser{
			ScreenName:           w.User.ScreenName,
			DefaultProfileImage:  w.User.DefaultProfileImage,
			ProfileImageURLHTTPS: w.User.ProfileImageURLHTTPS,
		},
	}

	if len(w.Entities.Media) > 0 {
		url := w.Entities.Media[0].MediaURLHTTPS
		if strings.TrimSpace(url) != "" {
			tweet.Entities = ingest.TweetEntities{MediaURL: url, HasMedia: true}
		}
	}

	return tweet
}
