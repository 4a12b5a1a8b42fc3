package bot

import (
	"fmt"

	"github.com/nmelo/flickrbot/internal/activity"
	"github.com/nmelo/flickrbot/internal/flickr"
)

// cardFromPhoto renders one photo as a hero card: title, author/date
// subtitle, one image, and a quick reply that echoes the description.
func cardFromPhoto(p flickr.PhotoRecord) activity.Attachment {
	img := p.LargeURL
	if img == "" {
		img = p.ThumbnailURL
	}
	return activity.Attachment{
		ContentType: activity.HeroCardContentType,
		Content: activity.HeroCard{
			Title:    p.Title,
			Subtitle: fmt.Sprintf("Author: %s \n Date taken: %s", p.OwnerName, p.DateTaken),
			Images:   []activity.CardImage{{URL: img}},
			Buttons: []activity.CardAction{
				{
					Type:  activity.ActionTypeIMBack,
					Title: "description",
					Value: p.Description,
				},
			},
		},
	}
}

func cardsFromPhotos(photos []flickr.PhotoRecord) []activity.Attachment {
	cards := make([]activity.Attachment, 0, len(photos))
	for _, p := range photos {
		cards = append(cards, cardFromPhoto(p))
	}
	return cards
}
