package model

import "time"

type Channel struct {
	ID             ChannelID
	Name           string
	URL            string
	ThumbnailURL   string
	Description    string
	ManualCategory *Category
	SubscribedAt   time.Time
	LastChecked    time.Time
	Active         bool
}
