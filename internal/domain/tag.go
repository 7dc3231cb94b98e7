package domain

import "time"

// Tag is a campaign-attribution label. When CampaignIdentifier is set, inbound
// first messages containing it get the tag attached; when pixel credentials are
// also present a conversion event is reported to the pixel endpoint.
type Tag struct {
	ID                 string
	CompanyID          string
	Name               string
	CampaignIdentifier *string
	MetaPixelID        *string
	MetaAccessToken    *string
	CreatedAt          time.Time
}

// HasPixelCredentials reports whether conversion events can be reported for this tag.
func (t *Tag) HasPixelCredentials() bool {
	return t.MetaPixelID != nil && *t.MetaPixelID != "" &&
		t.MetaAccessToken != nil && *t.MetaAccessToken != ""
}

// ContactTag is the append-only association between a contact and a tag.
type ContactTag struct {
	ContactID string
	TagID     string
	CreatedAt time.Time
}

// Queue groups tickets for human routing. Only referenced by the core for
// default-queue backfill on ticket resolution.
type Queue struct {
	ID        string
	CompanyID string
	Name      string
}
