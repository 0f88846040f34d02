package model

import "time"

// Space is a DAO space profile document.
// SpaceID, ENSName, DisplayName and Owner are fixed at creation; only the profile
// metadata fields change afterwards.
type Space struct {
	ID               string    `json:"id"`
	SpaceID          string    `json:"spaceId"`
	ENSName          string    `json:"ensName"`
	DisplayName      string    `json:"displayName"`
	Owner            string    `json:"owner"`
	ProfilePicture   string    `json:"profilePicture"`
	ShortDescription string    `json:"shortDescription"`
	TwitterHandle    string    `json:"twitterHandle"`
	Website          string    `json:"website"`
	LongDescription  string    `json:"longDescription"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the mutable fields of a Space.
// An empty ProfilePicture leaves the stored picture untouched.
type ProfileUpdate struct {
	ShortDescription string
	TwitterHandle    string
	Website          string
	LongDescription  string
	ProfilePicture   string
	UpdatedAt        time.Time
}

// Apply copies the update onto s.
func (u ProfileUpdate) Apply(s *Space) {
	s.ShortDescription = u.ShortDescription
	s.TwitterHandle = u.TwitterHandle
	s.Website = u.Website
	s.LongDescription = u.LongDescription
	if u.ProfilePicture != "" {
		s.ProfilePicture = u.ProfilePicture
	}
	s.UpdatedAt = u.UpdatedAt
}
