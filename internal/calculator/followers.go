package calculator

import "DealSentinel/internal/model"

// Followers holds the per-platform follower counts of a profile.
type Followers struct {
	Instagram int64
	Tiktok    int64
	Twitter   int64
}

// Total returns the combined audience across platforms.
func (f Followers) Total() int64 { return f.Instagram + f.Tiktok + f.Twitter }

// ProfileFollowers reads and validates the follower counts of a profile.
func ProfileFollowers(p *model.AthleteProfile) (Followers, error) {
	var f Followers
	var err error
	if f.Instagram, err = p.InstagramFollowers.Count("instagramFollowers"); err != nil {
		return Followers{}, err
	}
	if f.Tiktok, err = p.TiktokFollowers.Count("tiktokFollowers"); err != nil {
		return Followers{}, err
	}
	if f.Twitter, err = p.TwitterFollowers.Count("twitterFollowers"); err != nil {
		return Followers{}, err
	}
	return f, nil
}
