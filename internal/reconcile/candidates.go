package reconcile

import "github.com/edgard/followbot/internal/social"

// UnfollowCandidates returns every followed account that does not follow back,
// in the order of following. Each such account not yet ignored is added to
// ignore; the returned count is how many were added. Accounts already ignored
// are still returned as candidates.
func UnfollowCandidates(followers, following []social.UserID, ignore *IgnoreSet) ([]social.UserID, int) {
	followerSet := NewIDSet(followers)

	var (
		candidates []social.UserID
		added      int
	)
	for _, id := range following {
		if followerSet.Has(id) {
			continue
		}
		if ignore.Add(id) {
			added++
		}
		candidates = append(candidates, id)
	}
	return candidates, added
}

// FollowCandidates returns every follower this account does not follow and
// has not ignored, in the order of followers.
func FollowCandidates(followers, following []social.UserID, ignore *IgnoreSet) []social.UserID {
	followingSet := NewIDSet(following)

	var candidates []social.UserID
	for _, id := range followers {
		if followingSet.Has(id) || ignore.Has(id) {
			continue
		}
		candidates = append(candidates, id)
	}
	return candidates
}
