// Package engine implements the playlist mutation pipeline that runs on every hotkey trigger.
//
// # Mutation Pipeline
//
// [Engine.AddToPlaylists] performs one track mutation in three stages:
//
//  1. Validate and de-duplicate the target playlist ids
//     - Blank ids and the "liked" pseudo-id are dropped
//     - An empty target set is rejected with [shared.ErrInvalidInput]
//
//  2. Save the track to the liked collection
//     - Always attempted, never fails the operation
//     - Outcome recorded as [LikedAdded], [LikedAlready], or [LikedFailed]
//
//  3. Add the track to each playlist concurrently
//     - Each (playlist, track) pair is serialized through a keyed mutex,
//       so concurrent triggers of the same binding produce one write
//     - Membership is resolved before writing: cached verdict, then the
//       bulk contains endpoint, then a bounded page scan
//     - Duplicate rejections from the service count as already present
//
// The call returns an error only when every target fails, wrapping
// [shared.ErrAllPlaylistsFailed] with the per-playlist reasons.
//
// # Membership Resolution
//
// A membership cache remembers which tracks a playlist holds. Positive
// entries are recorded after successful writes and confirmed checks. A page
// scan that covers the whole playlist merges into the entry and marks it
// complete, dated at the scan's start, after which absence is answered
// locally until the entry expires. Merging means positives written while the
// scan ran are kept. Page scans match by URI, track id, and linked-from id so
// relinked regional tracks still count as present.
//
// # Caching
//
// The playlist listing is cached wholesale for [DefaultInfoTTL]; membership
// entries expire individually after [DefaultMembershipTTL]. The daemon calls
// [Engine.Invalidate] on config reload to drop both.
package engine
