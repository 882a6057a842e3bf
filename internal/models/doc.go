// Package models defines the domain types shared by the bitesized client, its local stores and the mock backend.
//
// The package contains two categories of types:
//
// 1. Wire types: JSON shapes exchanged with the learning platform backend
//   - [Video] : A short lesson with tags, skill level and engagement counters
//   - [Course] : An ordered list of video ids
//   - [CourseProgress] : Completed/total lesson counts for one learner
//   - [SummaryResponse], [QuizQuestion] : AI study aids for a video
//   - [RecommendationRequest], [RecommendationResponse] : Tag based feed hints
//
// 2. Local state: values persisted in the key-value store
//   - [Session] : The active identity (token, user id, role, display name)
//   - [LocalAccount] : A demo-only account registered on this machine
//   - [PlaylistEntry] : A saved-for-later snapshot of a video
package models
