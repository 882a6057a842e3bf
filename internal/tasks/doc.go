// Package tasks runs the client's page-level flows and makes each fallback an explicit, reportable branch.
//
// # Core Operations
//
//  1. [Engine.LoadFeed] : Build the feed
//     - Reads recently seen tags and asks for recommendations
//     - Fetches each recommended video, skipping failures
//     - Falls back to the latest videos, then to the demo catalog ([DegradeFeed])
//     - Reports which of the three produced the result ([FeedSource])
//
//  2. [Engine.LoadLesson] : Open a lesson
//     - Demo ids resolve locally; other ids fall back to the first demo video
//     - Records tags into history and reports whether the lesson is saved
//     - Counts a view for backend videos
//
//  3. [Engine.LoadCourse] : Fetch a course, its videos and the learner's progress
//
//  4. [Engine.MarkComplete] and [Engine.Upload] : Backend writes that need a backend session
//
//  5. [Engine.LoginRemote] and [Engine.RegisterRemote] : Backend auth installing the decoded identity
//
//  6. [Engine.ExportPlaylist] : Write saved lessons to disk in several formats concurrently
//
// # Progress Reporting
//
// Multi-step operations take an optional channel of [ProgressUpdate].
// Updates use select with default to prevent blocking, and a nil channel disables reporting.
//
// # Implementation
//
// [Engine] depends on:
//   - [Backend] : the API gateway (services.Client)
//   - session.Manager : the current identity
//   - repositories.PlaylistRepository and repositories.HistoryRepository : local state
package tasks
