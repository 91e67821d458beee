// Package youtube holds the built-in catalog for the three YouTube Data API
// resources the pipeline reads: search hits, video details and comment threads.
//
// Everything here is returned as a fresh value on each call, so callers may
// mutate what they get back without affecting later calls.
package youtube

import "time"

// Kind names one resource kind, and doubles as the export table name.
type Kind string

const (
	KindSearch         Kind = "search"
	KindVideos         Kind = "videos"
	KindCommentThreads Kind = "commentThreads"
	// KindReplies is derived from the replies nested inside comment threads.
	KindReplies Kind = "commentThreadsreplies"
)

// Kinds lists every table kind in export order.
func Kinds() []Kind {
	return []Kind{KindSearch, KindVideos, KindCommentThreads, KindReplies}
}

// BaseURL is the public YouTube Data API v3 root.
const BaseURL = "https://www.googleapis.com/youtube/v3"

// Endpoints per fetched resource kind.
const (
	SearchEndpoint         = BaseURL + "/search"
	VideosEndpoint         = BaseURL + "/videos"
	CommentThreadsEndpoint = BaseURL + "/commentThreads"
)

// Query parameters the pipeline injects per call.
const (
	QueryParam     = "q"
	VideoIDParam   = "id"
	ThreadIDParam  = "videoId"
	PageTokenParam = "pageToken"
	APIKeyParam    = "key"
)

// Paths into the API's JSON payloads.
const (
	ItemsPath        = "items"
	NextTokenPath    = "nextPageToken"
	SearchIDPath     = "id.videoId"
	CommentCountPath = "statistics.commentCount"
	TopicsPath       = "topicDetails.topicCategories"
	RepliesPath      = "replies.comments"
	StatisticsKey    = "statistics"
)

// StatisticsFields are normalized to integers after the detail stage.
var StatisticsFields = []string{"viewCount", "likeCount", "favoriteCount", "commentCount"}

// DefaultParams returns the default query parameters for kind. Search bounds
// its publish window to the UTC day containing now.
func DefaultParams(kind Kind, now time.Time) map[string]string {
	switch kind {
	case KindSearch:
		day := now.UTC().Format("2006-01-02")
		return map[string]string{
			"part":              "snippet",
			"type":              "video",
			"maxResults":        "50",
			"relevanceLanguage": "en",
			"publishedAfter":    day + "T00:00:00Z",
			"publishedBefore":   day + "T23:59:59Z",
			"order":             "viewCount",
		}
	case KindVideos:
		return map[string]string{"part": "id,statistics,topicDetails"}
	case KindCommentThreads:
		return map[string]string{"part": "id,replies,snippet", "order": "time"}
	default:
		return map[string]string{}
	}
}

// DefaultColumns returns the fixed column list for kind. The shortened list
// holds last path segments only and is meant for rows whose keys were
// shortened the same way.
func DefaultColumns(kind Kind, shorten bool) []string {
	var cols []string
	if shorten {
		cols = shortColumns[kind]
	} else {
		cols = defaultColumns[kind]
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

var defaultColumns = map[Kind][]string{
	KindSearch: {
		"snippet.thumbnails.medium.height",
		"snippet.channelTitle",
		"snippet.thumbnails.default.url",
		"snippet.thumbnails.high.height",
		"id.videoId",
		"snippet.thumbnails.medium.url",
		"snippet.liveBroadcastContent",
		"snippet.channelId",
		"snippet.publishedAt",
		"snippet.thumbnails.default.width",
		"snippet.thumbnails.default.height",
		"snippet.title",
		"snippet.thumbnails.high.width",
		"id.kind",
		"kind",
		"snippet.thumbnails.medium.width",
		"snippet.publishTime",
		"etag",
		"snippet.description",
		"snippet.thumbnails.high.url",
	},
	KindVideos: {
		"statistics.likeCount",
		"statistics.commentCount",
		"kind",
		"id",
		"statistics.favoriteCount",
		"etag",
		"statistics.viewCount",
		"topicDetails.topicCategories",
	},
	KindCommentThreads: {
		"snippet.topLevelComment.snippet.canRate",
		"snippet.topLevelComment.snippet.textDisplay",
		"snippet.topLevelComment.kind",
		"snippet.topLevelComment.snippet.channelId",
		"snippet.totalReplyCount",
		"snippet.topLevelComment.snippet.authorProfileImageUrl",
		"snippet.topLevelComment.snippet.videoId",
		"snippet.topLevelComment.id",
		"snippet.topLevelComment.snippet.likeCount",
		"snippet.topLevelComment.snippet.publishedAt",
		"id",
		"snippet.topLevelComment.snippet.authorDisplayName",
		"snippet.canReply",
		"snippet.channelId",
		"snippet.topLevelComment.snippet.authorChannelUrl",
		"snippet.topLevelComment.etag",
		"snippet.videoId",
		"kind",
		"snippet.topLevelComment.snippet.authorChannelId.value",
		"snippet.topLevelComment.snippet.textOriginal",
		"etag",
		"snippet.isPublic",
		"snippet.topLevelComment.snippet.updatedAt",
		"snippet.topLevelComment.snippet.viewerRating",
	},
	KindReplies: {
		"kind",
		"id",
		"snippet.authorDisplayName",
		"snippet.authorProfileImageUrl",
		"snippet.textDisplay",
		"snippet.updatedAt",
		"snippet.channelId",
		"snippet.viewerRating",
		"snippet.authorChannelUrl",
		"snippet.authorChannelId.value",
		"snippet.publishedAt",
		"etag",
		"snippet.videoId",
		"snippet.textOriginal",
		"snippet.likeCount",
		"snippet.parentId",
		"snippet.canRate",
	},
}

var shortColumns = map[Kind][]string{
	KindSearch: {
		"liveBroadcastContent", "url", "kind", "channelTitle", "height",
		"title", "description", "etag", "publishTime", "width", "publishedAt",
		"channelId", "videoId",
	},
	KindVideos: {
		"viewCount", "kind", "id", "favoriteCount", "topicCategories", "etag",
		"likeCount", "commentCount",
	},
	KindCommentThreads: {
		"textDisplay", "totalReplyCount", "canReply", "authorDisplayName",
		"authorProfileImageUrl", "viewerRating", "authorChannelUrl",
		"likeCount", "textOriginal", "updatedAt", "id", "channelId", "canRate",
		"kind", "value", "isPublic", "etag", "publishedAt", "videoId",
	},
	KindReplies: {
		"authorProfileImageUrl", "canRate", "kind", "textDisplay", "id",
		"value", "viewerRating", "authorChannelUrl", "etag", "likeCount",
		"textOriginal", "updatedAt", "authorDisplayName", "parentId",
		"publishedAt", "channelId", "videoId",
	},
}
