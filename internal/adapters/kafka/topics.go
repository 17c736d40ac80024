package kafka

// Topic definitions for Kafka event streaming
const (
	// One message per analysed post, keyed by post id
	TopicSentimentPosts = "sentiment.posts"

	// One summary message per successful run, keyed by run id
	TopicSentimentRuns = "sentiment.runs"
)
