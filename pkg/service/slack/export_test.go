package slack

// Export internal functions for testing
var (
	BuildActivityBlocks = buildActivityBlocks
	ActivityText        = activityText
	TruncateToMaxBytes  = truncateToMaxBytes
)
