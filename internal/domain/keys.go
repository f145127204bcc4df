package domain

// Cache keys for a link. The raw short code keys the redirect entry, the
// prefixed keys hold the serialized stats and search views. All three are
// purged together when the sweeper removes an expired link.

func StatsKey(shortCode string) string {
	return "stats:" + shortCode
}

func SearchKey(originalURL string) string {
	return "search:" + originalURL
}
