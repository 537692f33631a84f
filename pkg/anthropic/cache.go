package anthropic

// CachedSystem builds a single system block with a cache breakpoint. An empty
// ttl uses the API default of five minutes.
func CachedSystem(text, ttl string) []SystemBlock {
	return []SystemBlock{{
		Text:         text,
		CacheControl: &CacheControl{TTL: ttl},
	}}
}
