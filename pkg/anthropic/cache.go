package anthropic

// BuildCachedSystemBlocks returns a single system block carrying a cache
// breakpoint. The classifier sends the same target prompt for every tile of a
// sweep, so the prompt is written to the cache once and read afterwards.
// An empty ttl uses the API default of five minutes.
func BuildCachedSystemBlocks(text, ttl string) []SystemBlock {
	return []SystemBlock{
		{
			Text: text,
			CacheControl: &CacheControl{
				TTL: ttl,
			},
		},
	}
}
