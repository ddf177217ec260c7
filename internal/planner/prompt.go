package planner

import "strings"

const promptTemplate = `You are an investigative assistant. Convert the analyst query into a JSON instruction that
drives a forensic retrieval engine. Never include commentary or markdown fences. Respond with
JSON ONLY that conforms exactly to this schema:
{
    "include_messages": true|false|null,
    "include_calls": true|false|null,
    "include_locations": true|false|null,
    "include_graph": true|false|null,
    "foreign_only": true|false|null,
    "person_names": ["<name>" ...],
    "topics": ["<keyword>" ...],
    "start_date": "<date phrase or ISO YYYY-MM-DD>"|null,
    "end_date": "<date phrase or ISO YYYY-MM-DD>"|null,
    "time_after": "<time like 22:00 or '10 pm'>"|null,
    "result_limit": <integer>|null,
    "location_limit": <integer>|null
}

Guidelines:
- Set an include_* flag to true when the query clearly requests that evidence type.
- Set an include_* flag to false when the query explicitly excludes it. Use null when uncertain.
- Use lower-case keywords for topics.
- Set foreign_only true when the query implies overseas/foreign/international filtering, else false or null.
- Extract specific individuals or phone descriptors into person_names (even partial names).
- For relative requests like "latest" or "last location", set location_limit to 1.
- For explicit limits such as "top 3" or "first five", put the numeric value into result_limit.
- Leave fields null when the query doesn't provide that information.

Query: "{query}"`

// BuildPrompt renders the planning prompt for query
func BuildPrompt(query string) string {
	return strings.Replace(promptTemplate, "{query}", strings.ReplaceAll(query, `"`, `\"`), 1)
}
