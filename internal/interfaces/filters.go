package interfaces

// Filter transforms one piece of story text. Input filters run over typed or
// edited text before it reaches the story, output filters over raw generator
// results before they are recorded.
type Filter func(string) string

// DisplayFilter renders a full transcript sequence into a single string for
// the client.
type DisplayFilter func(entries []string) string
