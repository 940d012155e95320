package driven

// TokenCounter estimates how many model tokens a text occupies
type TokenCounter interface {
	Count(text string) int
}
