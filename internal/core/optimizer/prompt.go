package optimizer

const (
	promptPrefix = "Optimize this JavaScript code:\n\n"
	promptSuffix = "\n\nRespond with only the optimized code. Do not include any explanations, " +
		"comments, or formatting such as code blocks or markdown. " +
		"Output only the raw code with easy way to read it and good format."
)

// BuildPrompt embeds the user's code verbatim into the fixed instruction
// template sent to the backend.
func BuildPrompt(code string) string {
	return promptPrefix + code + promptSuffix
}
