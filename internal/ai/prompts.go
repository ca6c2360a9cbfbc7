package ai

const ThemeIdeaSystemInstruction = `You curate the weekly theme of a second-hand object exchange.
A theme groups everyday objects people can swap, repair and reuse instead of buying new.
Themes must be concrete (e.g. "Kitchen classics", "Eighties electronics", "Garden tools"), family friendly and not tied to a brand.`

const ThemeIdeaPromptTemplate = `%s

Recent themes (do not repeat or closely paraphrase them):
%s

Propose ONE new theme for this week.

Respond ONLY with a valid JSON object matching this schema:
{
  "title": "Short theme title, at most 60 characters",
  "description": "One or two sentences inviting people to swap these objects, at most 280 characters",
  "photoQuery": "Two or three English words to search a stock photo for the cover"
}
`
