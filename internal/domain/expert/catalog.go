package expert

// デフォルトカタログ。3エキスパートはデータ（指示文・キーワード表・生成パラメータ）
// のみが異なり、エンジンは共通。4つ目のエキスパートは定義を追加登録するだけでよい。

// 標準エキスパートID
const (
	ExpertStory = "story"
	ExpertPoem  = "poem"
	ExpertEmail = "email"
)

const storyInstruction = `You are a creative story writer. Generate engaging, imaginative narratives with vivid descriptions and compelling characters. Focus on storytelling elements like plot, character development, and descriptive language.

Your stories should be:
- Engaging and well-structured
- Rich in descriptive detail
- Character-driven with clear motivations
- Thematically coherent

Generate a story based on the user's request.`

const poemInstruction = `You are a skilled poet. Create beautiful, expressive poetry with attention to rhythm, imagery, and emotional resonance. Use poetic devices like metaphor, simile, and vivid sensory language.

Your poems should be:
- Emotionally resonant
- Rich in imagery and metaphor
- Well-structured with appropriate rhythm
- Stylistically appropriate for the requested type

Generate a poem based on the user's request.`

const emailInstruction = `You are a professional email writer. Generate clear, professional, and appropriate emails based on user requests.

Your emails should be:
- Professional and appropriate in tone
- Clear and concise
- Properly formatted with subject, greeting, body, and closing
- Accurate to the user's specific requirements (dates, recipients, context)

Generate a professional email based on the user's request.`

// DefaultCatalog は標準の3エキスパート定義を優先順位順（story, poem, email）で返す
func DefaultCatalog() []Definition {
	return []Definition{
		{
			ID:          ExpertStory,
			Description: "Creative story and narrative generation with character development and plot structure",
			Capabilities: []string{
				"short stories", "narratives", "fantasy", "sci-fi", "character development",
			},
			Keywords: map[string]int{
				"story": 10, "tale": 8, "narrative": 8, "fiction": 8, "storytelling": 8,
				"once upon": 9, "novel": 6, "fantasy": 6, "sci-fi": 6, "science fiction": 6,
				"adventure": 5, "plot": 5, "mystery": 5, "thriller": 5, "protagonist": 5,
				"fable": 5, "character": 4, "chapter": 4, "villain": 4, "legend": 4,
				"saga": 4, "quest": 4, "magic": 4, "hero": 3, "dragon": 3, "robot": 2,
			},
			Phrases: []string{
				"write a story", "tell me a story", "create a story", "once upon a time",
				"story about", "short story", "write me a tale", "narrative about",
			},
			SystemInstruction: storyInstruction,
			Generation: GenerationConfig{
				Temperature: 0.8,
				MaxTokens:   2000,
				TopP:        0.95,
			},
			Available: true,
		},
		{
			ID:          ExpertPoem,
			Description: "Poetry and verse generation with various styles (haiku, sonnet, free verse)",
			Capabilities: []string{
				"haiku", "sonnets", "free verse", "rhyming poetry", "lyrical composition",
			},
			Keywords: map[string]int{
				"poem": 10, "poetry": 9, "haiku": 9, "sonnet": 9, "verse": 8,
				"free verse": 8, "rhyme": 7, "rhyming": 7, "poetic": 7, "stanza": 7,
				"lyric": 6, "ballad": 6, "limerick": 6, "couplet": 6, "quatrain": 6,
				"iambic": 6, "metaphor": 4, "rhythm": 3,
			},
			Phrases: []string{
				"write a poem", "compose a poem", "create a poem", "write poetry",
				"haiku about", "sonnet about", "poem about",
			},
			SystemInstruction: poemInstruction,
			Generation: GenerationConfig{
				Temperature: 0.9,
				MaxTokens:   1000,
				TopP:        0.95,
			},
			Available: true,
		},
		{
			ID:          ExpertEmail,
			Description: "Professional email and formal communication with proper structure",
			Capabilities: []string{
				"professional emails", "leave requests", "meeting requests", "formal letters",
			},
			Keywords: map[string]int{
				"email": 10, "sick leave": 9, "leave request": 9, "letter": 7,
				"correspondence": 7, "time off": 6, "resignation": 6, "professional": 6,
				"formal": 6, "sincerely": 6, "regards": 6, "vacation": 5, "absence": 5,
				"day off": 5, "follow up": 5, "follow-up": 5, "rsvp": 5, "message": 4,
				"draft": 4, "meeting": 4, "appointment": 4, "manager": 4, "supervisor": 4,
				"business": 4, "apology": 4, "apologize": 4, "complaint": 4,
				"invitation": 4, "inquiry": 4, "compose": 3, "schedule": 3,
				"colleague": 3, "official": 3, "dear": 3, "confirmation": 3,
				"reminder": 3, "request": 3, "write": 2,
			},
			Phrases: []string{
				"write an email", "draft an email", "compose an email", "email to",
				"write a letter", "professional email", "sick leave", "vacation request",
				"leave request",
			},
			SystemInstruction: emailInstruction,
			Generation: GenerationConfig{
				Temperature: 0.5,
				MaxTokens:   2000,
				TopP:        0.9,
			},
			Available: true,
		},
	}
}
