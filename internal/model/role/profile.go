package role

// Profile captures what the chat widget shows for a role before any input.
type Profile struct {
	Role            Role     `json:"role"`
	Title           string   `json:"title"`
	Greeting        string   `json:"greeting"`
	SampleQuestions []string `json:"sampleQuestions"`
}

const greetingPrefix = "Hello! I'm your intelligent assistant. "

const greetingSuffix = " How can I assist you today?"

// Seed provides the two widget profiles.
func Seed() []Profile {
	return []Profile{
		{
			Role:     Patient,
			Title:    "Patient Dashboard",
			Greeting: greetingPrefix + "I'm here to help you with your questions and provide support." + greetingSuffix,
			SampleQuestions: []string{
				"What do my survival statistics mean?",
				"Tell me about side effects",
				"How effective is my treatment?",
				"What should I expect during treatment?",
			},
		},
		{
			Role:     Professional,
			Title:    "Doctor Dashboard",
			Greeting: greetingPrefix + "I can help you with insights and support for your professional needs." + greetingSuffix,
			SampleQuestions: []string{
				"Show me latest treatment outcomes",
				"What are current survival trends?",
				"Analyze patient data patterns",
				"Compare treatment effectiveness",
			},
		},
	}
}
