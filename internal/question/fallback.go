package question

// MaxQuestionCount is the largest pack a game can request; the built-in list covers it.
var MaxQuestionCount = len(fallbackQuestions)

var fallbackQuestions = []Question{
	{
		Prompt:       "What is the biggest source of plastic pollution in the ocean?",
		Choices:      []string{"Oil spills", "Fishing gear", "Single-use plastics", "Underwater volcanoes"},
		CorrectIndex: 2,
		Fact:         "Single-use plastics like bags and bottles are a major component of ocean plastic.",
	},
	{
		Prompt:       "What does 'microplastic' mean?",
		Choices:      []string{"Very old plastic", "Plastic with microbes", "Plastic particles smaller than 5mm", "Biodegradable plastic"},
		CorrectIndex: 2,
		Fact:         "Microplastics are tiny plastic fragments under 5mm that persist in ecosystems.",
	},
	{
		Prompt:       "Which marine animal is commonly harmed by plastic bags?",
		Choices:      []string{"Dolphins", "Sea turtles", "Octopus", "Starfish"},
		CorrectIndex: 1,
		Fact:         "Sea turtles mistake bags for jellyfish and can choke on them.",
	},
	{
		Prompt:       "What is a major effect of chemical runoff into coastal waters?",
		Choices:      []string{"More fish diversity", "Algal blooms leading to dead zones", "Cleaner beaches", "Warmer air"},
		CorrectIndex: 1,
		Fact:         "Nutrient runoff creates algal blooms which deplete oxygen, causing 'dead zones'.",
	},
	{
		Prompt:       "Which action reduces ocean pollution the most?",
		Choices:      []string{"Using reusable products", "Planting trees in deserts", "Turning off lights", "Watching ocean documentaries"},
		CorrectIndex: 0,
		Fact:         "Using reusable bottles and bags greatly reduces the plastics entering waterways.",
	},
	{
		Prompt:       "What is 'ghost fishing'?",
		Choices:      []string{"Fishing at night", "Using illegal nets", "Lost gear continuing to catch animals", "A special fish species"},
		CorrectIndex: 2,
		Fact:         "Ghost fishing refers to lost or abandoned fishing gear that keeps trapping marine life.",
	},
	{
		Prompt:       "Where is the Great Pacific Garbage Patch located?",
		Choices:      []string{"Between Hawaii and California", "Off the coast of Norway", "In the Indian Ocean near Madagascar", "Under Antarctic ice"},
		CorrectIndex: 0,
		Fact:         "The patch sits in the North Pacific Gyre, where currents trap floating debris.",
	},
	{
		Prompt:       "Roughly how long can a plastic bottle persist in the ocean?",
		Choices:      []string{"1 year", "10 years", "About 450 years", "It dissolves in weeks"},
		CorrectIndex: 2,
		Fact:         "Plastic bottles break into smaller pieces but can take around 450 years to degrade.",
	},
	{
		Prompt:       "What causes coral bleaching most often?",
		Choices:      []string{"Too much sunlight at night", "Rising water temperatures", "Loud boat engines", "Cold currents"},
		CorrectIndex: 1,
		Fact:         "Heat stress makes corals expel the algae that give them color and food.",
	},
	{
		Prompt:       "Which gas absorbed by seawater makes the ocean more acidic?",
		Choices:      []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Helium"},
		CorrectIndex: 2,
		Fact:         "The ocean absorbs about a quarter of human CO2 emissions, lowering its pH.",
	},
	{
		Prompt:       "What are 'nurdles'?",
		Choices:      []string{"Baby sea snails", "Pre-production plastic pellets", "A type of seaweed", "Floating oil droplets"},
		CorrectIndex: 1,
		Fact:         "Nurdles are lentil-sized plastic pellets that spill during transport and wash up on beaches.",
	},
	{
		Prompt:       "Which everyday item often sheds microfibers into waterways?",
		Choices:      []string{"Glass jars", "Synthetic clothing in the wash", "Wooden spoons", "Paper towels"},
		CorrectIndex: 1,
		Fact:         "Washing polyester and nylon garments releases microfibers that pass through treatment plants.",
	},
}

// Fallback returns the first count built-in questions, cloned and tagged.
func Fallback(count int) []Question {
	if count > len(fallbackQuestions) {
		count = len(fallbackQuestions)
	}
	if count < 0 {
		count = 0
	}
	out := make([]Question, 0, count)
	for _, q := range fallbackQuestions[:count] {
		c := q.Clone()
		c.Source = SourceFallback
		out = append(out, c)
	}
	return out
}
