package engine

var memorySymbols = []string{
	"sun", "moon", "star", "drum", "baobab", "lion", "kite", "ball",
	"zebra", "guitar",
}

var hangmanWords = []string{
	"intwana", "community", "township", "creative", "showcase",
	"opportunity", "leaderboard", "mentor", "hustle", "kasi",
	"gallery", "rhythm", "project", "future", "network",
}

var questionBank = []Question{
	{Prompt: "What is the capital city of South Africa's executive branch?", Options: []string{"Pretoria", "Cape Town", "Bloemfontein", "Durban"}, Correct: "Pretoria"},
	{Prompt: "How many official languages does South Africa have?", Options: []string{"9", "11", "12", "6"}, Correct: "12"},
	{Prompt: "Which planet is known as the Red Planet?", Options: []string{"Venus", "Mars", "Jupiter", "Mercury"}, Correct: "Mars"},
	{Prompt: "What does HTML stand for?", Options: []string{"HyperText Markup Language", "High Transfer Machine Language", "Home Tool Markup Language", "Hyperlink Text Mode Language"}, Correct: "HyperText Markup Language"},
	{Prompt: "Which ocean lies to the east of South Africa?", Options: []string{"Atlantic", "Indian", "Pacific", "Arctic"}, Correct: "Indian"},
	{Prompt: "What is 7 x 8?", Options: []string{"54", "56", "64", "48"}, Correct: "56"},
	{Prompt: "Who was South Africa's first democratically elected president?", Options: []string{"Thabo Mbeki", "Nelson Mandela", "Jacob Zuma", "F.W. de Klerk"}, Correct: "Nelson Mandela"},
	{Prompt: "Which gas do plants absorb from the air?", Options: []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"}, Correct: "Carbon dioxide"},
	{Prompt: "What is the largest land animal?", Options: []string{"Rhino", "Giraffe", "African elephant", "Hippo"}, Correct: "African elephant"},
	{Prompt: "In which year did South Africa host the FIFA World Cup?", Options: []string{"2006", "2010", "2014", "1995"}, Correct: "2010"},
	{Prompt: "Which key combination usually copies text?", Options: []string{"Ctrl+V", "Ctrl+X", "Ctrl+C", "Ctrl+Z"}, Correct: "Ctrl+C"},
	{Prompt: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, Correct: "6"},
}
