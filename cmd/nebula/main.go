package main

import "epic-tech-ai/backend/internal/commands"

func main() {
	commands.Execute()
}
