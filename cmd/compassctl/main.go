package main

import "github.com/codyseavey/cardboard-compass/backend/cmd/compassctl/cmd"

func main() {
	cmd.Execute()
}
