package main

import "jptraining-backend/cmd/jptraining-cli/cmd"

func main() {
	cmd.Execute()
}
