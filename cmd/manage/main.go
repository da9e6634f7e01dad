package main

import "github.com/Skotchmaster/product_rating/cmd/manage/commands"

func main() {
	commands.Execute()
}
