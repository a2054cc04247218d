package main

import "github.com/JakeFAU/render-gateway/cmd"

func main() {
	cmd.Execute()
}
