// The main package for the render-gateway executable.
package main

import "github.com/JakeFAU/render-gateway/cmd"

func main() {
	cmd.Execute()
}
