// Copyright © 2024 The wlscope authors

package main

import "github.com/halirutan/wlscope/cmd"

func main() {
	cmd.Execute()
}
