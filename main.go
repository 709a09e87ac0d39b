package main

import "github.com/lupasearch/catalog-export/cmd"

func main() {
	cmd.Execute()
}
